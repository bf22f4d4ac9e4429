// Package domain loads planning domains from YAML files: the objects
// placeholders range over, the facts of the world, live inquiries, rule
// templates and goals.
//
// A minimal domain:
//
//	objects:
//	  entity: [robot, hall, kitchen]
//	facts:
//	  - {state: at, type: entity, owners: [robot], value: hall}
//	rules:
//	  - name: move
//	    actor: $entity_var0
//	    parameters:
//	      - {name: to, type: entity, value: $entity_var1}
//	    effects:
//	      - {parameter: to, state: at, type: entity, owners: [$entity_var0], operator: assign, operand: $entity_var1}
//	goals:
//	  - {state: at, type: entity, owners: [robot], value: kitchen}
//
// Owners are entities unless owner_types says otherwise. Values are written
// in their canonical form, placeholders included.
package domain

import (
	"errors"
	"fmt"
	"os"
	"sort"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/inquiry"
	"github.com/joeycumines/strips/internal/pabt"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/joeycumines/strips/internal/world"
	"gopkg.in/yaml.v3"
)

// ErrInvalid is wrapped by every error describing a malformed domain.
var ErrInvalid = errors.New("invalid domain")

// File is the YAML document layout.
type File struct {
	Objects   map[string][]string `yaml:"objects"`
	Facts     []StateSpec         `yaml:"facts"`
	Inquiries []InquirySpec       `yaml:"inquiries"`
	Rules     []RuleSpec          `yaml:"rules"`
	Goals     []GoalSpec          `yaml:"goals"`
}

// StateSpec describes a state. Qualifier defaults to equal_to.
type StateSpec struct {
	State      string   `yaml:"state"`
	Type       string   `yaml:"type"`
	Qualifier  string   `yaml:"qualifier"`
	Value      string   `yaml:"value"`
	Owners     []string `yaml:"owners"`
	OwnerTypes []string `yaml:"owner_types"`
}

// InquirySpec attaches a live lookup to every rule precondition on State.
// Exactly one of Expr and Script is set.
type InquirySpec struct {
	State  string `yaml:"state"`
	Type   string `yaml:"type"`
	Expr   string `yaml:"expr"`
	Script string `yaml:"script"`
}

type ParameterSpec struct {
	Name  string `yaml:"name"`
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

// EffectSpec is an effect bound to the action parameter named Parameter,
// which may be empty.
type EffectSpec struct {
	StateSpec `yaml:",inline"`
	Parameter string `yaml:"parameter"`
	Operator  string `yaml:"operator"`
	Operand   string `yaml:"operand"`
}

type CostSpec struct {
	StateSpec   `yaml:",inline"`
	Coefficient float64 `yaml:"coefficient"`
}

type RuleSpec struct {
	Name          string          `yaml:"name"`
	Actor         string          `yaml:"actor"`
	ActorType     string          `yaml:"actor_type"`
	BaseCost      float64         `yaml:"base_cost"`
	Parameters    []ParameterSpec `yaml:"parameters"`
	Preconditions []StateSpec     `yaml:"preconditions"`
	Effects       []EffectSpec    `yaml:"effects"`
	Cost          []CostSpec      `yaml:"cost"`
}

// GoalSpec is a goal state, or, with Expr set, a condition on the state's
// variable evaluated by an expression over value and qualifier.
type GoalSpec struct {
	StateSpec `yaml:",inline"`
	Expr      string `yaml:"expr"`
}

// Goal is a loaded goal.
type Goal struct {
	State *strips.State
	Expr  string
}

// Domain is a loaded planning domain.
type Domain struct {
	Name    string
	World   *world.Snapshot
	Rules   []*strips.Rule
	Goals   []Goal
	Objects pabt.Objects
}

// Load reads and parses the domain file at path.
func Load(path string) (*Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read domain: %w", err)
	}
	return Parse(path, data)
}

// Parse parses a domain document. name is used in error messages.
func Parse(name string, data []byte) (*Domain, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("domain %s: %w: %v", name, ErrInvalid, err)
	}
	d, err := f.Build(name)
	if err != nil {
		return nil, fmt.Errorf("domain %s: %w", name, err)
	}
	return d, nil
}

// Build turns the document into a Domain.
func (f *File) Build(name string) (*Domain, error) {
	d := &Domain{
		Name:    name,
		World:   new(world.Snapshot),
		Objects: make(pabt.Objects),
	}

	typeNames := make([]string, 0, len(f.Objects))
	for t := range f.Objects {
		typeNames = append(typeNames, t)
	}
	sort.Strings(typeNames)
	for _, tn := range typeNames {
		t, err := parseType(tn)
		if err != nil {
			return nil, fmt.Errorf("objects: %w", err)
		}
		for _, text := range f.Objects[tn] {
			v, err := strips.ParseValue(t, text)
			if err != nil {
				return nil, fmt.Errorf("objects %s: %w", tn, err)
			}
			if strips.IsPlaceholder(v) {
				return nil, fmt.Errorf("objects %s: %w: placeholder %s", tn, ErrInvalid, text)
			}
			d.Objects[t] = append(d.Objects[t], v)
		}
	}

	for i, spec := range f.Facts {
		s, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("fact %d: %w", i, err)
		}
		if strips.IsPlaceholder(s.Value()) {
			return nil, fmt.Errorf("fact %s: %w: value is a placeholder", s.Key(), ErrInvalid)
		}
		d.World.Set(s)
	}

	inquiries := make(map[string]inquirySource, len(f.Inquiries))
	for _, spec := range f.Inquiries {
		src, err := spec.build(d.World)
		if err != nil {
			return nil, fmt.Errorf("inquiry %s: %w", spec.State, err)
		}
		if _, dup := inquiries[spec.State]; dup {
			return nil, fmt.Errorf("inquiry %s: %w: declared twice", spec.State, ErrInvalid)
		}
		inquiries[spec.State] = src
	}

	seen := make(map[string]bool, len(f.Rules))
	for _, spec := range f.Rules {
		if seen[spec.Name] {
			return nil, fmt.Errorf("rule %q: %w: declared twice", spec.Name, ErrInvalid)
		}
		seen[spec.Name] = true
		r, err := spec.build(inquiries)
		if err != nil {
			return nil, fmt.Errorf("rule %q: %w", spec.Name, err)
		}
		d.Rules = append(d.Rules, r)
	}

	for i, spec := range f.Goals {
		s, err := spec.StateSpec.buildWith(spec.Expr != "")
		if err != nil {
			return nil, fmt.Errorf("goal %d: %w", i, err)
		}
		d.Goals = append(d.Goals, Goal{State: s, Expr: spec.Expr})
	}
	return d, nil
}

// Rule returns the rule named name, or nil.
func (d *Domain) Rule(name string) *strips.Rule {
	for _, r := range d.Rules {
		if r.Name() == name {
			return r
		}
	}
	return nil
}

// Conditions returns the goals as planner conditions. Plain goals measure
// progress from the fact the world holds now.
func (d *Domain) Conditions() pabtpkg.IConditions {
	out := make(pabtpkg.IConditions, 0, len(d.Goals))
	for _, g := range d.Goals {
		if g.Expr != "" {
			out = append(out, pabt.NewExprCondition(g.State, g.Expr))
			continue
		}
		origin, _ := d.World.Lookup(g.State)
		out = append(out, pabt.NewCondition(g.State, origin))
	}
	return out
}

// Planner returns a planner state over the domain's world generating
// actions from its rules.
func (d *Domain) Planner() *pabt.State {
	s := pabt.NewState(d.World)
	s.SetActionGenerator(pabt.RuleGenerator(d.Rules, d.World, d.Objects))
	return s
}

func parseType(name string) (strips.ValueType, error) {
	t, err := strips.ParseValueType(name)
	if err != nil {
		return strips.TypeInvalid, fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return t, nil
}

func (s StateSpec) build() (*strips.State, error) { return s.buildWith(false) }

// buildWith builds the state; with blank set an empty value stands for the
// zero value of the type, for states whose value is not read.
func (s StateSpec) buildWith(blank bool) (*strips.State, error) {
	if s.State == "" {
		return nil, fmt.Errorf("%w: state name is required", ErrInvalid)
	}
	t, err := parseType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w", s.State, err)
	}
	q, err := strips.ParseQualifier(s.Qualifier)
	if err != nil {
		return nil, fmt.Errorf("state %s: %w: %v", s.State, ErrInvalid, err)
	}
	if len(s.OwnerTypes) > len(s.Owners) {
		return nil, fmt.Errorf("state %s: %w: more owner types than owners", s.State, ErrInvalid)
	}
	owners := make([]strips.Value, len(s.Owners))
	for i, text := range s.Owners {
		ot := strips.TypeEntity
		if i < len(s.OwnerTypes) {
			if ot, err = parseType(s.OwnerTypes[i]); err != nil {
				return nil, fmt.Errorf("state %s: owner %d: %w", s.State, i, err)
			}
		}
		if owners[i], err = strips.ParseValue(ot, text); err != nil {
			return nil, fmt.Errorf("state %s: owner %d: %w", s.State, i, err)
		}
	}
	var v strips.Value
	if blank && s.Value == "" {
		v = zeroValue(t)
	} else if v, err = strips.ParseValue(t, s.Value); err != nil {
		return nil, fmt.Errorf("state %s: %w", s.State, err)
	}
	return strips.NewState(s.State, t, q, v, owners...)
}

func zeroValue(t strips.ValueType) strips.Value {
	switch t {
	case strips.TypeBoolean:
		return strips.Bool(false)
	case strips.TypeInt:
		return strips.Int(0)
	case strips.TypeFloat:
		return strips.Float(0)
	case strips.TypeString:
		return strips.String("")
	case strips.TypeFuzzyIntervalInt:
		return strips.FuzzyIntervalInt{}
	case strips.TypeFuzzyIntervalFloat:
		return strips.FuzzyIntervalFloat{}
	case strips.TypeVector:
		return strips.Vector{}
	case strips.TypeRotation:
		return strips.Rotation{}
	default:
		return strips.Entity{}
	}
}

type inquirySource struct {
	valueType strips.ValueType
	fn        strips.InquiryFunc
}

func (s InquirySpec) build(w *world.Snapshot) (inquirySource, error) {
	t, err := parseType(s.Type)
	if err != nil {
		return inquirySource{}, err
	}
	switch {
	case s.Expr != "" && s.Script != "":
		return inquirySource{}, fmt.Errorf("%w: expr and script are exclusive", ErrInvalid)
	case s.Expr != "":
		e, err := inquiry.NewExpr(s.Expr, t, w)
		if err != nil {
			return inquirySource{}, err
		}
		return inquirySource{valueType: t, fn: e.Func()}, nil
	case s.Script != "":
		sc, err := inquiry.NewScript(s.State, s.Script, t, w)
		if err != nil {
			return inquirySource{}, err
		}
		return inquirySource{valueType: t, fn: sc.Func()}, nil
	default:
		return inquirySource{}, fmt.Errorf("%w: expr or script is required", ErrInvalid)
	}
}

func (s RuleSpec) build(inquiries map[string]inquirySource) (*strips.Rule, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("%w: rule name is required", ErrInvalid)
	}
	actorType := s.ActorType
	if actorType == "" {
		actorType = strips.TypeEntity.String()
	}
	at, err := parseType(actorType)
	if err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}
	actor, err := strips.ParseValue(at, s.Actor)
	if err != nil {
		return nil, fmt.Errorf("actor: %w", err)
	}

	action := strips.Action{Name: s.Name}
	params := make(map[string]strips.ActionParameter, len(s.Parameters))
	for _, p := range s.Parameters {
		pt, err := parseType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		v, err := strips.ParseValue(pt, p.Value)
		if err != nil {
			return nil, fmt.Errorf("parameter %s: %w", p.Name, err)
		}
		ap := strips.ActionParameter{Name: p.Name, Type: pt, Value: v}
		params[p.Name] = ap
		action.Parameters = append(action.Parameters, ap)
	}

	r, err := strips.NewRule(actor, action, s.BaseCost)
	if err != nil {
		return nil, err
	}

	for _, spec := range s.Preconditions {
		p, err := spec.build()
		if err != nil {
			return nil, fmt.Errorf("precondition: %w", err)
		}
		if src, ok := inquiries[p.Name()]; ok {
			if src.valueType != p.ValueType() {
				return nil, fmt.Errorf("precondition %s: %w: inquiry answers %s", p.Key(), strips.ErrTypeMismatch, src.valueType)
			}
			p.SetInquiry(src.fn)
		}
		r.AddPrecondition(p)
	}

	for _, spec := range s.Effects {
		target, err := spec.StateSpec.buildWith(true)
		if err != nil {
			return nil, fmt.Errorf("effect: %w", err)
		}
		operator := spec.Operator
		if operator == "" {
			operator = strips.OpAssign.String()
		}
		op, err := strips.ParseOperator(operator)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w: %v", target.Key(), ErrInvalid, err)
		}
		var operand strips.Value
		if spec.Operand != "" {
			if operand, err = strips.ParseValue(target.ValueType(), spec.Operand); err != nil {
				return nil, fmt.Errorf("effect %s: operand: %w", target.Key(), err)
			}
		}
		e, err := strips.NewEffect(target, op, operand)
		if err != nil {
			return nil, fmt.Errorf("effect %s: %w", target.Key(), err)
		}
		param, ok := params[spec.Parameter]
		if spec.Parameter != "" && !ok {
			return nil, fmt.Errorf("effect %s: %w: unknown parameter %q", target.Key(), ErrInvalid, spec.Parameter)
		}
		r.AddEffect(param, e)
	}

	for _, spec := range s.Cost {
		h, err := spec.StateSpec.build()
		if err != nil {
			return nil, fmt.Errorf("cost: %w", err)
		}
		if !h.IsNumeric() {
			return nil, fmt.Errorf("cost %s: %w", h.Key(), strips.ErrNotNumeric)
		}
		r.AddCostHeuristic(h, spec.Coefficient)
	}
	return r, nil
}
