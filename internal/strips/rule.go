package strips

import (
	"fmt"
	"sort"
	"strings"
)

// ActionParameter is a typed, possibly unbound, argument of an action.
type ActionParameter struct {
	Name  string
	Type  ValueType
	Value Value
}

// Action describes what the actor does when a rule fires.
type Action struct {
	Name       string
	Parameters []ActionParameter
}

// EffectBinding pairs an effect with the action parameter it results from.
// The parameter may be the zero value when the effect is not tied to one.
type EffectBinding struct {
	Parameter ActionParameter
	Effect    *Effect
}

// CostHeuristic adds Coefficient times the numeric value of State, once
// grounded, to a rule's cost.
type CostHeuristic struct {
	State       *State
	Coefficient float64
}

// Rule is an action schema: an actor performing an action, the states that
// must hold beforehand, the effects of doing it, and a cost model. Rules
// are authored once as templates with placeholders and never mutated while
// planning; Ground returns a substituted copy.
//
// A Rule owns its preconditions, effects and heuristic states.
type Rule struct {
	actor         Value
	action        Action
	preconditions []*State
	effects       []EffectBinding
	baseCost      float64
	heuristics    []CostHeuristic

	recursive bool
	index     ParameterIndex
}

// NewRule creates a rule template without preconditions or effects.
func NewRule(actor Value, action Action, baseCost float64) (*Rule, error) {
	if actor == nil {
		return nil, fmt.Errorf("strips: rule %q: actor is required", action.Name)
	}
	if action.Name == "" {
		return nil, fmt.Errorf("strips: rule action name is required")
	}
	params := make([]ActionParameter, len(action.Parameters))
	for i, p := range action.Parameters {
		if !p.Type.Accepts(p.Value) {
			return nil, fmt.Errorf("%w: rule %s: parameter %s declared %s, got %s",
				ErrTypeMismatch, action.Name, p.Name, p.Type, typeOf(p.Value))
		}
		params[i] = p
	}
	r := &Rule{
		actor:    actor,
		action:   Action{Name: action.Name, Parameters: params},
		baseCost: baseCost,
	}
	r.preprocess()
	return r, nil
}

// AddPrecondition appends a precondition, taking ownership of s.
func (r *Rule) AddPrecondition(s *State) *Rule {
	r.preconditions = append(r.preconditions, s)
	r.preprocess()
	return r
}

// AddEffect appends an effect bound to param, taking ownership of e.
func (r *Rule) AddEffect(param ActionParameter, e *Effect) *Rule {
	r.effects = append(r.effects, EffectBinding{Parameter: param, Effect: e})
	r.preprocess()
	return r
}

// AddCostHeuristic appends a cost heuristic, taking ownership of s.
func (r *Rule) AddCostHeuristic(s *State, coefficient float64) *Rule {
	r.heuristics = append(r.heuristics, CostHeuristic{State: s, Coefficient: coefficient})
	return r
}

// Name returns the action name.
func (r *Rule) Name() string { return r.action.Name }

func (r *Rule) Actor() Value { return r.actor }

func (r *Rule) BaseCost() float64 { return r.baseCost }

// Action returns a copy of the action descriptor.
func (r *Rule) Action() Action {
	return Action{Name: r.action.Name, Parameters: append([]ActionParameter(nil), r.action.Parameters...)}
}

// Preconditions returns the rule's preconditions. They remain owned by the
// rule and must not be mutated.
func (r *Rule) Preconditions() []*State {
	return append([]*State(nil), r.preconditions...)
}

// Effects returns the rule's effects. They remain owned by the rule and
// must not be applied; apply the effects of a Ground result instead.
func (r *Rule) Effects() []EffectBinding {
	return append([]EffectBinding(nil), r.effects...)
}

// CostHeuristics returns the rule's cost heuristics.
func (r *Rule) CostHeuristics() []CostHeuristic {
	return append([]CostHeuristic(nil), r.heuristics...)
}

// IsRecursive reports whether every effect targets the same state name as
// every precondition, e.g. canReach(A,C) from canReach(A,B) and
// canReach(B,C). Only names are compared, so this is an approximation:
// rules over one state family that do not chain are reported too.
func (r *Rule) IsRecursive() bool { return r.recursive }

// Index returns a copy of the parameter index.
func (r *Rule) Index() ParameterIndex { return r.index.clone() }

// Placeholders returns every unbound placeholder in the rule, sorted.
func (r *Rule) Placeholders() []string { return r.index.Placeholders() }

// preprocess rebuilds the derived fields. Every template edit calls it.
func (r *Rule) preprocess() {
	r.buildParameterIndex()
	r.recursive = r.detectRecursive()
}

func (r *Rule) buildParameterIndex() {
	idx := make(ParameterIndex)
	r.walk(func(loc Location, v Value) {
		if IsPlaceholder(v) {
			key := Canonical(v)
			idx[key] = append(idx[key], loc)
		}
	})
	r.index = idx
}

func (r *Rule) detectRecursive() bool {
	if len(r.preconditions) == 0 || len(r.effects) == 0 {
		return false
	}
	for _, e := range r.effects {
		for _, p := range r.preconditions {
			if p.name != e.Effect.target.name {
				return false
			}
		}
	}
	return true
}

// walk visits every value slot covered by the parameter index, in the
// order actor, preconditions, action parameters, effects.
func (r *Rule) walk(fn func(loc Location, v Value)) {
	fn(Location{Container: InActor}, r.actor)
	for i, p := range r.preconditions {
		for j, o := range p.owners {
			fn(Location{Container: InPreconditionOwner, Item: i, Slot: j}, o)
		}
		fn(Location{Container: InPreconditionValue, Item: i}, p.value)
	}
	for i, p := range r.action.Parameters {
		fn(Location{Container: InActionParameter, Item: i}, p.Value)
	}
	for i, b := range r.effects {
		t := b.Effect.target
		for j, o := range t.owners {
			fn(Location{Container: InEffectOwner, Item: i, Slot: j}, o)
		}
		fn(Location{Container: InEffectValue, Item: i}, t.value)
		fn(Location{Container: InEffectOperand, Item: i}, b.Effect.operand)
	}
}

// set writes v into the slot at loc, checking the slot's declared type.
func (r *Rule) set(loc Location, v Value) error {
	switch loc.Container {
	case InActor:
		r.actor = v
		return nil
	case InActionParameter:
		p := &r.action.Parameters[loc.Item]
		if !p.Type.Accepts(v) {
			return fmt.Errorf("%w: parameter %s declared %s, got %s", ErrTypeMismatch, p.Name, p.Type, typeOf(v))
		}
		p.Value = v
		return nil
	case InPreconditionOwner:
		r.preconditions[loc.Item].owners[loc.Slot] = v
		return nil
	case InPreconditionValue:
		return r.preconditions[loc.Item].Assign(v)
	case InEffectOwner:
		r.effects[loc.Item].Effect.target.owners[loc.Slot] = v
		return nil
	case InEffectValue:
		return r.effects[loc.Item].Effect.target.Assign(v)
	case InEffectOperand:
		e := r.effects[loc.Item].Effect
		if !e.target.valueType.Accepts(v) {
			return fmt.Errorf("%w: operand of %s declared %s, got %s", ErrTypeMismatch, e.target.name, e.target.valueType, typeOf(v))
		}
		e.operand = v
		return nil
	default:
		return fmt.Errorf("strips: unknown location %s", loc)
	}
}

// Clone returns a deep copy of the rule. The parameter index is copied as
// is, since locations do not depend on memory addresses.
func (r *Rule) Clone() *Rule {
	out := &Rule{
		actor:     r.actor,
		action:    r.Action(),
		baseCost:  r.baseCost,
		recursive: r.recursive,
		index:     r.index.clone(),
	}
	out.preconditions = make([]*State, len(r.preconditions))
	for i, p := range r.preconditions {
		out.preconditions[i] = p.Clone()
	}
	out.effects = make([]EffectBinding, len(r.effects))
	for i, b := range r.effects {
		out.effects[i] = EffectBinding{Parameter: b.Parameter, Effect: b.Effect.Clone()}
	}
	out.heuristics = make([]CostHeuristic, len(r.heuristics))
	for i, h := range r.heuristics {
		out.heuristics[i] = CostHeuristic{State: h.State.Clone(), Coefficient: h.Coefficient}
	}
	return out
}

// Unbound returns the placeholders of the rule that g does not bind.
func (r *Rule) Unbound(g Grounding) []string {
	var out []string
	for _, k := range r.index.Placeholders() {
		if _, ok := g[k]; !ok {
			out = append(out, k)
		}
	}
	return out
}

// Ground returns a copy of the rule with every placeholder substituted
// from g, using the parameter index. It fails with ErrUngroundable when a
// placeholder is unbound. Cost heuristic states are grounded where g
// covers them and left as templates otherwise.
func (r *Rule) Ground(g Grounding) (*Rule, error) {
	if missing := r.Unbound(g); len(missing) > 0 {
		return nil, fmt.Errorf("%w: rule %s: %s", ErrUngroundable, r.action.Name, strings.Join(missing, ", "))
	}
	out := r.Clone()
	keys := make([]string, 0, len(out.index))
	for k := range out.index {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, loc := range out.index[k] {
			if err := out.set(loc, g[k]); err != nil {
				return nil, fmt.Errorf("rule %s: grounding %s at %s: %w", r.action.Name, k, loc, err)
			}
		}
	}
	for i, h := range out.heuristics {
		if gs, err := groundState(h.State, g); err == nil {
			out.heuristics[i].State = gs
		}
	}
	out.preprocess()
	return out, nil
}

// GroundState returns a clone of template with its placeholder owners and
// value substituted from g. It returns false when any placeholder is
// unbound; a partially grounded state is never returned.
func (r *Rule) GroundState(template *State, g Grounding) (*State, bool) {
	s, err := groundState(template, g)
	if err != nil {
		logger().Debug("state not groundable", "rule", r.action.Name, "error", err)
		return nil, false
	}
	return s, true
}

// IsFullyGrounded reports whether the actor, the action parameters, the
// preconditions and the effects (targets and operands) are free of
// placeholders.
func (r *Rule) IsFullyGrounded() bool {
	grounded := true
	r.walk(func(_ Location, v Value) {
		if grounded && IsPlaceholder(v) {
			grounded = false
		}
	})
	return grounded
}

// Cost returns the base cost plus, for each heuristic, its coefficient
// times the numeric value of its state grounded by g. A heuristic state
// that is not numeric (ErrNotNumeric) or cannot be grounded
// (ErrUngroundable) fails the whole computation; it is never treated as
// zero cost.
func (r *Rule) Cost(g Grounding) (float64, error) {
	total := r.baseCost
	for _, h := range r.heuristics {
		if !h.State.IsNumeric() {
			err := fmt.Errorf("%w: rule %s: cost state %s is %s", ErrNotNumeric, r.action.Name, h.State.Key(), h.State.valueType)
			logger().Error("rule cost state is not numeric", "rule", r.action.Name, "state", h.State.Key())
			return 0, err
		}
		gs, err := groundState(h.State, g)
		if err != nil {
			logger().Debug("rule cost state cannot be grounded", "rule", r.action.Name, "state", h.State.Key(), "error", err)
			return 0, fmt.Errorf("rule %s: %w", r.action.Name, err)
		}
		v, err := gs.NumericValue()
		if err != nil {
			logger().Debug("rule cost state has no numeric value", "rule", r.action.Name, "state", gs.Key(), "error", err)
			return 0, fmt.Errorf("rule %s: cost state %s: %w", r.action.Name, gs.Key(), err)
		}
		total += v * h.Coefficient
	}
	return total, nil
}

func (r *Rule) String() string {
	var b strings.Builder
	b.WriteString(r.action.Name)
	b.WriteByte('(')
	for i, p := range r.action.Parameters {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(Canonical(p.Value))
	}
	b.WriteString(") by ")
	b.WriteString(Canonical(r.actor))
	return b.String()
}
