package strips

import (
	"fmt"
	"sort"
	"strings"
)

// Grounding maps the canonical form of a placeholder to its concrete value.
// It is supplied per planning attempt; partial maps are legal.
type Grounding map[string]Value

// Bind records v as the value of placeholder.
func (g Grounding) Bind(placeholder, v Value) Grounding {
	g[Canonical(placeholder)] = v
	return g
}

// Lookup returns the value bound to placeholder.
func (g Grounding) Lookup(placeholder Value) (Value, bool) {
	v, ok := g[Canonical(placeholder)]
	return v, ok
}

// Container names the part of a rule a placeholder occurrence sits in.
type Container int

const (
	InActor Container = iota
	InActionParameter
	InPreconditionOwner
	InPreconditionValue
	InEffectOwner
	InEffectValue
	InEffectOperand
)

var containerNames = [...]string{
	InActor:             "actor",
	InActionParameter:   "action_parameter",
	InPreconditionOwner: "precondition_owner",
	InPreconditionValue: "precondition_value",
	InEffectOwner:       "effect_owner",
	InEffectValue:       "effect_value",
	InEffectOperand:     "effect_operand",
}

func (c Container) String() string {
	if c < 0 || int(c) >= len(containerNames) {
		return fmt.Sprintf("Container(%d)", int(c))
	}
	return containerNames[c]
}

// Location addresses a single value slot inside a rule. Item is the index
// of the action parameter, precondition or effect; Slot is the owner index
// for the owner containers and 0 otherwise. Locations stay valid across
// Rule.Clone.
type Location struct {
	Container Container
	Item      int
	Slot      int
}

func (l Location) String() string {
	return fmt.Sprintf("%s[%d:%d]", l.Container, l.Item, l.Slot)
}

// ParameterIndex maps the canonical form of each placeholder to every
// location it occurs at.
type ParameterIndex map[string][]Location

// Placeholders returns the indexed placeholders, sorted.
func (idx ParameterIndex) Placeholders() []string {
	out := make([]string, 0, len(idx))
	for k := range idx {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Locations returns the occurrences of placeholder.
func (idx ParameterIndex) Locations(placeholder string) []Location {
	return idx[placeholder]
}

func (idx ParameterIndex) clone() ParameterIndex {
	out := make(ParameterIndex, len(idx))
	for k, v := range idx {
		out[k] = append([]Location(nil), v...)
	}
	return out
}

// groundState clones template and substitutes every placeholder owner and
// a placeholder value. It fails when any placeholder is unbound.
func groundState(template *State, g Grounding) (*State, error) {
	out := template.Clone()
	var missing []string
	for i, o := range out.owners {
		if !IsPlaceholder(o) {
			continue
		}
		v, ok := g.Lookup(o)
		if !ok {
			missing = append(missing, Canonical(o))
			continue
		}
		out.owners[i] = v
	}
	if IsPlaceholder(out.value) {
		v, ok := g.Lookup(out.value)
		switch {
		case !ok:
			missing = append(missing, Canonical(out.value))
		case !out.valueType.Accepts(v):
			return nil, fmt.Errorf("%w: %s bound to %s for %s state %s",
				ErrTypeMismatch, Canonical(out.value), typeOf(v), out.valueType, out.name)
		default:
			out.value = v
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: state %s: %s", ErrUngroundable, template.Key(), strings.Join(missing, ", "))
	}
	return out, nil
}
