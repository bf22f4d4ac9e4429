package strips

import (
	"fmt"
	"strconv"
	"strings"
)

// Qualifier relates a state variable to its value.
type Qualifier int

const (
	EqualTo Qualifier = iota
	NotEqualTo
	GreaterThan
	LessThan
	FuzzyWithin
)

var qualifierNames = [...]string{
	EqualTo:     "equal_to",
	NotEqualTo:  "not_equal_to",
	GreaterThan: "greater_than",
	LessThan:    "less_than",
	FuzzyWithin: "fuzzy_within",
}

func (q Qualifier) String() string {
	if q < 0 || int(q) >= len(qualifierNames) {
		return "Qualifier(" + strconv.Itoa(int(q)) + ")"
	}
	return qualifierNames[q]
}

// ParseQualifier resolves a qualifier name, also accepting the symbolic
// forms "=", "!=", ">", "<" and "~".
func ParseQualifier(s string) (Qualifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "equal_to", "eq", "=", "==", "":
		return EqualTo, nil
	case "not_equal_to", "ne", "!=":
		return NotEqualTo, nil
	case "greater_than", "gt", ">":
		return GreaterThan, nil
	case "less_than", "lt", "<":
		return LessThan, nil
	case "fuzzy_within", "within", "~":
		return FuzzyWithin, nil
	default:
		return EqualTo, fmt.Errorf("unknown qualifier %q", s)
	}
}

// InquiryFunc looks up the live value of a state from its owners. It must
// be a pure read of world state, and must return a value of the state's
// declared type.
type InquiryFunc func(owners []Value) Value

// State is a named, typed, qualified variable about an ordered list of
// owners. A State is not safe for concurrent mutation; clone it before
// handing it to another grounding attempt.
type State struct {
	name      string
	valueType ValueType
	qualifier Qualifier
	value     Value
	owners    []Value
	inquiry   InquiryFunc
}

// NewState creates a State. The value must be accepted by valueType.
func NewState(name string, valueType ValueType, qualifier Qualifier, value Value, owners ...Value) (*State, error) {
	if name == "" {
		return nil, fmt.Errorf("strips: state name is required")
	}
	if !valueType.Accepts(value) {
		return nil, fmt.Errorf("%w: state %s declared %s, got %s %q", ErrTypeMismatch, name, valueType, typeOf(value), Canonical(value))
	}
	for i, o := range owners {
		if o == nil {
			return nil, fmt.Errorf("strips: state %s: owner %d is nil", name, i)
		}
	}
	return &State{
		name:      name,
		valueType: valueType,
		qualifier: qualifier,
		value:     value,
		owners:    append([]Value(nil), owners...),
	}, nil
}

// MustState is NewState that panics on error, for statically known states.
func MustState(name string, valueType ValueType, qualifier Qualifier, value Value, owners ...Value) *State {
	s, err := NewState(name, valueType, qualifier, value, owners...)
	if err != nil {
		panic(err)
	}
	return s
}

// SetInquiry attaches a live lookup. Every subsequent Value call refreshes
// the cached value from it. A nil fn detaches the lookup.
func (s *State) SetInquiry(fn InquiryFunc) *State {
	s.inquiry = fn
	return s
}

// HasInquiry reports whether a live lookup is attached.
func (s *State) HasInquiry() bool { return s.inquiry != nil }

func (s *State) Name() string         { return s.name }
func (s *State) ValueType() ValueType { return s.valueType }
func (s *State) Qualifier() Qualifier { return s.qualifier }

// Owners returns a copy of the owner list.
func (s *State) Owners() []Value {
	return append([]Value(nil), s.owners...)
}

// Value returns the state's value. With a live lookup attached, the lookup
// runs first and overwrites the cached value. A lookup answering nil
// leaves the cached value in place.
func (s *State) Value() Value {
	if s.inquiry != nil {
		v := s.inquiry(s.Owners())
		switch {
		case v == nil:
			// no answer, keep the cached value
		case s.valueType.Accepts(v):
			s.value = v
		default:
			logger().Error("inquiry returned a value of the wrong type",
				"state", s.Key(), "declared", s.valueType.String(), "got", typeOf(v).String())
		}
	}
	return s.value
}

// Assign overwrites the cached value.
func (s *State) Assign(v Value) error {
	if !s.valueType.Accepts(v) {
		return fmt.Errorf("%w: state %s declared %s, got %s", ErrTypeMismatch, s.name, s.valueType, typeOf(v))
	}
	s.value = v
	return nil
}

// SetQualifier changes the qualifier.
func (s *State) SetQualifier(q Qualifier) { s.qualifier = q }

// Clone returns a deep, independent copy. The live lookup is shared.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	return &State{
		name:      s.name,
		valueType: s.valueType,
		qualifier: s.qualifier,
		value:     s.value,
		owners:    append([]Value(nil), s.owners...),
		inquiry:   s.inquiry,
	}
}

// Observation returns an exact (EqualTo) copy of s with no cached value,
// to be read through its live lookup. If the lookup gives no answer the
// observation stays empty and satisfies nothing.
func (s *State) Observation() *State {
	o := s.Clone()
	o.qualifier = EqualTo
	o.value = nil
	return o
}

// IsNumeric reports whether the state's declared type is numeric.
func (s *State) IsNumeric() bool { return s.valueType.IsNumeric() }

// NumericValue returns the value as a float. Fuzzy intervals yield their
// midpoint. Non-numeric states report ErrNotNumeric.
func (s *State) NumericValue() (float64, error) {
	if !s.IsNumeric() {
		return 0, fmt.Errorf("%w: state %s is %s", ErrNotNumeric, s.name, s.valueType)
	}
	return numericOf(normalize(s.valueType, s.Value()))
}

// Key identifies the state variable (not its value): the name followed by
// the canonical owner list, e.g. "distance(robot,kitchen)".
func (s *State) Key() string {
	return StateKey(s.name, s.owners...)
}

// StateKey builds the key of a state variable from its parts.
func StateKey(name string, owners ...Value) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('(')
	for i, o := range owners {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Canonical(o))
	}
	b.WriteByte(')')
	return b.String()
}

// SameVariable reports whether s and other describe the same variable.
func (s *State) SameVariable(other *State) bool {
	if s.name != other.name || len(s.owners) != len(other.owners) {
		return false
	}
	for i := range s.owners {
		if Canonical(s.owners[i]) != Canonical(other.owners[i]) {
			return false
		}
	}
	return true
}

func (s *State) String() string {
	return fmt.Sprintf("%s %s %s", s.Key(), s.qualifier, Canonical(s.value))
}
