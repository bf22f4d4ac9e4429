package strips

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ValueType is the declared type code of a state variable.
type ValueType int

const (
	// TypeInvalid is the zero value and is never accepted by a State.
	TypeInvalid ValueType = iota
	TypeBoolean
	TypeInt
	TypeFloat
	TypeString
	TypeFuzzyIntervalInt
	TypeFuzzyIntervalFloat
	TypeVector
	TypeRotation
	TypeEntity
)

var valueTypeNames = [...]string{
	TypeInvalid:            "invalid",
	TypeBoolean:            "boolean",
	TypeInt:                "int",
	TypeFloat:              "float",
	TypeString:             "string",
	TypeFuzzyIntervalInt:   "fuzzy_interval_int",
	TypeFuzzyIntervalFloat: "fuzzy_interval_float",
	TypeVector:             "vector",
	TypeRotation:           "rotation",
	TypeEntity:             "entity",
}

// String returns the lower snake case name of the type code.
func (t ValueType) String() string {
	if t < 0 || int(t) >= len(valueTypeNames) {
		return "ValueType(" + strconv.Itoa(int(t)) + ")"
	}
	return valueTypeNames[t]
}

// IsNumeric reports whether values of this type take part in the numeric
// satisfaction calculus (int, float and both fuzzy interval kinds).
func (t ValueType) IsNumeric() bool {
	switch t {
	case TypeInt, TypeFloat, TypeFuzzyIntervalInt, TypeFuzzyIntervalFloat:
		return true
	default:
		return false
	}
}

// ParseValueType resolves a type name as produced by ValueType.String.
// A few short aliases (bool, str, fuzzy_int, fuzzy_float) are accepted.
func ParseValueType(name string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "boolean", "bool":
		return TypeBoolean, nil
	case "int", "integer":
		return TypeInt, nil
	case "float", "double":
		return TypeFloat, nil
	case "string", "str":
		return TypeString, nil
	case "fuzzy_interval_int", "fuzzy_int":
		return TypeFuzzyIntervalInt, nil
	case "fuzzy_interval_float", "fuzzy_float":
		return TypeFuzzyIntervalFloat, nil
	case "vector":
		return TypeVector, nil
	case "rotation":
		return TypeRotation, nil
	case "entity":
		return TypeEntity, nil
	default:
		return TypeInvalid, fmt.Errorf("unknown value type %q", name)
	}
}

// Value is the closed set of values a state variable can hold. The set is
// sealed: only the types declared in this package implement it.
type Value interface {
	// Type returns the variant's type code.
	Type() ValueType
	// String returns the canonical string form, see Canonical.
	String() string

	isValue()
}

type (
	// Bool is a boolean value.
	Bool bool
	// Int is an integer value.
	Int int
	// Float is a floating point value.
	Float float64
	// String is a string value. Boolean, integer and float state variables
	// may also hold their textual encoding as a String, and unbound
	// placeholders of those kinds are Strings too.
	String string
)

// FuzzyIntervalInt is a closed integer range used as a tolerant value.
type FuzzyIntervalInt struct {
	Low, High int
}

// FuzzyIntervalFloat is a closed float range used as a tolerant value.
type FuzzyIntervalFloat struct {
	Low, High float64
}

// Vector is a position in world space.
type Vector struct {
	X, Y, Z float64
}

// Rotation is an orientation in world space.
type Rotation struct {
	Pitch, Roll, Yaw float64
}

// Entity references an object in the world by its identifier.
type Entity struct {
	ID   string
	Kind string
}

func (Bool) Type() ValueType               { return TypeBoolean }
func (Int) Type() ValueType                { return TypeInt }
func (Float) Type() ValueType              { return TypeFloat }
func (String) Type() ValueType             { return TypeString }
func (FuzzyIntervalInt) Type() ValueType   { return TypeFuzzyIntervalInt }
func (FuzzyIntervalFloat) Type() ValueType { return TypeFuzzyIntervalFloat }
func (Vector) Type() ValueType             { return TypeVector }
func (Rotation) Type() ValueType           { return TypeRotation }
func (Entity) Type() ValueType             { return TypeEntity }

func (Bool) isValue()               {}
func (Int) isValue()                {}
func (Float) isValue()              {}
func (String) isValue()             {}
func (FuzzyIntervalInt) isValue()   {}
func (FuzzyIntervalFloat) isValue() {}
func (Vector) isValue()             {}
func (Rotation) isValue()           {}
func (Entity) isValue()             {}

func (v Bool) String() string               { return Canonical(v) }
func (v Int) String() string                { return Canonical(v) }
func (v Float) String() string              { return Canonical(v) }
func (v String) String() string             { return string(v) }
func (v FuzzyIntervalInt) String() string   { return Canonical(v) }
func (v FuzzyIntervalFloat) String() string { return Canonical(v) }
func (v Vector) String() string             { return Canonical(v) }
func (v Rotation) String() string           { return Canonical(v) }
func (v Entity) String() string             { return Canonical(v) }

// Contains reports whether v lies inside the interval, boundaries included.
func (r FuzzyIntervalInt) Contains(v int) bool {
	return v >= r.Low && v <= r.High
}

// ContainsInterval reports whether other lies entirely inside r.
func (r FuzzyIntervalInt) ContainsInterval(other FuzzyIntervalInt) bool {
	return r.Contains(other.Low) && r.Contains(other.High)
}

// Float converts the interval to its float form.
func (r FuzzyIntervalInt) Float() FuzzyIntervalFloat {
	return FuzzyIntervalFloat{Low: float64(r.Low), High: float64(r.High)}
}

// Contains reports whether v lies inside the interval, boundaries included.
func (r FuzzyIntervalFloat) Contains(v float64) bool {
	return v >= r.Low && v <= r.High
}

// ContainsInterval reports whether other lies entirely inside r.
func (r FuzzyIntervalFloat) ContainsInterval(other FuzzyIntervalFloat) bool {
	return r.Contains(other.Low) && r.Contains(other.High)
}

// Mid returns the midpoint of the interval.
func (r FuzzyIntervalFloat) Mid() float64 {
	return (r.Low + r.High) / 2
}

// Accepts reports whether v may be stored in a variable declared as t.
//
// Besides an exact variant match, boolean, int and float variables accept a
// String holding their textual encoding ("true", "42", "1.5"), and every
// type accepts an unbound placeholder of its own kind.
func (t ValueType) Accepts(v Value) bool {
	if v == nil {
		return false
	}
	s, isString := v.(String)
	if isString {
		if kind, ok := placeholderKind(s); ok {
			return kind == t
		}
	}
	if v.Type() == t {
		return true
	}
	if isString {
		_, err := decodePrimitive(t, string(s))
		return err == nil
	}
	// entity and vector placeholders are their own variant
	return false
}

// decodePrimitive decodes the textual encoding of a boolean, int or float.
func decodePrimitive(t ValueType, s string) (Value, error) {
	switch t {
	case TypeBoolean:
		switch s {
		case "true":
			return Bool(true), nil
		case "false":
			return Bool(false), nil
		}
		return nil, fmt.Errorf("%w: %q is not a boolean", ErrTypeMismatch, s)
	case TypeInt:
		i, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not an int", ErrTypeMismatch, s)
		}
		return Int(i), nil
	case TypeFloat:
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a float", ErrTypeMismatch, s)
		}
		return Float(f), nil
	default:
		return nil, fmt.Errorf("%w: %s has no string encoding", ErrTypeMismatch, t)
	}
}

// normalize converts string-encoded primitives to their typed variant for
// the declared type t. Placeholders and already-typed values are returned
// unchanged.
func normalize(t ValueType, v Value) Value {
	s, ok := v.(String)
	if !ok || t == TypeString || IsPlaceholder(s) {
		return v
	}
	if d, err := decodePrimitive(t, string(s)); err == nil {
		return d
	}
	return v
}

// Equal compares two values of the same variant. Comparing values of
// different variants is a contract violation and reports ErrTypeMismatch.
func Equal(a, b Value) (bool, error) {
	if a == nil || b == nil {
		return false, fmt.Errorf("%w: nil value", ErrTypeMismatch)
	}
	if a.Type() != b.Type() {
		return false, fmt.Errorf("%w: cannot compare %s with %s", ErrTypeMismatch, a.Type(), b.Type())
	}
	switch a := a.(type) {
	case Bool:
		return a == b.(Bool), nil
	case Int:
		return a == b.(Int), nil
	case Float:
		return a == b.(Float), nil
	case String:
		return a == b.(String), nil
	case FuzzyIntervalInt:
		return a == b.(FuzzyIntervalInt), nil
	case FuzzyIntervalFloat:
		return a == b.(FuzzyIntervalFloat), nil
	case Vector:
		return a == b.(Vector), nil
	case Rotation:
		return a == b.(Rotation), nil
	case Entity:
		return a.ID == b.(Entity).ID, nil
	default:
		return false, fmt.Errorf("%w: unknown variant %T", ErrTypeMismatch, a)
	}
}

// Canonical returns the canonical string form of v. It is the key used by
// grounding maps and world snapshots, and ParseValue accepts it back.
func Canonical(v Value) string {
	switch v := v.(type) {
	case nil:
		return ""
	case Bool:
		return strconv.FormatBool(bool(v))
	case Int:
		return strconv.Itoa(int(v))
	case Float:
		return formatFloat(float64(v))
	case String:
		return string(v)
	case FuzzyIntervalInt:
		return "[" + strconv.Itoa(v.Low) + "," + strconv.Itoa(v.High) + "]"
	case FuzzyIntervalFloat:
		return "[" + formatFloat(v.Low) + "," + formatFloat(v.High) + "]"
	case Vector:
		if i, ok := vectorPlaceholderIndex(v); ok {
			return vectorVarPrefix + strconv.Itoa(i)
		}
		return formatFloat(v.X) + "," + formatFloat(v.Y) + "," + formatFloat(v.Z)
	case Rotation:
		return formatFloat(v.Pitch) + "," + formatFloat(v.Roll) + "," + formatFloat(v.Yaw)
	case Entity:
		return v.ID
	default:
		return fmt.Sprintf("%v", v)
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

// ParseValue parses text as a value of type t. Text starting with "$" is
// parsed as a placeholder of the matching kind.
func ParseValue(t ValueType, text string) (Value, error) {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "$") {
		return parsePlaceholder(t, text)
	}
	switch t {
	case TypeBoolean, TypeInt, TypeFloat:
		return decodePrimitive(t, text)
	case TypeString:
		return String(text), nil
	case TypeFuzzyIntervalInt:
		lo, hi, err := parsePair(text)
		if err != nil {
			return nil, err
		}
		l, err1 := strconv.Atoi(lo)
		h, err2 := strconv.Atoi(hi)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %q is not an int interval", ErrTypeMismatch, text)
		}
		return FuzzyIntervalInt{Low: l, High: h}, nil
	case TypeFuzzyIntervalFloat:
		lo, hi, err := parsePair(text)
		if err != nil {
			return nil, err
		}
		l, err1 := strconv.ParseFloat(lo, 64)
		h, err2 := strconv.ParseFloat(hi, 64)
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %q is not a float interval", ErrTypeMismatch, text)
		}
		return FuzzyIntervalFloat{Low: l, High: h}, nil
	case TypeVector:
		c, err := parseTriple(text)
		if err != nil {
			return nil, err
		}
		return Vector{X: c[0], Y: c[1], Z: c[2]}, nil
	case TypeRotation:
		c, err := parseTriple(text)
		if err != nil {
			return nil, err
		}
		return Rotation{Pitch: c[0], Roll: c[1], Yaw: c[2]}, nil
	case TypeEntity:
		if text == "" {
			return nil, fmt.Errorf("%w: empty entity id", ErrTypeMismatch)
		}
		return Entity{ID: text}, nil
	default:
		return nil, fmt.Errorf("%w: cannot parse %s", ErrTypeMismatch, t)
	}
}

func parsePair(text string) (string, string, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "["), "]")
	parts := strings.Split(inner, ",")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("%w: %q is not an interval", ErrTypeMismatch, text)
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1]), nil
}

func parseTriple(text string) ([3]float64, error) {
	var out [3]float64
	inner := strings.TrimSuffix(strings.TrimPrefix(text, "("), ")")
	parts := strings.Split(inner, ",")
	if len(parts) != 3 {
		return out, fmt.Errorf("%w: %q does not have three components", ErrTypeMismatch, text)
	}
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return out, fmt.Errorf("%w: %q: %v", ErrTypeMismatch, text, err)
		}
		out[i] = f
	}
	return out, nil
}

// numericOf parses v as a number regardless of its stored representation.
func numericOf(v Value) (float64, error) {
	switch v := v.(type) {
	case Int:
		return float64(v), nil
	case Float:
		return float64(v), nil
	case String:
		if IsPlaceholder(v) {
			return 0, fmt.Errorf("%w: placeholder %s", ErrUngroundable, v)
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrNotNumeric, string(v))
		}
		return f, nil
	case FuzzyIntervalInt:
		return v.Float().Mid(), nil
	case FuzzyIntervalFloat:
		return v.Mid(), nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrNotNumeric, typeOf(v))
	}
}

func typeOf(v Value) ValueType {
	if v == nil {
		return TypeInvalid
	}
	return v.Type()
}

// almostZero is the tolerance used when a distance is a divisor.
func almostZero(f float64) bool {
	return math.Abs(f) < 1e-9
}
