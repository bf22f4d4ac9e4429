package strips

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Placeholders stand for unbound rule parameters. Boolean, string, int and
// float placeholders are Strings carrying a reserved prefix; entity
// placeholders are Entities with a reserved ID prefix; vector placeholders
// are a sentinel Vector whose Y component is the index.
const (
	boolVarPrefix   = "$bool_var"
	strVarPrefix    = "$str_var"
	intVarPrefix    = "$int_var"
	floatVarPrefix  = "$float_var"
	entityVarPrefix = "$entity_var"
	vectorVarPrefix = "$vector_var"
)

// BoolVar returns the i-th boolean placeholder.
func BoolVar(i int) String { return String(boolVarPrefix + strconv.Itoa(i)) }

// StringVar returns the i-th string placeholder.
func StringVar(i int) String { return String(strVarPrefix + strconv.Itoa(i)) }

// IntVar returns the i-th int placeholder.
func IntVar(i int) String { return String(intVarPrefix + strconv.Itoa(i)) }

// FloatVar returns the i-th float placeholder.
func FloatVar(i int) String { return String(floatVarPrefix + strconv.Itoa(i)) }

// EntityVar returns the i-th entity placeholder.
func EntityVar(i int) Entity {
	return Entity{ID: entityVarPrefix + strconv.Itoa(i), Kind: "variable"}
}

// VectorVar returns the i-th vector placeholder.
func VectorVar(i int) Vector {
	return Vector{X: math.MaxFloat64, Y: float64(i), Z: math.MaxFloat64}
}

// IsPlaceholder reports whether v is an unbound placeholder.
func IsPlaceholder(v Value) bool {
	switch v := v.(type) {
	case String:
		_, ok := placeholderKind(v)
		return ok
	case Entity:
		_, ok := indexAfter(v.ID, entityVarPrefix)
		return ok
	case Vector:
		_, ok := vectorPlaceholderIndex(v)
		return ok
	default:
		return false
	}
}

// placeholderKind returns the declared type a string placeholder stands for.
func placeholderKind(s String) (ValueType, bool) {
	str := string(s)
	if !strings.HasPrefix(str, "$") {
		return TypeInvalid, false
	}
	for _, p := range [...]struct {
		prefix string
		kind   ValueType
	}{
		{boolVarPrefix, TypeBoolean},
		{strVarPrefix, TypeString},
		{intVarPrefix, TypeInt},
		{floatVarPrefix, TypeFloat},
	} {
		if _, ok := indexAfter(str, p.prefix); ok {
			return p.kind, true
		}
	}
	return TypeInvalid, false
}

func indexAfter(s, prefix string) (int, bool) {
	if !strings.HasPrefix(s, prefix) {
		return 0, false
	}
	i, err := strconv.Atoi(s[len(prefix):])
	if err != nil || i < 0 {
		return 0, false
	}
	return i, true
}

func vectorPlaceholderIndex(v Vector) (int, bool) {
	if v.X != math.MaxFloat64 || v.Z != math.MaxFloat64 {
		return 0, false
	}
	if v.Y < 0 || v.Y != math.Trunc(v.Y) {
		return 0, false
	}
	return int(v.Y), true
}

// parsePlaceholder parses the canonical form of a placeholder for type t.
func parsePlaceholder(t ValueType, text string) (Value, error) {
	var (
		prefix string
		build  func(int) Value
	)
	switch t {
	case TypeBoolean:
		prefix, build = boolVarPrefix, func(i int) Value { return BoolVar(i) }
	case TypeString:
		prefix, build = strVarPrefix, func(i int) Value { return StringVar(i) }
	case TypeInt:
		prefix, build = intVarPrefix, func(i int) Value { return IntVar(i) }
	case TypeFloat:
		prefix, build = floatVarPrefix, func(i int) Value { return FloatVar(i) }
	case TypeEntity:
		prefix, build = entityVarPrefix, func(i int) Value { return EntityVar(i) }
	case TypeVector:
		prefix, build = vectorVarPrefix, func(i int) Value { return VectorVar(i) }
	default:
		return nil, fmt.Errorf("%w: %s has no placeholders", ErrTypeMismatch, t)
	}
	i, ok := indexAfter(text, prefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a %s placeholder", ErrTypeMismatch, text, t)
	}
	return build(i), nil
}

// ParsePlaceholder parses the canonical form of any placeholder, returning it
// with the type of the values it binds.
func ParsePlaceholder(text string) (Value, ValueType, error) {
	text = strings.TrimSpace(text)
	for _, t := range [...]ValueType{TypeBoolean, TypeString, TypeInt, TypeFloat, TypeEntity, TypeVector} {
		if v, err := parsePlaceholder(t, text); err == nil {
			return v, t, nil
		}
	}
	return nil, TypeInvalid, fmt.Errorf("%w: %q is not a placeholder", ErrTypeMismatch, text)
}
