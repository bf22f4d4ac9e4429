// Package inquiry provides live lookups for state variables, backed by
// expr-lang expressions or JavaScript functions evaluated against the
// world.
package inquiry

import (
	"fmt"
	"math"

	"github.com/joeycumines/strips/internal/strips"
)

// Facts is the read side of a world snapshot.
type Facts interface {
	Get(key string) *strips.State
}

// ToNative converts a value to the Go type an expression or script works
// with: bool, int, float64 or string. Other variants become their
// canonical string.
func ToNative(v strips.Value) any {
	switch v := v.(type) {
	case nil:
		return nil
	case strips.Bool:
		return bool(v)
	case strips.Int:
		return int(v)
	case strips.Float:
		return float64(v)
	case strips.String:
		return string(v)
	default:
		return strips.Canonical(v)
	}
}

// FromNative converts the result of an expression or script to a value of
// type t. A nil result converts to a nil value, meaning no answer.
func FromNative(t strips.ValueType, x any) (strips.Value, error) {
	var (
		v   strips.Value
		err error
	)
	switch x := x.(type) {
	case nil:
		return nil, nil
	case strips.Value:
		v = x
	case bool:
		v = strips.Bool(x)
	case int:
		v, err = fromNumber(t, float64(x))
	case int64:
		v, err = fromNumber(t, float64(x))
	case float64:
		v, err = fromNumber(t, x)
	case string:
		v, err = strips.ParseValue(t, x)
	default:
		return nil, fmt.Errorf("%w: unsupported result %T", strips.ErrTypeMismatch, x)
	}
	if err != nil {
		return nil, err
	}
	if !t.Accepts(v) {
		return nil, fmt.Errorf("%w: result %s is not a %s", strips.ErrTypeMismatch, strips.Canonical(v), t)
	}
	return v, nil
}

func fromNumber(t strips.ValueType, f float64) (strips.Value, error) {
	switch t {
	case strips.TypeInt:
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%w: %v is not an int", strips.ErrTypeMismatch, f)
		}
		return strips.Int(int(f)), nil
	case strips.TypeFloat:
		return strips.Float(f), nil
	default:
		return nil, fmt.Errorf("%w: number for %s", strips.ErrTypeMismatch, t)
	}
}

func ownerIDs(owners []strips.Value) []string {
	out := make([]string, len(owners))
	for i, o := range owners {
		out[i] = strips.Canonical(o)
	}
	return out
}
