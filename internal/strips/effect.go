package strips

import (
	"fmt"
	"strconv"
	"strings"
)

// Operator is the operation an Effect applies to its target state.
type Operator int

const (
	// OpReverse flips a boolean. Only for boolean states.
	OpReverse Operator = iota
	// OpAssign sets the value (=). Any value type.
	OpAssign
	// OpAssignNotEqualTo records that the value is not the operand (!=).
	OpAssignNotEqualTo
	// OpAssignGreaterThan records that the value exceeds the operand (>).
	OpAssignGreaterThan
	// OpAssignLessThan records that the value is below the operand (<).
	OpAssignLessThan
	// OpAdd adds the operand (+=).
	OpAdd
	// OpSub subtracts the operand (-=).
	OpSub
	// OpMul multiplies by the operand (*=).
	OpMul
	// OpDiv divides by the operand (/=).
	OpDiv
)

var operatorNames = [...]string{
	OpReverse:           "reverse",
	OpAssign:            "assign",
	OpAssignNotEqualTo:  "assign_not_equal_to",
	OpAssignGreaterThan: "assign_greater_than",
	OpAssignLessThan:    "assign_less_than",
	OpAdd:               "add",
	OpSub:               "sub",
	OpMul:               "mul",
	OpDiv:               "div",
}

func (op Operator) String() string {
	if op < 0 || int(op) >= len(operatorNames) {
		return "Operator(" + strconv.Itoa(int(op)) + ")"
	}
	return operatorNames[op]
}

// ParseOperator resolves an operator name as produced by Operator.String,
// also accepting the symbolic forms "=", "!=", ">", "<", "+=", "-=", "*="
// and "/=".
func ParseOperator(s string) (Operator, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reverse", "!":
		return OpReverse, nil
	case "assign", "=":
		return OpAssign, nil
	case "assign_not_equal_to", "!=":
		return OpAssignNotEqualTo, nil
	case "assign_greater_than", ">":
		return OpAssignGreaterThan, nil
	case "assign_less_than", "<":
		return OpAssignLessThan, nil
	case "add", "+=":
		return OpAdd, nil
	case "sub", "-=":
		return OpSub, nil
	case "mul", "*=":
		return OpMul, nil
	case "div", "/=":
		return OpDiv, nil
	default:
		return OpAssign, fmt.Errorf("unknown operator %q", s)
	}
}

func (op Operator) arithmetic() bool {
	switch op {
	case OpAdd, OpSub, OpMul, OpDiv, OpAssignGreaterThan, OpAssignLessThan:
		return true
	default:
		return false
	}
}

// Effect applies an operator to the state it exclusively owns.
type Effect struct {
	target   *State
	operator Operator
	operand  Value
}

// NewEffect validates the operator and operand against the target's value
// type and takes ownership of target. Nothing is mutated on failure. The
// operand of OpReverse is ignored and may be nil.
func NewEffect(target *State, op Operator, operand Value) (*Effect, error) {
	if target == nil {
		return nil, fmt.Errorf("strips: effect target is required")
	}
	if err := checkOperator(target.valueType, op, operand); err != nil {
		return nil, fmt.Errorf("effect on %s: %w", target.Key(), err)
	}
	return &Effect{target: target, operator: op, operand: operand}, nil
}

func checkOperator(t ValueType, op Operator, operand Value) error {
	if op == OpReverse && operand == nil && t == TypeBoolean {
		return nil
	}
	if !t.Accepts(operand) {
		return fmt.Errorf("%w: operand %s %q for %s state", ErrTypeMismatch, typeOf(operand), Canonical(operand), t)
	}
	switch t {
	case TypeString, TypeRotation, TypeVector, TypeEntity, TypeFuzzyIntervalInt, TypeFuzzyIntervalFloat:
		if op != OpAssign {
			return fmt.Errorf("%w: %s on %s", ErrInvalidOperator, op, t)
		}
		return nil
	case TypeBoolean:
		switch op {
		case OpReverse, OpAssign, OpAssignNotEqualTo:
			return nil
		}
	case TypeInt, TypeFloat:
		switch {
		case op == OpAssign, op == OpAssignNotEqualTo, op.arithmetic():
			return nil
		}
	}
	return fmt.Errorf("%w: %s on %s", ErrInvalidOperator, op, t)
}

// MustEffect is NewEffect that panics on error.
func MustEffect(target *State, op Operator, operand Value) *Effect {
	e, err := NewEffect(target, op, operand)
	if err != nil {
		panic(err)
	}
	return e
}

// State returns the owned target state.
func (e *Effect) State() *State      { return e.target }
func (e *Effect) Operator() Operator { return e.operator }
func (e *Effect) Operand() Value     { return e.operand }

// Clone returns an Effect owning a clone of the target.
func (e *Effect) Clone() *Effect {
	return &Effect{target: e.target.Clone(), operator: e.operator, operand: e.operand}
}

// Apply mutates the target: the qualifier becomes EqualTo (NotEqualTo,
// GreaterThan or LessThan for the comparison assignments) and the value is
// updated per the operator. Arithmetic parses both sides as numbers
// whatever their representation and stores the result as Int (truncated)
// or Float per the target's declared type. Applying is a delta for the
// arithmetic operators and is not idempotent.
//
// On error the target is left untouched.
func (e *Effect) Apply() error {
	q, v, err := e.result(e.target.Value())
	if err != nil {
		return fmt.Errorf("effect %s on %s: %w", e.operator, e.target.Key(), err)
	}
	e.target.qualifier = q
	e.target.value = v
	return nil
}

// Preview applies the effect to a clone of current (or of the target when
// current is nil) and returns it, leaving both untouched.
func (e *Effect) Preview(current *State) (*State, error) {
	base := e.target
	if current != nil {
		base = current
	}
	out := base.Clone()
	out.inquiry = nil
	q, v, err := e.result(normalize(base.valueType, base.Value()))
	if err != nil {
		return nil, fmt.Errorf("effect %s on %s: %w", e.operator, base.Key(), err)
	}
	out.qualifier = q
	out.value = v
	return out, nil
}

func (e *Effect) result(old Value) (Qualifier, Value, error) {
	t := e.target.valueType
	switch e.operator {
	case OpAssign:
		return EqualTo, e.operand, nil
	case OpAssignNotEqualTo:
		return NotEqualTo, e.operand, nil
	case OpReverse:
		switch v := old.(type) {
		case Bool:
			return EqualTo, !v, nil
		case String:
			switch v {
			case "true":
				return EqualTo, String("false"), nil
			case "false":
				return EqualTo, String("true"), nil
			}
		}
		return 0, nil, fmt.Errorf("%w: cannot reverse %q", ErrUnsupportedOperation, Canonical(old))
	}

	if t != TypeInt && t != TypeFloat {
		return 0, nil, fmt.Errorf("%w: %s on %s", ErrUnsupportedOperation, e.operator, t)
	}
	opv, err := numericOf(e.operand)
	if err != nil {
		return 0, nil, err
	}

	q := EqualTo
	var n float64
	switch e.operator {
	case OpAssignGreaterThan:
		q, n = GreaterThan, opv
	case OpAssignLessThan:
		q, n = LessThan, opv
	default:
		oldv, err := numericOf(old)
		if err != nil {
			return 0, nil, err
		}
		switch e.operator {
		case OpAdd:
			n = oldv + opv
		case OpSub:
			n = oldv - opv
		case OpMul:
			n = oldv * opv
		case OpDiv:
			if opv == 0 {
				return 0, nil, ErrDivisionByZero
			}
			n = oldv / opv
		default:
			return 0, nil, fmt.Errorf("%w: operator %s", ErrUnsupportedOperation, e.operator)
		}
	}

	if t == TypeInt {
		return q, Int(int(n)), nil
	}
	return q, Float(n), nil
}

func (e *Effect) String() string {
	return fmt.Sprintf("%s %s %s", e.target.Key(), e.operator, Canonical(e.operand))
}
