package inquiry

import (
	"fmt"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/joeycumines/strips/internal/strips"
)

// ExprEnv is the environment an inquiry expression runs in.
//
//	owners      canonical owner ids, e.g. owners[0] == "robot"
//	fact(key)   the recorded value of a fact, or nil
type ExprEnv struct {
	Owners []string             `expr:"owners"`
	Fact   func(key string) any `expr:"fact"`
}

// Expr is an inquiry backed by a compiled expr-lang program.
type Expr struct {
	expression string
	valueType  strips.ValueType
	program    *vm.Program
	facts      Facts
}

// NewExpr compiles expression. The result is converted to valueType on
// every evaluation.
func NewExpr(expression string, valueType strips.ValueType, facts Facts) (*Expr, error) {
	if expression == "" {
		return nil, fmt.Errorf("inquiry: expression is required")
	}
	program, err := expr.Compile(expression, expr.Env(ExprEnv{}))
	if err != nil {
		return nil, fmt.Errorf("inquiry: compile %q: %w", expression, err)
	}
	return &Expr{expression: expression, valueType: valueType, program: program, facts: facts}, nil
}

// Eval runs the program for owners.
func (e *Expr) Eval(owners []strips.Value) (strips.Value, error) {
	env := ExprEnv{
		Owners: ownerIDs(owners),
		Fact: func(key string) any {
			if e.facts == nil {
				return nil
			}
			fact := e.facts.Get(key)
			if fact == nil {
				return nil
			}
			return ToNative(fact.Value())
		},
	}
	out, err := expr.Run(e.program, env)
	if err != nil {
		return nil, fmt.Errorf("inquiry: run %q: %w", e.expression, err)
	}
	return FromNative(e.valueType, out)
}

// Func adapts the expression to a strips.InquiryFunc. Failures are logged
// and answer nil, leaving the state's cached value in place.
func (e *Expr) Func() strips.InquiryFunc {
	return func(owners []strips.Value) strips.Value {
		v, err := e.Eval(owners)
		if err != nil {
			slog.Warn("inquiry expression failed", "expression", e.expression, "error", err)
			return nil
		}
		return v
	}
}
