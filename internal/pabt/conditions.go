package pabt

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/inquiry"
	"github.com/joeycumines/strips/internal/strips"
)

// Goal is implemented by conditions built from a goal state. Action
// generators use it to unify rule effects with the failed condition.
type Goal interface {
	pabtpkg.Condition
	Goal() *strips.State
}

// Condition matches a variable against a goal state with IsSatisfiedBy.
// Variables are *strips.State facts or effect previews.
type Condition struct {
	goal   *strips.State
	origin *strips.State
}

var _ Goal = (*Condition)(nil)

// NewCondition creates a condition for goal. origin, which may be nil, is
// the fact the search started from and only affects Degree.
func NewCondition(goal, origin *strips.State) *Condition {
	return &Condition{goal: goal.Clone(), origin: origin.Clone()}
}

// Key implements pabtpkg.Condition.
func (c *Condition) Key() any { return c.goal.Key() }

// Goal returns the goal state. It must not be mutated.
func (c *Condition) Goal() *strips.State { return c.goal }

// Match implements pabtpkg.Condition.
func (c *Condition) Match(value any) bool {
	ok, _ := c.evaluate(value)
	return ok
}

// Degree reports how far value has progressed toward the goal, see
// strips.State.IsSatisfiedBy.
func (c *Condition) Degree(value any) float64 {
	_, d := c.evaluate(value)
	return d
}

func (c *Condition) evaluate(value any) (bool, float64) {
	cur, ok := value.(*strips.State)
	if !ok || cur == nil {
		if value != nil || !c.goal.HasInquiry() {
			return false, 0
		}
		// no fact recorded, observe the variable through its live lookup
		cur = c.goal.Observation()
	}
	if !cur.SameVariable(c.goal) {
		slog.Debug("condition matched against another variable", "goal", c.goal.Key(), "value", cur.Key())
		return false, 0
	}
	return cur.Clone().IsSatisfiedBy(c.goal, c.origin)
}

func (c *Condition) String() string { return c.goal.String() }

// DefaultExprCacheSize is the default maximum number of compiled programs
// kept by the expression cache.
const DefaultExprCacheSize = 1000

var exprCache = NewExprLRUCache(DefaultExprCacheSize)

// SetExprCacheSize resizes the shared expression cache. Sizes below 1 are
// raised to 1.
func SetExprCacheSize(size int) {
	exprCache.Resize(size)
}

// ExprEnv is the environment a condition expression runs in.
//
//	value      the fact's value as bool, int, float64 or string, or nil
//	qualifier  the fact's qualifier name, e.g. "equal_to"
type ExprEnv struct {
	Value     any    `expr:"value"`
	Qualifier string `expr:"qualifier"`
}

// ExprCondition matches a variable with an expr-lang expression. The
// program is compiled on first use and shared through the LRU cache.
type ExprCondition struct {
	goal       *strips.State
	expression string

	mu      sync.RWMutex
	program *vm.Program
	lastErr error
}

var _ Goal = (*ExprCondition)(nil)

// NewExprCondition creates a condition on the variable of goal; the goal's
// value and qualifier are ignored. It panics if expression is empty.
func NewExprCondition(goal *strips.State, expression string) *ExprCondition {
	if expression == "" {
		panic("pabt.NewExprCondition: expression cannot be empty")
	}
	return &ExprCondition{goal: goal.Clone(), expression: expression}
}

// Key implements pabtpkg.Condition.
func (c *ExprCondition) Key() any { return c.goal.Key() }

// Goal returns the state naming the condition's variable.
func (c *ExprCondition) Goal() *strips.State { return c.goal }

// Expression returns the source expression.
func (c *ExprCondition) Expression() string { return c.expression }

// LastError returns the error of the most recent Match, if any.
func (c *ExprCondition) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

func (c *ExprCondition) setErr(err error) {
	c.mu.Lock()
	c.lastErr = err
	c.mu.Unlock()
}

// Match implements pabtpkg.Condition.
func (c *ExprCondition) Match(value any) bool {
	c.setErr(nil)
	env := ExprEnv{}
	if cur, ok := value.(*strips.State); ok && cur != nil {
		env.Value = inquiry.ToNative(cur.Value())
		env.Qualifier = cur.Qualifier().String()
	}

	program, err := c.compiled()
	if err != nil {
		c.setErr(fmt.Errorf("expression compilation failed: %w", err))
		slog.Error("condition expression does not compile", "expression", c.expression, "error", err)
		return false
	}
	out, err := expr.Run(program, env)
	if err != nil {
		c.setErr(fmt.Errorf("expression evaluation failed: %w", err))
		slog.Error("condition expression failed", "expression", c.expression, "value", fmt.Sprintf("%v", env.Value), "error", err)
		return false
	}
	b, ok := out.(bool)
	if !ok {
		c.setErr(fmt.Errorf("expression returned non-boolean result: %T", out))
		return false
	}
	return b
}

func (c *ExprCondition) compiled() (*vm.Program, error) {
	c.mu.RLock()
	p := c.program
	c.mu.RUnlock()
	if p != nil {
		return p, nil
	}
	if cached, ok := exprCache.Get(c.expression); ok {
		c.mu.Lock()
		c.program = cached
		c.mu.Unlock()
		return cached, nil
	}
	p, err := expr.Compile(c.expression,
		expr.Env(ExprEnv{}),
		expr.AsBool(),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, err
	}
	exprCache.Put(c.expression, p)
	c.mu.Lock()
	c.program = p
	c.mu.Unlock()
	return p, nil
}

func (c *ExprCondition) String() string {
	return fmt.Sprintf("%s: %s", c.goal.Key(), c.expression)
}
