package pabt

import (
	"context"
	"errors"
	"fmt"
	"time"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/strips"
)

// ErrTickBudget is returned by Execute when the goals still do not hold
// after the maximum number of ticks.
var ErrTickBudget = errors.New("pabt: tick budget exhausted")

// errGoalReached stops the ticker once the plan succeeds.
var errGoalReached = errors.New("pabt: goal reached")

// NewPlan builds a PA-BT plan achieving every goal. Each goal gets a
// Condition whose origin is the fact the world holds for it now.
func NewPlan(state *State, goals []*strips.State) (bt.Node, error) {
	group := make(pabtpkg.IConditions, 0, len(goals))
	for _, g := range goals {
		origin, _ := state.World().Lookup(g)
		group = append(group, NewCondition(g, origin))
	}
	return NewPlanFromConditions(state, group)
}

// NewPlanFromConditions builds a PA-BT plan achieving every condition.
func NewPlanFromConditions(state *State, conditions pabtpkg.IConditions) (bt.Node, error) {
	plan, err := pabtpkg.INew(state, []pabtpkg.IConditions{conditions})
	if err != nil {
		return nil, fmt.Errorf("pabt: failed to create plan: %w", err)
	}
	return plan.Node(), nil
}

// Result describes a finished execution.
type Result struct {
	Ticks   int
	Elapsed time.Duration
}

// Execute ticks node every interval until it succeeds, maxTicks is reached
// (ErrTickBudget, 0 means no limit), the node errors or ctx is done.
func Execute(ctx context.Context, node bt.Node, interval time.Duration, maxTicks int) (Result, error) {
	var res Result
	start := time.Now()
	counted := bt.New(func([]bt.Node) (bt.Status, error) {
		res.Ticks++
		status, err := node.Tick()
		if err != nil {
			return status, err
		}
		if status == bt.Success {
			return status, errGoalReached
		}
		if maxTicks > 0 && res.Ticks >= maxTicks {
			return status, ErrTickBudget
		}
		return status, nil
	})

	ticker := bt.NewTicker(ctx, interval, counted)
	<-ticker.Done()
	res.Elapsed = time.Since(start)

	err := ticker.Err()
	switch {
	case errors.Is(err, errGoalReached):
		return res, nil
	case err == nil:
		return res, ctx.Err()
	default:
		return res, err
	}
}
