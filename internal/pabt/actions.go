package pabt

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"

	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/joeycumines/strips/internal/world"
)

// ActionRegistry is a thread-safe set of named actions.
type ActionRegistry struct {
	mu      sync.RWMutex
	actions map[string]pabtpkg.IAction
}

// NewActionRegistry creates an empty registry.
func NewActionRegistry() *ActionRegistry {
	return &ActionRegistry{actions: make(map[string]pabtpkg.IAction)}
}

// Register adds action under name, replacing any previous one.
func (r *ActionRegistry) Register(name string, action pabtpkg.IAction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions[name] = action
}

// Get returns the action registered under name, or nil.
func (r *ActionRegistry) Get(name string) pabtpkg.IAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.actions[name]
}

// All returns every action sorted by name, so planning is reproducible.
func (r *ActionRegistry) All() []pabtpkg.IAction {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.actions))
	for name := range r.actions {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]pabtpkg.IAction, 0, len(names))
	for _, name := range names {
		out = append(out, r.actions[name])
	}
	return out
}

// Effect is the planner's view of a strips effect: the key of the target
// variable and the state it would hold after the action.
type Effect struct {
	key    string
	result *strips.State
}

var _ pabtpkg.Effect = (*Effect)(nil)

// Key implements pabtpkg.Effect.
func (e *Effect) Key() any { return e.key }

// Value implements pabtpkg.Effect. It is a *strips.State.
func (e *Effect) Value() any { return e.result }

// Action is a grounded rule as a PA-BT action. Its node runs a
// strips.Attempt of the rule against the world and commits the results.
type Action struct {
	// Name identifies the grounded action, e.g. "move(kitchen) by robot".
	Name string

	template  *strips.Rule
	grounding strips.Grounding
	rule      *strips.Rule
	cost      float64
	world     *world.Snapshot

	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

var _ pabtpkg.IAction = (*Action)(nil)

// NewAction grounds template with g and previews its effects against w.
// The cost is computed up front, so a rule whose cost cannot be computed
// is rejected along with one that cannot be grounded.
func NewAction(template *strips.Rule, g strips.Grounding, w *world.Snapshot) (*Action, error) {
	rule, err := template.Ground(g)
	if err != nil {
		return nil, err
	}
	cost, err := template.Cost(g)
	if err != nil {
		return nil, err
	}

	a := &Action{
		Name:      rule.String(),
		template:  template,
		grounding: g,
		rule:      rule,
		cost:      cost,
		world:     w,
	}

	var group pabtpkg.IConditions
	for _, p := range rule.Preconditions() {
		group = append(group, NewCondition(p, nil))
	}
	if len(group) > 0 {
		a.conditions = []pabtpkg.IConditions{group}
	}

	for _, b := range rule.Effects() {
		current, _ := w.Lookup(b.Effect.State())
		result, err := b.Effect.Preview(current)
		if err != nil {
			return nil, fmt.Errorf("action %s: %w", a.Name, err)
		}
		a.effects = append(a.effects, &Effect{key: result.Key(), result: result})
	}

	a.node = bt.New(a.tick)
	return a, nil
}

// Rule returns the grounded rule.
func (a *Action) Rule() *strips.Rule { return a.rule }

// Cost returns the rule's cost under the action's grounding.
func (a *Action) Cost() float64 { return a.cost }

// Conditions implements pabtpkg.IAction.
func (a *Action) Conditions() []pabtpkg.IConditions { return a.conditions }

// Effects implements pabtpkg.IAction.
func (a *Action) Effects() pabtpkg.Effects { return a.effects }

// Node implements pabtpkg.IAction.
func (a *Action) Node() bt.Node { return a.node }

func (a *Action) tick([]bt.Node) (bt.Status, error) {
	attempt := strips.NewAttempt(a.template, a.grounding)
	results, err := attempt.Run(a.world)
	switch {
	case err == nil:
	case errors.Is(err, strips.ErrBlocked):
		slog.Debug("action blocked", "action", a.Name, "attempt", attempt.ID(), "degree", attempt.Degree())
		return bt.Failure, nil
	default:
		slog.Warn("action failed", "action", a.Name, "attempt", attempt.ID(), "error", err)
		return bt.Failure, nil
	}
	a.world.Commit(results...)
	slog.Info("action applied", "action", a.Name, "attempt", attempt.ID(), "cost", a.cost)
	return bt.Success, nil
}
