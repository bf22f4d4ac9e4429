package pabt

import (
	bt "github.com/joeycumines/go-behaviortree"
	pabtpkg "github.com/joeycumines/go-pabt"
)

// SimpleCond is a condition over an arbitrary key with a match function,
// for plans mixing hand-written checks with strips goals.
type SimpleCond struct {
	key   any
	match func(value any) bool
}

var _ pabtpkg.Condition = (*SimpleCond)(nil)

func NewSimpleCond(key any, match func(value any) bool) *SimpleCond {
	return &SimpleCond{key: key, match: match}
}

func (c *SimpleCond) Key() any { return c.key }

// Match implements pabtpkg.Condition. A nil match function never matches.
func (c *SimpleCond) Match(value any) bool {
	if c.match == nil {
		return false
	}
	return c.match(value)
}

// SimpleAction bundles conditions, effects and a node into an action that
// can be registered on a State directly.
type SimpleAction struct {
	conditions []pabtpkg.IConditions
	effects    pabtpkg.Effects
	node       bt.Node
}

var _ pabtpkg.IAction = (*SimpleAction)(nil)

func NewSimpleAction(conditions []pabtpkg.IConditions, effects pabtpkg.Effects, node bt.Node) *SimpleAction {
	return &SimpleAction{conditions: conditions, effects: effects, node: node}
}

func (a *SimpleAction) Conditions() []pabtpkg.IConditions { return a.conditions }
func (a *SimpleAction) Effects() pabtpkg.Effects          { return a.effects }
func (a *SimpleAction) Node() bt.Node                     { return a.node }
