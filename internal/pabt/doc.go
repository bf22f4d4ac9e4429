// Package pabt plans over strips rules with go-pabt (Planning and Acting
// using Behavior Trees) and runs the resulting tree with go-behaviortree.
//
// Architecture:
//
//   - State implements pabtpkg.IState over a world.Snapshot; variables are
//     facts keyed by state key, e.g. "at(robot)"
//   - Condition wraps a goal strips.State and matches with IsSatisfiedBy;
//     ExprCondition matches with an expr-lang expression instead
//   - Action wraps a grounded rule: its preconditions become conditions,
//     its effects are previewed against the world, and its node runs a
//     strips.Attempt and commits the results
//   - RuleGenerator grounds rule templates on demand for a failed
//     condition, so parametric rules never need to be enumerated up front
//
// Usage:
//
//	w := new(world.Snapshot)
//	state := pabt.NewState(w)
//	state.SetActionGenerator(pabt.RuleGenerator(rules, w, objects))
//	node, err := pabt.NewPlan(state, goals)
//	result, err := pabt.Execute(ctx, node, 10*time.Millisecond, 1000)
package pabt
