package pabt

import (
	"log/slog"
	"sort"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/strips"
	"github.com/joeycumines/strips/internal/world"
)

// Objects lists the candidate values per value type that free placeholders
// range over, e.g. every room an agent could move to.
type Objects map[strips.ValueType][]strips.Value

// MaxGroundings caps the groundings enumerated for one rule and one failed
// condition.
var MaxGroundings = 256

// RuleGenerator returns an action generator grounding rules on demand.
//
// For a failed Goal condition, every effect of every rule that targets the
// goal's state name is unified with the goal: effect owners bind to goal
// owners and, for an Assign of a placeholder under a Condition, the operand
// binds to the goal value. Placeholders still free are enumerated over objects, and a cost
// heuristic whose value is a placeholder reads the recorded fact. Actions are
// returned cheapest first; groundings that fail (unbound, ill-typed or
// without a cost) are skipped.
func RuleGenerator(rules []*strips.Rule, w *world.Snapshot, objects Objects) ActionGeneratorFunc {
	return func(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
		g, ok := failed.(Goal)
		if !ok {
			return nil, nil
		}
		goal := g.Goal()
		_, exact := failed.(*Condition)

		var actions []*Action
		seen := make(map[string]bool)
		for _, r := range rules {
			for _, b := range r.Effects() {
				base, ok := unify(b.Effect, goal, exact)
				if !ok {
					continue
				}
				for _, full := range expand(r, base, objects) {
					if !bindCostFacts(r, full, w) {
						slog.Debug("grounding has no cost facts", "rule", r.Name())
						continue
					}
					a, err := NewAction(r, full, w)
					if err != nil {
						slog.Debug("grounding skipped", "rule", r.Name(), "error", err)
						continue
					}
					if seen[a.Name] {
						continue
					}
					seen[a.Name] = true
					actions = append(actions, a)
				}
			}
		}

		sort.SliceStable(actions, func(i, j int) bool { return actions[i].cost < actions[j].cost })
		out := make([]pabtpkg.IAction, len(actions))
		for i, a := range actions {
			out[i] = a
		}
		return out, nil
	}
}

// unify binds the placeholders of e's target so that it names the goal's
// variable. With exact set the goal value is binding too.
func unify(e *strips.Effect, goal *strips.State, exact bool) (strips.Grounding, bool) {
	target := e.State()
	if target.Name() != goal.Name() {
		return nil, false
	}
	tOwners, gOwners := target.Owners(), goal.Owners()
	if len(tOwners) != len(gOwners) {
		return nil, false
	}
	g := strips.Grounding{}
	for i, o := range tOwners {
		if !bindOrMatch(g, o, gOwners[i]) {
			return nil, false
		}
	}
	want := goal.Value()
	if exact && e.Operator() == strips.OpAssign && goal.Qualifier() == strips.EqualTo && !strips.IsPlaceholder(want) {
		if op := e.Operand(); strips.IsPlaceholder(op) {
			if !bindOrMatch(g, op, want) {
				return nil, false
			}
		}
	}
	return g, true
}

func bindOrMatch(g strips.Grounding, template, concrete strips.Value) bool {
	if !strips.IsPlaceholder(template) {
		return strips.Canonical(template) == strips.Canonical(concrete)
	}
	if prev, ok := g.Lookup(template); ok {
		return strips.Canonical(prev) == strips.Canonical(concrete)
	}
	g.Bind(template, concrete)
	return true
}

// expand enumerates the groundings of r extending base, binding every free
// placeholder to a candidate of its type.
func expand(r *strips.Rule, base strips.Grounding, objects Objects) []strips.Grounding {
	out := []strips.Grounding{base}
	for _, p := range r.Unbound(base) {
		candidates := candidatesFor(p, objects)
		var next []strips.Grounding
		for _, g := range out {
			for _, c := range candidates {
				if len(next) >= MaxGroundings {
					slog.Warn("grounding limit reached", "rule", r.Name(), "limit", MaxGroundings)
					return next
				}
				ng := make(strips.Grounding, len(g)+1)
				for k, v := range g {
					ng[k] = v
				}
				ng[p] = c
				next = append(next, ng)
			}
		}
		out = next
	}
	return out
}

func candidatesFor(placeholder string, objects Objects) []strips.Value {
	for t, values := range objects {
		if _, err := strips.ParseValue(t, placeholder); err == nil {
			return values
		}
	}
	return nil
}

// bindCostFacts binds the value placeholder of each cost heuristic to the
// fact recorded for its grounded variable. It reports false when a
// heuristic is left without a value, so the grounding cannot be costed.
func bindCostFacts(r *strips.Rule, g strips.Grounding, w *world.Snapshot) bool {
	for _, h := range r.CostHeuristics() {
		v := h.State.Value()
		if !strips.IsPlaceholder(v) {
			continue
		}
		if _, ok := g.Lookup(v); ok {
			continue
		}
		owners := h.State.Owners()
		for i, o := range owners {
			if !strips.IsPlaceholder(o) {
				continue
			}
			bound, ok := g.Lookup(o)
			if !ok {
				return false
			}
			owners[i] = bound
		}
		fact := w.Get(strips.StateKey(h.State.Name(), owners...))
		if fact == nil {
			return false
		}
		g.Bind(v, fact.Value())
	}
	return true
}
