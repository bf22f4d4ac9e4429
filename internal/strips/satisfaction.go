package strips

import (
	"math"
)

// IsSatisfiedBy evaluates whether the receiver, as the current state,
// satisfies goal. origin is the optional state the search started from; it
// is used to report how far the current value has progressed toward the
// goal.
//
// The degree is 1 when the goal holds. Otherwise, for numeric goals with an
// origin, it is (|goal-origin| - |goal-current|) / |goal-origin|: 0 means no
// progress, negative means regression. Non-numeric goals only ever report
// 0 or 1. When origin is already at the goal (the divisor is zero) the
// degree is 1 if current is at the goal as well and 0 otherwise.
//
// Only the receiver runs its live lookup; goal and origin are compared as
// recorded. Combinations of qualifiers that carry no usable information
// report (false, 0).
func (s *State) IsSatisfiedBy(goal, origin *State) (bool, float64) {
	if goal == nil {
		return false, 0
	}
	cur := normalize(s.valueType, s.Value())
	want := normalize(goal.valueType, goal.value)

	if !s.IsNumeric() || !goal.IsNumeric() {
		if s.valueType != goal.valueType {
			logger().Error("cannot compare states of different types",
				"current", s.Key(), "currentType", s.valueType.String(),
				"goal", goal.Key(), "goalType", goal.valueType.String())
			return false, 0
		}
		return satisfyDiscrete(s.qualifier, cur, goal.qualifier, want)
	}

	c, ok1 := extentOf(cur)
	g, ok2 := extentOf(want)
	if !ok1 || !ok2 {
		logger().Debug("numeric state is not grounded", "current", s.String(), "goal", goal.String())
		return false, 0
	}

	var o *originExtent
	if origin != nil {
		if ox, ok := extentOf(normalize(origin.valueType, origin.value)); ok && origin.IsNumeric() {
			o = &originExtent{extent: ox, qualifier: origin.qualifier}
		}
	}
	return satisfyNumeric(s.qualifier, c, goal.qualifier, g, o)
}

// IsSatisfiedMe evaluates the receiver, as the goal, against a raw observed
// value of the same variable. The value is taken as an exact observation
// (EqualTo).
func (s *State) IsSatisfiedMe(value Value, origin *State) (bool, float64) {
	observed := &State{
		name:      s.name,
		valueType: s.valueType,
		qualifier: EqualTo,
		value:     value,
		owners:    s.owners,
	}
	return observed.IsSatisfiedBy(s, origin)
}

func satisfyDiscrete(cq Qualifier, cur Value, gq Qualifier, want Value) (bool, float64) {
	eq, err := Equal(cur, want)
	if err != nil {
		logger().Debug("discrete values are not comparable", "error", err)
		return false, 0
	}
	switch gq {
	case EqualTo:
		switch cq {
		case EqualTo:
			return binary(eq)
		case NotEqualTo:
			// knowing what the value is not never establishes what it is
			return false, 0
		}
	case NotEqualTo:
		switch cq {
		case EqualTo:
			return binary(!eq)
		case NotEqualTo:
			return binary(eq)
		}
	}
	unmapped(gq, cq)
	return false, 0
}

func binary(ok bool) (bool, float64) {
	if ok {
		return true, 1
	}
	return false, 0
}

// extent is the closed range a numeric value covers; points have lo == hi.
type extent struct {
	lo, hi float64
}

func (e extent) point() bool { return e.lo == e.hi }

func (e extent) mid() float64 { return (e.lo + e.hi) / 2 }

func (e extent) interval() FuzzyIntervalFloat {
	return FuzzyIntervalFloat{Low: e.lo, High: e.hi}
}

type originExtent struct {
	extent
	qualifier Qualifier
}

func extentOf(v Value) (extent, bool) {
	switch v := v.(type) {
	case Int:
		return extent{float64(v), float64(v)}, true
	case Float:
		return extent{float64(v), float64(v)}, true
	case FuzzyIntervalInt:
		return extent{float64(v.Low), float64(v.High)}, true
	case FuzzyIntervalFloat:
		return extent{v.Low, v.High}, true
	default:
		return extent{}, false
	}
}

func satisfyNumeric(cq Qualifier, c extent, gq Qualifier, g extent, o *originExtent) (bool, float64) {
	// an interval compared for equality is a containment test
	if gq == EqualTo && !g.point() {
		gq = FuzzyWithin
	}
	if cq == FuzzyWithin {
		cq = EqualTo
	}

	switch gq {
	case EqualTo:
		if cq != EqualTo {
			// an open bound or an exclusion never pins the value to a point
			return false, 0
		}
		if c.point() && c.lo == g.lo {
			return true, 1
		}
		if o == nil {
			return false, 0
		}
		switch o.qualifier {
		case EqualTo, FuzzyWithin:
			return false, numericDegree(g.lo, c.mid(), o.mid())
		}
		unmapped(gq, cq, o.qualifier)
		return false, 0

	case NotEqualTo:
		var ok bool
		switch cq {
		case EqualTo:
			ok = c.hi < g.lo || c.lo > g.hi
		case GreaterThan:
			ok = c.hi >= g.hi
		case LessThan:
			ok = c.lo <= g.lo
		case NotEqualTo:
			ok = c == g
		}
		return binary(ok)

	case GreaterThan:
		bound := g.hi
		var cur float64
		var ok bool
		switch cq {
		case EqualTo:
			cur = c.lo
			ok = cur > bound
		case GreaterThan:
			cur = c.hi
			ok = cur >= bound
		default:
			return false, 0
		}
		if ok {
			return true, 1
		}
		if o == nil {
			return false, 0
		}
		switch o.qualifier {
		case EqualTo, FuzzyWithin:
			return false, numericDegree(bound, cur, o.lo)
		case GreaterThan:
			return false, numericDegree(bound, cur, o.hi)
		}
		unmapped(gq, cq, o.qualifier)
		return false, 0

	case LessThan:
		bound := g.lo
		var cur float64
		var ok bool
		switch cq {
		case EqualTo:
			cur = c.hi
			ok = cur < bound
		case LessThan:
			cur = c.lo
			ok = cur <= bound
		default:
			return false, 0
		}
		if ok {
			return true, 1
		}
		if o == nil {
			return false, 0
		}
		switch o.qualifier {
		case EqualTo, FuzzyWithin:
			return false, numericDegree(bound, cur, o.hi)
		case LessThan:
			return false, numericDegree(bound, cur, o.lo)
		}
		unmapped(gq, cq, o.qualifier)
		return false, 0

	case FuzzyWithin:
		if cq != EqualTo {
			return false, 0
		}
		goal := g.interval()
		if goal.ContainsInterval(c.interval()) {
			return true, 1
		}
		if o == nil {
			return false, 0
		}
		switch o.qualifier {
		case EqualTo, FuzzyWithin:
		default:
			unmapped(gq, cq, o.qualifier)
			return false, 0
		}
		if c.point() || o.point() {
			return false, intervalPointDegree(goal, c.mid(), o.mid())
		}
		return false, intervalDegree(goal, c.interval(), o.interval())
	}

	unmapped(gq, cq)
	return false, 0
}

func unmapped(qs ...Qualifier) {
	names := make([]string, len(qs))
	for i, q := range qs {
		names[i] = q.String()
	}
	logger().Debug("unmapped qualifier combination, reporting unsatisfied", "goal/current/origin", names)
}

// progress turns two distances to the goal into a degree, see
// IsSatisfiedBy for the zero divisor case.
func progress(fromOrigin, fromCurrent float64) float64 {
	if almostZero(fromOrigin) {
		if almostZero(fromCurrent) {
			return 1
		}
		return 0
	}
	return (fromOrigin - fromCurrent) / fromOrigin
}

func numericDegree(goal, current, origin float64) float64 {
	return progress(math.Abs(goal-origin), math.Abs(goal-current))
}

func intervalPointDegree(goal FuzzyIntervalFloat, current, origin float64) float64 {
	return progress(pointDistance(goal, origin), pointDistance(goal, current))
}

func intervalDegree(goal, current, origin FuzzyIntervalFloat) float64 {
	return progress(IntervalDistance(goal, origin), IntervalDistance(goal, current))
}

func pointDistance(goal FuzzyIntervalFloat, p float64) float64 {
	switch {
	case p < goal.Low:
		return goal.Low - p
	case p > goal.High:
		return p - goal.High
	default:
		return 0
	}
}

// IntervalDistance measures how far other is from lying inside goal. When
// other is entirely on one side, both boundary gaps are summed, so the gap
// is counted twice for degenerate intervals. When other straddles a goal
// boundary, only the overhang is counted. Intervals inside goal are at 0.
func IntervalDistance(goal, other FuzzyIntervalFloat) float64 {
	switch {
	case other.High < goal.Low:
		return (goal.Low - other.High) + (goal.Low - other.Low)
	case other.Low > goal.High:
		return (other.High - goal.High) + (other.Low - goal.High)
	case other.Low < goal.Low && other.High > goal.High:
		return (other.High - goal.High) + (goal.Low - other.Low)
	case other.Low < goal.Low && goal.Contains(other.High):
		return goal.Low - other.Low
	case other.High > goal.High && goal.Contains(other.Low):
		return other.High - goal.High
	default:
		return 0
	}
}
