// Package strips is the action-schema core of the planner: typed state
// variables, effects on them, and rules that tie preconditions to effects.
//
// A State is a named, typed, qualified fact about an ordered list of
// owners, e.g. "distance(robot, kitchen) less_than 5". Comparing a current
// State with a goal yields both a verdict and a degree of progress relative
// to an origin, which the planner uses as a heuristic.
//
// Rules are authored once as templates whose parameters are placeholders
// (see IntVar, EntityVar and friends). Each planning attempt supplies a
// Grounding, and Rule.Ground returns a substituted copy using the rule's
// ParameterIndex; templates are never mutated. Attempt wraps one such use
// and tracks its lifecycle.
//
// Values form a closed set (see Value). Boolean, int and float variables
// may additionally hold their textual encoding as a String, which is
// interpreted wherever a typed value is needed.
package strips
