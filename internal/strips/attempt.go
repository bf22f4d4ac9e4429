package strips

import (
	"fmt"
	"strconv"

	"github.com/google/uuid"
)

// Phase is the lifecycle position of an Attempt.
type Phase int

const (
	PhaseTemplate Phase = iota
	PhaseGrounded
	PhaseGroundingFailed
	PhaseApplicable
	PhaseBlocked
	PhaseEffectsApplied
)

var phaseNames = [...]string{
	PhaseTemplate:        "template",
	PhaseGrounded:        "grounded",
	PhaseGroundingFailed: "grounding_failed",
	PhaseApplicable:      "applicable",
	PhaseBlocked:         "blocked",
	PhaseEffectsApplied:  "effects_applied",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "Phase(" + strconv.Itoa(int(p)) + ")"
	}
	return phaseNames[p]
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	switch p {
	case PhaseGroundingFailed, PhaseBlocked, PhaseEffectsApplied:
		return true
	default:
		return false
	}
}

// WorldState resolves the recorded state of a variable. Lookup reports
// false when the world holds no fact for it.
type WorldState interface {
	Lookup(s *State) (*State, bool)
}

// Attempt tracks one use of a rule template with one grounding:
//
//	template -> grounded -> applicable -> effects_applied
//	         \-> grounding_failed
//	                     \-> blocked
//
// The template is never modified. An Attempt is not safe for concurrent
// use.
type Attempt struct {
	id        string
	template  *Rule
	grounding Grounding
	rule      *Rule
	phase     Phase
	degree    float64
	err       error
	results   []*State
}

// NewAttempt starts an attempt of template with grounding g.
func NewAttempt(template *Rule, g Grounding) *Attempt {
	return &Attempt{
		id:        uuid.NewString(),
		template:  template,
		grounding: g,
		phase:     PhaseTemplate,
	}
}

func (a *Attempt) ID() string   { return a.id }
func (a *Attempt) Phase() Phase { return a.phase }

// Rule returns the grounded rule, or nil before grounding succeeded.
func (a *Attempt) Rule() *Rule { return a.rule }

// Template returns the rule the attempt was created from.
func (a *Attempt) Template() *Rule { return a.template }

// Degree returns the mean satisfaction degree of the preconditions, as
// computed by Check.
func (a *Attempt) Degree() float64 { return a.degree }

// Err returns the error that put the attempt into a failed phase.
func (a *Attempt) Err() error { return a.err }

// Results returns copies of the states written by Apply.
func (a *Attempt) Results() []*State {
	if a.results == nil {
		return nil
	}
	out := make([]*State, len(a.results))
	for i, s := range a.results {
		out[i] = s.Clone()
	}
	return out
}

func (a *Attempt) expect(p Phase, op string) error {
	if a.phase != p {
		return fmt.Errorf("%w: %s in phase %s, want %s", ErrPhase, op, a.phase, p)
	}
	return nil
}

// Ground substitutes the grounding into a copy of the template.
func (a *Attempt) Ground() error {
	if err := a.expect(PhaseTemplate, "ground"); err != nil {
		return err
	}
	r, err := a.template.Ground(a.grounding)
	if err != nil {
		a.phase, a.err = PhaseGroundingFailed, err
		logger().Debug("attempt grounding failed", "attempt", a.id, "rule", a.template.Name(), "error", err)
		return err
	}
	a.rule, a.phase = r, PhaseGrounded
	return nil
}

// Check evaluates every grounded precondition against world. A
// precondition without a recorded fact is observed through its live
// lookup when it has one, and is unsatisfied otherwise.
func (a *Attempt) Check(world WorldState) (bool, error) {
	if err := a.expect(PhaseGrounded, "check"); err != nil {
		return false, err
	}
	ok, total := true, 0.0
	for _, p := range a.rule.preconditions {
		current, found := world.Lookup(p)
		if !found {
			if !p.HasInquiry() {
				logger().Debug("precondition has no fact", "attempt", a.id, "state", p.Key())
				ok = false
				continue
			}
			current = p.Observation()
		}
		sat, degree := current.IsSatisfiedBy(p, nil)
		total += degree
		if !sat {
			ok = false
		}
	}
	if n := len(a.rule.preconditions); n > 0 {
		a.degree = total / float64(n)
	} else {
		a.degree = 1
	}
	if !ok {
		a.phase = PhaseBlocked
		a.err = fmt.Errorf("%w: rule %s", ErrBlocked, a.rule.Name())
		return false, nil
	}
	a.phase = PhaseApplicable
	return true, nil
}

// Apply applies every effect of the grounded rule to the fact world records
// for its target, or to the target as authored when there is none, and
// returns the updated target states. Either all effects apply or none do.
// world is not written to.
func (a *Attempt) Apply(world WorldState) ([]*State, error) {
	if err := a.expect(PhaseApplicable, "apply"); err != nil {
		return nil, err
	}
	staged := make([]*State, len(a.rule.effects))
	for i, b := range a.rule.effects {
		current, _ := world.Lookup(b.Effect.target)
		next, err := b.Effect.Preview(current)
		if err != nil {
			logger().Warn("attempt effect failed", "attempt", a.id, "rule", a.rule.Name(), "error", err)
			return nil, err
		}
		staged[i] = next
	}
	a.results = make([]*State, len(staged))
	for i, next := range staged {
		e := a.rule.effects[i].Effect.Clone()
		e.target = next.Clone()
		a.rule.effects[i].Effect = e
		a.results[i] = next
	}
	a.phase = PhaseEffectsApplied
	logger().Debug("attempt applied", "attempt", a.id, "rule", a.rule.Name(), "effects", len(staged))
	return a.Results(), nil
}

// Run drives the attempt through every phase. A blocked attempt reports
// ErrBlocked.
func (a *Attempt) Run(world WorldState) ([]*State, error) {
	if err := a.Ground(); err != nil {
		return nil, err
	}
	ok, err := a.Check(world)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, a.err
	}
	return a.Apply(world)
}
