package pabt

import (
	"fmt"
	"log/slog"
	"sync"

	pabtpkg "github.com/joeycumines/go-pabt"
	"github.com/joeycumines/strips/internal/world"
)

var _ pabtpkg.IState = (*State)(nil)

// State implements pabtpkg.IState backed by a world snapshot. Variables are
// facts, keyed by state key; a missing fact reads as nil.
//
// Actions come from a static registry and, optionally, from an action
// generator that grounds parametric rules for the failed condition.
type State struct {
	world   *world.Snapshot
	actions *ActionRegistry

	mu              sync.RWMutex
	actionGenerator ActionGeneratorFunc
}

// ActionGeneratorFunc generates the actions that could satisfy failed.
// When it returns any action for a condition it is authoritative, and the
// static registry is not consulted for that condition.
type ActionGeneratorFunc func(failed pabtpkg.Condition) ([]pabtpkg.IAction, error)

// NewState creates a State over w.
func NewState(w *world.Snapshot) *State {
	return &State{
		world:   w,
		actions: NewActionRegistry(),
	}
}

// World returns the snapshot the state reads.
func (s *State) World() *world.Snapshot { return s.world }

// SetActionGenerator sets the dynamic action generator. nil clears it.
func (s *State) SetActionGenerator(gen ActionGeneratorFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actionGenerator = gen
}

// ActionGenerator returns the current action generator, or nil.
func (s *State) ActionGenerator() ActionGeneratorFunc {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actionGenerator
}

// RegisterAction adds an action to the static registry.
func (s *State) RegisterAction(name string, action pabtpkg.IAction) {
	s.actions.Register(name, action)
}

// Variable implements pabtpkg.IState. It returns a copy of the fact as a
// *strips.State, or nil when the world holds none.
func (s *State) Variable(key any) (any, error) {
	var k string
	switch v := key.(type) {
	case nil:
		return nil, fmt.Errorf("variable key cannot be nil")
	case string:
		k = v
	case fmt.Stringer:
		k = v.String()
	default:
		return nil, fmt.Errorf("unsupported key type: %T", key)
	}
	fact := s.world.Get(k)
	if fact == nil {
		return nil, nil
	}
	return fact, nil
}

// Actions implements pabtpkg.IState. It returns the actions with an
// effect on the failed condition's key whose value the condition accepts.
// A nil condition returns every registered action.
func (s *State) Actions(failed pabtpkg.Condition) ([]pabtpkg.IAction, error) {
	registered := s.actions.All()
	if failed == nil {
		return registered, nil
	}
	failedKey := failed.Key()

	var relevant []pabtpkg.IAction
	generatorHandled := false
	if gen := s.ActionGenerator(); gen != nil {
		generated, err := gen(failed)
		if err != nil {
			slog.Warn("action generator failed, using registered actions", "key", failedKey, "error", err)
		} else {
			for _, a := range generated {
				if hasRelevantEffect(a, failedKey, failed) {
					relevant = append(relevant, a)
				}
			}
			generatorHandled = len(generated) > 0
		}
	}
	if !generatorHandled {
		for _, a := range registered {
			if hasRelevantEffect(a, failedKey, failed) {
				relevant = append(relevant, a)
			}
		}
	}

	slog.Debug("pabt actions", "key", failedKey, "relevant", len(relevant), "generated", generatorHandled)
	return relevant, nil
}

func hasRelevantEffect(action pabtpkg.IAction, failedKey any, failed pabtpkg.Condition) bool {
	for _, e := range action.Effects() {
		if e == nil {
			continue
		}
		if e.Key() == failedKey && failed.Match(e.Value()) {
			return true
		}
	}
	return false
}
