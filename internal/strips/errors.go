package strips

import (
	"errors"
	"log/slog"
	"sync/atomic"
)

var (
	// ErrTypeMismatch is returned when a value's variant does not match the
	// declared type of the variable it is stored in or compared with.
	ErrTypeMismatch = errors.New("strips: type mismatch")

	// ErrInvalidOperator is returned by NewEffect when the operator is not
	// defined for the target's value type.
	ErrInvalidOperator = errors.New("strips: invalid operator for value type")

	// ErrUnsupportedOperation is returned by Effect.Apply when the
	// operator/value combination is outside the operator table, e.g.
	// reversing a boolean that is neither "true" nor "false".
	ErrUnsupportedOperation = errors.New("strips: unsupported operation")

	// ErrDivisionByZero is returned by Effect.Apply for a Div by zero.
	ErrDivisionByZero = errors.New("strips: division by zero")

	// ErrUngroundable is returned when a placeholder has no entry in the
	// grounding map. Callers treat the rule instance as inapplicable.
	ErrUngroundable = errors.New("strips: ungroundable placeholder")

	// ErrNotNumeric is returned when a numeric value is required but the
	// state or value is not numeric.
	ErrNotNumeric = errors.New("strips: not numeric")

	// ErrPhase is returned when an Attempt is driven out of order, or past
	// a terminal phase.
	ErrPhase = errors.New("strips: invalid attempt phase")

	// ErrBlocked is returned by Attempt.Run when the grounded preconditions
	// do not hold in the world.
	ErrBlocked = errors.New("strips: preconditions not satisfied")
)

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger replaces the logger used by this package. A nil logger restores
// slog.Default.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

func logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}
