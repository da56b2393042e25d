// Package simerr defines the engine's closed set of structured error
// kinds (§7). The hot path never panics; every failure a caller can act on
// is one of these.
package simerr

import "fmt"

// Kind is one of the engine's structured error categories.
type Kind int

const (
	// ConfigError marks inconsistent setup: cell size vs. force range,
	// unknown ids at wiring time.
	ConfigError Kind = iota
	// InvariantViolation marks a broken runtime invariant: coincident
	// agents, non-finite physics, missing neighbor geometry.
	InvariantViolation
	// EventError marks an unknown door/train id in an applied event.
	EventError
	// QueryError marks a malformed caller query: a non-convex polygon,
	// an unknown agent id.
	QueryError
)

func (k Kind) String() string {
	switch k {
	case ConfigError:
		return "ConfigError"
	case InvariantViolation:
		return "InvariantViolation"
	case EventError:
		return "EventError"
	case QueryError:
		return "QueryError"
	default:
		return "UnknownError"
	}
}

// Error is a structured engine failure carrying its Kind alongside the
// underlying message, so callers can branch with errors.As.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether err is a simerr.Error of the given kind.
func Is(err error, kind Kind) bool {
	se, ok := err.(*Error)
	return ok && se.Kind == kind
}

func newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NewConfigError builds a ConfigError.
func NewConfigError(format string, args ...any) *Error {
	return newf(ConfigError, format, args...)
}

// NewInvariantViolation builds an InvariantViolation.
func NewInvariantViolation(format string, args ...any) *Error {
	return newf(InvariantViolation, format, args...)
}

// NewEventError builds an EventError.
func NewEventError(format string, args ...any) *Error {
	return newf(EventError, format, args...)
}

// NewQueryError builds a QueryError.
func NewQueryError(format string, args ...any) *Error {
	return newf(QueryError, format, args...)
}

// Wrap attaches an underlying error to a new structured error of kind.
func Wrap(kind Kind, err error, format string, args ...any) *Error {
	e := newf(kind, format, args...)
	e.Err = err
	return e
}
