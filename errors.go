package gbt

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies the errors this package returns, following the error
// taxonomy in the design: bad input, bad configuration, resource
// exhaustion, and corrupt model files. Cancellation is not an error; a
// cancelled Train call returns a partial Ensemble with Truncated set.
type Kind int

const (
	// InvalidInput covers shape mismatches, out-of-range categorical
	// variants, and non-finite regression labels.
	InvalidInput Kind = iota
	// ConfigError covers conflicting or out-of-range TrainOptions.
	ConfigError
	// Resource covers allocation failures surfaced by the runtime.
	Resource
	// Corrupt covers model deserialization failures.
	Corrupt
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "invalid input"
	case ConfigError:
		return "config error"
	case Resource:
		return "resource"
	case Corrupt:
		return "corrupt"
	default:
		return "unknown"
	}
}

// Error is the error type returned for every failure this package
// classifies. Use errors.As to recover the Kind.
type Error struct {
	Kind    Kind
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("gbt: %s: %s: %s", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("gbt: %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

func newError(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func wrapError(kind Kind, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: errors.WithStack(cause)}
}
