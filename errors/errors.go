package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"slices"
	"strings"
)

// ForgeError is the structured error carried through the engine.
// It pairs a stable ErrorCode with a human message, optional diagnostic context
// and the underlying cause.
type ForgeError struct {
	// Code classifies the error.
	Code ErrorCode

	// Message is a short human-readable description of what failed.
	Message string

	// Context holds identifiers (component, repository, tag, ...) useful to diagnose
	// the failure without re-running.
	Context map[string]any

	// Cause is the wrapped error, if any.
	Cause error
}

// Error implements the error interface.
// The format is "<message> [k=v ...]: <cause>" with context keys sorted.
func (e *ForgeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)

	if len(e.Context) > 0 {
		keys := slices.Sorted(maps.Keys(e.Context))
		b.WriteString(" [")
		for i, k := range keys {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%v", k, e.Context[k])
		}
		b.WriteString("]")
	}

	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

// Unwrap returns the wrapped cause so errors.Is and errors.As traverse the chain.
func (e *ForgeError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a ForgeError with the same code and no message,
// which allows sentinel-style matching: errors.Is(err, &ForgeError{Code: CodeNotFound}).
func (e *ForgeError) Is(target error) bool {
	t, ok := target.(*ForgeError)
	if !ok {
		return false
	}
	return t.Message == "" && t.Code == e.Code
}

// New creates a ForgeError without a cause.
func New(code ErrorCode, message string) error {
	return &ForgeError{Code: code, Message: message}
}

// Newf creates a ForgeError with a formatted message.
func Newf(code ErrorCode, format string, args ...any) error {
	return &ForgeError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps err with a code and message. It returns nil when err is nil.
func Wrap(err error, code ErrorCode, message string) error {
	if err == nil {
		return nil
	}
	return &ForgeError{Code: code, Message: message, Cause: err}
}

// Wrapf wraps err with a code and formatted message. It returns nil when err is nil.
func Wrapf(err error, code ErrorCode, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return &ForgeError{Code: code, Message: fmt.Sprintf(format, args...), Cause: err}
}

// WrapWithContext wraps err with a code, message and diagnostic context.
// A nil err produces a ForgeError without cause so callers can use it for
// validation failures too.
func WrapWithContext(err error, code ErrorCode, message string, ctx map[string]any) error {
	return &ForgeError{Code: code, Message: message, Context: ctx, Cause: err}
}

// GetCode returns the code of the outermost ForgeError in the chain,
// or CodeUnknown if there is none.
func GetCode(err error) ErrorCode {
	var fe *ForgeError
	if stderrors.As(err, &fe) {
		return fe.Code
	}
	return CodeUnknown
}

// HasCode reports whether any ForgeError in the chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &ForgeError{Code: code})
}

// GetContext returns the context of the outermost ForgeError in the chain.
func GetContext(err error) map[string]any {
	var fe *ForgeError
	if stderrors.As(err, &fe) {
		return fe.Context
	}
	return nil
}

// Is is a passthrough to the standard library so callers only import one errors package.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As is a passthrough to the standard library.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Join is a passthrough to the standard library.
func Join(errs ...error) error {
	return stderrors.Join(errs...)
}
