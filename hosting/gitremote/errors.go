package gitremote

import (
	"errors"
	"fmt"
)

// ErrTagExists is returned when creating a tag that already exists in the clone.
var ErrTagExists = errors.New("tag already exists")

// ErrTagMissing is returned when pushing a tag reference that was never created.
var ErrTagMissing = errors.New("tag does not exist")

// ErrInvalidRef is returned for malformed names or revisions.
var ErrInvalidRef = errors.New("invalid reference")

// ErrResolveFailed is returned when a revision cannot be resolved to an object.
var ErrResolveFailed = errors.New("cannot resolve revision")

// ErrAuthRequired is returned when the remote asks for credentials that were not given.
var ErrAuthRequired = errors.New("authentication required")

// WrapError wraps an error with additional context while preserving
// the ability to check against sentinel errors using errors.Is().
func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// WrapErrorf wraps an error with formatted additional context.
func WrapErrorf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
