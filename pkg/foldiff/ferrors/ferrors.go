// Package ferrors defines the error taxonomy shared by every Foldiff
// component. Errors are never recovered locally: they propagate to the
// top-level command, which formats a single diagnostic line identifying the
// kind, the affected path (if any), and the underlying cause, then exits with
// the corresponding nonzero code.
package ferrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind identifies which branch of the error taxonomy an error belongs to.
type Kind string

// Recognized error kinds.
const (
	// KindInput covers missing roots, unreadable files, symbolic links, and
	// paths that cannot be encoded as UTF-8.
	KindInput Kind = "input"
	// KindFormat covers bad magic bytes, manifest parse failures,
	// unsupported versions, and framing lengths that run past the end of
	// the stream.
	KindFormat Kind = "format"
	// KindIntegrity covers hash mismatches on old-side validation or
	// new-side post-conditions.
	KindIntegrity Kind = "integrity"
	// KindCompression covers zstd failures during encode or decode.
	KindCompression Kind = "compression"
	// KindIO covers underlying filesystem or stream failures.
	KindIO Kind = "io"
	// KindCancelled covers user-requested aborts.
	KindCancelled Kind = "cancelled"
)

// ExitCode returns the process exit code conventionally associated with a
// kind, per the CLI surface in §6. The same mapping is used by every
// command, so KindIntegrity maps to 3 whichever command raised it.
func (k Kind) ExitCode() int {
	switch k {
	case KindInput:
		return 2
	case KindIntegrity:
		return 3
	case KindCancelled:
		return 130
	default:
		return 1
	}
}

// Error is the concrete error type used throughout Foldiff. It carries a
// Kind, an optional affected path, and an underlying cause.
type Error struct {
	// kind is the error taxonomy branch.
	kind Kind
	// path is the affected path, if any.
	path string
	// cause is the underlying error.
	cause error
}

// Kind returns the error's taxonomy branch.
func (e *Error) Kind() Kind {
	return e.kind
}

// Path returns the affected path, if any.
func (e *Error) Path() string {
	return e.path
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.path != "" {
		return fmt.Sprintf("%s: %s: %v", e.kind, e.path, e.cause)
	}
	return fmt.Sprintf("%s: %v", e.kind, e.cause)
}

// Unwrap allows errors.Is/errors.As to see through to the underlying cause.
func (e *Error) Unwrap() error {
	return e.cause
}

// newError constructs an *Error, wrapping cause with message via
// github.com/pkg/errors so that a stack trace is captured at the point of
// construction, matching the rest of the codebase's error-wrapping
// convention.
func newError(kind Kind, path, message string, cause error) *Error {
	wrapped := cause
	if message != "" {
		if cause == nil {
			wrapped = errors.New(message)
		} else {
			wrapped = errors.Wrap(cause, message)
		}
	}
	return &Error{kind: kind, path: path, cause: wrapped}
}

// Input constructs a KindInput error.
func Input(path, message string, cause error) *Error {
	return newError(KindInput, path, message, cause)
}

// Format constructs a KindFormat error.
func Format(message string, cause error) *Error {
	return newError(KindFormat, "", message, cause)
}

// Integrity constructs a KindIntegrity error.
func Integrity(path, message string, cause error) *Error {
	return newError(KindIntegrity, path, message, cause)
}

// Compression constructs a KindCompression error.
func Compression(path, message string, cause error) *Error {
	return newError(KindCompression, path, message, cause)
}

// IO constructs a KindIO error.
func IO(path, message string, cause error) *Error {
	return newError(KindIO, path, message, cause)
}

// Cancelled constructs a KindCancelled error.
func Cancelled() *Error {
	return newError(KindCancelled, "", "operation cancelled", nil)
}
