// Package common - Error kinds shared by every stage of a blur run.
package common

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies a failure so the command can report it and pick an exit status.
type Kind int

const (
	// KindUnknown is any error that was not produced through this package.
	KindUnknown Kind = iota
	// KindIO means a file could not be opened, read, or written.
	KindIO
	// KindFormat means the input is not an uncompressed 24-bit BMP.
	KindFormat
	// KindArgument means the run was configured with missing or invalid values.
	KindArgument
)

// String returns the name used in error messages.
func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindFormat:
		return "FormatError"
	case KindArgument:
		return "ArgumentError"
	default:
		return "Error"
	}
}

// Error is a classified error. Err keeps the pkg/errors stack of the original failure.
type Error struct {
	// Kind is the failure class.
	Kind Kind
	// Op names the operation that failed (e.g. "open input", "read header").
	Op string
	// Err is the wrapped cause.
	Err error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error { return e.Err }

// Cause exposes the cause to errors.Cause.
func (e *Error) Cause() error { return e.Err }

// IOError classifies err as an I/O failure of op. A nil err yields nil.
func IOError(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindIO, Op: op, Err: errors.WithStack(err)}
}

// FormatErrorf builds a format error with a formatted message.
func FormatErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindFormat, Err: errors.Errorf(format, args...)}
}

// WrapFormat classifies err as a format failure of op. A nil err yields nil.
func WrapFormat(err error, op string) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: KindFormat, Op: op, Err: errors.WithStack(err)}
}

// ArgumentErrorf builds an argument error with a formatted message.
func ArgumentErrorf(format string, args ...interface{}) error {
	return &Error{Kind: KindArgument, Err: errors.Errorf(format, args...)}
}

// KindOf returns the kind of the outermost classified error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}
