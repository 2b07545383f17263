// Package errors provides centralized error definitions and error handling utilities
// for procthread. Every primitive reports failure as a *PrimitiveError that wraps
// the underlying OS error code (a syscall.Errno), so callers can either match on
// the code with errors.Is or read it back as a plain integer with Code.
//
// # Error Kinds
//
// Errors are classified into the taxonomy the primitives share:
//   - KindResourceExhaustion: a primitive or buffer could not be allocated
//   - KindOSFailure: the underlying platform call failed
//   - KindTimeout: a bounded wait expired, or a try-variant found the lock busy
//   - KindMisuse: the caller broke the protocol (unlocking a lock it does not
//     hold, touching a destroyed primitive, joining a detached thread)
//
// # Usage
//
//	err := errors.NewPrimitiveError("mutex", "trylock", syscall.EBUSY)
//
//	if errors.Is(err, syscall.EBUSY) { ... }
//	if errors.Code(err) != 0 { ... }
//	if errors.KindOf(err) == errors.KindTimeout { ... }
//
// No operation in this module retries; retry policy belongs to callers, who
// can consult IsRetryable.
package errors

import (
	"errors"
	"fmt"
	"syscall"
)

// Re-export standard library functions for convenience.
// This allows callers to import only this package for all error handling.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	New    = errors.New
	Join   = errors.Join
)

// Kind classifies an error within the primitive layer's taxonomy.
type Kind int

const (
	// KindUnknown is reported for errors that did not originate in this module.
	KindUnknown Kind = iota
	// KindResourceExhaustion is an allocation failure while creating a primitive.
	KindResourceExhaustion
	// KindOSFailure is a failed platform call.
	KindOSFailure
	// KindTimeout is an expired bounded wait or a busy try-variant.
	KindTimeout
	// KindMisuse is a protocol violation by the caller.
	KindMisuse
)

// String returns the string representation of the kind.
func (k Kind) String() string {
	switch k {
	case KindResourceExhaustion:
		return "resource_exhaustion"
	case KindOSFailure:
		return "os_failure"
	case KindTimeout:
		return "timeout"
	case KindMisuse:
		return "misuse"
	default:
		return "unknown"
	}
}

// -----------------------------------------------------------------------------
// Sentinel Errors
// -----------------------------------------------------------------------------

// Codes shared by every primitive. They are plain syscall.Errno values so the
// numeric code survives unchanged through wrapping.
var (
	// ErrBusy indicates a try-variant found the primitive held, or a destroy
	// found it in use.
	ErrBusy = syscall.EBUSY
	// ErrTimedOut indicates a bounded wait expired before it was satisfied.
	ErrTimedOut = syscall.ETIMEDOUT
	// ErrDestroyed indicates the primitive was used after Destroy.
	ErrDestroyed = syscall.EINVAL
	// ErrNotOwner indicates an unlock of a lock the caller does not hold.
	ErrNotOwner = syscall.EPERM
	// ErrNoMemory indicates an allocation failure on create.
	ErrNoMemory = syscall.ENOMEM
)

// Protocol sentinels. They are wrapped in a PrimitiveError carrying EINVAL.
var (
	// ErrInvalidHandle indicates a thread handle that was already joined or detached.
	ErrInvalidHandle = New("thread handle already released")
	// ErrNoOrigin indicates a reply to a message that carried no origin mailbox.
	ErrNoOrigin = New("message has no origin mailbox")
	// ErrThreadPanicked indicates the thread entry function panicked.
	ErrThreadPanicked = New("thread entry panicked")
)

// -----------------------------------------------------------------------------
// PrimitiveError
// -----------------------------------------------------------------------------

// PrimitiveError reports a failed operation on one primitive.
//
// Example:
//
//	err := errors.NewPrimitiveError("cond", "timedwait", syscall.ETIMEDOUT)
//	fmt.Println(err) // "cond timedwait: connection timed out"
type PrimitiveError struct {
	Primitive string
	Op        string
	Errno     syscall.Errno
	cause     error
}

// NewPrimitiveError creates a PrimitiveError for the given errno.
func NewPrimitiveError(primitive, op string, errno syscall.Errno) *PrimitiveError {
	return &PrimitiveError{
		Primitive: primitive,
		Op:        op,
		Errno:     errno,
	}
}

// WithCause attaches a more specific cause alongside the errno.
func (e *PrimitiveError) WithCause(cause error) *PrimitiveError {
	e.cause = cause
	return e
}

// Error returns the formatted error message.
func (e *PrimitiveError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s %s: %v: %v", e.Primitive, e.Op, e.cause, e.Errno)
	}
	return fmt.Sprintf("%s %s: %v", e.Primitive, e.Op, e.Errno)
}

// Unwrap returns the errno and, when present, the attached cause.
func (e *PrimitiveError) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Errno, e.cause}
	}
	return []error{e.Errno}
}

// Code returns the numeric OS error code.
func (e *PrimitiveError) Code() int {
	return int(e.Errno)
}

// Kind classifies the error.
func (e *PrimitiveError) Kind() Kind {
	return kindOfErrno(e.Errno)
}

func kindOfErrno(errno syscall.Errno) Kind {
	switch errno {
	case syscall.ENOMEM, syscall.EAGAIN:
		return KindResourceExhaustion
	case syscall.ETIMEDOUT, syscall.EBUSY:
		return KindTimeout
	case syscall.EINVAL, syscall.EPERM, syscall.EDEADLK:
		return KindMisuse
	default:
		return KindOSFailure
	}
}

// -----------------------------------------------------------------------------
// Classification Helpers
// -----------------------------------------------------------------------------

// Code returns the OS error code carried by err: 0 for nil, the errno for a
// PrimitiveError or bare syscall.Errno, and EIO for anything else.
func Code(err error) int {
	if err == nil {
		return 0
	}
	var errno syscall.Errno
	if As(err, &errno) {
		return int(errno)
	}
	return int(syscall.EIO)
}

// KindOf classifies err. Errors that carry no errno are KindUnknown.
func KindOf(err error) Kind {
	if err == nil {
		return KindUnknown
	}
	var errno syscall.Errno
	if As(err, &errno) {
		return kindOfErrno(errno)
	}
	return KindUnknown
}

// IsTimeout reports whether err is an expired bounded wait.
func IsTimeout(err error) bool {
	return Is(err, syscall.ETIMEDOUT)
}

// IsBusy reports whether err is a busy try-variant or destroy.
func IsBusy(err error) bool {
	return Is(err, syscall.EBUSY)
}

// IsRetryable reports whether the operation may succeed if the caller tries
// again. Timeouts, busy locks and transient allocation failures qualify;
// protocol misuse never does.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindResourceExhaustion:
		return true
	default:
		return false
	}
}

// Wrap wraps an error with additional context.
// Returns nil if err is nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with a formatted message.
// Returns nil if err is nil.
func Wrapf(err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
