// Package errors provides the error codes used by the docstore-boot
// autoconfiguration layer.
//
// Every failure surfaced by the startup pass is an *Errno, or wraps one, so
// callers can match on the code with errors.Is regardless of the message:
//
//	if errors.Is(err, autoerrors.ErrConfiguration) {
//	    // malformed settings or a malformed condition
//	}
//
// Two structured kinds sit on top of the codes: ConfigurationError names the
// offending field, and UnresolvedDependencyError names the component whose
// collaborator could not be found.
package errors

import (
	"fmt"
	"sync"
)

// Errno represents a structured error with a code and a message.
type Errno struct {
	// Code is the unique error code.
	Code int `json:"code"`

	// Message is the human-readable message.
	Message string `json:"message"`

	cause error
}

// Error implements the error interface.
func (e *Errno) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("errno %d: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("errno %d: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Errno) Unwrap() error {
	return e.cause
}

// Is checks if this error matches the target error code.
func (e *Errno) Is(target error) bool {
	if t, ok := target.(*Errno); ok {
		return e.Code == t.Code
	}
	return false
}

// WithCause creates a new Errno with the given cause.
func (e *Errno) WithCause(cause error) *Errno {
	return &Errno{
		Code:    e.Code,
		Message: e.Message,
		cause:   cause,
	}
}

// WithMessage creates a new Errno with a custom message.
func (e *Errno) WithMessage(msg string) *Errno {
	return &Errno{
		Code:    e.Code,
		Message: msg,
		cause:   e.cause,
	}
}

// WithMessagef creates a new Errno with a formatted message.
func (e *Errno) WithMessagef(format string, args ...interface{}) *Errno {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// Format implements fmt.Formatter.
func (e *Errno) Format(s fmt.State, verb rune) {
	switch verb {
	case 'v':
		if s.Flag('+') {
			_, _ = fmt.Fprintf(s, "errno %d: %s", e.Code, e.Message)
			if e.cause != nil {
				_, _ = fmt.Fprintf(s, "\ncaused by: %+v", e.cause)
			}
			return
		}
		fallthrough
	case 's':
		_, _ = fmt.Fprint(s, e.Error())
	case 'q':
		_, _ = fmt.Fprintf(s, "%q", e.Error())
	}
}

var (
	errnoRegistry = make(map[int]*Errno)
	registryMu    sync.RWMutex
)

// Register registers an Errno and validates uniqueness.
// Panics if the code is already registered.
func Register(e *Errno) *Errno {
	registryMu.Lock()
	defer registryMu.Unlock()

	if existing, ok := errnoRegistry[e.Code]; ok {
		panic(fmt.Sprintf("errno code %d already registered: %s", e.Code, existing.Message))
	}
	errnoRegistry[e.Code] = e
	return e
}

// Lookup returns the registered Errno for the given code.
func Lookup(code int) (*Errno, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	e, ok := errnoRegistry[code]
	return e, ok
}

// GetCode returns the code of the first Errno in err's chain, or -1.
func GetCode(err error) int {
	for err != nil {
		if e, ok := err.(*Errno); ok {
			return e.Code
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return -1
		}
		err = u.Unwrap()
	}
	return -1
}

var (
	// ErrInternal is a generic internal failure.
	ErrInternal = Register(&Errno{
		Code:    MakeCode(ServiceCommon, CategoryInternal, 0),
		Message: "internal error",
	})

	// ErrConfiguration reports malformed or inconsistent settings, or a
	// malformed condition.
	ErrConfiguration = Register(&Errno{
		Code:    MakeCode(ServiceAutoconf, CategoryConfig, 0),
		Message: "invalid configuration",
	})

	// ErrUnresolvedDependency reports a component whose collaborator is absent
	// and has no fallback.
	ErrUnresolvedDependency = Register(&Errno{
		Code:    MakeCode(ServiceAutoconf, CategoryDependency, 0),
		Message: "unresolved dependency",
	})

	// ErrComponentExists reports a second registration under an existing name.
	ErrComponentExists = Register(&Errno{
		Code:    MakeCode(ServiceAutoconf, CategoryResource, 1),
		Message: "component already registered",
	})

	// ErrConnectionFailed reports that the document store could not be reached.
	ErrConnectionFailed = Register(&Errno{
		Code:    MakeCode(ServiceDocstore, CategoryNetwork, 0),
		Message: "failed to connect to document store",
	})

	// ErrNotConnected reports use of a closed or never-opened client.
	ErrNotConnected = Register(&Errno{
		Code:    MakeCode(ServiceDocstore, CategoryNetwork, 1),
		Message: "document store client is not connected",
	})

	// ErrCacheOperation reports a failed cache store operation.
	ErrCacheOperation = Register(&Errno{
		Code:    MakeCode(ServiceCacheImpl, CategoryCache, 0),
		Message: "cache operation failed",
	})
)
