package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput signals a malformed request value.
	ErrInvalidInput = errors.New("invalid input")
	// ErrCompilation signals an attribute query the compiler cannot express.
	ErrCompilation = errors.New("query compilation failed")
	// ErrPersistence signals a bulk write that reported failures.
	ErrPersistence = errors.New("persistence failed")
	// ErrTimeout signals a store call that exceeded its deadline.
	ErrTimeout = errors.New("store call timed out")
)

// CompilationError names the attribute that could not be compiled.
// It is a caller error and must not be retried.
type CompilationError struct {
	Attribute string
	Reason    string
}

func (e *CompilationError) Error() string {
	return fmt.Sprintf("%s: attribute %q: %s", ErrCompilation.Error(), e.Attribute, e.Reason)
}

func (e *CompilationError) Unwrap() error { return ErrCompilation }

// NewCompilationError creates a compilation error for the given attribute.
func NewCompilationError(attribute, reason string) error {
	return &CompilationError{Attribute: attribute, Reason: reason}
}

// DocumentFailure is a single rejected write inside a bulk request.
type DocumentFailure struct {
	Index  string
	ID     string
	Reason string
}

// PersistenceError identifies the entity whose writes failed.
// Failures lists the individual documents the store rejected, when known.
type PersistenceError struct {
	EntityID string
	Failures []DocumentFailure
	Err      error
}

func (e *PersistenceError) Error() string {
	var b strings.Builder
	b.WriteString(ErrPersistence.Error())
	b.WriteString(": entity ")
	b.WriteString(e.EntityID)
	if len(e.Failures) > 0 {
		fmt.Fprintf(&b, ": %d document(s) failed", len(e.Failures))
		for i, f := range e.Failures {
			if i == 3 {
				fmt.Fprintf(&b, ", ... %d more", len(e.Failures)-i)
				break
			}
			fmt.Fprintf(&b, "; %s/%s: %s", f.Index, f.ID, f.Reason)
		}
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Is matches ErrPersistence so callers can use errors.Is with the sentinel
// while the wrapped cause stays reachable through Unwrap.
func (e *PersistenceError) Is(target error) bool { return target == ErrPersistence }

func (e *PersistenceError) Unwrap() error { return e.Err }

// TimeoutError reports the store operation that exceeded its deadline.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s: %s after %s", ErrTimeout.Error(), e.Op, e.Timeout)
}

// Is matches both ErrTimeout and context.DeadlineExceeded.
func (e *TimeoutError) Is(target error) bool {
	return target == ErrTimeout || target == context.DeadlineExceeded
}

// AsTimeout converts a deadline error into a TimeoutError for op.
// Other errors are returned unchanged.
func AsTimeout(err error, op string, timeout time.Duration) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) {
		var te *TimeoutError
		if errors.As(err, &te) {
			return err
		}
		return &TimeoutError{Op: op, Timeout: timeout}
	}
	return err
}
