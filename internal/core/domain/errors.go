package domain

import (
	"context"
	"errors"
	"fmt"
)

// OpError is a classified failure from the driver or executor. Retryable
// carries the transient/structural distinction explicitly, so retry policy
// is a pure function of the error value rather than of error types.
type OpError struct {
	Op        string // operation that failed, e.g. "submit_approver"
	Retryable bool
	Err       error
}

func (e *OpError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Transient wraps err as a retryable failure of op (timeouts, stale
// elements, lost windows, intercepted clicks).
func Transient(op string, err error) error {
	return &OpError{Op: op, Retryable: true, Err: err}
}

// Transientf is Transient with a formatted message and no cause.
func Transientf(op, format string, args ...any) error {
	return &OpError{Op: op, Retryable: true, Err: fmt.Errorf(format, args...)}
}

// Structural wraps err as a non-retryable failure of op: the remote state
// does not match expectations and a blind retry will not fix it.
func Structural(op string, err error) error {
	return &OpError{Op: op, Retryable: false, Err: err}
}

// Structuralf is Structural with a formatted message and no cause.
func Structuralf(op, format string, args ...any) error {
	return &OpError{Op: op, Retryable: false, Err: fmt.Errorf(format, args...)}
}

// IsRetryable classifies err. Process cancellation is never retryable.
// Otherwise an explicit OpError classification wins, and unclassified errors
// default to non-retryable: anything worth retrying is expected to have been
// wrapped with Transient at the point of failure. A per-call deadline
// (context.DeadlineExceeded) is only retryable when the driver classified it
// as such.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Retryable
	}
	return false
}
