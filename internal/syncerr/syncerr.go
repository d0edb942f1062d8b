// Package syncerr classifies resolver and gateway errors into Transient or
// Permanent, and carries that classification through the call chain so the
// state-machine driver can decide what to retry. Grounded on
// ProcessError/MapToProcessError.
package syncerr

import (
	"context"
	"errors"
	"net"
)

// Kind is the retriability classification of an error.
type Kind int

const (
	// Transient errors are safe to retry within the same run's retry budget.
	Transient Kind = iota
	// Permanent errors will never succeed on retry and must not be retried.
	Permanent
)

func (k Kind) String() string {
	if k == Transient {
		return "transient"
	}
	return "permanent"
}

// HTTPStatusError wraps a non-2xx gateway HTTP response. Classify treats
// 5xx as Transient (the gateway wrapping layer is assumed idempotent on
// retry) and 4xx as Permanent.
type HTTPStatusError struct {
	Code int
}

func (e *HTTPStatusError) Error() string {
	return "gateway returned non-2xx status"
}

// SyncError is the tagged error type every resolver step returns: it wraps
// an underlying error with its classification so the driver never needs to
// re-run Classify.
type SyncError struct {
	Kind Kind
	Err  error
}

func (e *SyncError) Error() string {
	if e == nil || e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func (e *SyncError) Unwrap() error { return e.Err }

// IsNil reports whether e represents "no error" (a nil *SyncError).
func (e *SyncError) IsNil() bool { return e == nil }

// AsTransient wraps err as a Transient SyncError. Returns nil if err is nil.
func AsTransient(err error) *SyncError {
	if err == nil {
		return nil
	}
	return &SyncError{Kind: Transient, Err: err}
}

// AsPermanent wraps err as a Permanent SyncError. Returns nil if err is nil.
func AsPermanent(err error) *SyncError {
	if err == nil {
		return nil
	}
	return &SyncError{Kind: Permanent, Err: err}
}

// Classify inspects err and returns its retriability. It is total: every
// non-nil error gets a Kind, defaulting to Permanent when nothing about the
// error looks like a transport failure.
func Classify(err error) Kind {
	if err == nil {
		return Permanent
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code >= 500 {
			return Transient
		}
		return Permanent
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Transient
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return Transient
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		// Connection refused, DNS failure, dial errors: all request-phase,
		// all retriable.
		return Transient
	}

	return Permanent
}

// FromError classifies err and wraps it as a SyncError. Returns nil for a
// nil err.
func FromError(err error) *SyncError {
	if err == nil {
		return nil
	}
	return &SyncError{Kind: Classify(err), Err: err}
}
