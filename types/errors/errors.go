// Package errors defines the Playlist Synchronization Core's error
// taxonomy (spec.md §7): a small set of kinds, not types, each carrying a
// retry policy and an HTTP status for the rare admin surface that reports
// job outcomes — the same map-pair shape the teacher's types/errors package
// uses for its ErrorType/StatusCodeToErrorType/DefaultErrorMessages trio.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind is one of the eight error categories spec.md §7 enumerates.
type Kind string

const (
	KindAuthFailed    Kind = "AUTH_FAILED"
	KindRateLimited   Kind = "RATE_LIMITED"
	KindTransient     Kind = "TRANSIENT"
	KindNotPermitted  Kind = "NOT_PERMITTED"
	KindConflict      Kind = "CONFLICT"
	KindNotFound      Kind = "NOT_FOUND"
	KindCancelled     Kind = "CANCELLED"
	KindStopped       Kind = "STOPPED"
)

// Retryable reports whether the Rate Limiter's retry loop (spec.md §4.8)
// should attempt this kind again. AuthFailed and NotPermitted never retry;
// Cancelled and Stopped are terminal by definition.
func (k Kind) Retryable() bool {
	switch k {
	case KindRateLimited, KindTransient:
		return true
	default:
		return false
	}
}

// StatusCode maps a Kind to the HTTP status an admin status endpoint would
// report it as.
var StatusCode = map[Kind]int{
	KindAuthFailed:   http.StatusUnauthorized,
	KindRateLimited:  http.StatusTooManyRequests,
	KindTransient:    http.StatusServiceUnavailable,
	KindNotPermitted: http.StatusForbidden,
	KindConflict:     http.StatusConflict,
	KindNotFound:     http.StatusNotFound,
	KindCancelled:    499,
	KindStopped:      http.StatusServiceUnavailable,
}

// DefaultMessages gives a human-readable default per Kind.
var DefaultMessages = map[Kind]string{
	KindAuthFailed:   "credentials are invalid or have been revoked",
	KindRateLimited:  "the platform rate limit was exceeded",
	KindTransient:    "a transient network or server error occurred",
	KindNotPermitted: "the operation is not permitted",
	KindConflict:     "the change conflicts with the current repository state",
	KindNotFound:     "the external resource was not found",
	KindCancelled:    "the operation was cancelled",
	KindStopped:      "emergency stop is active",
}

// SyncError wraps an underlying error with its Kind so the Executor and Job
// Queue can classify it without parsing strings.
type SyncError struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *SyncError) Error() string {
	if e.Message == "" {
		e.Message = DefaultMessages[e.Kind]
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error { return e.Cause }

// New creates a SyncError of the given kind wrapping cause (which may be nil).
func New(kind Kind, message string, cause error) *SyncError {
	return &SyncError{Kind: kind, Message: message, Cause: cause}
}

// KindOf extracts the Kind from err if it is (or wraps) a *SyncError,
// defaulting to KindTransient for unclassified errors — the conservative
// choice, since an unclassified failure should still be retried a bounded
// number of times rather than silently dropped.
func KindOf(err error) Kind {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Kind
	}
	return KindTransient
}

// ConflictError is returned by the Repository Layer when a write would
// violate a uniqueness invariant (spec.md §4.2).
type ConflictError struct {
	Constraint string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: violates constraint %q", e.Constraint)
}

// IsConflict reports whether err is a *ConflictError.
func IsConflict(err error) bool {
	var ce *ConflictError
	return errors.As(err, &ce)
}
