package domain

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrBadRequest    = errors.New("bad request")
	ErrRateLimited   = errors.New("too many requests")
	ErrConfiguration = errors.New("server configuration error")
	ErrUpstream      = errors.New("upstream service error")
)

// Error pairs a sentinel kind with a message that is safe to show to clients.
// Cause, when present, is for logs only.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

// Errorf builds an *Error of the given kind with a formatted client message.
func Errorf(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Upstream wraps a failed call to an external service. The client sees msg only.
func Upstream(msg string, cause error) error {
	return &Error{Kind: ErrUpstream, Message: msg, Cause: cause}
}

// Misconfigured reports a missing secret or credential.
func Misconfigured(msg string) error {
	return &Error{Kind: ErrConfiguration, Message: msg}
}

// RateLimitError is returned when a rate-limit bucket is exhausted.
type RateLimitError struct {
	Message    string
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string { return e.Message }

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// TooManyRequests builds a RateLimitError whose message names the wait in
// whole minutes, rounded up.
func TooManyRequests(retryAfter time.Duration) *RateLimitError {
	mins := int(math.Ceil(retryAfter.Minutes()))
	if mins < 1 {
		mins = 1
	}
	unit := "minutes"
	if mins == 1 {
		unit = "minute"
	}
	return &RateLimitError{
		Message:    fmt.Sprintf("Too many requests. Try again in %d %s.", mins, unit),
		RetryAfter: retryAfter,
	}
}

// PublicMessage returns the client-facing message carried by err, or fallback
// when err carries none.
func PublicMessage(err error, fallback string) string {
	var de *Error
	if errors.As(err, &de) && de.Message != "" {
		return de.Message
	}
	var rl *RateLimitError
	if errors.As(err, &rl) && rl.Message != "" {
		return rl.Message
	}
	return fallback
}
