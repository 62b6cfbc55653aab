// SPDX-FileCopyrightText: Copyright 2026 Stacklok, Inc.
// SPDX-License-Identifier: Apache-2.0

package httperr

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// Kind classifies a normalized upstream error.
type Kind string

const (
	// KindNetwork indicates no response was received (DNS, connect, timeout).
	KindNetwork Kind = "network"
	// KindAuthentication indicates an upstream 401 or a rejected token request.
	KindAuthentication Kind = "authentication"
	// KindForbidden indicates an upstream 403.
	KindForbidden Kind = "forbidden"
	// KindNotFound indicates an upstream 404.
	KindNotFound Kind = "not_found"
	// KindRateLimit indicates an upstream 429. The error carries the reset time.
	KindRateLimit Kind = "rate_limit"
	// KindServer indicates an upstream 5xx.
	KindServer Kind = "server"
	// KindValidation indicates malformed caller input, raised before any network call.
	KindValidation Kind = "validation"
	// KindUnknown is anything not matching the other kinds.
	KindUnknown Kind = "unknown"
)

// Retryable reports whether operations failing with this kind may be retried.
// Rate limits and server errors are transient; authentication failures never are.
func (k Kind) Retryable() bool {
	return k == KindRateLimit || k == KindServer
}

// Message returns a short, non-leaking human message for the kind.
// Upstream response bodies are never included; those are only logged.
func (k Kind) Message() string {
	switch k {
	case KindNetwork:
		return "network error reaching the registry"
	case KindAuthentication:
		return "authentication failed"
	case KindForbidden:
		return "access denied"
	case KindNotFound:
		return "not found"
	case KindRateLimit:
		return "rate limited by the registry"
	case KindServer:
		return "registry service temporarily unavailable"
	case KindValidation:
		return "invalid request"
	default:
		return "unexpected error"
	}
}

// Error is a normalized upstream error. It wraps the original cause for
// errors.Is/As while carrying the kind, the upstream HTTP status (0 when no
// response was received), and the rate-limit reset time where applicable.
type Error struct {
	kind  Kind
	code  int
	msg   string
	cause error
	reset time.Time
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s", e.msg, e.cause)
	}
	return e.msg
}

// Unwrap returns the underlying cause for errors.Is() and errors.As() compatibility.
func (e *Error) Unwrap() error {
	return e.cause
}

// Kind returns the error's classification.
func (e *Error) Kind() Kind {
	return e.kind
}

// HTTPCode returns the upstream HTTP status code, or 0 when no response was received.
func (e *Error) HTTPCode() int {
	return e.code
}

// Reset returns the rate-limit reset time. It is only meaningful for KindRateLimit.
func (e *Error) Reset() time.Time {
	return e.reset
}

// Retryable reports whether the error is safe to retry.
func (e *Error) Retryable() bool {
	return e.kind.Retryable()
}

// New creates a normalized error of the given kind with a message.
func New(kind Kind, msg string) *Error {
	return &Error{kind: kind, msg: msg}
}

// Wrap creates a normalized error of the given kind wrapping a cause.
func Wrap(kind Kind, msg string, cause error) *Error {
	return &Error{kind: kind, msg: msg, cause: cause}
}

// Validationf creates a KindValidation error from a format string.
// Validation errors are raised locally, before any network call.
func Validationf(format string, args ...any) *Error {
	return &Error{kind: KindValidation, msg: fmt.Sprintf(format, args...)}
}

// Network wraps a transport failure (no response received) as KindNetwork.
func Network(cause error) *Error {
	return &Error{kind: KindNetwork, msg: "request failed", cause: cause}
}

// RateLimited creates a KindRateLimit error carrying the window reset time.
func RateLimited(reset time.Time) *Error {
	return &Error{
		kind:  KindRateLimit,
		code:  http.StatusTooManyRequests,
		msg:   "rate limit exceeded",
		reset: reset,
	}
}

// FromResponse normalizes a non-2xx HTTP response into an Error.
// A 429 picks its reset time from the rate-limit headers, defaulting to one
// hour from now when the header is absent or unparseable.
func FromResponse(resp *http.Response) *Error {
	code := resp.StatusCode
	switch {
	case code == http.StatusUnauthorized:
		return &Error{kind: KindAuthentication, code: code, msg: "unauthorized"}
	case code == http.StatusForbidden:
		return &Error{kind: KindForbidden, code: code, msg: "forbidden"}
	case code == http.StatusNotFound:
		return &Error{kind: KindNotFound, code: code, msg: "not found"}
	case code == http.StatusTooManyRequests:
		return &Error{
			kind:  KindRateLimit,
			code:  code,
			msg:   "rate limit exceeded",
			reset: resetFromHeaders(resp.Header),
		}
	case code >= 500:
		return &Error{kind: KindServer, code: code, msg: fmt.Sprintf("upstream returned %d", code)}
	default:
		return &Error{kind: KindUnknown, code: code, msg: fmt.Sprintf("unexpected status %d", code)}
	}
}

// resetFromHeaders parses the rate-limit reset header (Unix seconds), checking
// both the x-prefixed and bare forms. Falls back to now + 1 hour.
func resetFromHeaders(h http.Header) time.Time {
	for _, name := range []string{"x-ratelimit-reset", "ratelimit-reset"} {
		if v := h.Get(name); v != "" {
			if secs, err := strconv.ParseInt(v, 10, 64); err == nil {
				return time.Unix(secs, 0)
			}
		}
	}
	return time.Now().Add(time.Hour)
}

// KindOf extracts the kind from an error chain.
// Errors that are not normalized report KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.kind
	}
	return KindUnknown
}

// IsKind reports whether the error chain contains a normalized error of the given kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	return errors.As(err, &e) && e.kind == kind
}
