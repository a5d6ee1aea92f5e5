package api

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable indicates the request never produced an HTTP response
	// (connection refused, DNS failure, timeout).
	ErrUnavailable = errors.New("server unavailable")

	// ErrUnauthorized indicates the server rejected the bearer token.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrOTPRejected indicates the server answered the verify-otp call
	// without its acknowledgment, i.e. the code was wrong or expired.
	ErrOTPRejected = errors.New("otp rejected")
)

// Error is a non-2xx response from the backend. Msg carries the
// server-supplied "msg" field when the body had one.
type Error struct {
	Status int
	Msg    string
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("server error (%d)", e.Status)
}

// Unwrap lets errors.Is match ErrUnauthorized for 401 responses.
func (e *Error) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

// Message extracts the server-supplied message from err, or returns
// fallback when the error carries none. Stores use it to populate their
// user-visible lastError fields.
func Message(err error, fallback string) string {
	var apiErr *Error
	if errors.As(err, &apiErr) && apiErr.Msg != "" {
		return apiErr.Msg
	}
	return fallback
}
