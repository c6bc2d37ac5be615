package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Error carries a status classification alongside the message so callers can
// map failures onto the response envelope without inspecting error strings.
type Error struct {
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func New(status int, message string) *Error {
	return &Error{Status: status, Message: message}
}

func Wrap(status int, message string, err error) *Error {
	return &Error{Status: status, Message: message, Err: err}
}

func BadRequest(message string) *Error {
	return New(http.StatusBadRequest, message)
}

func Unauthorized(message string) *Error {
	return New(http.StatusUnauthorized, message)
}

func NotFound(message string) *Error {
	return New(http.StatusNotFound, message)
}

// Unavailable marks cache-backend outages; callers must be able to tell a cache
// outage apart from stale data, so this never degrades into Internal.
func Unavailable(message string) *Error {
	return New(http.StatusServiceUnavailable, message)
}

func Internal(err error) *Error {
	return Wrap(http.StatusInternalServerError, "internal error", err)
}

// StatusOf extracts the status classification from err, defaulting to 500 for
// errors that did not originate inside this service.
func StatusOf(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status
	}
	return http.StatusInternalServerError
}

// MessageOf returns the user-facing message for err.
func MessageOf(err error) string {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Message
	}
	return "internal error"
}
