package schema

import (
	"errors"
	"net/http"
)

var (
	ErrInvalidRequest   = errors.New("invalid request")
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrExchangeFailed   = errors.New("token exchange failed")
	ErrStoreWrite       = errors.New("store write failed")
	ErrDelivery         = errors.New("delivery failed")
	ErrMisconfigured    = errors.New("misconfigured")
	ErrProviderNotFound = errors.New("provider not found")
	ErrCommandNotFound  = errors.New("command not found")
)

// Error pairs a taxonomy kind with a short user-facing message. The cause is
// meant for operator logs only.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Kind.Error() + ": " + e.Cause.Error()
	}
	return e.Kind.Error()
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an error of the given kind.
func NewError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// UserMessage returns the user-facing message for err.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Unexpected error"
}

// StatusCode maps an error kind to an HTTP status.
func StatusCode(err error) int {
	switch {
	case errors.Is(err, ErrMisconfigured), errors.Is(err, ErrStoreWrite):
		return http.StatusInternalServerError
	case errors.Is(err, ErrCommandNotFound), errors.Is(err, ErrProviderNotFound):
		return http.StatusNotFound
	default:
		return http.StatusBadRequest
	}
}
