// Package apperr defines the error kinds shared by the payment and credit
// domains and their mapping to HTTP statuses.
package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure.
type Kind string

const (
	KindInvalidRequest     Kind = "INVALID_REQUEST"
	KindGateway            Kind = "GATEWAY_ERROR"
	KindUnauthorized       Kind = "UNAUTHORIZED"
	KindBadPayload         Kind = "BAD_PAYLOAD"
	KindVerificationFailed Kind = "VERIFICATION_FAILED"
	KindPersistence        Kind = "PERSISTENCE_ERROR"
	KindRateLimited        Kind = "RATE_LIMIT_EXCEEDED"
	KindInternal           Kind = "INTERNAL_ERROR"
)

// Sentinels for errors.Is matching on kind alone.
var (
	ErrInvalidRequest     = &Error{Kind: KindInvalidRequest}
	ErrGateway            = &Error{Kind: KindGateway}
	ErrUnauthorized       = &Error{Kind: KindUnauthorized}
	ErrBadPayload         = &Error{Kind: KindBadPayload}
	ErrVerificationFailed = &Error{Kind: KindVerificationFailed}
	ErrPersistence        = &Error{Kind: KindPersistence}
	ErrRateLimited        = &Error{Kind: KindRateLimited}
	ErrInternal           = &Error{Kind: KindInternal}
)

// Error is a classified error with a client-safe message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e.Message != "" && e.Err != nil:
		return e.Message + ": " + e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Err != nil:
		return string(e.Kind) + ": " + e.Err.Error()
	default:
		return string(e.Kind)
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// New creates an error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies err under kind.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the client-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "An unexpected error occurred"
}

// HTTPStatus maps a kind to its response status.
func HTTPStatus(kind Kind) int {
	switch kind {
	case KindInvalidRequest, KindBadPayload:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		// Gateway, verification and persistence failures are all 500 so
		// Paystack keeps retrying the webhook.
		return http.StatusInternalServerError
	}
}
