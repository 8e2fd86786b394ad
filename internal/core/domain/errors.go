package domain

import (
	"errors"
	"net/http"
)

// ErrorKind classifies failures surfaced by the session and request pipeline.
type ErrorKind string

const (
	KindInvalidCredentials ErrorKind = "invalid_credentials"
	KindNetwork            ErrorKind = "network_error"
	KindUnauthorized       ErrorKind = "unauthorized"
	KindValidation         ErrorKind = "validation_error"
	KindServer             ErrorKind = "server_error"
)

var (
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrNetwork              = errors.New("backend unreachable")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrValidation           = errors.New("validation failed")
	ErrServer               = errors.New("server error")
	ErrForbidden            = errors.New("access forbidden")
	ErrBackendNotConfigured = errors.New("NEXT_PUBLIC_API_URL is not defined")
)

// Fallback messages used when the backend does not supply one.
const (
	MsgLoginFailed          = "Login failed"
	MsgInvalidLoginResponse = "Invalid login response from server"
)

// APIError is the uniform failure shape of every outbound call. Message is
// safe to show to the user verbatim.
type APIError struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return string(e.Kind)
}

// Unwrap exposes both the kind sentinel and the underlying cause, so callers
// can use errors.Is(err, domain.ErrUnauthorized).
func (e *APIError) Unwrap() []error {
	errs := []error{e.Kind.sentinel()}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindNetwork:
		return ErrNetwork
	case KindUnauthorized:
		return ErrUnauthorized
	case KindValidation:
		return ErrValidation
	default:
		return ErrServer
	}
}

// NewAPIError builds an APIError of the given kind.
func NewAPIError(kind ErrorKind, status int, message string) *APIError {
	return &APIError{Kind: kind, Status: status, Message: message}
}

// KindOf returns the kind of err, or "" when err is not an APIError.
func KindOf(err error) ErrorKind {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return ""
}

// HTTPStatus maps a kind to the status the console answers with.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindInvalidCredentials, KindUnauthorized:
		return http.StatusUnauthorized
	case KindNetwork, KindServer:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
