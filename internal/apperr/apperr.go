package apperr

import (
	"errors"
	"net/http"
)

// Kind classifies a failure for clients and for HTTP status mapping.
type Kind string

const (
	KindValidation Kind = "validation"
	KindAuth       Kind = "auth"
	KindPermission Kind = "permission"
	KindConflict   Kind = "conflict"
	KindNotFound   Kind = "not_found"
	KindUpstream   Kind = "upstream"
	KindInternal   Kind = "internal"
)

var kindStatus = map[Kind]int{
	KindValidation: http.StatusBadRequest,
	KindAuth:       http.StatusUnauthorized,
	KindPermission: http.StatusForbidden,
	KindConflict:   http.StatusConflict,
	KindNotFound:   http.StatusNotFound,
	KindUpstream:   http.StatusBadGateway,
	KindInternal:   http.StatusInternalServerError,
}

// Error is a structured application error carrying a machine-readable kind and
// code plus a message that is safe to show to clients.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Status  int
	Err     error
}

// New builds an error whose HTTP status follows from its kind.
func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message, Status: kindStatus[kind]}
}

// Validation is shorthand for a malformed-input error.
func Validation(message string) *Error {
	return New(KindValidation, "invalid_input", message)
}

// Internal wraps an unexpected fault. The cause is kept for logging only.
func Internal(err error) *Error {
	e := New(KindInternal, "internal", "internal server error")
	e.Err = err
	return e
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Code + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error with the same code, so copies made by
// Wrap or WithMessage still match their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithStatus returns a copy answering with the given HTTP status.
func (e *Error) WithStatus(status int) *Error {
	cp := *e
	cp.Status = status
	return &cp
}

// WithMessage returns a copy with a different client message.
func (e *Error) WithMessage(message string) *Error {
	cp := *e
	cp.Message = message
	return &cp
}

// Wrap returns a copy recording err as the underlying cause.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// From extracts the *Error in err's chain, or reports an internal error.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Internal(err)
}

// HTTPStatus resolves the response status for err.
func HTTPStatus(err error) int {
	e := From(err)
	if e.Status != 0 {
		return e.Status
	}
	if s, ok := kindStatus[e.Kind]; ok {
		return s
	}
	return http.StatusInternalServerError
}
