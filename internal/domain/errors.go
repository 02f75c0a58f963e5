package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrForbidden       = errors.New("forbidden")
	ErrBadRequest      = errors.New("bad request")
	ErrTooManyRequests = errors.New("too many requests")
)

// Kind is the machine-readable class of an Error.
type Kind string

const (
	KindUnsupportedMediaType Kind = "UNSUPPORTED_MEDIA_TYPE"
	KindSigningFailure       Kind = "SIGNING_FAILURE"
	KindPersistenceFailure   Kind = "PERSISTENCE_FAILURE"
)

// Kind sentinels, usable with errors.Is.
var (
	ErrUnsupportedMediaType = &Error{Kind: KindUnsupportedMediaType, Message: "unsupported media type"}
	ErrSigningFailure       = &Error{Kind: KindSigningFailure, Message: "signing failure"}
	ErrPersistenceFailure   = &Error{Kind: KindPersistenceFailure, Message: "persistence failure"}
)

// Error is a structured failure carrying a Kind, a human-readable message
// and the underlying cause.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func NewError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return e.Message + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// KindOf returns the Kind of the first *Error in err's chain, or "".
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}
