package domain

import (
	"github.com/cockroachdb/errors"
)

// ErrorKind tags a business-rule violation so transports can map it without string matching.
type ErrorKind string

const (
	KindNotFound               ErrorKind = "not_found"
	KindUnauthorized           ErrorKind = "unauthorized"
	KindInvalidStateTransition ErrorKind = "invalid_state_transition"
	KindConflict               ErrorKind = "conflict"
	KindValidation             ErrorKind = "validation"
	KindInternal               ErrorKind = "internal"
)

// Kind markers. Errors returned by the services are marked with exactly one of these.
var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrConflict               = errors.New("date range conflict")
	ErrValidation             = errors.New("validation failed")
)

// kindError carries a message and one kind marker. Is lets both the standard library and
// cockroachdb errors.Is match the marker through any wrapping.
type kindError struct {
	cause  error
	marker error
}

func (e *kindError) Error() string { return e.cause.Error() }

func (e *kindError) Unwrap() error { return e.cause }

func (e *kindError) Is(target error) bool { return target == e.marker }

func withKind(cause, marker error) error {
	return &kindError{cause: cause, marker: marker}
}

// ErrNoMessagesExchanged rejects an agreement on a booking whose thread is still empty.
var ErrNoMessagesExchanged = withKind(
	errors.New("at least one message must be exchanged before agreeing to the booking"),
	ErrValidation,
)

func NotFoundf(format string, args ...any) error {
	return withKind(errors.Newf(format, args...), ErrNotFound)
}

func Unauthorizedf(format string, args ...any) error {
	return withKind(errors.Newf(format, args...), ErrUnauthorized)
}

func InvalidTransitionf(format string, args ...any) error {
	return withKind(errors.Newf(format, args...), ErrInvalidStateTransition)
}

func Conflictf(format string, args ...any) error {
	return withKind(errors.Newf(format, args...), ErrConflict)
}

func Validationf(format string, args ...any) error {
	return withKind(errors.Newf(format, args...), ErrValidation)
}

// KindOf reports the taxonomy kind of err. Anything unmarked is KindInternal.
func KindOf(err error) ErrorKind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	case errors.Is(err, ErrInvalidStateTransition):
		return KindInvalidStateTransition
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	default:
		return KindInternal
	}
}

// IsBusinessError is true for every kind except KindInternal. Business errors are never retried.
func IsBusinessError(err error) bool {
	k := KindOf(err)
	return k != "" && k != KindInternal
}
