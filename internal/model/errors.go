package model

import "errors"

var (
	ErrValidation      = errors.New("validation failed")
	ErrNotFound        = errors.New("todo not found")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("not authorized")
	ErrTransport       = errors.New("transport failure")
)

// Kind groups errors the way the UI and the retry policy care about them.
type Kind int

const (
	KindNone Kind = iota
	KindValidation
	KindNotFound
	KindAuthorization
	KindTransport
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindAuthorization:
		return "authorization"
	default:
		return "transport"
	}
}

// KindOf classifies err. Anything unrecognised is a transport failure.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnauthenticated), errors.Is(err, ErrForbidden):
		return KindAuthorization
	default:
		return KindTransport
	}
}
