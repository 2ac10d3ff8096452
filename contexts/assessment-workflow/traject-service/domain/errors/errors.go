package errors

import (
	"context"
	"errors"
)

// Classification sentinels. Business failures wrap exactly one of them with
// fmt.Errorf("%w: ...") so callers can branch with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("not authorized")
	ErrNotFound   = errors.New("not found")

	// ErrTransactionAborted marks a transaction that could not commit after the
	// store exhausted its conflict retries. Callers may retry the request.
	ErrTransactionAborted = errors.New("transaction aborted")
)

type Kind string

const (
	KindValidation Kind = "validation"
	KindConflict   Kind = "conflict"
	KindForbidden  Kind = "forbidden"
	KindNotFound   Kind = "not_found"
	KindTransient  Kind = "transient"
	KindInternal   Kind = "internal"
)

// KindOf classifies err for transport mapping.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrForbidden):
		return KindForbidden
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrTransactionAborted),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return KindTransient
	default:
		return KindInternal
	}
}

// IsBusiness reports whether err carries one of the four business classifications.
func IsBusiness(err error) bool {
	switch KindOf(err) {
	case KindValidation, KindConflict, KindForbidden, KindNotFound:
		return true
	default:
		return false
	}
}
