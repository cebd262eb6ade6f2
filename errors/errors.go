// Package errors is the error vocabulary of classdb.
//
// It re-exports github.com/cockroachdb/errors so every package wraps and
// inspects errors the same way, and it defines the sentinel conditions the
// classification store reports to its callers:
//
//	if err := w.Add(ctx, rec); err != nil {
//	    return errors.Wrapf(err, "failed to write %s", rec.Key())
//	}
//
//	if errors.Is(err, errors.ErrQueryFailed) {
//	    // surface an empty result at the boundary
//	}
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

var (
	New           = crdb.New
	Newf          = crdb.Newf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	WithStack     = crdb.WithStack
	WithMessage   = crdb.WithMessage
	WithMessagef  = crdb.WithMessagef
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
)

var (
	WithHint       = crdb.WithHint
	WithHintf      = crdb.WithHintf
	WithDetail     = crdb.WithDetail
	WithDetailf    = crdb.WithDetailf
	GetAllHints    = crdb.GetAllHints
	GetAllDetails  = crdb.GetAllDetails
	FlattenDetails = crdb.FlattenDetails
)

var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

var AssertionFailedf = crdb.AssertionFailedf

// Sentinel conditions. Wrap them to add context; test them with Is.
var (
	// ErrNotFound indicates a named resource (classifier, record) does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates malformed input: bad parameters, bad query text, bad URIs
	ErrInvalidRequest = New("invalid request")

	// ErrServiceUnavailable indicates no backing store is configured yet
	ErrServiceUnavailable = New("service unavailable")

	// ErrCycleDetected indicates classifier endpoints depend on each other cyclically
	ErrCycleDetected = New("cyclic dependency detected")

	// ErrQueryFailed indicates a search could not be answered
	ErrQueryFailed = New("query failed")
)

// IsNotFoundError checks if an error is or wraps ErrNotFound.
func IsNotFoundError(err error) bool {
	return err != nil && Is(err, ErrNotFound)
}

// IsInvalidRequestError checks if an error is or wraps ErrInvalidRequest.
func IsInvalidRequestError(err error) bool {
	return err != nil && Is(err, ErrInvalidRequest)
}

// IsServiceUnavailableError checks if an error is or wraps ErrServiceUnavailable.
func IsServiceUnavailableError(err error) bool {
	return err != nil && Is(err, ErrServiceUnavailable)
}

// IsQueryFailedError checks if an error is or wraps ErrQueryFailed.
func IsQueryFailedError(err error) bool {
	return err != nil && Is(err, ErrQueryFailed)
}

// NewNotFoundError creates a not-found error with a formatted message.
func NewNotFoundError(format string, args ...interface{}) error {
	return Wrapf(ErrNotFound, format, args...)
}

// NewInvalidRequestError creates an invalid-request error with a formatted message.
func NewInvalidRequestError(format string, args ...interface{}) error {
	return Wrapf(ErrInvalidRequest, format, args...)
}

// QueryFailed marks err as a failed query while keeping it inspectable.
func QueryFailed(err error, query string) error {
	if err == nil {
		return nil
	}
	return Mark(WithDetailf(Wrap(err, "query failed"), "query: %s", query), ErrQueryFailed)
}
