// Package errors provides error handling for storygraph.
//
// This package re-exports github.com/cockroachdb/errors, providing stack
// traces, error wrapping with context, and hints/details for users.
//
// Usage:
//
//	// Create new error
//	err := errors.New("something went wrong")
//
//	// Wrap with context
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "failed to do something")
//	}
//
//	// Check errors
//	if errors.Is(err, errors.ErrTimeout) {
//	    // handle timeout
//	}
//
// For full documentation see: https://pkg.go.dev/github.com/cockroachdb/errors
package errors

import (
	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
)

// User-facing messages and details
var (
	WithHint    = crdb.WithHint
	WithHintf   = crdb.WithHintf
	WithDetail  = crdb.WithDetail
	WithDetailf = crdb.WithDetailf
)

// Error inspection
var (
	Is     = crdb.Is
	IsAny  = crdb.IsAny
	As     = crdb.As
	Unwrap = crdb.Unwrap
)

// Assertions
var (
	AssertionFailedf = crdb.AssertionFailedf
)

// Stack trace access for diagnostics and tests
var (
	GetReportableStackTrace = crdb.GetReportableStackTrace

	// GetStack is an alias for GetReportableStackTrace for convenience.
	GetStack = crdb.GetReportableStackTrace
)

// Common sentinel errors for use across storygraph.
// Use these with errors.Is() for type-safe error checking, and wrap them
// with errors.Wrap() to add context while preserving the type.
var (
	// ErrNotFound indicates the requested resource does not exist
	ErrNotFound = New("not found")

	// ErrInvalidRequest indicates the request was malformed or invalid
	ErrInvalidRequest = New("invalid request")

	// ErrTimeout indicates an external call timed out; it aborts only the
	// current request, never the whole pipeline
	ErrTimeout = New("operation timed out")

	// ErrServiceUnavailable indicates the text-generation collaborator is
	// not reachable or not configured
	ErrServiceUnavailable = New("service unavailable")

	// ErrMalformedResponse indicates the collaborator returned text that
	// does not parse into its declared contract. Structural calls fail the
	// enclosing pass on this; there is no best-guess fallback.
	ErrMalformedResponse = New("malformed collaborator response")
)

// IsMalformedResponse checks if an error is or wraps ErrMalformedResponse
func IsMalformedResponse(err error) bool {
	return err != nil && Is(err, ErrMalformedResponse)
}

// IsTimeout checks if an error is or wraps ErrTimeout
func IsTimeout(err error) bool {
	return err != nil && Is(err, ErrTimeout)
}

// NewMalformedResponse wraps ErrMalformedResponse with a formatted message
func NewMalformedResponse(format string, args ...interface{}) error {
	return Wrap(ErrMalformedResponse, Newf(format, args...).Error())
}
