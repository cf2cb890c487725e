// Package errors defines typed errors for calls to external data sources.
// The collection loops inspect the kind to decide between skip-and-continue
// and abort rather than suppressing failures wholesale.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Kind classifies an external-call failure
type Kind string

const (
	// KindTimeout means the call exceeded its deadline
	KindTimeout Kind = "timeout"
	// KindNotFound means the remote reported the resource does not exist
	KindNotFound Kind = "not_found"
	// KindMalformed means the response could not be decoded
	KindMalformed Kind = "malformed_response"
	// KindUpstream means the remote answered with a server-side failure
	KindUpstream Kind = "upstream"
)

// ExternalError is a failure from one of the external data sources
// (ticker, order book, ledger balance service).
type ExternalError struct {
	Source string // which external service failed, e.g. "horizon", "ticker"
	Kind   Kind
	Cause  error
}

// Error implements the error interface
func (e *ExternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Source, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Source, e.Kind)
}

// Unwrap returns the underlying cause
func (e *ExternalError) Unwrap() error {
	return e.Cause
}

// NewTimeout creates a timeout error for the given source
func NewTimeout(source string, cause error) *ExternalError {
	return &ExternalError{Source: source, Kind: KindTimeout, Cause: cause}
}

// NewNotFound creates a not-found error for the given source
func NewNotFound(source string, cause error) *ExternalError {
	return &ExternalError{Source: source, Kind: KindNotFound, Cause: cause}
}

// NewMalformed creates a malformed-response error for the given source
func NewMalformed(source string, cause error) *ExternalError {
	return &ExternalError{Source: source, Kind: KindMalformed, Cause: cause}
}

// NewUpstream creates an upstream failure error for the given source
func NewUpstream(source string, cause error) *ExternalError {
	return &ExternalError{Source: source, Kind: KindUpstream, Cause: cause}
}

// KindOf returns the kind of an external error, or "" for other errors
func KindOf(err error) Kind {
	var extErr *ExternalError
	if errors.As(err, &extErr) {
		return extErr.Kind
	}
	return ""
}

// IsNotFound reports whether err is an external not-found error
func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

// IsTimeout reports whether err is an external timeout error
func IsTimeout(err error) bool {
	if KindOf(err) == KindTimeout {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}

// Classify wraps a raw transport error from the given source into an
// ExternalError, detecting timeouts.
func Classify(source string, err error) *ExternalError {
	if err == nil {
		return nil
	}
	if IsTimeout(err) {
		return NewTimeout(source, err)
	}
	return NewUpstream(source, err)
}
