package domain

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// TransportFailureMessage is shown when the conversion engine could not be reached.
const TransportFailureMessage = "could not reach the conversion engine, make sure the imaginary server is running"

// ValidationError rejects input before any network call is made.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// UpstreamError is a non-success response from the proxy or the engine.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("conversion failed with status %d", e.StatusCode)
	}
	return fmt.Sprintf("conversion failed with status %d: %s", e.StatusCode, body)
}

// TransportError is a network level failure, the engine was never heard from.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UnknownError wraps anything that does not fit the other categories.
type UnknownError struct {
	Err error
}

func (e *UnknownError) Error() string {
	return fmt.Sprintf("unknown error: %v", e.Err)
}

func (e *UnknownError) Unwrap() error {
	return e.Err
}

// Classify maps err onto the error taxonomy. Typed errors pass through,
// cancellations count as transport failures, everything else is unknown.
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var (
		validationErr *ValidationError
		upstreamErr   *UpstreamError
		transportErr  *TransportError
		unknownErr    *UnknownError
	)

	switch {
	case errors.As(err, &validationErr), errors.As(err, &upstreamErr),
		errors.As(err, &transportErr), errors.As(err, &unknownErr):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return &TransportError{Err: err}
	default:
		return &UnknownError{Err: err}
	}
}

// UserMessage returns the human readable message for err: the response body for
// upstream failures, a fixed hint for transport failures.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var (
		validationErr *ValidationError
		upstreamErr   *UpstreamError
		transportErr  *TransportError
	)

	switch {
	case errors.As(err, &validationErr):
		return validationErr.Error()
	case errors.As(err, &upstreamErr):
		if body := strings.TrimSpace(upstreamErr.Body); body != "" {
			return body
		}
		return upstreamErr.Error()
	case errors.As(err, &transportErr):
		return TransportFailureMessage
	default:
		return "Unknown error"
	}
}
