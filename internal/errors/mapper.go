package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Category returns the error category name for an error
func Category(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrConfiguration):
		return "ErrConfiguration"
	case errors.Is(err, ErrEmptyConversation):
		return "ErrEmptyConversation"
	case errors.Is(err, ErrUnknownToolCall):
		return "ErrUnknownToolCall"
	case errors.Is(err, ErrInvalidInput):
		return "ErrInvalidInput"
	case errors.Is(err, ErrNotFound):
		return "ErrNotFound"
	case errors.Is(err, ErrProviderHTTP):
		return "ErrProviderHTTP"
	case errors.Is(err, ErrTransport):
		return "ErrTransport"
	case errors.Is(err, ErrMalformedResponse):
		return "ErrMalformedResponse"
	case errors.Is(err, ErrUnrecognizedShape):
		return "ErrUnrecognizedShape"
	case errors.Is(err, ErrToolArguments):
		return "ErrToolArguments"
	default:
		return "Unknown"
	}
}

// IsRetryable reports whether a caller may reasonably retry. The clients
// themselves never retry.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	var httpErr *ProviderHTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Status == http.StatusTooManyRequests || httpErr.Status >= 500
	}

	return errors.Is(err, ErrTransport)
}

// Wrap wraps an error with context
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%s: %w", message, err)
}

// IsCategory checks if error belongs to specific category
func IsCategory(err error, category error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, category)
}

// Configuration wraps message as a configuration error
func Configuration(message string) error {
	return fmt.Errorf("%s: %w", message, ErrConfiguration)
}

// NotFound wraps message as not found
func NotFound(message string) error {
	return fmt.Errorf("%s: %w", message, ErrNotFound)
}

// InvalidInput wraps message as invalid input
func InvalidInput(message string) error {
	return fmt.Errorf("%s: %w", message, ErrInvalidInput)
}

// Transport wraps a network level failure, keeping the cause in the chain.
func Transport(message string, err error) error {
	return fmt.Errorf("%s: %w: %w", message, ErrTransport, err)
}

// Malformed wraps a parse failure, keeping the cause in the chain.
func Malformed(message string, err error) error {
	if err == nil {
		return fmt.Errorf("%s: %w", message, ErrMalformedResponse)
	}
	return fmt.Errorf("%s: %w: %w", message, ErrMalformedResponse, err)
}

// Unrecognized wraps message as an unrecognized response shape
func Unrecognized(message string) error {
	return fmt.Errorf("%s: %w", message, ErrUnrecognizedShape)
}
