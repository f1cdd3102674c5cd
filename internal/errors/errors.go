package errors

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Sentinel errors for different categories
var (
	// ErrConfiguration - client could not be built from its configuration (missing endpoint or key)
	ErrConfiguration = errors.New("configuration error")

	// ErrEmptyConversation - a call was made with zero turns; raised before any I/O
	ErrEmptyConversation = errors.New("empty conversation")

	// ErrInvalidInput - caller supplied turns or options the dialect cannot express
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnknownToolCall - a tool result references a tool call id never issued
	ErrUnknownToolCall = errors.New("unknown tool call")

	// ErrNotFound - named provider is not registered
	ErrNotFound = errors.New("not found")

	// ErrTransport - network failure or cancellation before a response arrived
	ErrTransport = errors.New("transport error")

	// ErrProviderHTTP - provider answered with a non-2xx status
	ErrProviderHTTP = errors.New("provider http error")

	// ErrMalformedResponse - body could not be parsed and the dialect has no raw-text fallback
	ErrMalformedResponse = errors.New("malformed response")

	// ErrUnrecognizedShape - body parsed but matched none of the known shapes
	ErrUnrecognizedShape = errors.New("unrecognized response shape")

	// ErrToolArguments - tool call arguments were not valid JSON
	ErrToolArguments = errors.New("invalid tool arguments")
)

const maxErrorBody = 512

// ProviderHTTPError carries a non-2xx answer. Body holds the full response
// text; Error() shows a truncated copy.
type ProviderHTTPError struct {
	Provider string
	Endpoint string
	Status   int
	Body     string
}

func (e *ProviderHTTPError) Error() string {
	body := e.Body
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	if e.Provider != "" {
		return fmt.Sprintf("%s http %d from %s: %s", e.Provider, e.Status, e.Endpoint, body)
	}
	return fmt.Sprintf("http %d from %s: %s", e.Status, e.Endpoint, body)
}

func (e *ProviderHTTPError) Is(target error) bool {
	return target == ErrProviderHTTP
}

// ToolArgumentError points at the tool call whose arguments failed to decode.
type ToolArgumentError struct {
	Index int
	Name  string
	Err   error
}

func (e *ToolArgumentError) Error() string {
	return fmt.Sprintf("tool call %d (%s): %v: %v", e.Index, e.Name, ErrToolArguments, e.Err)
}

func (e *ToolArgumentError) Is(target error) bool {
	return target == ErrToolArguments
}

func (e *ToolArgumentError) Unwrap() error {
	return e.Err
}
