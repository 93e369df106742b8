package llm

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	// ErrProviderRequired is returned when WithProvider is not specified.
	ErrProviderRequired = errors.New("provider is required: use WithProvider option")

	// ErrModelRequired is returned when the request has no model.
	ErrModelRequired = errors.New("model is required: use WithModel option")

	// ErrRequestRequired is returned when Complete is given a nil request.
	ErrRequestRequired = errors.New("completion request is required")
)

// ProviderError wraps a failure to start a completion: the request could not
// be sent or the server rejected it.
type ProviderError struct {
	Provider   string
	StatusCode int // zero when no response was received
	Cause      error
}

func (e *ProviderError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %v", e.Provider, e.StatusCode, e.Cause)
	}
	return fmt.Sprintf("%s error: %v", e.Provider, e.Cause)
}

func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// statusCoder is implemented by provider errors that carry an HTTP status.
type statusCoder interface {
	HTTPStatusCode() int
}

func newProviderError(name string, err error) *ProviderError {
	pe := &ProviderError{Provider: name, Cause: err}
	var sc statusCoder
	if errors.As(err, &sc) {
		pe.StatusCode = sc.HTTPStatusCode()
	}
	return pe
}
