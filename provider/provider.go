// Package provider defines the conversation model and the interface for
// streaming chat-completion providers.
package provider

import "context"

// Provider is the core abstraction for completion backends.
type Provider interface {
	// Name returns the provider identifier (e.g., "openai").
	Name() string
}

// StreamingProvider extends Provider with streaming capability.
type StreamingProvider interface {
	Provider

	// CallStream sends the request and returns the decoded response stream.
	// Transport and non-success status failures are returned here; per-line
	// failures are reported through the stream.
	CallStream(ctx context.Context, req *CompletionRequest) (ResponseStream, error)
}

// ResponseStream is a forward-only sequence of decoded items.
//
// Unlike a scanner, an error reported by Err belongs to the current item only:
// the stream keeps going and Next may return true again.
type ResponseStream interface {
	// Next advances to the next item, returns false when the stream has ended.
	Next() bool

	// Current returns the chunk decoded by the last Next, or nil if that item
	// was an error.
	Current() *Chunk

	// Err returns the error for the current item, if any.
	Err() error

	// Close releases stream resources.
	Close() error
}
