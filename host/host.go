// Package host exposes completions to embedding runtimes: a request goes in,
// and either the full text or an error string comes out.
package host

import (
	"context"
	"io"
	"os"

	"go.uber.org/zap"

	"github.com/i2y/chatstream/llm"
	"github.com/i2y/chatstream/provider"

	// Registers the "openai" provider.
	_ "github.com/i2y/chatstream/openai"
)

// Result is the outcome of a completion. Err is empty on success.
type Result struct {
	Text string `json:"text,omitempty"`
	Err  string `json:"error,omitempty"`
}

// OK reports whether the completion succeeded.
func (r Result) OK() bool {
	return r.Err == ""
}

// Defaults fill in request fields left empty by the caller.
type Defaults struct {
	BaseURL string
	APIKey  string
	Model   string
}

// Handler runs completions through a registered provider.
type Handler struct {
	provider string
	defaults Defaults
	sink     io.Writer
	logger   *zap.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithProvider sets the provider name. Defaults to "openai".
func WithProvider(name string) Option {
	return func(h *Handler) {
		h.provider = name
	}
}

// WithDefaults sets values used for empty request fields.
func WithDefaults(d Defaults) Option {
	return func(h *Handler) {
		h.defaults = d
	}
}

// WithSink sets where text is printed while it streams. Defaults to stdout.
func WithSink(w io.Writer) Option {
	return func(h *Handler) {
		h.sink = w
	}
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(h *Handler) {
		h.logger = logger
	}
}

// New creates a Handler.
func New(opts ...Option) *Handler {
	h := &Handler{
		provider: "openai",
		sink:     os.Stdout,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Completion runs req to completion. Text is printed to the sink as it
// arrives; the returned Result holds either the whole text or the error.
func (h *Handler) Completion(ctx context.Context, req *provider.CompletionRequest) Result {
	if req != nil {
		req = h.fill(req)
	}

	text, err := llm.Complete(ctx, req,
		llm.WithProvider(h.provider),
		llm.WithSink(h.sink),
		llm.WithLogger(h.logger),
	)
	if err != nil {
		h.logger.Debug("completion failed", zap.Error(err))
		return Result{Err: err.Error()}
	}
	return Result{Text: text}
}

func (h *Handler) fill(req *provider.CompletionRequest) *provider.CompletionRequest {
	filled := *req
	if filled.BaseURL == "" {
		filled.BaseURL = h.defaults.BaseURL
	}
	if filled.APIKey == "" {
		filled.APIKey = h.defaults.APIKey
	}
	if filled.Body.Model == "" {
		filled.Body.Model = h.defaults.Model
	}
	return &filled
}

// Completion runs req with a default Handler.
func Completion(ctx context.Context, req *provider.CompletionRequest) Result {
	return New().Completion(ctx, req)
}
