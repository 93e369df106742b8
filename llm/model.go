package llm

import "context"

// Model represents a configured provider and model with default options.
// It provides a convenient way to reuse common configuration.
//
// Example:
//
//	model := llm.NewModel("openai", "gpt-4o-mini",
//	    llm.WithTemperature(0.7),
//	    llm.WithBaseURL("http://localhost:8080"),
//	)
//
//	text, err := model.Complete(ctx, []llm.Message{llm.UserMessage("Tell me a joke")})
type Model struct {
	providerName string
	modelName    string
	baseOpts     []Option
}

// NewModel creates a new Model with the given provider and model name.
// Additional options can be provided as default configuration.
func NewModel(providerName, modelName string, opts ...Option) *Model {
	return &Model{
		providerName: providerName,
		modelName:    modelName,
		baseOpts:     opts,
	}
}

// Complete runs CompleteMessages with this model's configuration.
// Per-call options override the model's base options.
func (m *Model) Complete(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	return CompleteMessages(ctx, messages, m.mergeOptions(opts)...)
}

// Stream runs CallMessagesStream with this model's configuration.
func (m *Model) Stream(ctx context.Context, messages []Message, opts ...Option) (*Stream, error) {
	return CallMessagesStream(ctx, messages, m.mergeOptions(opts)...)
}

// Provider returns the provider name.
func (m *Model) Provider() string {
	return m.providerName
}

// Name returns the model name.
func (m *Model) Name() string {
	return m.modelName
}

// mergeOptions combines base options with per-call options.
func (m *Model) mergeOptions(opts []Option) []Option {
	allOpts := make([]Option, 0, len(m.baseOpts)+len(opts)+2)
	allOpts = append(allOpts, WithProvider(m.providerName), WithModel(m.modelName))
	allOpts = append(allOpts, m.baseOpts...)
	allOpts = append(allOpts, opts...)
	return allOpts
}
