package provider

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CompletionRequest is everything needed to run one streaming completion.
type CompletionRequest struct {
	// BaseURL overrides the provider's configured endpoint when non-empty.
	BaseURL string
	// APIKey enables bearer authentication when non-empty.
	APIKey string
	Body   CompletionParams
}

// CompletionParams are the model parameters and conversation sent to the API.
type CompletionParams struct {
	Model       string
	Temperature *float64
	TopP        *float64
	Messages    []Message
	Stream      bool
}

// Validate reports whether every message in the conversation has a known kind.
func (p *CompletionParams) Validate() error {
	for i, msg := range p.Messages {
		if err := msg.Validate(); err != nil {
			return fmt.Errorf("message %d: %w", i, err)
		}
	}
	return nil
}

// Kind identifies which variant a Message holds.
type Kind string

const (
	KindSystem    Kind = "system"
	KindUser      Kind = "user"
	KindAssistant Kind = "assistant"
	KindToolCall  Kind = "tool_call"
	KindStatus    Kind = "status"
)

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindSystem, KindUser, KindAssistant, KindToolCall, KindStatus:
		return true
	}
	return false
}

// Mergeable reports whether messages of this kind are folded into an
// assistant/tool turn pair when encoded.
func (k Kind) Mergeable() bool {
	return k == KindToolCall || k == KindStatus
}

// Message is a single conversation turn.
//
// System, user and assistant messages carry their text in Content.
// Tool-call and status messages carry the assistant text in Content and the
// tool output in ToolContent.
type Message struct {
	Kind        Kind
	Content     string
	ToolContent string
}

// ErrUnknownKind is returned for messages whose Kind is not recognised.
var ErrUnknownKind = errors.New("unknown message kind")

// Validate reports whether the message holds a known variant.
func (m Message) Validate() error {
	if !m.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, m.Kind)
	}
	return nil
}

// Role represents the message sender on the wire.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Chunk is one decoded increment of a streaming completion.
type Chunk struct {
	Choices []Choice
}

// Text concatenates the content of every choice, skipping absent content.
func (c *Chunk) Text() string {
	if c == nil {
		return ""
	}
	var sb strings.Builder
	for _, choice := range c.Choices {
		if choice.Delta.Content != nil {
			sb.WriteString(*choice.Delta.Content)
		}
	}
	return sb.String()
}

// UnmarshalJSON requires the "choices" key, matching what servers are
// expected to send for every event.
func (c *Chunk) UnmarshalJSON(data []byte) error {
	var raw struct {
		Choices *[]Choice `json:"choices"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.Choices == nil {
		return errors.New("missing field `choices`")
	}
	c.Choices = *raw.Choices
	return nil
}

// Choice holds the delta for one completion choice.
type Choice struct {
	Delta Delta
}

// UnmarshalJSON accepts the delta under either "delta" or "message".
func (c *Choice) UnmarshalJSON(data []byte) error {
	var raw struct {
		Delta   *Delta `json:"delta"`
		Message *Delta `json:"message"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Delta != nil:
		c.Delta = *raw.Delta
	case raw.Message != nil:
		c.Delta = *raw.Message
	default:
		return errors.New("missing field `delta`")
	}
	return nil
}

// Delta is the incremental content of a choice. A nil Content contributes no text.
type Delta struct {
	Content *string `json:"content"`
}

// DecodeError reports a stream line that could not be decoded into a Chunk.
// It never ends the stream.
type DecodeError struct {
	Line string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("malformed JSON: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
