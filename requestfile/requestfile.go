// Package requestfile reads completion requests from YAML or JSON documents.
//
// A request file looks like:
//
//	base_url: http://localhost:8080
//	model: gpt-4o-mini
//	temperature: 0.2
//	messages:
//	  - {kind: system, content: "You are terse."}
//	  - {kind: user, content: "List the files"}
//	  - {kind: tool_call, content: "calling ls", tool: "a.txt b.txt"}
//	  - {kind: user, content: "Which one is bigger?"}
//
// Every field except messages is optional. Stream defaults to true.
package requestfile

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"

	"github.com/i2y/chatstream/provider"
	"github.com/i2y/chatstream/schema"
)

// Document is the on-disk form of a completion request.
type Document struct {
	BaseURL     string    `json:"base_url,omitempty" jsonschema:"Server root. The chat completions path is appended to it."`
	APIKey      string    `json:"api_key,omitempty" jsonschema:"Bearer token. Omit for servers without auth."`
	Model       string    `json:"model,omitempty" jsonschema:"Model identifier"`
	Temperature *float64  `json:"temperature,omitempty" jsonschema:"Sampling temperature"`
	TopP        *float64  `json:"top_p,omitempty" jsonschema:"Nucleus sampling probability mass"`
	Stream      *bool     `json:"stream,omitempty" jsonschema:"Ask the server to stream. Defaults to true."`
	Messages    []Message `json:"messages" jsonschema:"Conversation in order"`
}

// Message is one conversation turn in a Document.
type Message struct {
	Kind    provider.Kind `json:"kind" jsonschema:"One of system or user or assistant or tool_call or status"`
	Content string        `json:"content,omitempty" jsonschema:"Message text. For tool_call and status this is the assistant text."`
	Tool    string        `json:"tool,omitempty" jsonschema:"Tool output for tool_call and status messages"`
}

// JSONSchemaExtend restricts kind to the known message kinds.
func (Message) JSONSchemaExtend(s *jsonschema.Schema) {
	kind, ok := s.Properties.Get("kind")
	if !ok {
		return
	}
	kind.Enum = []any{
		string(provider.KindSystem),
		string(provider.KindUser),
		string(provider.KindAssistant),
		string(provider.KindToolCall),
		string(provider.KindStatus),
	}
}

var compiled = sync.OnceValues(func() (*schema.Compiled, error) {
	return schema.Compile(Schema())
})

// Schema returns the JSON Schema that request documents are validated against.
func Schema() json.RawMessage {
	return schema.MustGenerate[Document]()
}

// Load reads and parses the request file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading request file: %w", err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse decodes a YAML or JSON request document and validates it.
func Parse(data []byte) (*Document, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}

	// Round-trip through JSON so the validator sees JSON types only.
	normalized, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing request: %w", err)
	}

	s, err := compiled()
	if err != nil {
		return nil, err
	}
	if err := s.ValidateJSON(normalized); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	var doc Document
	if err := json.Unmarshal(normalized, &doc); err != nil {
		return nil, fmt.Errorf("decoding request: %w", err)
	}
	return &doc, nil
}

// Request converts the document into a completion request.
func (d *Document) Request() (*provider.CompletionRequest, error) {
	messages := make([]provider.Message, 0, len(d.Messages))
	for _, m := range d.Messages {
		msg := provider.Message{Kind: m.Kind, Content: m.Content}
		if m.Kind.Mergeable() {
			msg.ToolContent = m.Tool
		}
		messages = append(messages, msg)
	}

	stream := true
	if d.Stream != nil {
		stream = *d.Stream
	}

	req := &provider.CompletionRequest{
		BaseURL: d.BaseURL,
		APIKey:  d.APIKey,
		Body: provider.CompletionParams{
			Model:       d.Model,
			Temperature: d.Temperature,
			TopP:        d.TopP,
			Messages:    messages,
			Stream:      stream,
		},
	}
	if err := req.Body.Validate(); err != nil {
		return nil, err
	}
	return req, nil
}
