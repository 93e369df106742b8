package openai

import "github.com/i2y/chatstream/provider"

// chatCompletionRequest is the JSON body posted to the chat completions endpoint.
type chatCompletionRequest struct {
	Model       string   `json:"model"`
	Temperature *float64 `json:"temperature,omitempty"`
	TopP        *float64 `json:"top_p,omitempty"`
	Messages    []Turn   `json:"messages"`
	Stream      bool     `json:"stream"`
}

// newChatCompletionRequest builds the wire request. Stream is copied as given.
func newChatCompletionRequest(params *provider.CompletionParams) *chatCompletionRequest {
	return &chatCompletionRequest{
		Model:       params.Model,
		Temperature: params.Temperature,
		TopP:        params.TopP,
		Messages:    EncodeMessages(params.Messages),
		Stream:      params.Stream,
	}
}

// Turn is one role-tagged message on the wire. Both keys are always sent.
type Turn struct {
	Role    provider.Role `json:"role"`
	Content string        `json:"content"`
}

// errorResponse represents an API error response.
type errorResponse struct {
	Error apiError `json:"error"`
}

// apiError represents the error details.
type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}
