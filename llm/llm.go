// Package llm runs streaming chat completions: it sends the request through a
// registered provider, prints text as it arrives and returns the full reply.
package llm

import (
	"context"

	"github.com/i2y/chatstream/provider"
)

// EndOfResponseMarker is written to the sink once a completion has finished.
const EndOfResponseMarker = "\n----------END_OF_RESPONSE----------\n\n\n"

// Complete runs a streaming completion and returns the concatenated text.
//
// Text is written to the sink (stdout unless WithSink is given) as each chunk
// arrives, followed by EndOfResponseMarker. Only a failure to start the
// request is returned as an error; lines that cannot be decoded are logged
// and skipped, and text already written is never taken back.
//
// Example:
//
//	text, err := llm.Complete(ctx, &provider.CompletionRequest{
//	    BaseURL: "http://localhost:8080",
//	    Body: provider.CompletionParams{
//	        Model:    "local-model",
//	        Messages: []llm.Message{llm.UserMessage("Hello")},
//	        Stream:   true,
//	    },
//	}, llm.WithProvider("openai"))
func Complete(ctx context.Context, req *provider.CompletionRequest, opts ...Option) (string, error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	stream, err := startStream(ctx, cfg, req)
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()

	return finish(cfg, stream), nil
}

// CompleteMessages is Complete for a conversation, with model parameters
// taken from the options.
//
// Example:
//
//	messages := []llm.Message{
//	    llm.SystemMessage("You are a helpful assistant"),
//	    llm.UserMessage("List the files"),
//	    llm.ToolCallMessage("calling ls", "a.txt b.txt"),
//	    llm.UserMessage("Which one is bigger?"),
//	}
//
//	text, err := llm.CompleteMessages(ctx, messages,
//	    llm.WithProvider("openai"),
//	    llm.WithModel("gpt-4o-mini"),
//	)
func CompleteMessages(ctx context.Context, messages []Message, opts ...Option) (string, error) {
	cfg := newCallConfig()
	cfg.apply(opts...)

	stream, err := startStream(ctx, cfg, cfg.buildRequest(messages))
	if err != nil {
		return "", err
	}
	defer func() { _ = stream.Close() }()

	return finish(cfg, stream), nil
}

func finish(cfg *callConfig, stream *Stream) string {
	text := stream.Collect(cfg.sink)
	stream.write(cfg.sink, EndOfResponseMarker)
	return text
}
