// Package mcp serves completions over the Model Context Protocol so that MCP
// clients can run them as a tool call.
package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/i2y/chatstream/host"
	"github.com/i2y/chatstream/provider"
	"github.com/i2y/chatstream/requestfile"
)

// ToolName is the name of the completion tool.
const ToolName = "chat_completion"

// Completer runs one completion. *host.Handler implements it.
type Completer interface {
	Completion(ctx context.Context, req *provider.CompletionRequest) host.Result
}

var _ Completer = (*host.Handler)(nil)

// Server exposes a Completer as an MCP tool.
type Server struct {
	server    *sdkmcp.Server
	completer Completer
	logger    *zap.Logger
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server with the chat_completion tool registered.
//
// Stdout carries protocol frames, so the Completer must print streamed text
// somewhere else (stderr or io.Discard).
func NewServer(completer Completer, version string, opts ...Option) *Server {
	s := &Server{
		completer: completer,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = sdkmcp.NewServer(
		&sdkmcp.Implementation{
			Name:    "chatstream",
			Version: version,
		},
		nil,
	)

	sdkmcp.AddTool(s.server, &sdkmcp.Tool{
		Name:        ToolName,
		Description: "Run a chat completion against an OpenAI-compatible server and return the full response text. Tool-call and status messages are sent as an assistant turn followed by a tool turn.",
	}, s.handleChatCompletion)

	return s
}

// Serve runs the server over stdin/stdout until the client disconnects or
// ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	return s.Run(ctx, &sdkmcp.StdioTransport{})
}

// Run runs the server over the given transport.
func (s *Server) Run(ctx context.Context, t sdkmcp.Transport) error {
	s.logger.Info("mcp server started")
	defer s.logger.Info("mcp server stopped")
	return s.server.Run(ctx, t)
}

func (s *Server) handleChatCompletion(ctx context.Context, _ *sdkmcp.CallToolRequest, input requestfile.Document) (*sdkmcp.CallToolResult, any, error) {
	s.logger.Debug("tool called",
		zap.String("tool", ToolName),
		zap.String("model", input.Model),
		zap.Int("messages", len(input.Messages)),
	)

	req, err := input.Request()
	if err != nil {
		return errorResult(err.Error()), nil, nil
	}

	result := s.completer.Completion(ctx, req)
	if !result.OK() {
		s.logger.Warn("completion failed", zap.String("error", result.Err))
		return errorResult(result.Err), nil, nil
	}
	return textResult(result.Text), nil, nil
}

func textResult(text string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: text},
		},
	}
}

// errorResult reports a failed completion to the client as tool output.
func errorResult(msg string) *sdkmcp.CallToolResult {
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: msg},
		},
		IsError: true,
	}
}
