package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"go.uber.org/zap"

	"github.com/i2y/chatstream/provider"
)

// Stream represents a streaming response from a provider.
type Stream struct {
	stream  provider.ResponseStream
	logger  *zap.Logger
	text    strings.Builder
	skipped int
}

// Chunks returns an iterator over the stream items. Each item is either a
// decoded chunk or the error for that item; an error does not end the
// iteration. Text from successful chunks is accumulated for Text.
// Breaking out of the loop closes the stream.
//
// Example:
//
//	stream, err := llm.CallStream(ctx, req, llm.WithProvider("openai"))
//	if err != nil {
//	    return err
//	}
//	defer stream.Close()
//
//	for chunk, err := range stream.Chunks() {
//	    if err != nil {
//	        continue
//	    }
//	    fmt.Print(chunk.Text())
//	}
func (s *Stream) Chunks() iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		for s.stream.Next() {
			chunk, err := s.stream.Current(), s.stream.Err()
			if err != nil {
				s.skipped++
			} else {
				s.text.WriteString(chunk.Text())
			}
			if !yield(chunk, err) {
				_ = s.stream.Close()
				return
			}
		}
	}
}

// Collect drains the stream, writing each chunk's text to sink as soon as it
// is decoded, and returns all text. Items that fail to decode are logged and
// skipped.
func (s *Stream) Collect(sink io.Writer) string {
	for chunk, err := range s.Chunks() {
		if err != nil {
			s.logSkipped(err)
			continue
		}
		if text := chunk.Text(); text != "" {
			s.write(sink, text)
		}
	}
	return s.Text()
}

// Text returns the text accumulated so far.
func (s *Stream) Text() string {
	return s.text.String()
}

// Skipped returns how many items failed to decode or read.
func (s *Stream) Skipped() int {
	return s.skipped
}

// Close closes the stream and releases resources.
func (s *Stream) Close() error {
	return s.stream.Close()
}

func (s *Stream) logSkipped(err error) {
	var decodeErr *provider.DecodeError
	if errors.As(err, &decodeErr) {
		s.logger.Warn("skipping malformed stream line",
			zap.String("line", decodeErr.Line),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("stream read failed", zap.Error(err))
}

func (s *Stream) write(sink io.Writer, text string) {
	if err := writeAndFlush(sink, text); err != nil {
		s.logger.Warn("writing to output failed", zap.Error(err))
	}
}

type flusher interface {
	Flush() error
}

func writeAndFlush(w io.Writer, text string) error {
	if _, err := io.WriteString(w, text); err != nil {
		return err
	}
	if f, ok := w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// CallStream starts a streaming completion for req.
func CallStream(ctx context.Context, req *provider.CompletionRequest, opts ...Option) (*Stream, error) {
	cfg := newCallConfig()
	cfg.apply(opts...)
	return startStream(ctx, cfg, req)
}

// CallMessagesStream starts a streaming completion for a conversation, with
// model parameters taken from the options.
func CallMessagesStream(ctx context.Context, messages []Message, opts ...Option) (*Stream, error) {
	cfg := newCallConfig()
	cfg.apply(opts...)
	return startStream(ctx, cfg, cfg.buildRequest(messages))
}

func startStream(ctx context.Context, cfg *callConfig, req *provider.CompletionRequest) (*Stream, error) {
	if req == nil {
		return nil, ErrRequestRequired
	}
	if cfg.providerName == "" {
		return nil, ErrProviderRequired
	}
	if req.Body.Model == "" {
		return nil, ErrModelRequired
	}

	p, err := provider.Get(cfg.providerName)
	if err != nil {
		return nil, fmt.Errorf("getting provider: %w", err)
	}

	stream, err := p.CallStream(ctx, req)
	if err != nil {
		return nil, newProviderError(p.Name(), err)
	}

	return &Stream{stream: stream, logger: cfg.logger}, nil
}
