package llm

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/i2y/chatstream/provider"
)

type fakeItem struct {
	chunk *provider.Chunk
	err   error
}

type fakeStream struct {
	items  []fakeItem
	pos    int
	closed bool
}

func (s *fakeStream) Next() bool {
	if s.closed || s.pos >= len(s.items) {
		return false
	}
	s.pos++
	return true
}

func (s *fakeStream) Current() *provider.Chunk { return s.items[s.pos-1].chunk }
func (s *fakeStream) Err() error               { return s.items[s.pos-1].err }

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// fakeProvider replays scripted items and remembers the last request.
type fakeProvider struct {
	items   []fakeItem
	callErr error
	lastReq *provider.CompletionRequest
	stream  *fakeStream
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) CallStream(ctx context.Context, req *provider.CompletionRequest) (provider.ResponseStream, error) {
	p.lastReq = req
	if p.callErr != nil {
		return nil, p.callErr
	}
	p.stream = &fakeStream{items: p.items}
	return p.stream, nil
}

func registerFake(t *testing.T, items ...fakeItem) *fakeProvider {
	t.Helper()
	fp := &fakeProvider{items: items}
	provider.Register("fake", func() (provider.StreamingProvider, error) {
		return fp, nil
	})
	return fp
}

func chunkOf(contents ...*string) fakeItem {
	c := &provider.Chunk{}
	for _, content := range contents {
		c.Choices = append(c.Choices, provider.Choice{Delta: provider.Delta{Content: content}})
	}
	return fakeItem{chunk: c}
}

func str(s string) *string { return &s }

func request() *provider.CompletionRequest {
	return &provider.CompletionRequest{
		Body: provider.CompletionParams{
			Model:    "m",
			Messages: []Message{UserMessage("hi")},
			Stream:   true,
		},
	}
}

func TestComplete_AccumulatesText(t *testing.T) {
	registerFake(t,
		chunkOf(str("Hel")),
		chunkOf(str("lo")),
		chunkOf(nil),
	)

	var sink bytes.Buffer
	text, err := Complete(context.Background(), request(),
		WithProvider("fake"),
		WithSink(&sink),
	)

	require.NoError(t, err)
	assert.Equal(t, "Hello", text)
	assert.Equal(t, "Hello"+EndOfResponseMarker, sink.String())
}

func TestComplete_MultipleChoicesInOrder(t *testing.T) {
	registerFake(t, chunkOf(str("a"), nil, str("b")), chunkOf(str("c")))

	text, err := Complete(context.Background(), request(),
		WithProvider("fake"),
		WithSink(nil),
	)

	require.NoError(t, err)
	assert.Equal(t, "abc", text)
}

func TestComplete_DecodeErrorsAreLoggedAndSkipped(t *testing.T) {
	decodeErr := &provider.DecodeError{Line: "data: {oops", Err: errors.New("invalid character")}
	registerFake(t,
		chunkOf(str("one ")),
		fakeItem{err: decodeErr},
		chunkOf(str("two")),
		fakeItem{err: errors.New("connection reset")},
	)

	core, logs := observer.New(zapcore.WarnLevel)
	var sink bytes.Buffer
	text, err := Complete(context.Background(), request(),
		WithProvider("fake"),
		WithSink(&sink),
		WithLogger(zap.New(core)),
	)

	require.NoError(t, err)
	assert.Equal(t, "one two", text)
	assert.Equal(t, "one two"+EndOfResponseMarker, sink.String())

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "skipping malformed stream line", entries[0].Message)
	assert.Equal(t, "data: {oops", entries[0].ContextMap()["line"])
	assert.Equal(t, "stream read failed", entries[1].Message)
}

func TestComplete_CallErrorIsReturned(t *testing.T) {
	fp := registerFake(t)
	fp.callErr = &statusErr{code: 401}

	var sink bytes.Buffer
	_, err := Complete(context.Background(), request(),
		WithProvider("fake"),
		WithSink(&sink),
	)

	require.Error(t, err)
	var provErr *ProviderError
	require.True(t, errors.As(err, &provErr))
	assert.Equal(t, "fake", provErr.Provider)
	assert.Equal(t, 401, provErr.StatusCode)
	assert.Empty(t, sink.String(), "nothing is printed when the request fails")
}

func TestComplete_Validation(t *testing.T) {
	registerFake(t)

	tests := []struct {
		name    string
		req     *provider.CompletionRequest
		opts    []Option
		wantErr error
	}{
		{
			name:    "nil request",
			req:     nil,
			opts:    []Option{WithProvider("fake")},
			wantErr: ErrRequestRequired,
		},
		{
			name:    "no provider",
			req:     request(),
			wantErr: ErrProviderRequired,
		},
		{
			name: "no model",
			req: &provider.CompletionRequest{
				Body: provider.CompletionParams{Messages: []Message{UserMessage("hi")}},
			},
			opts:    []Option{WithProvider("fake")},
			wantErr: ErrModelRequired,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Complete(context.Background(), tt.req, append(tt.opts, WithSink(nil))...)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestComplete_UnknownProvider(t *testing.T) {
	_, err := Complete(context.Background(), request(),
		WithProvider("does-not-exist"),
		WithSink(nil),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting provider")
}

func TestComplete_FlushesBufferedSink(t *testing.T) {
	registerFake(t, chunkOf(str("x")))

	var out bytes.Buffer
	w := bufio.NewWriter(&out)
	_, err := Complete(context.Background(), request(),
		WithProvider("fake"),
		WithSink(w),
	)

	require.NoError(t, err)
	assert.Equal(t, "x"+EndOfResponseMarker, out.String())
}

func TestComplete_ClosesStream(t *testing.T) {
	fp := registerFake(t, chunkOf(str("x")))

	_, err := Complete(context.Background(), request(), WithProvider("fake"), WithSink(nil))
	require.NoError(t, err)
	assert.True(t, fp.stream.closed)
}

func TestCompleteMessages_BuildsRequest(t *testing.T) {
	fp := registerFake(t, chunkOf(str("ok")))

	text, err := CompleteMessages(context.Background(),
		[]Message{UserMessage("question"), ToolCallMessage("call", "result")},
		WithProvider("fake"),
		WithModel("gpt-test"),
		WithTemperature(0.3),
		WithTopP(0.9),
		WithBaseURL("http://localhost:9999"),
		WithAPIKey("sk-x"),
		WithSystemMessage("be terse"),
		WithMessages(AssistantMessage("earlier")),
		WithSink(nil),
	)
	require.NoError(t, err)
	assert.Equal(t, "ok", text)

	req := fp.lastReq
	require.NotNil(t, req)
	assert.Equal(t, "http://localhost:9999", req.BaseURL)
	assert.Equal(t, "sk-x", req.APIKey)
	assert.Equal(t, "gpt-test", req.Body.Model)
	require.NotNil(t, req.Body.Temperature)
	assert.Equal(t, 0.3, *req.Body.Temperature)
	require.NotNil(t, req.Body.TopP)
	assert.Equal(t, 0.9, *req.Body.TopP)
	assert.True(t, req.Body.Stream)
	assert.Equal(t, []Message{
		SystemMessage("be terse"),
		AssistantMessage("earlier"),
		UserMessage("question"),
		ToolCallMessage("call", "result"),
	}, req.Body.Messages)
}

func TestWithStream(t *testing.T) {
	fp := registerFake(t)

	_, err := CompleteMessages(context.Background(), []Message{UserMessage("q")},
		WithProvider("fake"), WithModel("m"), WithStream(false), WithSink(nil))
	require.NoError(t, err)
	assert.False(t, fp.lastReq.Body.Stream)
}

func TestStream_Chunks(t *testing.T) {
	registerFake(t,
		chunkOf(str("a")),
		fakeItem{err: errors.New("bad line")},
		chunkOf(str("b")),
	)

	stream, err := CallStream(context.Background(), request(), WithProvider("fake"))
	require.NoError(t, err)
	defer func() { _ = stream.Close() }()

	var errs int
	for _, err := range stream.Chunks() {
		if err != nil {
			errs++
		}
	}

	assert.Equal(t, 1, errs)
	assert.Equal(t, 1, stream.Skipped())
	assert.Equal(t, "ab", stream.Text())
}

func TestStream_BreakCloses(t *testing.T) {
	fp := registerFake(t, chunkOf(str("a")), chunkOf(str("b")))

	stream, err := CallStream(context.Background(), request(), WithProvider("fake"))
	require.NoError(t, err)

	for range stream.Chunks() {
		break
	}
	assert.True(t, fp.stream.closed)
	assert.Equal(t, "a", stream.Text())
}

func TestModel(t *testing.T) {
	fp := registerFake(t, chunkOf(str("joke")))

	model := NewModel("fake", "base-model", WithTemperature(0.7), WithSink(nil))
	assert.Equal(t, "fake", model.Provider())
	assert.Equal(t, "base-model", model.Name())

	text, err := model.Complete(context.Background(), []Message{UserMessage("tell a joke")},
		WithModel("override-model"))
	require.NoError(t, err)
	assert.Equal(t, "joke", text)
	assert.Equal(t, "override-model", fp.lastReq.Body.Model)
	require.NotNil(t, fp.lastReq.Body.Temperature)
	assert.Equal(t, 0.7, *fp.lastReq.Body.Temperature)

	stream, err := model.Stream(context.Background(), []Message{UserMessage("again")})
	require.NoError(t, err)
	_ = stream.Collect(io.Discard)
	assert.Equal(t, "base-model", fp.lastReq.Body.Model)
}
