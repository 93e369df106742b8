package openai

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i2y/chatstream/provider"
)

type item struct {
	text string
	err  error
}

func collect(t *testing.T, s *ChunkStream) []item {
	t.Helper()
	var items []item
	for chunk, err := range s.All() {
		if err != nil {
			items = append(items, item{err: err})
			continue
		}
		items = append(items, item{text: chunk.Text()})
	}
	return items
}

func lines(ls ...string) string {
	return strings.Join(ls, "\n") + "\n"
}

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		wantOK   bool
		wantText string
		wantErr  bool
	}{
		{
			name:     "data prefix",
			line:     `data: {"choices":[{"delta":{"content":"hi"}}]}`,
			wantOK:   true,
			wantText: "hi",
		},
		{
			name:     "arbitrary prefix",
			line:     `foo: {"choices":[{"delta":{"content":"hi"}}]}`,
			wantOK:   true,
			wantText: "hi",
		},
		{
			name:     "no prefix",
			line:     `{"choices":[{"message":{"content":"whole"}}]}`,
			wantOK:   true,
			wantText: "whole",
		},
		{
			name:   "sentinel",
			line:   "data: [DONE]",
			wantOK: false,
		},
		{
			name:   "sentinel with surrounding text",
			line:   `xx[DONE]{"choices":[]}`,
			wantOK: false,
		},
		{
			name:    "no brace",
			line:    "event: ping",
			wantOK:  true,
			wantErr: true,
		},
		{
			name:    "truncated json",
			line:    `data: {"choices":[{"delta":`,
			wantOK:  true,
			wantErr: true,
		},
		{
			name:    "empty line",
			line:    "",
			wantOK:  true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunk, ok, err := decodeLine(tt.line)
			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				assert.Nil(t, chunk)
				assert.NoError(t, err)
				return
			}
			if tt.wantErr {
				var decodeErr *provider.DecodeError
				require.True(t, errors.As(err, &decodeErr))
				assert.Equal(t, tt.line, decodeErr.Line)
				assert.Nil(t, chunk)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantText, chunk.Text())
		})
	}
}

func TestChunkStream_StrideTwo(t *testing.T) {
	// The separators are valid JSON on purpose: they must never be decoded.
	input := lines(
		`data: {"choices":[{"delta":{"content":"L1"}}]}`,
		`{"choices":[{"delta":{"content":"sep1"}}]}`,
		`data: {"choices":[{"delta":{"content":"L2"}}]}`,
		`{"choices":[{"delta":{"content":"sep2"}}]}`,
		`data: [DONE]`,
		`{"choices":[{"delta":{"content":"sepX"}}]}`,
	)

	items := collect(t, NewChunkStream(strings.NewReader(input)))
	assert.Equal(t, []item{{text: "L1"}, {text: "L2"}}, items)
}

func TestChunkStream_MalformedLineDoesNotStopStream(t *testing.T) {
	input := lines(
		`data: {"choices":[{"delta":{"content":"a"}}]}`,
		``,
		`data: {not json`,
		``,
		`data: {"choices":[{"delta":{"content":"b"}}]}`,
		``,
		`data: [DONE]`,
		``,
	)

	items := collect(t, NewChunkStream(strings.NewReader(input)))
	require.Len(t, items, 3)
	assert.Equal(t, "a", items[0].text)
	var decodeErr *provider.DecodeError
	assert.True(t, errors.As(items[1].err, &decodeErr))
	assert.Equal(t, "b", items[2].text)
}

func TestChunkStream_SentinelEndsStream(t *testing.T) {
	s := NewChunkStream(strings.NewReader(lines(
		`data: [DONE]`,
		``,
		`data: {"choices":[{"delta":{"content":"late"}}]}`,
		``,
	)))

	assert.False(t, s.Next())
	assert.False(t, s.Next())
	assert.Nil(t, s.Current())
	assert.NoError(t, s.Err())
}

func TestChunkStream_CRLFAndUnterminatedLastLine(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"x\"}}]}\r\n\r\n" +
		`data: {"choices":[{"delta":{"content":"y"}}]}`

	items := collect(t, NewChunkStream(strings.NewReader(input)))
	assert.Equal(t, []item{{text: "x"}, {text: "y"}}, items)
}

func TestChunkStream_EOFWithoutSentinel(t *testing.T) {
	input := lines(`data: {"choices":[{"delta":{"content":"only"}}]}`, ``)

	s := NewChunkStream(strings.NewReader(input))
	require.True(t, s.Next())
	assert.Equal(t, "only", s.Current().Text())
	assert.False(t, s.Next())
	assert.NoError(t, s.Err())
}

func TestChunkStream_ReadErrorEndsStream(t *testing.T) {
	boom := errors.New("connection reset")
	r := io.MultiReader(
		strings.NewReader(lines(`data: {"choices":[{"delta":{"content":"ok"}}]}`, ``)),
		&failingReader{err: boom},
	)

	items := collect(t, NewChunkStream(r))
	require.Len(t, items, 2)
	assert.Equal(t, "ok", items[0].text)
	assert.ErrorIs(t, items[1].err, boom)
}

func TestChunkStream_BreakClosesBody(t *testing.T) {
	body := &closeTracker{Reader: strings.NewReader(lines(
		`data: {"choices":[{"delta":{"content":"1"}}]}`, ``,
		`data: {"choices":[{"delta":{"content":"2"}}]}`, ``,
	))}
	s := NewChunkStream(body)

	for range s.All() {
		break
	}
	assert.True(t, body.closed)
	assert.False(t, s.Next())
	assert.NoError(t, s.Close())
}

type failingReader struct {
	err error
}

func (f *failingReader) Read([]byte) (int, error) {
	return 0, f.err
}

type closeTracker struct {
	io.Reader
	closed bool
}

func (c *closeTracker) Close() error {
	c.closed = true
	return nil
}
