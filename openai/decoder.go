package openai

import (
	"bufio"
	"encoding/json"
	"errors"
	"io"
	"iter"
	"strings"

	"github.com/i2y/chatstream/provider"
)

// doneSentinel marks the end of a completion stream.
const doneSentinel = "[DONE]"

var _ provider.ResponseStream = (*ChunkStream)(nil)

// ChunkStream decodes a chat completion event stream line by line.
//
// Events are two physical lines: a payload line and a separator. Only the
// first line of each pair is decoded; the second is read and discarded
// without being inspected. A line containing [DONE] ends the stream. A
// payload that fails to decode yields a *provider.DecodeError for that item
// and the stream continues.
type ChunkStream struct {
	reader  *bufio.Reader
	closer  io.Closer
	started bool
	done    bool
	current *provider.Chunk
	err     error
}

// NewChunkStream creates a stream reading from r. If r is an io.Closer it is
// closed by Close.
func NewChunkStream(r io.Reader) *ChunkStream {
	s := &ChunkStream{reader: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// Next reads the next event. It returns false once the sentinel or the end
// of input has been reached.
func (s *ChunkStream) Next() bool {
	s.current, s.err = nil, nil
	if s.done {
		return false
	}

	if s.started {
		if _, err := s.readLine(); err != nil {
			return s.fail(err)
		}
	}
	s.started = true

	line, err := s.readLine()
	if err != nil {
		return s.fail(err)
	}

	chunk, ok, err := decodeLine(line)
	if !ok {
		s.done = true
		return false
	}
	s.current, s.err = chunk, err
	return true
}

// Current returns the chunk decoded by the last call to Next.
func (s *ChunkStream) Current() *provider.Chunk {
	return s.current
}

// Err returns the error for the current item. It does not mean the stream
// has ended.
func (s *ChunkStream) Err() error {
	return s.err
}

// All returns an iterator over the remaining items. Breaking out of the loop
// closes the stream.
//
//	for chunk, err := range stream.All() {
//	    if err != nil {
//	        log.Print(err)
//	        continue
//	    }
//	    fmt.Print(chunk.Text())
//	}
func (s *ChunkStream) All() iter.Seq2[*provider.Chunk, error] {
	return func(yield func(*provider.Chunk, error) bool) {
		for s.Next() {
			if !yield(s.current, s.err) {
				_ = s.Close()
				return
			}
		}
	}
}

// Close releases the underlying reader. It is safe to call more than once.
func (s *ChunkStream) Close() error {
	s.done = true
	if s.closer == nil {
		return nil
	}
	c := s.closer
	s.closer = nil
	return c.Close()
}

// readLine returns the next line without its terminator. A final line with
// no trailing newline is still returned.
func (s *ChunkStream) readLine() (string, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}

// fail ends the stream. A read error other than EOF is reported as one last
// item since the reader cannot be resumed.
func (s *ChunkStream) fail(err error) bool {
	s.done = true
	if errors.Is(err, io.EOF) {
		return false
	}
	s.err = err
	return true
}

// decodeLine decodes one payload line. ok is false when the line carries the
// sentinel.
func decodeLine(line string) (chunk *provider.Chunk, ok bool, err error) {
	if strings.Contains(line, doneSentinel) {
		return nil, false, nil
	}

	payload := line
	if i := strings.IndexByte(payload, '{'); i >= 0 {
		payload = payload[i:]
	}

	var c provider.Chunk
	if err := json.Unmarshal([]byte(payload), &c); err != nil {
		return nil, true, &provider.DecodeError{Line: line, Err: err}
	}
	return &c, true, nil
}
