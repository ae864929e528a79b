package llm

import (
	"io"
	"sync/atomic"

	openai "github.com/sashabaranov/go-openai"
)

// TokenSource is a pull interface over a remote token stream. Next returns
// the next textual delta, which may be empty, and io.EOF once the remote side
// completed normally. Any other error means the stream failed.
type TokenSource interface {
	Next() (string, error)
	Close() error
}

type streamSource struct {
	stream *openai.ChatCompletionStream
}

// NewStreamSource adapts a go-openai chat completion stream.
func NewStreamSource(stream *openai.ChatCompletionStream) TokenSource {
	return &streamSource{stream: stream}
}

func (s *streamSource) Next() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

func (s *streamSource) Close() error {
	s.stream.Close()
	return nil
}

// SliceSource replays a fixed token script, then returns Err (io.EOF when nil).
// Handy for tests and offline demos.
type SliceSource struct {
	Tokens []string
	Err    error
	pos    int
	closed atomic.Bool
}

func (s *SliceSource) Next() (string, error) {
	if s.pos < len(s.Tokens) {
		tok := s.Tokens[s.pos]
		s.pos++
		return tok, nil
	}
	if s.Err != nil {
		return "", s.Err
	}
	return "", io.EOF
}

func (s *SliceSource) Close() error {
	s.closed.Store(true)
	return nil
}

func (s *SliceSource) Closed() bool { return s.closed.Load() }
