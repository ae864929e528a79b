// Package relay streams a hosted chat model's output to a client as SSE frames.
package relay

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/logging"
	"posh-assistant-backend/internal/sse"
)

var ErrNoSystemPrompt = errors.New("relay: system prompt is required")

// Options are the fixed sampling parameters for every chat request.
type Options struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

type Relay struct {
	client llm.ChatStreamer
	opts   Options
}

func New(client llm.ChatStreamer, opts Options) *Relay {
	return &Relay{client: client, opts: opts}
}

// BuildRequest always prepends systemPrompt as the single leading system
// message, even when the transcript carries one of its own.
func (r *Relay) BuildRequest(transcript []llm.Message, systemPrompt string) openai.ChatCompletionRequest {
	msgs := make([]llm.Message, 0, len(transcript)+1)
	msgs = append(msgs, llm.Message{Role: llm.RoleSystem, Content: systemPrompt})
	msgs = append(msgs, transcript...)
	return openai.ChatCompletionRequest{
		Model:       r.opts.Model,
		Messages:    llm.ToOpenAI(msgs),
		Temperature: r.opts.Temperature,
		MaxTokens:   r.opts.MaxTokens,
		Stream:      true,
	}
}

// Stream opens the remote stream and returns a reader of SSE frames. A
// failure to open is returned directly; failures after that surface as a
// read error on the returned reader, and [DONE] is only written on a clean
// finish. Closing the reader abandons the remote request.
func (r *Relay) Stream(ctx context.Context, transcript []llm.Message, systemPrompt string) (io.ReadCloser, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, ErrNoSystemPrompt
	}
	ctx, cancel := context.WithCancel(ctx)
	stream, err := r.client.CreateChatCompletionStream(ctx, r.BuildRequest(transcript, systemPrompt))
	if err != nil {
		cancel()
		return nil, fmt.Errorf("open chat stream: %w", err)
	}
	logging.AppLogger.Debug("chat stream opened",
		zap.String("model", r.opts.Model),
		zap.Int("messages", len(transcript)+1),
	)
	return Pipe(ctx, cancel, llm.NewStreamSource(stream)), nil
}

// Pipe runs Pump on its own goroutine, writing into a synchronous pipe so the
// producer only advances as fast as the reader consumes.
func Pipe(ctx context.Context, cancel context.CancelFunc, src llm.TokenSource) io.ReadCloser {
	pr, pw := io.Pipe()
	go func() {
		defer cancel()
		defer src.Close()
		done := logging.LogDuration(ctx, "relay_pump")
		defer done()

		if err := Pump(ctx, src, pw); err != nil {
			if !errors.Is(err, io.ErrClosedPipe) && !errors.Is(err, context.Canceled) {
				logging.ErrorLogger.Error("chat stream aborted", zap.Error(err))
			}
			pw.CloseWithError(err)
			return
		}
		pw.Close()
	}()
	return &streamReader{PipeReader: pr, cancel: cancel}
}

type streamReader struct {
	*io.PipeReader
	cancel context.CancelFunc
}

func (s *streamReader) Close() error {
	s.cancel()
	return s.PipeReader.Close()
}

// Pump copies tokens from src to w as SSE frames, strictly in arrival order,
// and writes [DONE] once src reports io.EOF. Empty deltas are skipped.
func Pump(ctx context.Context, src llm.TokenSource, w io.Writer) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tok, err := src.Next()
		if errors.Is(err, io.EOF) {
			return sse.WriteDone(w)
		}
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("read chat stream: %w", err)
		}
		if tok == "" {
			continue
		}
		if err := sse.WriteToken(w, tok); err != nil {
			return fmt.Errorf("write token frame: %w", err)
		}
	}
}
