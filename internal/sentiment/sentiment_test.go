package sentiment

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"
	"unicode/utf8"

	openai "github.com/sashabaranov/go-openai"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/llm/llmtest"
	"posh-assistant-backend/internal/logging"
)

const longText = "My manager keeps sending me messages late at night and I feel unsafe."

type fakeCompleter struct {
	mu    sync.Mutex
	reply string
	err   error
	calls []openai.ChatCompletionRequest
	empty bool
}

func (f *fakeCompleter) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	if f.err != nil {
		return openai.ChatCompletionResponse{}, f.err
	}
	if f.empty {
		return openai.ChatCompletionResponse{}, nil
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{{Message: openai.ChatCompletionMessage{Content: f.reply}}},
	}, nil
}

func TestClassifyShortTextSkipsRemote(t *testing.T) {
	f := &fakeCompleter{reply: "distressed"}
	c := New(f, "small", time.Second)
	for _, in := range []string{"", "help me", "0123456789", "   padded short   "} {
		if got := c.Classify(context.Background(), in); got != Neutral {
			t.Fatalf("Classify(%q) = %s, want neutral", in, got)
		}
	}
	if len(f.calls) != 0 {
		t.Fatalf("remote calls = %d, want 0", len(f.calls))
	}
}

func TestClassifyMapsReplies(t *testing.T) {
	tests := []struct {
		reply string
		want  Label
	}{
		{"Distressed", Distressed},
		{"NEGATIVE.", Negative},
		{"neutral", Neutral},
		{"negative, possibly distressed", Distressed},
		{"I am not sure", Neutral},
		{"", Neutral},
	}
	for _, tt := range tests {
		f := &fakeCompleter{reply: tt.reply}
		if got := New(f, "small", 0).Classify(context.Background(), longText); got != tt.want {
			t.Errorf("reply %q: got %s, want %s", tt.reply, got, tt.want)
		}
	}
}

func TestClassifyFailuresAreNeutral(t *testing.T) {
	for name, f := range map[string]*fakeCompleter{
		"error":      {err: errors.New("dial tcp: connection refused")},
		"no choices": {empty: true},
	} {
		if got := New(f, "small", 0).Classify(context.Background(), longText); got != Neutral {
			t.Errorf("%s: got %s, want neutral", name, got)
		}
	}
}

func TestClassifyLogsFailures(t *testing.T) {
	app, errs, req, timer := logging.AppLogger, logging.ErrorLogger, logging.RequestLogger, logging.TimerLogger
	t.Cleanup(func() {
		logging.AppLogger, logging.ErrorLogger, logging.RequestLogger, logging.TimerLogger = app, errs, req, timer
	})
	dir := t.TempDir()
	if err := logging.InitLogger(dir, "info"); err != nil {
		t.Fatalf("InitLogger: %v", err)
	}

	f := &fakeCompleter{err: errors.New("dial tcp: connection refused")}
	if got := New(f, "small", 0).Classify(context.Background(), longText); got != Neutral {
		t.Fatalf("got %s, want neutral", got)
	}
	logging.Sync()

	b, err := os.ReadFile(filepath.Join(dir, "app.log"))
	if err != nil {
		t.Fatalf("read app.log: %v", err)
	}
	if !strings.Contains(string(b), "sentiment request failed") || !strings.Contains(string(b), "connection refused") {
		t.Fatalf("app.log missing failure: %s", b)
	}
}

func TestClassifyRequestShape(t *testing.T) {
	f := &fakeCompleter{reply: "neutral"}
	c := New(f, "small-model", 0)
	c.Classify(context.Background(), strings.Repeat("ä", MaxTextLength+50))

	if len(f.calls) != 1 {
		t.Fatalf("calls = %d", len(f.calls))
	}
	req := f.calls[0]
	if req.Model != "small-model" || req.MaxTokens != MaxTokens || req.Stream {
		t.Fatalf("unexpected request: %+v", req)
	}
	if req.Temperature >= 1e-6 {
		t.Fatalf("temperature = %v, want effectively zero", req.Temperature)
	}
	user := req.Messages[len(req.Messages)-1].Content
	if n := utf8.RuneCountInString(user); n != MaxTextLength {
		t.Fatalf("user content runes = %d, want %d", n, MaxTextLength)
	}
}

func TestClassifyAgainstProvider(t *testing.T) {
	srv := llmtest.NewServer()
	defer srv.Close()
	client := llm.NewClient("key", srv.BaseURL())

	srv.Completion = "Distressed"
	if got := New(client, "small", time.Second).Classify(context.Background(), longText); got != Distressed {
		t.Fatalf("got %s", got)
	}

	srv.SetCompletion("", http.StatusTooManyRequests)
	if got := New(client, "small", time.Second).Classify(context.Background(), longText); got != Neutral {
		t.Fatalf("provider error: got %s", got)
	}
}

func TestParseLabel(t *testing.T) {
	if ParseLabel("The user sounds DISTRESSED and negative") != Distressed {
		t.Fatal("distressed must win over negative")
	}
	if ParseLabel("Negative") != Negative {
		t.Fatal("negative not recognised")
	}
	if ParseLabel("positive") != Neutral {
		t.Fatal("unknown label should be neutral")
	}
}
