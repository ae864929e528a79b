package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"posh-assistant-backend/internal/auth"
	"posh-assistant-backend/internal/sse"
	"posh-assistant-backend/internal/types"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskPrintsStreamedAnswer(t *testing.T) {
	var got types.ChatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat/stream" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.Header().Set("Content-Type", "text/event-stream")
		for _, tok := range []string{"Within ", "three ", "months."} {
			_ = sse.WriteToken(w, tok)
		}
		_ = sse.WriteDone(w)
	}))
	defer srv.Close()

	out, err := run(t, "ask", "-s", srv.URL+"/", "-c", "passage", "how", "long?")
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if out != "Within three months.\n" {
		t.Fatalf("out = %q", out)
	}
	if len(got.Messages) != 1 || got.Messages[0].Content != "how long?" || got.Messages[0].Role != "user" {
		t.Fatalf("request = %+v", got)
	}
	if len(got.Context) != 1 || got.Context[0] != "passage" {
		t.Fatalf("context = %v", got.Context)
	}
}

func TestAskReportsCutOffAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = sse.WriteToken(w, "partial")
	}))
	defer srv.Close()

	out, err := run(t, "ask", "-s", srv.URL, "hi")
	if err == nil || !strings.Contains(err.Error(), "cut off") {
		t.Fatalf("err = %v", err)
	}
	if !strings.HasPrefix(out, "partial") {
		t.Fatalf("out = %q", out)
	}
}

func TestAskSurfacesServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, `{"error":"chat stream init failed"}`)
	}))
	defer srv.Close()

	_, err := run(t, "ask", "-s", srv.URL, "hi")
	if err == nil || !strings.Contains(err.Error(), "chat stream init failed") {
		t.Fatalf("err = %v", err)
	}
}

func TestSentimentCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req types.SentimentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		label := "neutral"
		if strings.Contains(req.Text, "scared") {
			label = "distressed"
		}
		_ = json.NewEncoder(w).Encode(types.SentimentResponse{Sentiment: label})
	}))
	defer srv.Close()

	out, err := run(t, "sentiment", "-s", srv.URL, "I", "am", "scared")
	if err != nil {
		t.Fatal(err)
	}
	if out != "distressed\n" {
		t.Fatalf("out = %q", out)
	}
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	out, err := run(t, "token", "ic-member", "--ttl", "1h")
	if err != nil {
		t.Fatal(err)
	}
	claims, err := auth.ParseCommitteeToken(strings.TrimSpace(out), "cli-secret")
	if err != nil {
		t.Fatalf("issued token does not verify: %v", err)
	}
	if claims.Subject != "ic-member" {
		t.Fatalf("subject = %q", claims.Subject)
	}
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")
	if _, err := run(t, "token", "m"); err == nil {
		t.Fatal("expected error without JWT_SECRET")
	}
}
