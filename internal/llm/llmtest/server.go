// Package llmtest provides an in-process OpenAI-compatible server so the
// go-openai client can be exercised without network access.
package llmtest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	openai "github.com/sashabaranov/go-openai"
)

// StreamScript describes what the fake server sends for a streaming request.
// Malformed, when set, is written as a raw data frame after Tokens to make the
// client fail mid-stream.
type StreamScript struct {
	Tokens    []string
	Malformed string
	// Status other than 200 fails the request before any token is sent.
	Status int
}

type Server struct {
	*httptest.Server

	mu         sync.Mutex
	Stream     StreamScript
	Completion string
	// CompletionStatus other than 200 fails non-streaming calls.
	CompletionStatus int
	// Embed maps an input string to its embedding vector.
	Embed func(input string) []float32

	requests   []openai.ChatCompletionRequest
	embeddings int
}

// NewServer starts a fake provider. Point go-openai at BaseURL().
func NewServer() *Server {
	s := &Server{}
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/chat/completions", s.handleChat)
	mux.HandleFunc("/v1/embeddings", s.handleEmbeddings)
	s.Server = httptest.NewServer(mux)
	return s
}

func (s *Server) BaseURL() string { return s.Server.URL + "/v1" }

// SetCompletion changes the non-streaming reply while requests may be in flight.
func (s *Server) SetCompletion(text string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Completion = text
	s.CompletionStatus = status
}

// Requests returns every chat request received so far.
func (s *Server) Requests() []openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]openai.ChatCompletionRequest(nil), s.requests...)
}

func (s *Server) EmbeddingCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.embeddings
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req openai.ChatCompletionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	script := s.Stream
	completion := s.Completion
	completionStatus := s.CompletionStatus
	s.mu.Unlock()

	if req.Stream {
		s.writeStream(w, script)
		return
	}
	if completionStatus != 0 && completionStatus != http.StatusOK {
		writeAPIError(w, completionStatus)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
		ID:    "cmpl-test",
		Model: req.Model,
		Choices: []openai.ChatCompletionChoice{{
			Message: openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: completion},
		}},
	})
}

func (s *Server) writeStream(w http.ResponseWriter, script StreamScript) {
	if script.Status != 0 && script.Status != http.StatusOK {
		writeAPIError(w, script.Status)
		return
	}
	flusher, _ := w.(http.Flusher)
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	for _, tok := range script.Tokens {
		chunk := openai.ChatCompletionStreamResponse{
			ID:     "chunk-test",
			Object: "chat.completion.chunk",
			Choices: []openai.ChatCompletionStreamChoice{{
				Delta: openai.ChatCompletionStreamChoiceDelta{Content: tok},
			}},
		}
		b, _ := json.Marshal(chunk)
		fmt.Fprintf(w, "data: %s\n\n", b)
		if flusher != nil {
			flusher.Flush()
		}
	}
	if script.Malformed != "" {
		fmt.Fprintf(w, "data: %s\n\n", script.Malformed)
		return
	}
	fmt.Fprint(w, "data: [DONE]\n\n")
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Input []string `json:"input"`
		Model string   `json:"model"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s.mu.Lock()
	s.embeddings++
	embed := s.Embed
	s.mu.Unlock()
	if embed == nil {
		writeAPIError(w, http.StatusServiceUnavailable)
		return
	}
	resp := openai.EmbeddingResponse{Object: "list", Model: openai.EmbeddingModel(req.Model)}
	for i, in := range req.Input {
		resp.Data = append(resp.Data, openai.Embedding{Object: "embedding", Index: i, Embedding: embed(in)})
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}

func writeAPIError(w http.ResponseWriter, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	fmt.Fprintf(w, `{"error":{"message":"fake provider error","type":"server_error","code":%d}}`, status)
}
