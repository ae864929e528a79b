package llm

import (
	"context"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// NewClient returns a go-openai client for any OpenAI-compatible provider.
// Groq and Gemini both expose one, so the same SDK serves chat, classification
// and embeddings; only the key and base URL differ.
func NewClient(apiKey, baseURL string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = strings.TrimRight(baseURL, "/")
	}
	// No client-wide timeout: streams are bounded by the caller's context.
	cfg.HTTPClient = &http.Client{}
	return openai.NewClientWithConfig(cfg)
}

// ChatStreamer is the part of *openai.Client the relay needs.
type ChatStreamer interface {
	CreateChatCompletionStream(ctx context.Context, req openai.ChatCompletionRequest) (*openai.ChatCompletionStream, error)
}

// ChatCompleter is the part of *openai.Client the classifier needs.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Embedder is the part of *openai.Client the retriever needs.
type Embedder interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

var (
	_ ChatStreamer  = (*openai.Client)(nil)
	_ ChatCompleter = (*openai.Client)(nil)
	_ Embedder      = (*openai.Client)(nil)
)
