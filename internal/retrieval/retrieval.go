// Package retrieval supplies context passages for the assistant prompt by
// embedding similarity against a small in-memory knowledge base.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strings"
	"sync"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/logging"
)

var ErrNotIndexed = errors.New("retrieval: index not built")

type Passage struct {
	Title string `yaml:"title"`
	Text  string `yaml:"text"`
}

type knowledgeFile struct {
	Passages []Passage `yaml:"passages"`
}

// LoadPassages reads the knowledge base YAML. Passages with no text are dropped.
func LoadPassages(path string) ([]Passage, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var kf knowledgeFile
	if err := yaml.Unmarshal(b, &kf); err != nil {
		return nil, fmt.Errorf("parse knowledge file %s: %w", path, err)
	}
	out := kf.Passages[:0]
	for _, p := range kf.Passages {
		if strings.TrimSpace(p.Text) != "" {
			out = append(out, p)
		}
	}
	return out, nil
}

type Retriever struct {
	embedder llm.Embedder
	model    openai.EmbeddingModel
	passages []Passage
	topK     int

	mu      sync.RWMutex
	vectors [][]float32
}

func New(embedder llm.Embedder, model string, passages []Passage, topK int) *Retriever {
	if topK <= 0 {
		topK = 1
	}
	return &Retriever{
		embedder: embedder,
		model:    openai.EmbeddingModel(model),
		passages: passages,
		topK:     topK,
	}
}

// Index embeds every passage in a single request. It may be called again to
// rebuild the vectors.
func (r *Retriever) Index(ctx context.Context) error {
	if len(r.passages) == 0 {
		r.mu.Lock()
		r.vectors = [][]float32{}
		r.mu.Unlock()
		return nil
	}
	done := logging.LogDuration(ctx, "retrieval_index")
	defer done()

	inputs := make([]string, len(r.passages))
	for i, p := range r.passages {
		inputs[i] = passageInput(p)
	}
	vecs, err := r.embed(ctx, inputs)
	if err != nil {
		return fmt.Errorf("embed passages: %w", err)
	}
	r.mu.Lock()
	r.vectors = vecs
	r.mu.Unlock()
	logging.AppLogger.Info("knowledge base indexed", zap.Int("passages", len(vecs)))
	return nil
}

// Retrieve returns the text of the passages most similar to query, best first.
func (r *Retriever) Retrieve(ctx context.Context, query string) ([]string, error) {
	r.mu.RLock()
	vectors := r.vectors
	r.mu.RUnlock()
	if vectors == nil {
		return nil, ErrNotIndexed
	}
	if strings.TrimSpace(query) == "" || len(vectors) == 0 {
		return nil, nil
	}

	qv, err := r.embed(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	type scored struct {
		idx   int
		score float64
	}
	hits := make([]scored, len(vectors))
	for i, v := range vectors {
		hits[i] = scored{idx: i, score: Cosine(qv[0], v)}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	k := r.topK
	if k > len(hits) {
		k = len(hits)
	}
	out := make([]string, 0, k)
	for _, h := range hits[:k] {
		out = append(out, r.passages[h.idx].Text)
	}
	return out, nil
}

func (r *Retriever) embed(ctx context.Context, inputs []string) ([][]float32, error) {
	resp, err := r.embedder.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: inputs,
		Model: r.model,
	})
	if err != nil {
		return nil, err
	}
	if len(resp.Data) != len(inputs) {
		return nil, fmt.Errorf("got %d embeddings for %d inputs", len(resp.Data), len(inputs))
	}
	out := make([][]float32, len(inputs))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(out) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		out[d.Index] = d.Embedding
	}
	return out, nil
}

func passageInput(p Passage) string {
	if p.Title == "" {
		return p.Text
	}
	return p.Title + "\n" + p.Text
}

// Cosine returns the cosine similarity of a and b, or 0 when either is a zero
// vector or their lengths differ.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
