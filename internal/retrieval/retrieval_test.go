package retrieval

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"posh-assistant-backend/internal/llm"
	"posh-assistant-backend/internal/llm/llmtest"
)

var vocab = []string{"committee", "deadline", "helpline", "relief"}

// keywordVector embeds text as keyword counts over vocab.
func keywordVector(s string) []float32 {
	s = strings.ToLower(s)
	v := make([]float32, len(vocab))
	for i, w := range vocab {
		v[i] = float32(strings.Count(s, w))
	}
	return v
}

func testPassages() []Passage {
	return []Passage{
		{Title: "IC", Text: "The committee hears complaints. The committee has four members."},
		{Title: "Time limit", Text: "The deadline is three months."},
		{Title: "Emergency", Text: "Call the helpline 181."},
		{Title: "Interim", Text: "Interim relief such as a transfer is available."},
	}
}

func newTestRetriever(t *testing.T, topK int) (*Retriever, *llmtest.Server) {
	t.Helper()
	srv := llmtest.NewServer()
	t.Cleanup(srv.Close)
	srv.Embed = keywordVector
	r := New(llm.NewClient("key", srv.BaseURL()), "embed-model", testPassages(), topK)
	if err := r.Index(context.Background()); err != nil {
		t.Fatalf("Index: %v", err)
	}
	return r, srv
}

func TestRetrieveRanksBySimilarity(t *testing.T) {
	r, srv := newTestRetriever(t, 2)

	got, err := r.Retrieve(context.Background(), "committee members? is the committee bound by a deadline?")
	if err != nil {
		t.Fatalf("Retrieve: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if !strings.Contains(got[0], "committee") || !strings.Contains(got[1], "deadline") {
		t.Fatalf("unexpected ranking: %q", got)
	}
	if srv.EmbeddingCalls() != 2 {
		t.Fatalf("embedding calls = %d, want 2 (index + query)", srv.EmbeddingCalls())
	}
}

func TestRetrieveTopKLargerThanCorpus(t *testing.T) {
	r, _ := newTestRetriever(t, 10)
	got, err := r.Retrieve(context.Background(), "helpline")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(testPassages()) {
		t.Fatalf("len = %d", len(got))
	}
	if !strings.Contains(got[0], "181") {
		t.Fatalf("best hit = %q", got[0])
	}
}

func TestRetrieveBeforeIndex(t *testing.T) {
	r := New(nil, "m", testPassages(), 3)
	if _, err := r.Retrieve(context.Background(), "q"); !errors.Is(err, ErrNotIndexed) {
		t.Fatalf("err = %v", err)
	}
}

func TestIndexProviderError(t *testing.T) {
	srv := llmtest.NewServer()
	defer srv.Close()
	r := New(llm.NewClient("key", srv.BaseURL()), "m", testPassages(), 3)
	if err := r.Index(context.Background()); err == nil {
		t.Fatal("expected error when provider fails")
	}
}

func TestCosine(t *testing.T) {
	if got := Cosine([]float32{1, 0}, []float32{1, 0}); math.Abs(got-1) > 1e-9 {
		t.Fatalf("identical = %v", got)
	}
	if got := Cosine([]float32{1, 0}, []float32{0, 1}); got != 0 {
		t.Fatalf("orthogonal = %v", got)
	}
	if got := Cosine([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Fatalf("zero vector = %v", got)
	}
	if got := Cosine([]float32{1}, []float32{1, 1}); got != 0 {
		t.Fatalf("length mismatch = %v", got)
	}
}

func TestLoadPassages(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kb.yaml")
	yml := "passages:\n  - title: A\n    text: first\n  - title: Empty\n    text: \"  \"\n  - title: B\n    text: second\n"
	if err := os.WriteFile(path, []byte(yml), 0o600); err != nil {
		t.Fatal(err)
	}
	ps, err := LoadPassages(path)
	if err != nil {
		t.Fatalf("LoadPassages: %v", err)
	}
	if len(ps) != 2 || ps[0].Text != "first" || ps[1].Title != "B" {
		t.Fatalf("passages = %+v", ps)
	}
}

func TestLoadShippedKnowledgeBase(t *testing.T) {
	ps, err := LoadPassages(filepath.Join("..", "..", "knowledge", "posh.yaml"))
	if err != nil {
		t.Fatalf("LoadPassages: %v", err)
	}
	if len(ps) == 0 {
		t.Fatal("knowledge base is empty")
	}
}
