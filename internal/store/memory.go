package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps complaints in process memory. It is used when no database
// is configured and in tests.
type MemoryStore struct {
	mu         sync.RWMutex
	complaints map[string]Complaint
	now        func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		complaints: make(map[string]Complaint),
		now:        time.Now,
	}
}

func (m *MemoryStore) Create(_ context.Context, c *Complaint) error {
	if err := validate(c); err != nil {
		return err
	}
	prepare(c, m.now)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.complaints[c.ID] = *c
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (*Complaint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.complaints[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

// List returns complaints newest first.
func (m *MemoryStore) List(_ context.Context, f ListFilter) ([]Complaint, error) {
	m.mu.RLock()
	out := make([]Complaint, 0, len(m.complaints))
	for _, c := range m.complaints {
		if f.Sentiment != "" && c.Sentiment != f.Sentiment {
			continue
		}
		out = append(out, c)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

// prepare fills server-assigned fields shared by every store.
func prepare(c *Complaint, now func() time.Time) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.Status == "" {
		c.Status = StatusSubmitted
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now().UTC()
	}
	if c.Anonymous {
		c.ReporterEmail = ""
	}
}
