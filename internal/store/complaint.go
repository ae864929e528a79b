package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound = errors.New("complaint not found")
	ErrInvalid  = errors.New("category and description are required")
)

// StatusSubmitted is the status of every newly filed complaint.
const StatusSubmitted = "submitted"

// Complaint is a report filed with the Internal Committee. ReporterEmail is
// cleared when Anonymous is set.
type Complaint struct {
	ID            string     `json:"id"`
	Category      string     `json:"category"`
	Description   string     `json:"description"`
	Respondent    string     `json:"respondent,omitempty"`
	IncidentDate  *time.Time `json:"incidentDate,omitempty"`
	Anonymous     bool       `json:"anonymous"`
	ReporterEmail string     `json:"reporterEmail,omitempty"`
	Sentiment     string     `json:"sentiment"`
	Status        string     `json:"status"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// ListFilter narrows List. Zero values match everything; Limit 0 means no limit.
type ListFilter struct {
	Sentiment string
	Limit     int
}

// ComplaintStore persists complaints. Create fills in ID, Status and
// CreatedAt when they are empty.
type ComplaintStore interface {
	Create(ctx context.Context, c *Complaint) error
	Get(ctx context.Context, id string) (*Complaint, error)
	List(ctx context.Context, f ListFilter) ([]Complaint, error)
}

func validate(c *Complaint) error {
	if strings.TrimSpace(c.Category) == "" || strings.TrimSpace(c.Description) == "" {
		return ErrInvalid
	}
	return nil
}

var (
	_ ComplaintStore = (*MemoryStore)(nil)
	_ ComplaintStore = (*DatabaseStore)(nil)
)
