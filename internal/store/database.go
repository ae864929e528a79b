package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"posh-assistant-backend/internal/db"
)

// DatabaseStore stores complaints in PostgreSQL.
type DatabaseStore struct {
	db *db.DB
}

func NewDatabaseStore(database *db.DB) *DatabaseStore {
	return &DatabaseStore{db: database}
}

const complaintColumns = `id, category, description, respondent, incident_date, anonymous,
	reporter_email, sentiment, status, created_at`

func (ds *DatabaseStore) Create(ctx context.Context, c *Complaint) error {
	if err := validate(c); err != nil {
		return err
	}
	prepare(c, time.Now)

	_, err := ds.db.ExecContext(ctx, `
		INSERT INTO complaints (`+complaintColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Category, c.Description, c.Respondent, c.IncidentDate, c.Anonymous,
		c.ReporterEmail, c.Sentiment, c.Status, c.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save complaint: %w", err)
	}
	return nil
}

// Get returns ErrNotFound for ids that are not UUIDs, matching MemoryStore.
func (ds *DatabaseStore) Get(ctx context.Context, id string) (*Complaint, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	row := ds.db.QueryRowContext(ctx,
		`SELECT `+complaintColumns+` FROM complaints WHERE id = $1`, id)
	c, err := scanComplaint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get complaint: %w", err)
	}
	return c, nil
}

func (ds *DatabaseStore) List(ctx context.Context, f ListFilter) ([]Complaint, error) {
	var (
		where []string
		args  []any
	)
	if f.Sentiment != "" {
		args = append(args, f.Sentiment)
		where = append(where, fmt.Sprintf("sentiment = $%d", len(args)))
	}
	query := `SELECT ` + complaintColumns + ` FROM complaints`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id"
	if f.Limit > 0 {
		args = append(args, f.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}

	rows, err := ds.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list complaints: %w", err)
	}
	defer rows.Close()

	out := []Complaint{}
	for rows.Next() {
		c, err := scanComplaint(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan complaint: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanComplaint(s scanner) (*Complaint, error) {
	var (
		c        Complaint
		incident sql.NullTime
	)
	if err := s.Scan(
		&c.ID,
		&c.Category,
		&c.Description,
		&c.Respondent,
		&incident,
		&c.Anonymous,
		&c.ReporterEmail,
		&c.Sentiment,
		&c.Status,
		&c.CreatedAt,
	); err != nil {
		return nil, err
	}
	if incident.Valid {
		t := incident.Time
		c.IncidentDate = &t
	}
	return &c, nil
}
