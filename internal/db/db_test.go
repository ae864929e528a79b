package db

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestReadMigrationsOrdersByNumber(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"010_add_index.sql":    "CREATE INDEX x ON t (a);",
		"002_create_table.sql": "CREATE TABLE t (a INT);",
		"notes.sql":            "-- ignored, no number",
		"abc_other.sql":        "-- ignored, bad number",
		"README.md":            "ignored",
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
	}

	got, err := ReadMigrations(dir)
	if err != nil {
		t.Fatalf("ReadMigrations: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2: %+v", len(got), got)
	}
	if got[0].Number != 2 || got[0].Name != "create_table" {
		t.Fatalf("first = %+v", got[0])
	}
	if got[1].Number != 10 || got[1].Name != "add_index" {
		t.Fatalf("second = %+v", got[1])
	}
}

func TestShippedMigrationsParse(t *testing.T) {
	got, err := ReadMigrations(filepath.Join("..", "..", "migrations"))
	if err != nil {
		t.Fatalf("ReadMigrations: %v", err)
	}
	if len(got) == 0 || got[0].Name != "create_complaints" {
		t.Fatalf("migrations = %+v", got)
	}
}

func TestWithSSLDisabled(t *testing.T) {
	tests := []struct{ in, want string }{
		{"postgres://u:p@localhost/db", "postgres://u:p@localhost/db?sslmode=disable"},
		{"postgres://u:p@localhost/db?x=1", "postgres://u:p@localhost/db?x=1&sslmode=disable"},
		{"host=localhost user=u dbname=db", "host=localhost user=u dbname=db sslmode=disable"},
		{"postgresql://localhost/db", "postgresql://localhost/db?sslmode=disable"},
	}
	for _, tt := range tests {
		if got := withSSLDisabled(tt.in); got != tt.want {
			t.Errorf("withSSLDisabled(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNewRequiresDSN(t *testing.T) {
	if _, err := New(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

// TestRunMigrationsIntegration needs a reachable PostgreSQL in TEST_DB_URL.
func TestRunMigrationsIntegration(t *testing.T) {
	dsn := os.Getenv("TEST_DB_URL")
	if dsn == "" {
		t.Skip("TEST_DB_URL not set")
	}
	ctx := context.Background()
	d, err := New(ctx, dsn)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer d.Close()
	dir := filepath.Join("..", "..", "migrations")
	for i := 0; i < 2; i++ {
		if err := d.RunMigrations(ctx, dir); err != nil {
			t.Fatalf("RunMigrations pass %d: %v", i+1, err)
		}
	}
}
