package db

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"posh-assistant-backend/internal/logging"
)

// DB wraps the PostgreSQL connection pool.
type DB struct {
	*sql.DB
}

// New opens and pings a PostgreSQL connection. When the DSN does not pick an
// sslmode and the first ping fails, it retries once with sslmode=disable so
// local databases work without extra flags.
func New(ctx context.Context, dsn string) (*DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database connection string is required")
	}

	sqlDB, err := open(ctx, dsn)
	if err != nil && !strings.Contains(strings.ToLower(dsn), "sslmode") {
		logging.AppLogger.Warn("retrying database connection with SSL disabled", zap.Error(err))
		sqlDB, err = open(ctx, withSSLDisabled(dsn))
	}
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)
	return &DB{DB: sqlDB}, nil
}

func open(ctx context.Context, dsn string) (*sql.DB, error) {
	sqlDB, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return sqlDB, nil
}

func withSSLDisabled(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		if strings.Contains(dsn, "?") {
			return dsn + "&sslmode=disable"
		}
		return dsn + "?sslmode=disable"
	}
	// key=value form
	return dsn + " sslmode=disable"
}

func (db *DB) HealthCheck(ctx context.Context) error {
	return db.PingContext(ctx)
}

func (db *DB) Close() error {
	return db.DB.Close()
}

// Migration is one numbered SQL file, e.g. 001_create_complaints.sql.
type Migration struct {
	Number int
	Name   string
	SQL    string
}

// RunMigrations applies every not yet recorded migration in dir, in number
// order, each inside its own transaction.
func (db *DB) RunMigrations(ctx context.Context, dir string) error {
	migrations, err := ReadMigrations(dir)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if len(migrations) == 0 {
		logging.AppLogger.Info("no migrations found", zap.String("dir", dir))
		return nil
	}

	if _, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`); err != nil {
		return fmt.Errorf("create migration table: %w", err)
	}

	for _, m := range migrations {
		var applied bool
		if err := db.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)", m.Number,
		).Scan(&applied); err != nil {
			return fmt.Errorf("check migration %d: %w", m.Number, err)
		}
		if applied {
			continue
		}
		if err := db.apply(ctx, m); err != nil {
			return err
		}
		logging.AppLogger.Info("migration applied", zap.Int("version", m.Number), zap.String("name", m.Name))
	}
	return nil
}

func (db *DB) apply(ctx context.Context, m Migration) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin migration %d: %w", m.Number, err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return fmt.Errorf("execute migration %d: %w", m.Number, err)
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO schema_migrations (version, name) VALUES ($1, $2)", m.Number, m.Name,
	); err != nil {
		return fmt.Errorf("record migration %d: %w", m.Number, err)
	}
	return tx.Commit()
}

// ReadMigrations lists the NNN_name.sql files under dir sorted by number.
// Files without a numeric prefix are ignored.
func ReadMigrations(dir string) ([]Migration, error) {
	var out []Migration
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".sql") {
			return nil
		}
		prefix, rest, ok := strings.Cut(d.Name(), "_")
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(prefix)
		if err != nil {
			return nil
		}
		b, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", d.Name(), err)
		}
		out = append(out, Migration{Number: n, Name: strings.TrimSuffix(rest, ".sql"), SQL: string(b)})
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}
