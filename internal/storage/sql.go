package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// Dialect selects the SQL driver and its placeholder syntax.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DefaultSnapshotName is the row name used when none is configured.
const DefaultSnapshotName = "default"

// SQLBackend stores the snapshot as a row in a snapshots table
type SQLBackend struct {
	db      *sql.DB
	dialect Dialect
	name    string
}

// OpenSQLBackend opens the database and ensures the table exists. For
// SQLite the dsn is a file path or ":memory:".
func OpenSQLBackend(ctx context.Context, dialect Dialect, dsn, name string) (*SQLBackend, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%s dsn is required", dialect)
	}
	if dialect == DialectSQLite && dsn != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
			return nil, fmt.Errorf("ensure data dir: %w", err)
		}
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	if dialect == DialectSQLite {
		// A single connection keeps ":memory:" databases alive and serializes
		// writers.
		db.SetMaxOpenConns(1)
	}

	b, err := NewSQLBackend(ctx, db, dialect, name)
	if err != nil {
		db.Close()
		return nil, err
	}
	return b, nil
}

// NewSQLBackend wraps an open database and ensures the table exists.
func NewSQLBackend(ctx context.Context, db *sql.DB, dialect Dialect, name string) (*SQLBackend, error) {
	if name == "" {
		name = DefaultSnapshotName
	}
	b := &SQLBackend{db: db, dialect: dialect, name: name}
	if err := b.createTable(ctx); err != nil {
		return nil, fmt.Errorf("create snapshots table: %w", err)
	}
	return b, nil
}

func (b *SQLBackend) createTable(ctx context.Context) error {
	blobType := "BLOB"
	if b.dialect == DialectPostgres {
		blobType = "BYTEA"
	}
	_, err := b.db.ExecContext(ctx, fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS snapshots (
	name TEXT PRIMARY KEY,
	data %s NOT NULL,
	updated_at TEXT NOT NULL
)`, blobType))
	return err
}

// placeholders returns the bind markers for n arguments.
func (b *SQLBackend) placeholders(n int) []any {
	out := make([]any, n)
	for i := range out {
		if b.dialect == DialectPostgres {
			out[i] = fmt.Sprintf("$%d", i+1)
		} else {
			out[i] = "?"
		}
	}
	return out
}

func (b *SQLBackend) String() string {
	return fmt.Sprintf("%s:snapshots/%s", b.dialect, b.name)
}

// Read returns the stored row.
func (b *SQLBackend) Read(ctx context.Context) ([]byte, error) {
	query := fmt.Sprintf(`SELECT data FROM snapshots WHERE name = %s`, b.placeholders(1)...)

	var data []byte
	err := b.db.QueryRowContext(ctx, query, b.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select snapshot: %w", err)
	}
	return data, nil
}

// Write upserts the row.
func (b *SQLBackend) Write(ctx context.Context, data []byte) error {
	query := fmt.Sprintf(`
INSERT INTO snapshots (name, data, updated_at) VALUES (%s, %s, %s)
ON CONFLICT (name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		b.placeholders(3)...)

	_, err := b.db.ExecContext(ctx, query, b.name, data, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("upsert snapshot: %w", err)
	}
	return nil
}

// Close closes the database.
func (b *SQLBackend) Close() error {
	return b.db.Close()
}
