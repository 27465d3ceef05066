package sql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/de-tools/posture-atlas/pkg/store/cache"
)

// Dialect carries the statements that differ between engines.
type Dialect struct {
	Name   string
	Schema string
	Upsert string
	Select string
}

const table = "posture_documents"

var (
	// DuckDB and SQLite share positional ? placeholders and ON CONFLICT upserts.
	DuckDB = Dialect{
		Name: "duckdb",
		Schema: `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		doc_key VARCHAR PRIMARY KEY,
		body VARCHAR NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
`,
		Upsert: `INSERT INTO ` + table + ` (doc_key, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT (doc_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		Select: `SELECT body FROM ` + table + ` WHERE doc_key = ?`,
	}
	SQLite = Dialect{
		Name: "sqlite",
		Schema: `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		doc_key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at TIMESTAMP NOT NULL
	);
`,
		Upsert: DuckDB.Upsert,
		Select: DuckDB.Select,
	}
	Postgres = Dialect{
		Name: "postgres",
		Schema: `
	CREATE TABLE IF NOT EXISTS ` + table + ` (
		doc_key TEXT PRIMARY KEY,
		body TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	);
`,
		Upsert: `INSERT INTO ` + table + ` (doc_key, body, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (doc_key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		Select: `SELECT body FROM ` + table + ` WHERE doc_key = $1`,
	}
)

// DocumentStore keeps one row per cache key. Each Put is a single upsert, so a
// reader sees either the previous document or the new one.
type DocumentStore struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

func NewDocumentStore(db *sql.DB, dialect Dialect) (*DocumentStore, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	if dialect.Upsert == "" || dialect.Select == "" {
		return nil, fmt.Errorf("dialect %q is incomplete", dialect.Name)
	}
	return &DocumentStore{db: db, dialect: dialect, now: time.Now}, nil
}

func (s *DocumentStore) Put(ctx context.Context, key string, body []byte) error {
	if _, err := s.db.ExecContext(ctx, s.dialect.Upsert, key, string(body), s.now().UTC()); err != nil {
		return fmt.Errorf("upsert document: %w", err)
	}
	return nil
}

func (s *DocumentStore) Get(ctx context.Context, key string) ([]byte, error) {
	var body string
	err := s.db.QueryRowContext(ctx, s.dialect.Select, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("select document: %w", err)
	}
	return []byte(body), nil
}

// Migrate creates the documents table when it does not exist yet.
func Migrate(ctx context.Context, db *sql.DB, dialect Dialect) error {
	if _, err := db.ExecContext(ctx, dialect.Schema); err != nil {
		return fmt.Errorf("create %s schema: %w", dialect.Name, err)
	}
	return nil
}
