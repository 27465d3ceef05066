package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	docsql "github.com/de-tools/posture-atlas/pkg/store/sql"
	_ "modernc.org/sqlite"
)

type Settings struct {
	Path string
}

func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.Path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := sql.Open("sqlite", settings.Path)
	if err != nil {
		return nil, err
	}
	// single writer avoids SQLITE_BUSY between pool connections
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable wal: %w", err)
	}
	if err := docsql.Migrate(ctx, db, docsql.SQLite); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewStore(ctx context.Context, settings Settings) (*docsql.DocumentStore, *sql.DB, error) {
	db, err := NewDB(ctx, settings)
	if err != nil {
		return nil, nil, fmt.Errorf("open sqlite %s: %w", settings.Path, err)
	}
	store, err := docsql.NewDocumentStore(db, docsql.SQLite)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
