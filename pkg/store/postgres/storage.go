package postgres

import (
	"context"
	"database/sql"
	"fmt"

	docsql "github.com/de-tools/posture-atlas/pkg/store/sql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

type Settings struct {
	DSN string
}

func NewDB(ctx context.Context, settings Settings) (*sql.DB, error) {
	if settings.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	db, err := sql.Open("pgx", settings.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := docsql.Migrate(ctx, db, docsql.Postgres); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func NewStore(ctx context.Context, settings Settings) (*docsql.DocumentStore, *sql.DB, error) {
	db, err := NewDB(ctx, settings)
	if err != nil {
		return nil, nil, err
	}
	store, err := docsql.NewDocumentStore(db, docsql.Postgres)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
