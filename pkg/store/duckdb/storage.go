package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	docsql "github.com/de-tools/posture-atlas/pkg/store/sql"
	"github.com/marcboeker/go-duckdb/v2"
)

var bootQueries = []string{
	docsql.DuckDB.Schema,
}

type Settings struct {
	DbPath string
}

func NewDB(settings Settings) (*sql.DB, error) {
	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=4", settings.DbPath), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return err
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}

// NewStore opens the database file and returns the document cache on top of it.
func NewStore(settings Settings) (*docsql.DocumentStore, *sql.DB, error) {
	db, err := NewDB(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("open duckdb %s: %w", settings.DbPath, err)
	}
	store, err := docsql.NewDocumentStore(db, docsql.DuckDB)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, db, nil
}
