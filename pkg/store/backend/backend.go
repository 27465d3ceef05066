package backend

import (
	"context"
	"fmt"
	"io"

	"github.com/de-tools/posture-atlas/pkg/store/cache"
	"github.com/de-tools/posture-atlas/pkg/store/duckdb"
	"github.com/de-tools/posture-atlas/pkg/store/memory"
	"github.com/de-tools/posture-atlas/pkg/store/postgres"
	"github.com/de-tools/posture-atlas/pkg/store/s3"
	"github.com/de-tools/posture-atlas/pkg/store/sqlite"
	"github.com/rs/zerolog"
)

const (
	DriverMemory   = "memory"
	DriverDuckDB   = "duckdb"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverS3       = "s3"
)

func Drivers() []string {
	return []string{DriverMemory, DriverDuckDB, DriverSQLite, DriverPostgres, DriverS3}
}

type Settings struct {
	Driver    string
	Path      string
	DSN       string
	Bucket    string
	Region    string
	Endpoint  string
	PathStyle bool
	Prefix    string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open returns the key value backend selected by settings.Driver and a closer
// releasing its connection.
func Open(ctx context.Context, settings Settings) (cache.KV, io.Closer, error) {
	logger := zerolog.Ctx(ctx).With().Str("driver", settings.Driver).Logger()

	switch settings.Driver {
	case DriverMemory:
		logger.Warn().Msg("using in-memory cache, documents are lost on exit")
		return memory.NewStore(), nopCloser{}, nil
	case DriverDuckDB, "":
		path := settings.Path
		if path == "" {
			path = "posture.duckdb"
		}
		store, db, err := duckdb.NewStore(duckdb.Settings{DbPath: path})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", path).Msg("opened cache")
		return store, db, nil
	case DriverSQLite:
		store, db, err := sqlite.NewStore(ctx, sqlite.Settings{Path: settings.Path})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("path", settings.Path).Msg("opened cache")
		return store, db, nil
	case DriverPostgres:
		store, db, err := postgres.NewStore(ctx, postgres.Settings{DSN: settings.DSN})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Msg("opened cache")
		return store, db, nil
	case DriverS3:
		store, err := s3.New(ctx, s3.Config{
			Bucket:    settings.Bucket,
			Region:    settings.Region,
			Endpoint:  settings.Endpoint,
			PathStyle: settings.PathStyle,
			Prefix:    settings.Prefix,
		})
		if err != nil {
			return nil, nil, err
		}
		logger.Info().Str("bucket", settings.Bucket).Msg("opened cache")
		return store, nopCloser{}, nil
	default:
		return nil, nil, fmt.Errorf("unknown cache driver %q", settings.Driver)
	}
}
