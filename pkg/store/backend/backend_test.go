package backend

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/de-tools/posture-atlas/pkg/store/cache"
	"github.com/de-tools/posture-atlas/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	ctx := context.Background()

	t.Run("memory", func(t *testing.T) {
		kv, closer, err := Open(ctx, Settings{Driver: DriverMemory})
		require.NoError(t, err)
		defer closer.Close()
		assert.IsType(t, &memory.Store{}, kv)
	})

	t.Run("sqlite", func(t *testing.T) {
		kv, closer, err := Open(ctx, Settings{Driver: DriverSQLite, Path: filepath.Join(t.TempDir(), "c.db")})
		require.NoError(t, err)
		defer closer.Close()

		_, err = kv.Get(ctx, "p1")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("unknown", func(t *testing.T) {
		_, _, err := Open(ctx, Settings{Driver: "redis"})
		assert.ErrorContains(t, err, "unknown cache driver")
	})

	t.Run("s3 without bucket", func(t *testing.T) {
		_, _, err := Open(ctx, Settings{Driver: DriverS3})
		assert.Error(t, err)
	})
}
