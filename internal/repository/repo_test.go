package repository

import (
	"context"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sonroyaalmerol/rconjukebox/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestRepo(t *testing.T) *Repo {
	t.Helper()
	db, err := OpenDB(&config.Config{DataDir: filepath.Join(t.TempDir(), "data")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRepo(db)
}

func TestLogOffsets(t *testing.T) {
	ctx := context.Background()
	repo := openTestRepo(t)

	_, ok, err := repo.GetLogOffset(ctx, "/tf/console.log")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, repo.SetLogOffset(ctx, "/tf/console.log", 120))
	require.NoError(t, repo.SetLogOffset(ctx, "/tf/console.log", 240))
	require.NoError(t, repo.SetLogOffset(ctx, "/other.log", 7))

	off, ok, err := repo.GetLogOffset(ctx, "/tf/console.log")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int64(240), off)

	all, err := repo.ListLogOffsets(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "/other.log", all[0].Path)
	assert.NotZero(t, all[0].UpdatedAt)

	n, err := repo.DeleteLogOffset(ctx, "/other.log")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestOpenDBTwice(t *testing.T) {
	cfg := &config.Config{DataDir: t.TempDir()}
	db, err := OpenDB(cfg)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenDB(cfg)
	require.NoError(t, err, "migrations are idempotent")
	require.NoError(t, db.Close())
}
