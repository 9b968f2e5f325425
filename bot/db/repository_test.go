package db

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	logpkg "github.com/sepehrmoghiseh/musifyyy/bot/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	path := filepath.Join(t.TempDir(), "musifyyy.db")

	base := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	gormLogger := logpkg.NewGormLogger(base, logger.Silent)

	repo, err := NewSQLiteRepository(path, gormLogger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func TestUserLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return first }

	count, err := repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	require.NoError(t, repo.TouchUser(ctx, 42, "daft", "Thomas"))

	later := first.Add(2 * time.Hour)
	repo.now = func() time.Time { return later }
	require.NoError(t, repo.TouchUser(ctx, 42, "daftpunk", "Thomas"))

	user, err := repo.GetUser(ctx, 42)
	require.NoError(t, err)
	assert.Equal(t, "daftpunk", user.Username)
	assert.True(t, user.FirstSeen.Equal(first), "first seen must not move")
	assert.True(t, user.LastSeen.Equal(later), "last seen must be refreshed")

	count, err = repo.CountUsers(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
}

func TestListAndRemoveUsers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []int64{3, 1, 2} {
		at := base.Add(time.Duration(i) * time.Minute)
		repo.now = func() time.Time { return at }
		require.NoError(t, repo.TouchUser(ctx, id, "", "user"))
	}

	ids, err := repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 1, 2}, ids)

	require.NoError(t, repo.RemoveUser(ctx, 1))
	require.NoError(t, repo.RemoveUser(ctx, 999))

	_, err = repo.GetUser(ctx, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	ids, err = repo.ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 2}, ids)
}
