package progress

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	engine := database.NewEngine(filepath.Join(t.TempDir(), "progress.db"))
	repo := NewRepository(engine)

	cleanup := func() {
		engine.Close()
	}
	return repo, cleanup
}

func TestRepository_Lifecycle(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Start(ctx, "bible:KJV"))
	require.NoError(t, repo.Update(ctx, "bible:KJV", 50))

	p, err := repo.Get(ctx, "bible:KJV")
	require.NoError(t, err)
	assert.Equal(t, entities.DownloadStatusRunning, p.Status)
	assert.Equal(t, 50, p.Percent)

	require.NoError(t, repo.Complete(ctx, "bible:KJV"))
	p, err = repo.Get(ctx, "bible:KJV")
	require.NoError(t, err)
	assert.Equal(t, entities.DownloadStatusCompleted, p.Status)
	assert.Equal(t, 100, p.Percent)

	// Restart resets the row
	require.NoError(t, repo.Start(ctx, "bible:KJV"))
	p, err = repo.Get(ctx, "bible:KJV")
	require.NoError(t, err)
	assert.Equal(t, 0, p.Percent)
}

func TestRepository_Fail(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.Start(ctx, "topics:en"))
	require.NoError(t, repo.Update(ctx, "topics:en", 250))
	require.NoError(t, repo.Fail(ctx, "topics:en", errors.New("status 500")))

	p, err := repo.Get(ctx, "topics:en")
	require.NoError(t, err)
	assert.Equal(t, entities.DownloadStatusFailed, p.Status)
	assert.Equal(t, 100, p.Percent)
	assert.Equal(t, "status 500", p.Error)

	rows, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	require.NoError(t, repo.Clear(ctx, "topics:en"))
	_, err = repo.Get(ctx, "topics:en")
	assert.ErrorIs(t, err, database.ErrNotFound)
}
