package metadata

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, func()) {
	engine := database.NewEngine(filepath.Join(t.TempDir(), "metadata.db"))
	repo := NewRepository(engine)

	cleanup := func() {
		engine.Close()
	}
	return repo, cleanup
}

func TestRepository_UpsertAndGet(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	key := entities.MetadataKey(entities.ResourceBible, "NASB1995")
	require.NoError(t, repo.Upsert(ctx, entities.ResourceMetadata{
		ResourceKey: key, LastUpdatedAt: "2024-01-01T00:00:00Z", DownloadedAt: "2024-01-02T00:00:00Z", SizeBytes: 10,
	}))
	require.NoError(t, repo.Upsert(ctx, entities.ResourceMetadata{
		ResourceKey: key, LastUpdatedAt: "2024-02-01T00:00:00Z", DownloadedAt: "2024-02-02T00:00:00Z", SizeBytes: 20,
	}))

	m, err := repo.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "2024-02-01T00:00:00Z", m.LastUpdatedAt)
	assert.Equal(t, int64(20), m.SizeBytes)

	exists, err := repo.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRepository_Get_NotFound(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()

	_, err := repo.Get(context.Background(), "bible:missing")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_ListKindAndDelete(t *testing.T) {
	repo, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	for _, key := range []string{"bible:KJV", "bible:NASB1995", "commentary:en-US", "topics:en", "user-data"} {
		require.NoError(t, repo.Upsert(ctx, entities.ResourceMetadata{ResourceKey: key, LastUpdatedAt: "x", DownloadedAt: "y"}))
	}

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	bibles, err := repo.ListKind(ctx, entities.ResourceBible)
	require.NoError(t, err)
	require.Len(t, bibles, 2)
	assert.Equal(t, "bible:KJV", bibles[0].ResourceKey)

	require.NoError(t, repo.Delete(ctx, "bible:KJV"))
	exists, err := repo.Exists(ctx, "bible:KJV")
	require.NoError(t, err)
	assert.False(t, exists)
}
