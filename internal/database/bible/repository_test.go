package bible

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/seed"
)

func setupTestDB(t *testing.T) (*Repository, *database.Engine, func()) {
	engine := database.NewEngine(filepath.Join(t.TempDir(), "bible.db"))
	repo := NewRepository(engine)

	cleanup := func() {
		engine.Close()
	}
	return repo, engine, cleanup
}

func makeVerses(bookID, chapter, count int, prefix string) []entities.Verse {
	verses := make([]entities.Verse, count)
	for i := range verses {
		verses[i] = entities.Verse{
			BookID:        bookID,
			ChapterNumber: chapter,
			VerseNumber:   i + 1,
			Text:          prefix + " " + string(rune('a'+i%26)),
		}
	}
	return verses
}

func TestRepository_InsertVerses_ReplacesWholesale(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	// More than one batch so the chunked path runs.
	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(1, 1, BatchSize*2+17, "old")))
	count, err := repo.CountVerses(ctx, "NASB1995")
	require.NoError(t, err)
	assert.Equal(t, int64(BatchSize*2+17), count)

	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(1, 1, 3, "new")))
	verses, err := repo.GetChapter(ctx, "NASB1995", 1, 1)
	require.NoError(t, err)
	require.Len(t, verses, 3)
	for _, v := range verses {
		assert.Contains(t, v.Text, "new")
		assert.Equal(t, "NASB1995", v.VersionKey)
	}
}

func TestRepository_InsertVerses_EmptyClears(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.InsertVerses(ctx, "KJV", makeVerses(1, 1, 5, "kjv")))
	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(1, 1, 5, "nasb")))
	require.NoError(t, repo.InsertVerses(ctx, "KJV", nil))

	count, err := repo.CountVerses(ctx, "KJV")
	require.NoError(t, err)
	assert.Zero(t, count)

	count, err = repo.CountVerses(ctx, "NASB1995")
	require.NoError(t, err)
	assert.Equal(t, int64(5), count)
}

func TestRepository_GetVerses(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(43, 3, 20, "john")))

	verses, err := repo.GetVerses(ctx, "NASB1995", 43, 3, 16, 18)
	require.NoError(t, err)
	require.Len(t, verses, 3)
	assert.Equal(t, 16, verses[0].VerseNumber)
	assert.Equal(t, 18, verses[2].VerseNumber)
}

func TestRepository_GetSpecificVerses(t *testing.T) {
	repo, _, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(19, 23, 6, "psalm")))

	verses, err := repo.GetSpecificVerses(ctx, "NASB1995", "Psalm", 23, []int{4, 1})
	require.NoError(t, err)
	require.Len(t, verses, 2)
	assert.Equal(t, 1, verses[0].VerseNumber)
	assert.Equal(t, 4, verses[1].VerseNumber)

	verses, err = repo.GetSpecificVerses(ctx, "NASB1995", "Unknown", 23, []int{1})
	require.NoError(t, err)
	assert.Empty(t, verses)
}

func TestRepository_DownloadedFollowsMetadata(t *testing.T) {
	repo, engine, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()
	meta := metadata.NewRepository(engine)

	downloaded, err := repo.IsVersionDownloaded(ctx, "NASB1995")
	require.NoError(t, err)
	assert.False(t, downloaded)

	require.NoError(t, repo.InsertVerses(ctx, "NASB1995", makeVerses(1, 1, 2, "x")))
	require.NoError(t, meta.Upsert(ctx, entities.ResourceMetadata{
		ResourceKey: "bible:NASB1995", LastUpdatedAt: "2024-01-01T00:00:00Z", DownloadedAt: "2024-01-01T00:00:00Z",
	}))

	downloaded, err = repo.IsVersionDownloaded(ctx, "NASB1995")
	require.NoError(t, err)
	assert.True(t, downloaded)

	versions, err := repo.ListVersions(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"NASB1995"}, versions)

	require.NoError(t, repo.DeleteVersion(ctx, "NASB1995"))
	downloaded, err = repo.IsVersionDownloaded(ctx, "NASB1995")
	require.NoError(t, err)
	assert.False(t, downloaded)

	count, err := repo.CountVerses(ctx, "NASB1995")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestRepository_FreshInstallFromSeed(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	// Build a seed image the way the generator does.
	seedPath := filepath.Join(dir, "seed.db")
	seedEngine := database.NewEngine(seedPath)
	require.NoError(t, NewRepository(seedEngine).InsertVerses(ctx, "NASB1995", makeVerses(1, 1, 3, "seed")))
	require.NoError(t, metadata.NewRepository(seedEngine).Upsert(ctx, entities.ResourceMetadata{
		ResourceKey: "bible:NASB1995", LastUpdatedAt: "2024-01-01T00:00:00Z", DownloadedAt: "2024-01-01T00:00:00Z", SizeBytes: 3,
	}))
	require.NoError(t, seedEngine.Close())
	image, err := os.ReadFile(seedPath)
	require.NoError(t, err)

	target := filepath.Join(dir, "data", "offline.db")
	installer := seed.NewInstaller(target, filepath.Join(dir, "cache"), seed.WithAssets(fstest.MapFS{
		"versemate-seed.db": &fstest.MapFile{Data: image},
	}, "versemate-seed.db"))
	engine := database.NewEngine(target, database.WithSeedInstaller(installer))
	defer engine.Close()

	repo := NewRepository(engine)
	downloaded, err := repo.IsVersionDownloaded(ctx, "NASB1995")
	require.NoError(t, err)
	assert.True(t, downloaded)

	verses, err := repo.GetChapter(ctx, "NASB1995", 1, 1)
	require.NoError(t, err)
	assert.Len(t, verses, 3)
}
