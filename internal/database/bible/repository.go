// Package bible stores downloaded Bible versions.
//
// # Usage
//
//	repo := bible.NewRepository(engine)
//	err := repo.InsertVerses(ctx, "NASB1995", verses)
//	chapter, err := repo.GetChapter(ctx, "NASB1995", 43, 3)
package bible

import (
	"context"

	"gorm.io/gorm"

	"github.com/versemate/offlinestore/internal/catalog"
	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/entities"
)

// BatchSize is the number of verses written per INSERT statement.
const BatchSize = 200

// Repository handles all verse database operations.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new bible repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// InsertVerses replaces every verse of versionKey with verses. The old rows are
// deleted in the same transaction as the first batch, so readers see either the
// old version or the start of the new one. An empty slice clears the version.
func (r *Repository) InsertVerses(ctx context.Context, versionKey string, verses []entities.Verse) error {
	rows := make([]entities.Verse, len(verses))
	for i, v := range verses {
		v.ID = 0
		v.VersionKey = versionKey
		rows[i] = v
	}

	purge := func(tx *gorm.DB) error {
		return tx.Where("version_key = ?", versionKey).Delete(&entities.Verse{}).Error
	}
	return database.ReplaceInChunks(ctx, r.engine, purge, rows, BatchSize)
}

// GetChapter returns every verse of a chapter in verse order.
func (r *Repository) GetChapter(ctx context.Context, versionKey string, bookID, chapter int) ([]entities.Verse, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var verses []entities.Verse
	err = db.Where("version_key = ? AND book_id = ? AND chapter_number = ?", versionKey, bookID, chapter).
		Order("verse_number").
		Find(&verses).Error
	return verses, err
}

// GetVerses returns verses start..end (inclusive) of a chapter.
func (r *Repository) GetVerses(ctx context.Context, versionKey string, bookID, chapter, start, end int) ([]entities.Verse, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	if end < start {
		end = start
	}
	var verses []entities.Verse
	err = db.Where("version_key = ? AND book_id = ? AND chapter_number = ? AND verse_number BETWEEN ? AND ?",
		versionKey, bookID, chapter, start, end).
		Order("verse_number").
		Find(&verses).Error
	return verses, err
}

// GetSpecificVerses looks a book up by its human name and returns the listed verses
// of one chapter. An unknown book yields an empty result, not an error.
func (r *Repository) GetSpecificVerses(ctx context.Context, versionKey, bookName string, chapter int, verseNumbers []int) ([]entities.Verse, error) {
	bookID := catalog.BookID(bookName)
	if bookID == 0 || len(verseNumbers) == 0 {
		return nil, nil
	}

	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var verses []entities.Verse
	err = db.Where("version_key = ? AND book_id = ? AND chapter_number = ? AND verse_number IN ?",
		versionKey, bookID, chapter, verseNumbers).
		Order("verse_number").
		Find(&verses).Error
	return verses, err
}

// CountVerses returns how many verses are stored for a version.
func (r *Repository) CountVerses(ctx context.Context, versionKey string) (int64, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&entities.Verse{}).Where("version_key = ?", versionKey).Count(&count).Error
	return count, err
}

// IsVersionDownloaded reports whether the version has a metadata row.
func (r *Repository) IsVersionDownloaded(ctx context.Context, versionKey string) (bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return false, err
	}
	return metadata.Exists(db, entities.MetadataKey(entities.ResourceBible, versionKey))
}

// ListVersions returns the keys of installed versions.
func (r *Repository) ListVersions(ctx context.Context) ([]string, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var keys []string
	err = db.Model(&entities.ResourceMetadata{}).
		Where("resource_key LIKE ?", string(entities.ResourceBible)+":%").
		Order("resource_key").
		Pluck("resource_key", &keys).Error
	if err != nil {
		return nil, err
	}
	versions := make([]string, 0, len(keys))
	for _, key := range keys {
		if _, version, ok := entities.SplitMetadataKey(key); ok {
			versions = append(versions, version)
		}
	}
	return versions, nil
}

// DeleteVersion removes the verses and the metadata row of a version.
func (r *Repository) DeleteVersion(ctx context.Context, versionKey string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("version_key = ?", versionKey).Delete(&entities.Verse{}).Error; err != nil {
			return err
		}
		return metadata.Delete(tx, entities.MetadataKey(entities.ResourceBible, versionKey))
	})
}
