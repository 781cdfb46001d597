// Package commentary stores per-language verse commentary.
package commentary

import (
	"context"

	"gorm.io/gorm"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/entities"
)

// BatchSize is the number of entries per INSERT; explanations are long.
const BatchSize = 50

// Repository handles all commentary database operations.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new commentary repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// InsertCommentaries replaces every entry of languageCode with entries.
func (r *Repository) InsertCommentaries(ctx context.Context, languageCode string, entries []entities.CommentaryEntry) error {
	rows := make([]entities.CommentaryEntry, len(entries))
	for i, e := range entries {
		e.ID = 0
		e.LanguageCode = languageCode
		rows[i] = e
	}

	purge := func(tx *gorm.DB) error {
		return tx.Where("language_code = ?", languageCode).Delete(&entities.CommentaryEntry{}).Error
	}
	return database.ReplaceInChunks(ctx, r.engine, purge, rows, BatchSize)
}

// GetChapterCommentaries returns the entries of one chapter, optionally of a single type.
func (r *Repository) GetChapterCommentaries(ctx context.Context, languageCode string, bookID, chapter int, explanationType string) ([]entities.CommentaryEntry, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	q := db.Where("language_code = ? AND book_id = ? AND chapter_number = ?", languageCode, bookID, chapter)
	if explanationType != "" {
		q = q.Where("type = ?", explanationType)
	}
	var entries []entities.CommentaryEntry
	err = q.Order("verse_start IS NULL DESC, verse_start, explanation_id").Find(&entries).Error
	return entries, err
}

// IsLanguageDownloaded reports whether commentary for the language has a metadata row.
func (r *Repository) IsLanguageDownloaded(ctx context.Context, languageCode string) (bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return false, err
	}
	return metadata.Exists(db, entities.MetadataKey(entities.ResourceCommentary, languageCode))
}

// CountEntries returns the number of stored entries for a language.
func (r *Repository) CountEntries(ctx context.Context, languageCode string) (int64, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return 0, err
	}
	var count int64
	err = db.Model(&entities.CommentaryEntry{}).Where("language_code = ?", languageCode).Count(&count).Error
	return count, err
}

// DeleteLanguage removes a language's commentary and its metadata row.
func (r *Repository) DeleteLanguage(ctx context.Context, languageCode string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("language_code = ?", languageCode).Delete(&entities.CommentaryEntry{}).Error; err != nil {
			return err
		}
		return metadata.Delete(tx, entities.MetadataKey(entities.ResourceCommentary, languageCode))
	})
}
