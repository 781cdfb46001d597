// Package userdata mirrors the user's notes, highlights and bookmarks.
//
// The server owns this data. ReplaceAll swaps the whole mirror after a user-data
// download; the single-row upserts and deletes keep the mirror current while a
// mutation waits in the outbox.
package userdata

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

// BatchSize is shared by notes, highlights and bookmarks.
const BatchSize = 100

// Repository handles all user content database operations.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new user data repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// ReplaceAll replaces the mirror with data. The three tables are cleared and their
// first batches written in one transaction.
func (r *Repository) ReplaceAll(ctx context.Context, data entities.UserData) error {
	notes := database.InsertBatches(database.Batches(data.Notes, BatchSize))
	highlights := database.InsertBatches(database.Batches(data.Highlights, BatchSize))
	bookmarks := database.InsertBatches(database.Batches(data.Bookmarks, BatchSize))

	first := func(tx *gorm.DB) error {
		for _, model := range []any{&entities.Note{}, &entities.Highlight{}, &entities.Bookmark{}} {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
				return err
			}
		}
		for _, fns := range [][]database.TxFunc{notes, highlights, bookmarks} {
			if len(fns) == 0 {
				continue
			}
			if err := fns[0](tx); err != nil {
				return err
			}
		}
		return nil
	}

	var rest []database.TxFunc
	for _, fns := range [][]database.TxFunc{notes, highlights, bookmarks} {
		if len(fns) > 1 {
			rest = append(rest, fns[1:]...)
		}
	}
	return r.engine.WriteChunks(ctx, first, rest)
}

// NotesForChapter returns the notes of a chapter.
func (r *Repository) NotesForChapter(ctx context.Context, bookID, chapter int) ([]entities.Note, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var notes []entities.Note
	err = db.Where("book_id = ? AND chapter_number = ?", bookID, chapter).
		Order("verse_number IS NULL, verse_number, updated_at").
		Find(&notes).Error
	return notes, err
}

// HighlightsForChapter returns the highlights of a chapter.
func (r *Repository) HighlightsForChapter(ctx context.Context, bookID, chapter int) ([]entities.Highlight, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var highlights []entities.Highlight
	err = db.Where("book_id = ? AND chapter_number = ?", bookID, chapter).
		Order("start_verse, start_char").
		Find(&highlights).Error
	return highlights, err
}

// Bookmarks returns every bookmark, newest first.
func (r *Repository) Bookmarks(ctx context.Context) ([]entities.Bookmark, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var bookmarks []entities.Bookmark
	err = db.Order("created_at DESC").Find(&bookmarks).Error
	return bookmarks, err
}

// IsChapterBookmarked reports whether a chapter has a bookmark.
func (r *Repository) IsChapterBookmarked(ctx context.Context, bookID, chapter int) (bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return false, err
	}
	var count int64
	err = db.Model(&entities.Bookmark{}).Where("book_id = ? AND chapter_number = ?", bookID, chapter).Count(&count).Error
	return count > 0, err
}

// Counts returns the number of notes, highlights and bookmarks.
func (r *Repository) Counts(ctx context.Context) (notes, highlights, bookmarks int64, err error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return 0, 0, 0, err
	}
	if err = db.Model(&entities.Note{}).Count(&notes).Error; err != nil {
		return
	}
	if err = db.Model(&entities.Highlight{}).Count(&highlights).Error; err != nil {
		return
	}
	err = db.Model(&entities.Bookmark{}).Count(&bookmarks).Error
	return
}

func (r *Repository) UpsertNote(ctx context.Context, note entities.Note) error {
	return r.upsert(ctx, &note)
}

func (r *Repository) DeleteNote(ctx context.Context, noteID string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("note_id = ?", noteID).Delete(&entities.Note{}).Error
	})
}

func (r *Repository) UpsertHighlight(ctx context.Context, highlight entities.Highlight) error {
	return r.upsert(ctx, &highlight)
}

func (r *Repository) DeleteHighlight(ctx context.Context, highlightID int64) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("highlight_id = ?", highlightID).Delete(&entities.Highlight{}).Error
	})
}

func (r *Repository) UpsertBookmark(ctx context.Context, bookmark entities.Bookmark) error {
	return r.upsert(ctx, &bookmark)
}

func (r *Repository) DeleteBookmark(ctx context.Context, favoriteID int64) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("favorite_id = ?", favoriteID).Delete(&entities.Bookmark{}).Error
	})
}

// DeleteChapterBookmarks removes the bookmarks of a chapter.
func (r *Repository) DeleteChapterBookmarks(ctx context.Context, bookID, chapter int) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("book_id = ? AND chapter_number = ?", bookID, chapter).Delete(&entities.Bookmark{}).Error
	})
}

func (r *Repository) upsert(ctx context.Context, row any) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(row).Error
	})
}

// UpdateNoteContent changes the text of a mirrored note.
func (r *Repository) UpdateNoteContent(ctx context.Context, noteID, content, updatedAt string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Model(&entities.Note{}).Where("note_id = ?", noteID).
			Updates(map[string]any{"content": content, "updated_at": updatedAt}).Error
	})
}

// UpdateHighlightColor changes the color of a mirrored highlight.
func (r *Repository) UpdateHighlightColor(ctx context.Context, highlightID int64, color, updatedAt string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Model(&entities.Highlight{}).Where("highlight_id = ?", highlightID).
			Updates(map[string]any{"color": color, "updated_at": updatedAt}).Error
	})
}
