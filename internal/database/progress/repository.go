// Package progress tracks resource downloads so a UI can show how far along they are.
//
// # Usage
//
//	repo := progress.NewRepository(engine)
//	repo.Start(ctx, "bible:NASB1995")
//	repo.Update(ctx, "bible:NASB1995", 50)
//	repo.Complete(ctx, "bible:NASB1995")
package progress

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

// Repository handles download progress rows.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new progress repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// Get retrieves the progress of one resource, or database.ErrNotFound.
func (r *Repository) Get(ctx context.Context, resourceKey string) (*entities.DownloadProgress, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var p entities.DownloadProgress
	err = db.Where("resource_key = ?", resourceKey).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns all progress rows, most recently updated first.
func (r *Repository) List(ctx context.Context) ([]entities.DownloadProgress, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.DownloadProgress
	err = db.Order("updated_at DESC, resource_key").Find(&rows).Error
	return rows, err
}

// Start creates or resets the progress row of a resource.
func (r *Repository) Start(ctx context.Context, resourceKey string) error {
	now := database.FormatTime(time.Now())
	row := entities.DownloadProgress{
		ResourceKey: resourceKey,
		Status:      entities.DownloadStatusRunning,
		StartedAt:   now,
		UpdatedAt:   now,
	}
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&row).Error
	})
}

// Update records the current percentage.
func (r *Repository) Update(ctx context.Context, resourceKey string, percent int) error {
	return r.update(ctx, resourceKey, map[string]any{"percent": clamp(percent)})
}

// Complete marks the download as finished.
func (r *Repository) Complete(ctx context.Context, resourceKey string) error {
	return r.update(ctx, resourceKey, map[string]any{
		"status":  entities.DownloadStatusCompleted,
		"percent": 100,
		"error":   "",
	})
}

// Fail marks the download as failed with an error message.
func (r *Repository) Fail(ctx context.Context, resourceKey string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return r.update(ctx, resourceKey, map[string]any{
		"status": entities.DownloadStatusFailed,
		"error":  msg,
	})
}

// Clear removes the progress row of a resource.
func (r *Repository) Clear(ctx context.Context, resourceKey string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("resource_key = ?", resourceKey).Delete(&entities.DownloadProgress{}).Error
	})
}

func (r *Repository) update(ctx context.Context, resourceKey string, fields map[string]any) error {
	fields["updated_at"] = database.FormatTime(time.Now())
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Model(&entities.DownloadProgress{}).Where("resource_key = ?", resourceKey).Updates(fields).Error
	})
}

func clamp(percent int) int {
	return max(0, min(100, percent))
}
