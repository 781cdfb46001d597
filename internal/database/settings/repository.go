// Package settings is the persisted key-value store for small flags such as the
// time of the last full sync.
//
// # Usage
//
//	repo := settings.NewRepository(engine)
//	last, ok, err := repo.LastSyncAt(ctx)
package settings

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

// Repository handles all settings database operations.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new settings repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// Get returns the value stored under key. ok is false if the key is absent.
func (r *Repository) Get(ctx context.Context, key string) (value string, ok bool, err error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return "", false, err
	}
	var setting entities.Setting
	err = db.Where("key = ?", key).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return setting.Value, true, nil
}

// Set creates or updates a setting.
func (r *Repository) Set(ctx context.Context, key, value string) error {
	setting := entities.Setting{Key: key, Value: value, UpdatedAt: database.FormatTime(time.Now())}
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&setting).Error
	})
}

// Delete removes a setting by key.
func (r *Repository) Delete(ctx context.Context, key string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("key = ?", key).Delete(&entities.Setting{}).Error
	})
}

// LastSyncAt returns the time of the last full sync. ok is false if none was recorded
// or the stored value is unreadable.
func (r *Repository) LastSyncAt(ctx context.Context) (time.Time, bool, error) {
	return r.getTime(ctx, entities.SettingKeyLastFullSyncAt)
}

// SetLastSyncAt records the time of the last full sync.
func (r *Repository) SetLastSyncAt(ctx context.Context, t time.Time) error {
	return r.Set(ctx, entities.SettingKeyLastFullSyncAt, database.FormatTime(t))
}

// LastOutboxDrainAt returns the time the outbox was last drained.
func (r *Repository) LastOutboxDrainAt(ctx context.Context) (time.Time, bool, error) {
	return r.getTime(ctx, entities.SettingKeyLastOutboxDrainAt)
}

// SetLastOutboxDrainAt records the time the outbox was drained.
func (r *Repository) SetLastOutboxDrainAt(ctx context.Context, t time.Time) error {
	return r.Set(ctx, entities.SettingKeyLastOutboxDrainAt, database.FormatTime(t))
}

// SyncStatus is the outcome of the last background sync.
type SyncStatus struct {
	LastSyncAt *time.Time `json:"last_sync_at,omitempty"`
	Status     string     `json:"status,omitempty"`  // "success", "failed", ""
	Message    string     `json:"message,omitempty"` // Error message or summary
}

// GetSyncStatus returns the recorded outcome of the last sync.
func (r *Repository) GetSyncStatus(ctx context.Context) (SyncStatus, error) {
	var status SyncStatus
	last, ok, err := r.LastSyncAt(ctx)
	if err != nil {
		return status, err
	}
	if ok {
		status.LastSyncAt = &last
	}
	if status.Status, _, err = r.Get(ctx, entities.SettingKeyLastSyncStatus); err != nil {
		return status, err
	}
	status.Message, _, err = r.Get(ctx, entities.SettingKeyLastSyncMessage)
	return status, err
}

// SetSyncStatus records the outcome of a sync attempt.
func (r *Repository) SetSyncStatus(ctx context.Context, status, message string) error {
	if err := r.Set(ctx, entities.SettingKeyLastSyncStatus, status); err != nil {
		return err
	}
	return r.Set(ctx, entities.SettingKeyLastSyncMessage, message)
}

func (r *Repository) getTime(ctx context.Context, key string) (time.Time, bool, error) {
	value, ok, err := r.Get(ctx, key)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	t, err := database.ParseTime(value)
	if err != nil {
		return time.Time{}, false, nil
	}
	return t, true, nil
}
