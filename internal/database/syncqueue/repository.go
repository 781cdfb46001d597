// Package syncqueue persists user mutations made while offline until they are replayed.
//
// Rows are never dropped on failure: MarkFailed keeps them with an incremented
// retry count so the next drain picks them up again.
package syncqueue

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

// Repository handles the pending sync action queue.
type Repository struct {
	engine *database.Engine
	now    func() time.Time
}

// NewRepository creates a new outbox repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine, now: time.Now}
}

// Enqueue appends an action with status PENDING.
func (r *Repository) Enqueue(ctx context.Context, entityType entities.SyncEntityType, action entities.SyncActionKind, payload string) (*entities.PendingSyncAction, error) {
	now := database.FormatTime(r.now())
	row := &entities.PendingSyncAction{
		Type:      entityType,
		Action:    action,
		Payload:   payload,
		Status:    entities.SyncActionPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	err := r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Create(row).Error
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// ListQueued returns every queued action in enqueue order. Rows left SYNCING by an
// interrupted drain are included so they are replayed.
func (r *Repository) ListQueued(ctx context.Context) ([]entities.PendingSyncAction, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.PendingSyncAction
	err = db.Order("id").Find(&rows).Error
	return rows, err
}

// Get returns one queued action.
func (r *Repository) Get(ctx context.Context, id int64) (*entities.PendingSyncAction, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var row entities.PendingSyncAction
	err = db.Where("id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// MarkSyncing flags the action as being replayed.
func (r *Repository) MarkSyncing(ctx context.Context, id int64) error {
	return r.update(ctx, id, map[string]any{
		"status":     entities.SyncActionSyncing,
		"updated_at": database.FormatTime(r.now()),
	})
}

// MarkFailed records a failed replay and increments the retry count.
func (r *Repository) MarkFailed(ctx context.Context, id int64, cause string) error {
	return r.update(ctx, id, map[string]any{
		"status":      entities.SyncActionFailed,
		"retry_count": gorm.Expr("retry_count + 1"),
		"last_error":  cause,
		"updated_at":  database.FormatTime(r.now()),
	})
}

// Delete removes a replayed action.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return tx.Where("id = ?", id).Delete(&entities.PendingSyncAction{}).Error
	})
}

// DeleteAndRewrite removes a replayed action and replaces the payloads of other
// queued actions in the same transaction.
func (r *Repository) DeleteAndRewrite(ctx context.Context, id int64, payloads map[int64]string) error {
	now := database.FormatTime(r.now())
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).Delete(&entities.PendingSyncAction{}).Error; err != nil {
			return err
		}
		for rowID, payload := range payloads {
			err := tx.Model(&entities.PendingSyncAction{}).Where("id = ?", rowID).
				Updates(map[string]any{"payload": payload, "updated_at": now}).Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// CountByStatus returns the number of queued actions per status.
func (r *Repository) CountByStatus(ctx context.Context) (map[entities.SyncActionStatus]int64, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var rows []struct {
		Status entities.SyncActionStatus
		Count  int64
	}
	err = db.Model(&entities.PendingSyncAction{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[entities.SyncActionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *Repository) update(ctx context.Context, id int64, fields map[string]any) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&entities.PendingSyncAction{}).Where("id = ?", id).Updates(fields)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return database.ErrNotFound
		}
		return nil
	})
}
