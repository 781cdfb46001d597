// Package metadata records which resources are installed and how fresh they are.
//
// A resource counts as installed exactly when it has a metadata row; the resource
// repositories delete the row together with the data.
package metadata

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/entities"
)

// Repository handles resource metadata rows.
type Repository struct {
	engine *database.Engine
}

// NewRepository creates a new metadata repository.
func NewRepository(engine *database.Engine) *Repository {
	return &Repository{engine: engine}
}

// Get returns the metadata for a resource key, or database.ErrNotFound.
func (r *Repository) Get(ctx context.Context, resourceKey string) (*entities.ResourceMetadata, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var m entities.ResourceMetadata
	err = db.Where("resource_key = ?", resourceKey).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, database.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// Exists reports whether a metadata row exists for the key.
func (r *Repository) Exists(ctx context.Context, resourceKey string) (bool, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return false, err
	}
	return Exists(db, resourceKey)
}

// List returns every metadata row ordered by key.
func (r *Repository) List(ctx context.Context) ([]entities.ResourceMetadata, error) {
	db, err := r.engine.Initialize(ctx)
	if err != nil {
		return nil, err
	}
	var rows []entities.ResourceMetadata
	err = db.Where("resource_key <> ?", "__canary__").Order("resource_key").Find(&rows).Error
	return rows, err
}

// ListKind returns the metadata rows of one resource kind.
func (r *Repository) ListKind(ctx context.Context, kind entities.ResourceKind) ([]entities.ResourceMetadata, error) {
	rows, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var out []entities.ResourceMetadata
	for _, row := range rows {
		if k, _, ok := entities.SplitMetadataKey(row.ResourceKey); ok && k == kind {
			out = append(out, row)
		}
	}
	return out, nil
}

// Upsert creates or overwrites the metadata row.
func (r *Repository) Upsert(ctx context.Context, m entities.ResourceMetadata) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return Upsert(tx, m)
	})
}

// Delete removes the metadata row for the key.
func (r *Repository) Delete(ctx context.Context, resourceKey string) error {
	return r.engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		return Delete(tx, resourceKey)
	})
}

// Upsert writes m inside an existing transaction.
func Upsert(tx *gorm.DB, m entities.ResourceMetadata) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&m).Error
}

// Delete removes a metadata row inside an existing transaction.
func Delete(tx *gorm.DB, resourceKey string) error {
	return tx.Where("resource_key = ?", resourceKey).Delete(&entities.ResourceMetadata{}).Error
}

// Exists checks for a metadata row using db.
func Exists(db *gorm.DB, resourceKey string) (bool, error) {
	var count int64
	err := db.Model(&entities.ResourceMetadata{}).Where("resource_key = ?", resourceKey).Count(&count).Error
	return count > 0, err
}
