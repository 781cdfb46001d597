package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"runtime"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

// TxFunc is one unit of work run inside a transaction.
type TxFunc func(tx *gorm.DB) error

// ExecSafe runs fn inside BEGIN...COMMIT. On failure the transaction is rolled back
// and, if the database was locked or busy, fn is retried once after a short pause.
func (e *Engine) ExecSafe(ctx context.Context, fn TxFunc) error {
	db, err := e.Initialize(ctx)
	if err != nil {
		return err
	}

	err = runTx(db, fn)
	if err == nil || !IsBusy(err) {
		return err
	}

	log.Printf("[DB] Database busy, retrying once in %v: %v", e.retryPause, err)
	if err := sleep(ctx, e.retryPause); err != nil {
		return err
	}
	return runTx(db, fn)
}

func runTx(db *gorm.DB, fn TxFunc) error {
	tx := db.Begin()
	if tx.Error != nil {
		return fmt.Errorf("begin transaction: %w", tx.Error)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !isNoTransaction(rbErr) {
			log.Printf("[DB] Rollback failed: %v", rbErr)
		}
		return err
	}

	if err := tx.Commit().Error; err != nil {
		if rbErr := tx.Rollback().Error; rbErr != nil && !isNoTransaction(rbErr) &&
			!errors.Is(rbErr, gorm.ErrInvalidTransaction) {
			log.Printf("[DB] Rollback after failed commit failed: %v", rbErr)
		}
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// WriteChunks performs a large replace without holding the write lock for the whole load.
// first must delete the old rows and write the first batch: it runs in one transaction so
// readers never see neither-old-nor-new or old-plus-new data. Each of the remaining
// chunks commits on its own, and the engine yields between them.
func (e *Engine) WriteChunks(ctx context.Context, first TxFunc, rest []TxFunc) error {
	if err := e.ExecSafe(ctx, first); err != nil {
		return err
	}
	for i, chunk := range rest {
		if err := yield(ctx); err != nil {
			return fmt.Errorf("interrupted after chunk %d of %d: %w", i+1, len(rest)+1, err)
		}
		if err := e.ExecSafe(ctx, chunk); err != nil {
			return fmt.Errorf("write chunk %d of %d: %w", i+2, len(rest)+1, err)
		}
	}
	return nil
}

// Batches splits rows into consecutive slices of at most size elements.
func Batches[T any](rows []T, size int) [][]T {
	if size <= 0 {
		size = len(rows)
	}
	var out [][]T
	for start := 0; start < len(rows); start += size {
		end := min(start+size, len(rows))
		out = append(out, rows[start:end])
	}
	return out
}

// InsertBatch returns a TxFunc writing rows with a single multi-row INSERT.
func InsertBatch[T any](rows []T) TxFunc {
	return func(tx *gorm.DB) error {
		if len(rows) == 0 {
			return nil
		}
		return tx.Create(&rows).Error
	}
}

// InsertBatches returns one InsertBatch per batch.
func InsertBatches[T any](batches [][]T) []TxFunc {
	fns := make([]TxFunc, 0, len(batches))
	for _, batch := range batches {
		fns = append(fns, InsertBatch(batch))
	}
	return fns
}

// ReplaceInChunks runs purge and then writes rows in batches of size. purge and the
// first batch share a transaction; an empty rows still runs purge.
func ReplaceInChunks[T any](ctx context.Context, e *Engine, purge TxFunc, rows []T, size int) error {
	fns := InsertBatches(Batches(rows, size))
	first := purge
	var rest []TxFunc
	if len(fns) > 0 {
		first = func(tx *gorm.DB) error {
			if err := purge(tx); err != nil {
				return err
			}
			return fns[0](tx)
		}
		rest = fns[1:]
	}
	return e.WriteChunks(ctx, first, rest)
}

// IsBusy reports whether err means another handle holds the database lock.
func IsBusy(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "sqlite_busy")
}

func yield(ctx context.Context) error {
	runtime.Gosched()
	return ctx.Err()
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
