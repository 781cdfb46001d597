package database

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DefaultBusyTimeout = 5 * time.Second
	DefaultRetryPause  = 150 * time.Millisecond

	canaryKey = "__canary__"
)

var (
	// ErrPermanentlyFailed is returned by Initialize after open-and-recover failed twice.
	// Call Reset to allow another attempt.
	ErrPermanentlyFailed = errors.New("offline storage permanently failed; reset required")

	// ErrNotFound is returned by lookups that found nothing.
	ErrNotFound = errors.New("not found")
)

// SeedInstaller copies a bundled database image into place before the first open.
type SeedInstaller interface {
	InstallIfAbsent(ctx context.Context) error
}

// Option configures an Engine.
type Option func(*Engine)

func WithSeedInstaller(installer SeedInstaller) Option {
	return func(e *Engine) { e.seed = installer }
}

func WithBusyTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.busyTimeout = d
		}
	}
}

func WithRetryPause(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.retryPause = d
		}
	}
}

func WithLogLevel(level logger.LogLevel) Option {
	return func(e *Engine) { e.logLevel = level }
}

// Engine owns the offline database handle. Every store routes through Initialize
// before touching storage, so the first caller opens the file and concurrent
// callers wait on the same in-flight open.
type Engine struct {
	path        string
	busyTimeout time.Duration
	retryPause  time.Duration
	logLevel    logger.LogLevel
	seed        SeedInstaller

	mu       sync.Mutex
	db       *gorm.DB
	failure  error
	inflight *initCall
	seeded   bool
	opens    int
}

type initCall struct {
	done chan struct{}
	db   *gorm.DB
	err  error
}

// NewEngine creates an engine for the database file at path. Nothing is opened until
// Initialize is called.
func NewEngine(path string, opts ...Option) *Engine {
	e := &Engine{
		path:        path,
		busyTimeout: DefaultBusyTimeout,
		retryPause:  DefaultRetryPause,
		logLevel:    logger.Silent,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Path returns the database file path.
func (e *Engine) Path() string {
	return e.path
}

// Initialize returns the shared handle, opening the database on first use.
func (e *Engine) Initialize(ctx context.Context) (*gorm.DB, error) {
	e.mu.Lock()
	if e.db != nil {
		db := e.db
		e.mu.Unlock()
		return db.WithContext(ctx), nil
	}
	if e.failure != nil {
		cause := e.failure
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %w", ErrPermanentlyFailed, cause)
	}
	if call := e.inflight; call != nil {
		e.mu.Unlock()
		select {
		case <-call.done:
			if call.err != nil {
				return nil, call.err
			}
			return call.db.WithContext(ctx), nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	call := &initCall{done: make(chan struct{})}
	e.inflight = call
	e.mu.Unlock()

	// The open is shared by every waiting caller, so it must not be cancelled by
	// whichever caller happened to start it.
	db, err := e.initialize(context.WithoutCancel(ctx))

	e.mu.Lock()
	if err != nil {
		e.failure = err
		call.err = fmt.Errorf("%w: %w", ErrPermanentlyFailed, err)
	} else {
		e.db = db
		call.db = db
	}
	e.inflight = nil
	e.mu.Unlock()
	close(call.done)

	if call.err != nil {
		return nil, call.err
	}
	return db.WithContext(ctx), nil
}

// IsFailed reports whether the engine is in the permanently failed state.
func (e *Engine) IsFailed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failure != nil
}

// OpenCount returns how many times the underlying file has been opened.
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.opens
}

// Reset closes any open handle and clears the failed state so the next
// Initialize starts from scratch.
func (e *Engine) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	var err error
	if e.db != nil {
		err = closeHandle(e.db)
		e.db = nil
	}
	e.failure = nil
	return err
}

// Wipe resets the engine and deletes the database file and its journals.
func (e *Engine) Wipe() error {
	if err := e.Reset(); err != nil {
		log.Printf("[DB] Error closing database before wipe: %v", err)
	}
	return removeDatabaseFiles(e.path)
}

// Close releases the handle. The engine can be initialized again afterwards.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.db == nil {
		return nil
	}
	err := closeHandle(e.db)
	e.db = nil
	return err
}

// Ping checks that the open handle is still usable without opening one.
func (e *Engine) Ping(ctx context.Context) error {
	e.mu.Lock()
	db := e.db
	failure := e.failure
	e.mu.Unlock()

	if failure != nil {
		return fmt.Errorf("%w: %w", ErrPermanentlyFailed, failure)
	}
	if db == nil {
		return errors.New("not initialized")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (e *Engine) initialize(ctx context.Context) (*gorm.DB, error) {
	e.installSeedOnce(ctx)

	db, err := e.openAndVerify(ctx)
	if err == nil {
		return db, nil
	}

	// Usually a lock leaked by a crashed previous instance. Start over with a fresh file.
	log.Printf("[DB] Open of %s failed: %v. Deleting the file and retrying once", e.path, err)
	if rmErr := removeDatabaseFiles(e.path); rmErr != nil {
		log.Printf("[DB] Could not delete %s: %v", e.path, rmErr)
	}

	db, err = e.openAndVerify(ctx)
	if err != nil {
		log.Printf("[DB] Retry failed, offline storage is unavailable: %v", err)
		return nil, err
	}
	log.Printf("[DB] Recovered by recreating %s", e.path)
	return db, nil
}

func (e *Engine) installSeedOnce(ctx context.Context) {
	e.mu.Lock()
	if e.seeded || e.seed == nil {
		e.mu.Unlock()
		return
	}
	e.seeded = true
	e.mu.Unlock()

	if err := e.seed.InstallIfAbsent(ctx); err != nil {
		log.Printf("[DB] Seed installation failed, continuing with an empty database: %v", err)
	}
}

func (e *Engine) openAndVerify(ctx context.Context) (*gorm.DB, error) {
	if dir := filepath.Dir(e.path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	busyMillis := e.busyTimeout.Milliseconds()
	dsn := fmt.Sprintf("%s?_busy_timeout=%d&_journal_mode=WAL&_txlock=immediate", e.path, busyMillis)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(e.logLevel),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		if db != nil {
			_ = closeHandle(db)
		}
		return nil, fmt.Errorf("open database: %w", err)
	}

	e.mu.Lock()
	e.opens++
	e.mu.Unlock()

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("get sql handle: %w", err)
	}
	// Single writer, single process.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := prepare(ctx, db, busyMillis); err != nil {
		_ = sqlDB.Close()
		return nil, err
	}
	return db, nil
}

func prepare(ctx context.Context, db *gorm.DB, busyMillis int64) error {
	db = db.WithContext(ctx)

	if err := db.Exec("ROLLBACK").Error; err != nil && !isNoTransaction(err) {
		return fmt.Errorf("roll back dangling transaction: %w", err)
	}
	if err := db.Exec(fmt.Sprintf("PRAGMA busy_timeout = %d", busyMillis)).Error; err != nil {
		return fmt.Errorf("set busy timeout: %w", err)
	}
	if err := db.Exec(Schema).Error; err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	if err := RunMigrations(db); err != nil {
		return err
	}
	if err := canaryWrite(db); err != nil {
		return fmt.Errorf("database is not writable: %w", err)
	}
	return nil
}

// canaryWrite proves the file accepts writes; a leaked native lock only shows up here.
func canaryWrite(db *gorm.DB) error {
	now := time.Now().UTC().Format(time.RFC3339)
	err := db.Exec(`INSERT OR REPLACE INTO offline_metadata
		(resource_key, last_updated_at, downloaded_at, size_bytes) VALUES (?, ?, ?, 0)`,
		canaryKey, now, now).Error
	if err != nil {
		return err
	}
	return db.Exec("DELETE FROM offline_metadata WHERE resource_key = ?", canaryKey).Error
}

func closeHandle(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func removeDatabaseFiles(path string) error {
	var firstErr error
	for _, p := range []string{path, path + "-wal", path + "-shm", path + "-journal"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func isNoTransaction(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no transaction is active")
}
