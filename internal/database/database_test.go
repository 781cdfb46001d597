package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/versemate/offlinestore/internal/entities"
)

// setupTestEngine creates an engine over a fresh database file
func setupTestEngine(t *testing.T, opts ...Option) (*Engine, func()) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "offline.db")
	engine := NewEngine(dbPath, opts...)

	cleanup := func() {
		engine.Close()
	}
	return engine, cleanup
}

type fakeSeed struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSeed) InstallIfAbsent(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.err
}

func TestEngine_Initialize_CreatesSchema(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	db, err := engine.Initialize(context.Background())
	require.NoError(t, err)

	for _, table := range []string{
		"offline_verses", "offline_explanations", "offline_topics",
		"offline_topic_references", "offline_topic_explanations",
		"offline_notes", "offline_highlights", "offline_bookmarks",
		"offline_metadata", "offline_sync_queue", "offline_settings",
		"offline_download_progress",
	} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}

	var count int64
	require.NoError(t, db.Model(&entities.ResourceMetadata{}).Count(&count).Error)
	assert.Zero(t, count, "canary row must not survive")
}

func TestEngine_Initialize_ConcurrentCallersShareOneOpen(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	const callers = 16
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			db, err := engine.Initialize(context.Background())
			if err == nil {
				err = db.Exec("SELECT 1").Error
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Equal(t, 1, engine.OpenCount())
}

func TestEngine_Initialize_SeedsOncePerProcess(t *testing.T) {
	seed := &fakeSeed{}
	engine, cleanup := setupTestEngine(t, WithSeedInstaller(seed))
	defer cleanup()

	_, err := engine.Initialize(context.Background())
	require.NoError(t, err)
	require.NoError(t, engine.Close())
	_, err = engine.Initialize(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, seed.calls)
}

func TestEngine_Initialize_SeedFailureIsNotFatal(t *testing.T) {
	seed := &fakeSeed{err: errors.New("asset missing")}
	engine, cleanup := setupTestEngine(t, WithSeedInstaller(seed))
	defer cleanup()

	_, err := engine.Initialize(context.Background())
	require.NoError(t, err)
	assert.False(t, engine.IsFailed())
}

func TestEngine_Initialize_RecoversFromCorruptFile(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	require.NoError(t, os.WriteFile(engine.Path(), []byte("definitely not a sqlite database, just garbage bytes"), 0644))

	db, err := engine.Initialize(context.Background())
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable("offline_metadata"))
	assert.False(t, engine.IsFailed())
}

func TestEngine_Initialize_PermanentFailureUntilReset(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	// The parent "directory" is a regular file, so neither attempt can create the database.
	engine := NewEngine(filepath.Join(blocker, "offline.db"))
	defer engine.Close()

	_, err := engine.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanentlyFailed)
	assert.True(t, engine.IsFailed())

	_, err = engine.Initialize(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermanentlyFailed)

	require.NoError(t, os.Remove(blocker))
	require.NoError(t, engine.Reset())
	assert.False(t, engine.IsFailed())

	_, err = engine.Initialize(context.Background())
	require.NoError(t, err)
}

func TestEngine_Wipe(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	_, err := engine.Initialize(context.Background())
	require.NoError(t, err)

	require.NoError(t, engine.Wipe())
	_, statErr := os.Stat(engine.Path())
	assert.True(t, os.IsNotExist(statErr))

	_, err = engine.Initialize(context.Background())
	require.NoError(t, err)
}

func TestEngine_Ping(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	assert.Error(t, engine.Ping(context.Background()))

	_, err := engine.Initialize(context.Background())
	require.NoError(t, err)
	assert.NoError(t, engine.Ping(context.Background()))
}

func TestEngine_ExecSafe_RollsBackOnError(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	boom := errors.New("boom")
	err := engine.ExecSafe(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&entities.Setting{Key: "k", Value: "v", UpdatedAt: "now"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	db, err := engine.Initialize(ctx)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&entities.Setting{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestEngine_ExecSafe_RetriesOnceWhenBusy(t *testing.T) {
	engine, cleanup := setupTestEngine(t, WithRetryPause(1))
	defer cleanup()

	attempts := 0
	err := engine.ExecSafe(context.Background(), func(tx *gorm.DB) error {
		attempts++
		if attempts == 1 {
			return sqlite3.Error{Code: sqlite3.ErrBusy}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, attempts)
}

func TestEngine_ExecSafe_SecondBusyPropagates(t *testing.T) {
	engine, cleanup := setupTestEngine(t, WithRetryPause(1))
	defer cleanup()

	attempts := 0
	err := engine.ExecSafe(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return errors.New("database is locked")
	})
	require.Error(t, err)
	assert.True(t, IsBusy(err))
	assert.Equal(t, 2, attempts)
}

func TestEngine_ExecSafe_OtherErrorsAreNotRetried(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	attempts := 0
	err := engine.ExecSafe(context.Background(), func(tx *gorm.DB) error {
		attempts++
		return errors.New("constraint failed")
	})
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
}

func TestEngine_WriteChunks(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	settings := make([]entities.Setting, 7)
	for i := range settings {
		settings[i] = entities.Setting{Key: string(rune('a' + i)), Value: "v", UpdatedAt: "now"}
	}
	batches := Batches(settings, 3)
	require.Len(t, batches, 3)

	first := func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM offline_settings").Error; err != nil {
			return err
		}
		return InsertBatch(batches[0])(tx)
	}
	var rest []TxFunc
	for _, b := range batches[1:] {
		rest = append(rest, InsertBatch(b))
	}

	require.NoError(t, engine.WriteChunks(ctx, first, rest))
	require.NoError(t, engine.WriteChunks(ctx, first, rest))

	db, err := engine.Initialize(ctx)
	require.NoError(t, err)
	var count int64
	require.NoError(t, db.Model(&entities.Setting{}).Count(&count).Error)
	assert.Equal(t, int64(7), count)
}

func TestEngine_WriteChunks_FirstChunkIsAtomic(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, engine.ExecSafe(ctx, InsertBatch([]entities.Setting{{Key: "old", Value: "1", UpdatedAt: "now"}})))

	first := func(tx *gorm.DB) error {
		if err := tx.Exec("DELETE FROM offline_settings").Error; err != nil {
			return err
		}
		return errors.New("crash before first batch")
	}
	require.Error(t, engine.WriteChunks(ctx, first, nil))

	db, err := engine.Initialize(ctx)
	require.NoError(t, err)
	var setting entities.Setting
	require.NoError(t, db.Where("key = ?", "old").First(&setting).Error)
	assert.Equal(t, "1", setting.Value)
}

func TestYield_StopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	assert.NoError(t, yield(ctx))
	cancel()
	assert.ErrorIs(t, yield(ctx), context.Canceled)
	assert.ErrorIs(t, sleep(ctx, time.Hour), context.Canceled)
}

func TestBatches(t *testing.T) {
	assert.Nil(t, Batches([]int{}, 10))
	assert.Equal(t, [][]int{{1, 2}, {3, 4}, {5}}, Batches([]int{1, 2, 3, 4, 5}, 2))
	assert.Equal(t, [][]int{{1, 2, 3}}, Batches([]int{1, 2, 3}, 0))
}

func TestIsBusy(t *testing.T) {
	assert.False(t, IsBusy(nil))
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrBusy}))
	assert.True(t, IsBusy(sqlite3.Error{Code: sqlite3.ErrLocked}))
	assert.True(t, IsBusy(errors.New("database is locked (5) (SQLITE_BUSY)")))
	assert.False(t, IsBusy(errors.New("UNIQUE constraint failed")))
}

func TestMigrateTopicReferencesShape(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "legacy.db")

	legacy, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	require.NoError(t, legacy.Exec(`CREATE TABLE offline_topic_references (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		topic_id TEXT NOT NULL,
		language_code TEXT NOT NULL,
		content TEXT NOT NULL
	)`).Error)
	require.NoError(t, legacy.Exec(`INSERT INTO offline_topic_references (topic_id, language_code, content)
		VALUES ('t1', 'en', 'first'), ('t1', 'es', 'second'), ('t2', 'en', 'third')`).Error)
	sqlDB, _ := legacy.DB()
	require.NoError(t, sqlDB.Close())

	engine := NewEngine(dbPath)
	defer engine.Close()
	db, err := engine.Initialize(context.Background())
	require.NoError(t, err)

	cols, err := tableColumns(db, "offline_topic_references")
	require.NoError(t, err)
	assert.True(t, cols["reference_content"])
	assert.False(t, cols["language_code"])

	var refs []entities.TopicReference
	require.NoError(t, db.Order("topic_id").Find(&refs).Error)
	require.Len(t, refs, 2)
	assert.Equal(t, "first", refs[0].ReferenceContent)
	assert.Equal(t, "third", refs[1].ReferenceContent)

	// Second run is a no-op
	require.NoError(t, MigrateTopicReferencesShape(db))
}

func TestMigrateSyncQueueLastError(t *testing.T) {
	engine, cleanup := setupTestEngine(t)
	defer cleanup()

	db, err := engine.Initialize(context.Background())
	require.NoError(t, err)

	cols, err := tableColumns(db, "offline_sync_queue")
	require.NoError(t, err)
	assert.True(t, cols["last_error"])
	require.NoError(t, MigrateSyncQueueLastError(db))
}
