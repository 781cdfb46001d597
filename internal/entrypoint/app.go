package entrypoint

import (
	"context"
	"log"

	"gorm.io/gorm/logger"

	"github.com/versemate/offlinestore/internal/config"
	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/bible"
	"github.com/versemate/offlinestore/internal/database/commentary"
	"github.com/versemate/offlinestore/internal/database/metadata"
	"github.com/versemate/offlinestore/internal/database/progress"
	"github.com/versemate/offlinestore/internal/database/settings"
	"github.com/versemate/offlinestore/internal/database/syncqueue"
	"github.com/versemate/offlinestore/internal/database/topics"
	"github.com/versemate/offlinestore/internal/database/userdata"
	"github.com/versemate/offlinestore/internal/outbox"
	"github.com/versemate/offlinestore/internal/references"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/seed"
	"github.com/versemate/offlinestore/internal/syncer"
)

// App holds the offline store and the services built on it. Nothing touches the
// database file until the first operation.
type App struct {
	Config *config.Config

	Engine   *database.Engine
	Remote   *remote.Client
	Syncer   *syncer.Orchestrator
	Outbox   *outbox.Processor
	Resolver *references.Resolver
	Seed     *seed.Installer
	Bible    *bible.Repository
	Settings *settings.Repository
	Metadata *metadata.Repository
	Queue    *syncqueue.Repository
	Progress *progress.Repository
	Comments *commentary.Repository
	Topics   *topics.Repository
	UserData *userdata.Repository

	lock *InstanceLock
}

// NewApp wires the engine, repositories, remote client, orchestrator and outbox from cfg.
func NewApp(cfg *config.Config) *App {
	opts := []database.Option{
		database.WithBusyTimeout(cfg.Database.BusyTimeout),
		database.WithRetryPause(cfg.Database.RetryPause),
	}
	if cfg.Database.Debug {
		opts = append(opts, database.WithLogLevel(logger.Info))
	}

	var installer *seed.Installer
	if cfg.Seed.Enabled {
		installer = seed.NewInstaller(cfg.Database.Path, cfg.Seed.CacheDir)
		if installer.HasBundledSeed() {
			opts = append(opts, database.WithSeedInstaller(installer))
		} else {
			log.Printf("[SEED] No bundled seed database in this build")
		}
	}

	engine := database.NewEngine(cfg.Database.Path, opts...)
	client := remote.NewClient(cfg.Remote.APIURL, cfg.Remote.AuthToken, cfg.Remote.Timeout)
	bibleRepo := bible.NewRepository(engine)

	return &App{
		Config:   cfg,
		Engine:   engine,
		Remote:   client,
		Syncer:   syncer.New(engine, client, syncer.WithInterval(cfg.Sync.Interval)),
		Outbox:   outbox.NewProcessor(engine, client, nil),
		Resolver: references.NewResolver(bibleRepo),
		Seed:     installer,
		Bible:    bibleRepo,
		Settings: settings.NewRepository(engine),
		Metadata: metadata.NewRepository(engine),
		Queue:    syncqueue.NewRepository(engine),
		Progress: progress.NewRepository(engine),
		Comments: commentary.NewRepository(engine),
		Topics:   topics.NewRepository(engine),
		UserData: userdata.NewRepository(engine),
	}
}

// Lock takes the instance lock. It must succeed before Open or a wipe.
func (a *App) Lock() error {
	if a.lock != nil {
		return nil
	}
	lock, err := AcquireInstanceLock(a.Config.Database.Path)
	if err != nil {
		return err
	}
	a.lock = lock
	return nil
}

// Open takes the instance lock and initializes the engine.
func (a *App) Open(ctx context.Context) error {
	if err := a.Lock(); err != nil {
		return err
	}
	_, err := a.Engine.Initialize(ctx)
	return err
}

// Close closes the database and releases the instance lock.
func (a *App) Close() {
	if err := a.Engine.Close(); err != nil {
		log.Printf("[DB] Error closing database: %v", err)
	}
	if a.lock != nil {
		a.lock.Release()
		a.lock = nil
	}
}
