package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/versemate/offlinestore/internal/config"
	http_controllers "github.com/versemate/offlinestore/internal/http"
	"github.com/versemate/offlinestore/internal/scheduler"
	"github.com/versemate/offlinestore/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -9 cannot be caught, so SIGINT and SIGTERM are enough
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the server so no job starts a write mid-shutdown
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	restoreLogging := SetupLogging(cfg.Log)
	defer restoreLogging()

	log.Printf("Starting VerseMate offline store v%s", version)

	app := NewApp(cfg)
	if err := app.Lock(); err != nil {
		log.Fatalf("Cannot start: %v", err)
	}
	defer app.Close()

	// Storage failure is not fatal: health reports it and the UI degrades.
	if err := app.Open(context.Background()); err != nil {
		log.Printf("WARNING: offline storage unavailable: %v", err)
	}

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskCfg := tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		}

		var err error
		taskClient, err = tasks.NewClient(cfg.Database.Path, taskCfg)
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewRefreshUserDataQueue(app.Syncer),
			tasks.NewDownloadResourceQueue(app.Syncer),
		)
		app.Outbox.SetRefresher(taskClient)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	} else {
		// Without a queue the refresh runs inline after each drain.
		app.Outbox.SetRefresher(inlineRefresher{app})
	}

	// Start the sync scheduler
	var syncScheduler *scheduler.SyncScheduler
	if cfg.Sync.Enabled {
		syncScheduler = scheduler.NewSyncScheduler(app.Syncer, app.Outbox, scheduler.Config{
			CheckSchedule:  cfg.Sync.CheckSchedule,
			OutboxSchedule: cfg.Sync.OutboxSchedule,
		})
		if err := syncScheduler.Start(context.Background()); err != nil {
			log.Printf("WARNING: Failed to start sync scheduler: %v", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Storage:     app.Engine,
		SyncState:   app.Settings,
		OutboxCount: app.Queue,
		Syncer:      app.Syncer,
		Installed:   app.Metadata,
		Progress:    app.Progress,
		Verses:      app.Bible,
		Commentary:  app.Comments,
		Topics:      app.Topics,
		UserData:    app.UserData,
		Resolver:    app.Resolver,
		Outbox:      app.Outbox,
		Version:     version,
	}
	if taskClient != nil {
		routerCfg.Downloads = taskClient
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		if syncScheduler != nil {
			syncScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// inlineRefresher refreshes user data synchronously.
type inlineRefresher struct {
	app *App
}

func (r inlineRefresher) RefreshUserData(ctx context.Context) error {
	return r.app.Syncer.SyncUserData(ctx)
}
