package tasks

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/versemate/offlinestore/internal/entities"
)

// Completed tasks are dropped right away; failures stay a day for inspection.
var keepFailures = &backlite.Retention{Duration: 24 * time.Hour, OnlyFailed: true}

// Client runs user-data refreshes and resource downloads in the background.
type Client struct {
	backlite *backlite.Client
	db       *sql.DB
	workers  int
}

// tasksPath places the task database next to the offline one: offline.db becomes
// offline-tasks.db. The offline database allows one connection, so tasks get their own file.
func tasksPath(offlinePath string) string {
	ext := filepath.Ext(offlinePath)
	return strings.TrimSuffix(offlinePath, ext) + "-tasks" + ext
}

func NewClient(offlinePath string, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", tasksPath(offlinePath)+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open task database: %w", err)
	}
	db.SetMaxOpenConns(cfg.Workers + 2)

	bl, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err == nil {
		err = bl.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("set up task queue: %w", err)
	}
	return &Client{backlite: bl, db: db, workers: cfg.Workers}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.backlite.Register(q)
	}
}

// Start runs the workers until ctx is cancelled or Stop is called.
func (c *Client) Start(ctx context.Context) {
	log.Printf("[TASK] Running with %d workers", c.workers)
	c.backlite.Start(ctx)
}

// Stop waits for running tasks. It reports false if ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.backlite.Stop(ctx) {
		log.Println("[TASK] Shutdown deadline reached with tasks still running")
		return false
	}
	return true
}

// Close closes the task database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// RefreshUserData queues a user-data refresh. It returns once the task is stored,
// not when it has run.
func (c *Client) RefreshUserData(ctx context.Context) error {
	if _, err := c.save(ctx, RefreshUserDataTask{Reason: "outbox drained"}); err != nil {
		return fmt.Errorf("queue user data refresh: %w", err)
	}
	return nil
}

// QueueDownload queues a background download and returns its task id.
func (c *Client) QueueDownload(ctx context.Context, kind entities.ResourceKind, key string) (string, error) {
	id, err := c.save(ctx, DownloadResourceTask{Kind: kind, Key: key})
	if err != nil {
		return "", fmt.Errorf("queue download of %s: %w", entities.MetadataKey(kind, key), err)
	}
	return id, nil
}

func (c *Client) save(ctx context.Context, task backlite.Task) (string, error) {
	ids, err := c.backlite.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", err
	}
	if len(ids) == 0 {
		return "", errors.New("no task id returned")
	}
	return ids[0], nil
}

type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
