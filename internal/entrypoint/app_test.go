package entrypoint

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/versemate/offlinestore/internal/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.Database.Path = filepath.Join(t.TempDir(), "offline.db")
	cfg.Remote.APIURL = "http://127.0.0.1:0"
	cfg.Remote.Timeout = time.Second
	cfg.Sync.Interval = time.Hour
	return cfg
}

func TestNewApp_IsLazy(t *testing.T) {
	app := NewApp(testConfig(t))
	defer app.Close()

	assert.Equal(t, 0, app.Engine.OpenCount())
	assert.Nil(t, app.Seed)
}

func TestApp_OpenCreatesDatabase(t *testing.T) {
	cfg := testConfig(t)
	app := NewApp(cfg)
	defer app.Close()

	require.NoError(t, app.Open(context.Background()))
	assert.FileExists(t, cfg.Database.Path)
	assert.NoError(t, app.Engine.Ping(context.Background()))

	installed, err := app.Metadata.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, installed)
}

func TestApp_EmptyOutboxDrain(t *testing.T) {
	app := NewApp(testConfig(t))
	defer app.Close()
	app.Outbox.SetRefresher(inlineRefresher{app})

	result, err := app.Outbox.ProcessSyncQueue(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Attempted)
}
