package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/versemate/offlinestore/internal/config"
	"github.com/versemate/offlinestore/internal/entrypoint"
)

// loadConfig reads the environment configuration and overrides the database path
// when the -db flag was given.
func loadConfig(databasePath string) (*config.Config, error) {
	cfg := config.NewConfig()
	if databasePath != "" {
		abs, err := filepath.Abs(databasePath)
		if err != nil {
			return nil, fmt.Errorf("failed to get absolute path for database: %w", err)
		}
		cfg.Database.Path = abs
	}
	return cfg, nil
}

// openApp builds the application and opens the offline store.
func openApp(ctx context.Context, databasePath string) (*entrypoint.App, error) {
	cfg, err := loadConfig(databasePath)
	if err != nil {
		return nil, err
	}
	app := entrypoint.NewApp(cfg)
	if err := app.Open(ctx); err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to open offline storage: %w", err)
	}
	return app, nil
}
