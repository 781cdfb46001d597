package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/versemate/offlinestore/internal/seed"
)

// InstallSeedCommand copies the bundled database into place without starting the server
type InstallSeedCommand struct {
	DatabasePath string
	CacheDir     string
}

func NewInstallSeedCommand() *InstallSeedCommand {
	return &InstallSeedCommand{}
}

func (cmd *InstallSeedCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("install-seed", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the offline database (default: $DATABASE_PATH)")
	fs.StringVar(&cmd.CacheDir, "cache", "", "Directory the bundled image is unpacked into (default: $SEED_CACHE_DIR)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s install-seed [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Install the bundled Bible, commentary and topics database.\n")
		fmt.Fprintf(os.Stderr, "An existing database is never overwritten.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *InstallSeedCommand) Run() error {
	cfg, err := loadConfig(cmd.DatabasePath)
	if err != nil {
		return err
	}
	cacheDir := cfg.Seed.CacheDir
	if cmd.CacheDir != "" {
		cacheDir = cmd.CacheDir
	}

	if _, err := os.Stat(cfg.Database.Path); err == nil {
		fmt.Printf("Database already exists at %s, nothing to do\n", cfg.Database.Path)
		return nil
	}

	installer := seed.NewInstaller(cfg.Database.Path, cacheDir)
	if err := installer.InstallIfAbsent(context.Background()); err != nil {
		return fmt.Errorf("failed to install seed: %w", err)
	}

	fmt.Printf("Installed seed database at %s\n", cfg.Database.Path)
	return nil
}
