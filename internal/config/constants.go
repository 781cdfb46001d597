package config

import (
	"os"
	"path/filepath"
)

const (
	// DefaultAPIURL is the remote origin serving the manifest, bulk resources and user data
	DefaultAPIURL = "https://api.versemate.org"

	// DatabaseFileName is the well-known name of the offline database inside the data directory
	DatabaseFileName = "versemate-offline.db"

	// SeedFileName is the name of the bundled, pre-populated database image
	SeedFileName = "versemate-seed.db"
)

// DataDir returns the platform documents-relative directory holding the offline database.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "versemate")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".versemate"
	}
	return filepath.Join(home, ".local", "share", "versemate")
}

// DefaultDatabasePath is the writable location of the offline database.
func DefaultDatabasePath() string {
	return filepath.Join(DataDir(), DatabaseFileName)
}

// DefaultSeedCacheDir is where the bundled seed image is materialized on first run.
func DefaultSeedCacheDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "versemate")
	}
	return filepath.Join(dir, "versemate")
}
