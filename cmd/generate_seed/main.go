// Command generate_seed builds the pre-populated database bundled into the binary.
// It downloads NASB1995, en-US commentary and en topics from the API into a fresh
// offline store and compacts it.
// Usage: go run ./cmd/generate_seed [-out internal/seed/assets/versemate-seed.db] [-api https://api.versemate.org]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/versemate/offlinestore/internal/config"
	"github.com/versemate/offlinestore/internal/database"
	"github.com/versemate/offlinestore/internal/database/progress"
	"github.com/versemate/offlinestore/internal/entities"
	"github.com/versemate/offlinestore/internal/remote"
	"github.com/versemate/offlinestore/internal/syncer"
)

var defaultSeedPath = filepath.Join("internal", "seed", "assets", config.SeedFileName)

// seedResources is the content every fresh install starts with.
var seedResources = []struct {
	Kind entities.ResourceKind
	Key  string
}{
	{entities.ResourceBible, "NASB1995"},
	{entities.ResourceCommentary, "en-US"},
	{entities.ResourceTopics, "en"},
}

func main() {
	outPath := flag.String("out", defaultSeedPath, "path of the seed database to write")
	apiURL := flag.String("api", config.DefaultAPIURL, "API origin to download content from")
	timeout := flag.Duration("timeout", 2*time.Minute, "per-request timeout")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := generate(ctx, *outPath, *apiURL, *timeout); err != nil {
		log.Fatalf("Failed to generate seed database: %v", err)
	}
}

func generate(ctx context.Context, outPath, apiURL string, timeout time.Duration) error {
	log.Printf("Generating seed database at %s...", outPath)

	// Start fresh
	for _, p := range []string{outPath, outPath + "-wal", outPath + "-shm"} {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove existing seed: %w", err)
		}
	}

	engine := database.NewEngine(outPath)
	defer engine.Close()

	client := remote.NewClient(apiURL, "", timeout)
	orchestrator := syncer.New(engine, client)
	progressRepo := progress.NewRepository(engine)

	for i, r := range seedResources {
		resourceKey := entities.MetadataKey(r.Kind, r.Key)
		log.Printf("[%d/%d] Downloading %s...", i+1, len(seedResources), resourceKey)

		if err := orchestrator.DownloadResource(ctx, r.Kind, r.Key, nil); err != nil {
			return fmt.Errorf("download %s: %w", resourceKey, err)
		}
		// A fresh install should not show stale download history.
		if err := progressRepo.Clear(ctx, resourceKey); err != nil {
			return err
		}
	}

	db, err := engine.Initialize(ctx)
	if err != nil {
		return err
	}

	// The bundle must be one self-contained file.
	log.Println("Vacuuming database...")
	for _, stmt := range []string{
		"PRAGMA wal_checkpoint(TRUNCATE)",
		"PRAGMA journal_mode = DELETE",
		"VACUUM",
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("%s: %w", stmt, err)
		}
	}
	if err := engine.Close(); err != nil {
		return err
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return err
	}
	log.Printf("Done! Seed database: %.1f MB", float64(info.Size())/1024/1024)
	return nil
}
