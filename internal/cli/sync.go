package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/versemate/offlinestore/internal/entities"
)

// SyncCommand downloads resources and refreshes installed ones from the command line
type SyncCommand struct {
	DatabasePath string
	Download     string
	Bundle       string
	Full         bool
	Verbose      bool

	kind entities.ResourceKind
	key  string
}

func NewSyncCommand() *SyncCommand {
	return &SyncCommand{}
}

func (cmd *SyncCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the offline database (default: $DATABASE_PATH)")
	fs.StringVar(&cmd.Download, "download", "", "Download one resource, given as kind:key (e.g. bible:NASB1995)")
	fs.StringVar(&cmd.Bundle, "bundle", "", "Download the commentary and topics for a language (e.g. en)")
	fs.BoolVar(&cmd.Full, "full", false, "Run a full sync: updates, user data and last-sync bookkeeping")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Print download progress")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s sync [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Bring the offline store up to date with the server.\n\n")
		fmt.Fprintf(os.Stderr, "Without options, every installed resource with a newer server copy is\n")
		fmt.Fprintf(os.Stderr, "downloaded again.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s sync -download bible:NASB1995\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -bundle es -verbose\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s sync -full\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	set := 0
	for _, on := range []bool{cmd.Download != "", cmd.Bundle != "", cmd.Full} {
		if on {
			set++
		}
	}
	if set > 1 {
		return errors.New("-download, -bundle and -full are mutually exclusive")
	}

	if cmd.Download != "" {
		kind, key, ok := entities.SplitMetadataKey(cmd.Download)
		if !ok || kind == entities.ResourceUserData {
			return fmt.Errorf("invalid resource %q, expected bible:<version>, commentary:<language> or topics:<language>", cmd.Download)
		}
		cmd.kind, cmd.key = kind, key
	}
	return nil
}

func (cmd *SyncCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	var onProgress func(string, int)
	if cmd.Verbose {
		onProgress = func(resourceKey string, percent int) {
			fmt.Printf("  %s: %d%%\n", resourceKey, percent)
		}
	}

	switch {
	case cmd.Download != "":
		fmt.Printf("Downloading %s...\n", cmd.Download)
		if err := app.Syncer.DownloadResource(ctx, cmd.kind, cmd.key, onProgress); err != nil {
			return fmt.Errorf("download failed: %w", err)
		}
		fmt.Println("Download complete!")

	case cmd.Bundle != "":
		fmt.Printf("Downloading language bundle %s...\n", cmd.Bundle)
		if err := app.Syncer.DownloadBundle(ctx, cmd.Bundle, onProgress); err != nil {
			return fmt.Errorf("bundle download failed: %w", err)
		}
		fmt.Println("Bundle download complete!")

	case cmd.Full:
		fmt.Println("Running full sync...")
		app.Syncer.RunFullSync(ctx)
		status, err := app.Settings.GetSyncStatus(ctx)
		if err != nil {
			return err
		}
		if status.Status != "success" {
			return fmt.Errorf("full sync failed: %s", status.Message)
		}
		fmt.Println("Full sync complete!")

	default:
		fmt.Println("Checking for updates...")
		report, err := app.Syncer.CheckAndSyncUpdates(ctx, onProgress)
		if report != nil {
			printList("Updated", report.Updated)
			printList("Added", report.Added)
			printList("Failed", report.Failed)
		}
		if err != nil {
			return err
		}
		fmt.Println("Everything is up to date")
	}
	return nil
}

func printList(label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("%s: %s\n", label, strings.Join(items, ", "))
}
