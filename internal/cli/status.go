package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"
)

// StatusCommand prints what is installed and when it last synced
type StatusCommand struct {
	DatabasePath string
}

func NewStatusCommand() *StatusCommand {
	return &StatusCommand{}
}

func (cmd *StatusCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("status", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the offline database (default: $DATABASE_PATH)")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s status [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Show installed resources, sync state and queued user changes.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *StatusCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	fmt.Printf("Database: %s\n", app.Engine.Path())

	installed, err := app.Metadata.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list installed resources: %w", err)
	}
	fmt.Println("\n=== Installed Resources ===")
	if len(installed) == 0 {
		fmt.Println("(none)")
	}
	for _, m := range installed {
		fmt.Printf("  %-24s updated %s, downloaded %s\n", m.ResourceKey, m.LastUpdatedAt, m.DownloadedAt)
	}

	status, err := app.Settings.GetSyncStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync status: %w", err)
	}
	fmt.Println("\n=== Sync ===")
	if status.LastSyncAt != nil {
		fmt.Printf("Last successful sync: %s\n", status.LastSyncAt.Local().Format(time.RFC1123))
	} else {
		fmt.Println("Last successful sync: never")
	}
	if status.Status != "" {
		fmt.Printf("Last result: %s %s\n", status.Status, status.Message)
	}
	if due, err := app.Syncer.IsSyncDue(ctx); err == nil {
		fmt.Printf("Sync due: %t\n", due)
	}

	counts, err := app.Queue.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("failed to count queued actions: %w", err)
	}
	fmt.Println("\n=== Outbox ===")
	if len(counts) == 0 {
		fmt.Println("(empty)")
	}
	for status, n := range counts {
		fmt.Printf("  %s: %d\n", status, n)
	}
	return nil
}
