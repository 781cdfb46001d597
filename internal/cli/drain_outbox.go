package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
)

// DrainOutboxCommand replays queued user mutations against the server
type DrainOutboxCommand struct {
	DatabasePath string
	DryRun       bool
}

func NewDrainOutboxCommand() *DrainOutboxCommand {
	return &DrainOutboxCommand{}
}

func (cmd *DrainOutboxCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("drain-outbox", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the offline database (default: $DATABASE_PATH)")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List queued actions without sending them")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s drain-outbox [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Send notes, highlights and bookmarks changed while offline to the server.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	return fs.Parse(args)
}

func (cmd *DrainOutboxCommand) Run() error {
	ctx := context.Background()
	app, err := openApp(ctx, cmd.DatabasePath)
	if err != nil {
		return err
	}
	defer app.Close()

	pending, err := app.Outbox.Pending(ctx)
	if err != nil {
		return fmt.Errorf("failed to list queued actions: %w", err)
	}
	if len(pending) == 0 {
		fmt.Println("Outbox is empty")
		return nil
	}

	fmt.Printf("%d queued actions\n", len(pending))
	if cmd.DryRun {
		for _, row := range pending {
			fmt.Printf("  #%d %s %s [%s, %d retries]\n", row.ID, row.Action, row.Type, row.Status, row.RetryCount)
		}
		fmt.Println("\nDry run complete. Use without -dry-run to send them.")
		return nil
	}

	result, err := app.Outbox.ProcessSyncQueue(ctx)
	if err != nil {
		return fmt.Errorf("drain interrupted: %w", err)
	}

	fmt.Println("\n=== Outbox Summary ===")
	fmt.Printf("Attempted: %d\n", result.Attempted)
	fmt.Printf("Succeeded: %d\n", result.Succeeded)
	fmt.Printf("Failed: %d\n", result.Failed)
	return nil
}
