package cli

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/versemate/offlinestore/internal/entrypoint"
)

// ResetCommand deletes the offline database so the next start begins from scratch
type ResetCommand struct {
	DatabasePath string
	Yes          bool
}

func NewResetCommand() *ResetCommand {
	return &ResetCommand{}
}

func (cmd *ResetCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("reset", flag.ExitOnError)

	fs.StringVar(&cmd.DatabasePath, "db", "", "Path to the offline database (default: $DATABASE_PATH)")
	fs.BoolVar(&cmd.Yes, "yes", false, "Confirm deletion of all offline content and queued changes")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s reset -yes [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Delete the offline database. Use this when storage is reported as\n")
		fmt.Fprintf(os.Stderr, "permanently failed. Queued changes that were not sent are lost.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return err
	}
	if !cmd.Yes {
		return errors.New("refusing to delete the offline database without -yes")
	}
	return nil
}

func (cmd *ResetCommand) Run() error {
	cfg, err := loadConfig(cmd.DatabasePath)
	if err != nil {
		return err
	}

	// No Open: a broken file must still be removable.
	app := entrypoint.NewApp(cfg)
	if err := app.Lock(); err != nil {
		return fmt.Errorf("stop the server before resetting: %w", err)
	}
	defer app.Close()

	if err := app.Engine.Wipe(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", cfg.Database.Path, err)
	}

	fmt.Printf("Deleted %s\n", cfg.Database.Path)
	return nil
}
