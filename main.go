package main

import (
	"fmt"
	"os"

	"github.com/versemate/offlinestore/internal/cli"
	"github.com/versemate/offlinestore/internal/config"
	"github.com/versemate/offlinestore/internal/entrypoint"
)

// Version information - set at build time via ldflags
var (
	Version = "dev"
	Commit  = "unknown"
)

// command is implemented by every subcommand in internal/cli.
type command interface {
	ParseFlags(args []string) error
	Run() error
}

func main() {
	// If no arguments or "serve" command, run the HTTP server
	if len(os.Args) < 2 || os.Args[1] == "serve" {
		cfg := config.NewConfig()
		entrypoint.Run(cfg, Version)
		return
	}

	name := os.Args[1]
	args := os.Args[2:]

	var cmd command
	switch name {
	case "sync":
		cmd = cli.NewSyncCommand()
	case "drain-outbox":
		cmd = cli.NewDrainOutboxCommand()
	case "status":
		cmd = cli.NewStatusCommand()
	case "reset":
		cmd = cli.NewResetCommand()
	case "install-seed":
		cmd = cli.NewInstallSeedCommand()

	case "version":
		fmt.Printf("%s (%s)\n", Version, Commit)
		return

	case "-h", "--help", "help":
		printUsage()
		return

	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(1)
	}

	if err := cmd.ParseFlags(args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := cmd.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options]\n\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  serve          Start the HTTP server (default if no command given)\n")
	fmt.Fprintf(os.Stderr, "  sync           Download resources or pull updates from the server\n")
	fmt.Fprintf(os.Stderr, "  drain-outbox   Send changes made while offline to the server\n")
	fmt.Fprintf(os.Stderr, "  status         Show installed resources and sync state\n")
	fmt.Fprintf(os.Stderr, "  reset          Delete the offline database\n")
	fmt.Fprintf(os.Stderr, "  install-seed   Install the bundled database without starting the server\n")
	fmt.Fprintf(os.Stderr, "  version        Print the build version\n")
	fmt.Fprintf(os.Stderr, "\nUse '%s <command> -h' for help on a specific command.\n", os.Args[0])
}
