package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/awnumar/memguard"
	"github.com/systmms/dbpassrotate/cmd/dbpassrotate/commands"
	"github.com/systmms/dbpassrotate/internal/config"
	dserrors "github.com/systmms/dbpassrotate/internal/errors"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	code := run()
	// Wipe every enclave and key before exiting
	memguard.Purge()
	os.Exit(code)
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := &config.Config{}
	rootCmd := commands.NewRootCommand(cfg, commands.DefaultUpdater)
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date)

	err := commands.Execute(ctx, rootCmd, os.Args[1:])
	if err == nil {
		return 0
	}

	var usageErr dserrors.UsageError
	switch {
	case errors.Is(err, commands.HelpRequested):
		return 1
	case errors.As(err, &usageErr):
		fmt.Fprintf(os.Stderr, "Error: %v\n", usageErr)
		return 1
	case errors.Is(err, commands.ErrRotationFailed):
		return 2
	default:
		fmt.Fprintf(os.Stderr, "Error: %v\n", dserrors.SimplifyError(err))
		return 1
	}
}
