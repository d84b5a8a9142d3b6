// Package main provides the standalone entry point: it renders reports from a local CSV
// export and needs no database or network.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/checkup-report-server/internal/config"
	"github.com/checkup-report-server/internal/logging"
	"github.com/checkup-report-server/internal/setup"
)

func main() {
	cfg := config.LoadLiteConfig()

	logger, err := logging.New(cfg.LoggingConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to configure logging: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli := setup.NewCLI(cfg, logger, os.Stdout)
	if err := cli.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
