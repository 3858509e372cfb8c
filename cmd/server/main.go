// Package main is the entry point for the adlens audit server.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"adlens/internal/app"
	"adlens/internal/config"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	for _, warning := range cfg.Warnings {
		logger.Warn(warning)
	}

	a, err := app.New(cfg, logger)
	if err != nil {
		return err
	}
	return a.Run(context.Background())
}
