// Package main is the entry point for the club league server.
//
// main stays minimal: load configuration, build the logger, hand both to
// internal/server, and block in Start until a shutdown signal arrives.
// Settings come from config.yaml and the environment (see internal/config).
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	"github.com/sakif/club-league/internal/config"
	"github.com/sakif/club-league/internal/logging"
	"github.com/sakif/club-league/internal/server"
)

func main() {
	configDir := flag.String("config", "", "directory containing config.yaml")
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		// No logger yet; the default slog handler writes to stderr.
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger, err := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		slog.Error("failed to create logger", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.SetDefault(logger)

	srv, err := server.New(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
