package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"iuem_fetcher/internal/cleanup"
	"iuem_fetcher/internal/config"
	"iuem_fetcher/internal/publisher"
	"iuem_fetcher/internal/service"
	"iuem_fetcher/internal/storage"
	"iuem_fetcher/internal/writer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	ruleName := flag.String("rule", "", "cleanup rule: source, bad-titles or events")
	source := flag.String("source", "", "source id for the source rule")
	dryRun := flag.Bool("dry-run", false, "report matches without deleting")
	flag.Parse()

	logger := setupLogger("info")

	rule, err := cleanup.Parse(*ruleName, *source)
	if err != nil {
		logger.Error("invalid rule", "rule", *ruleName, "error", err)
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.New(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to connect to store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	pub, err := publisher.New(cfg.Publisher, logger)
	if err != nil {
		logger.Error("failed to connect to publisher", "driver", cfg.Publisher.Driver, "error", err)
		os.Exit(1)
	}
	if pub != nil {
		defer pub.Close()
	}

	svc := service.NewCleanupService(store, writer.New(store, cfg.Writer.ChunkSize, logger), pub, logger)

	stats, err := svc.Run(ctx, rule, *dryRun)
	if err != nil {
		logger.Error("cleanup failed", "rule", rule.Name(), "error", err)
		os.Exit(1)
	}

	logger.Info("cleanup done",
		"rule", stats.Rule,
		"scanned", stats.Scanned,
		"deleted", stats.Deleted,
		"dry_run", *dryRun,
	)
}

// loadConfig reads and validates the config before any store is dialled.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: logLevel}
	handler := slog.NewJSONHandler(os.Stdout, opts)
	return slog.New(handler)
}
