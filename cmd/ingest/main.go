package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"

	"iuem_fetcher/internal/config"
	"iuem_fetcher/internal/publisher"
	"iuem_fetcher/internal/scheduler"
	"iuem_fetcher/internal/service"
	"iuem_fetcher/internal/source/board"
	"iuem_fetcher/internal/source/fetch"
	"iuem_fetcher/internal/source/kopis"
	"iuem_fetcher/internal/source/kstartup"
	"iuem_fetcher/internal/source/tourapi"
	"iuem_fetcher/internal/storage"
	"iuem_fetcher/internal/writer"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	daemon := flag.Bool("cron", false, "keep running and re-run pipelines on schedule.cron")
	only := flag.String("sources", "", "comma separated source ids to run (default: all enabled)")
	flag.Parse()

	logger := setupLogger("info")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger = setupLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, err := storage.New(ctx, cfg.Store)
	if err != nil {
		logger.Error("failed to connect to store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer store.Close()
	logger.Info("connected to store", "driver", cfg.Store.Driver)

	pub, err := publisher.New(cfg.Publisher, logger)
	if err != nil {
		logger.Error("failed to connect to publisher", "driver", cfg.Publisher.Driver, "error", err)
		os.Exit(1)
	}
	if pub != nil {
		defer pub.Close()
	}

	client := fetch.New(fetch.Config{
		Timeout:        cfg.HTTP.Timeout,
		UserAgent:      cfg.HTTP.UserAgent,
		MaxAttempts:    cfg.HTTP.Retry.MaxAttempts,
		InitialBackoff: cfg.HTTP.Retry.InitialBackoff,
		MaxBackoff:     cfg.HTTP.Retry.MaxBackoff,
	}, logger)

	w := writer.New(store, cfg.Writer.ChunkSize, logger)

	var runners []scheduler.Runner
	for _, ex := range extractors(cfg.Sources, client, logger) {
		if *only != "" && !slices.Contains(strings.Split(*only, ","), string(ex.Source())) {
			continue
		}
		runners = append(runners, service.NewPipelineService(ex, w, store, pub, logger))
	}

	if len(runners) == 0 {
		logger.Warn("no sources enabled")
		return
	}

	sched, err := scheduler.New(scheduler.Config{
		Cron:     cfg.Schedule.Cron,
		Timezone: cfg.Schedule.Timezone,
		Timeout:  cfg.Schedule.Timeout,
	}, runners, logger)
	if err != nil {
		logger.Error("failed to create scheduler", "error", err)
		os.Exit(1)
	}

	if *daemon {
		if err := sched.Start(ctx); err != nil && err != context.Canceled {
			logger.Error("scheduler error", "error", err)
			os.Exit(1)
		}
		return
	}

	if err := sched.RunOnce(ctx); err != nil {
		logger.Error("ingest finished with errors", "error", err)
		os.Exit(1)
	}
}

func extractors(cfg config.SourcesConfig, client *fetch.Client, logger *slog.Logger) []service.Extractor {
	var out []service.Extractor

	if c := cfg.KStartup; c.Enabled {
		out = append(out, kstartup.New(kstartup.Config{
			BaseURL:   c.BaseURL,
			APIKey:    c.APIKey,
			PageSize:  c.PageSize,
			MaxPages:  c.MaxPages,
			PageDelay: c.PageDelay,
		}, client, logger))
	}
	if c := cfg.TourAPI; c.Enabled {
		out = append(out, tourapi.New(tourapi.Config{
			BaseURL:   c.BaseURL,
			APIKey:    c.APIKey,
			PageSize:  c.PageSize,
			MaxPages:  c.MaxPages,
			PageDelay: c.PageDelay,
			ItemDelay: c.ItemDelay,
		}, client, logger))
	}
	if c := cfg.KOPIS; c.Enabled {
		out = append(out, kopis.New(kopis.Config{
			BaseURL:   c.BaseURL,
			APIKey:    c.APIKey,
			PageSize:  c.PageSize,
			MaxPages:  c.MaxPages,
			PageDelay: c.PageDelay,
			ItemDelay: c.ItemDelay,
		}, client, logger))
	}
	if c := cfg.LocalGov; c.Enabled {
		out = append(out, board.NewLocalGov(board.LocalGovConfig{
			Sites:       sites(c.Sites),
			MaxItems:    c.MaxItems,
			PageDelay:   c.PageDelay,
			DetailDelay: c.DetailDelay,
		}, client, logger))
	}
	if c := cfg.Cheonan; c.Enabled {
		out = append(out, board.NewCheonan(cheonanConfig(c), client, logger))
	}

	return out
}

func cheonanConfig(c config.BoardSourceConfig) board.CheonanConfig {
	var boards []board.Board
	for _, b := range c.Boards {
		boards = append(boards, board.Board{Path: b.Path, Notice: b.Notice})
	}
	return board.CheonanConfig{
		BaseURL:     c.BaseURL,
		Boards:      boards,
		MaxItems:    c.MaxItems,
		PageDelay:   c.PageDelay,
		DetailDelay: c.DetailDelay,
	}
}

func sites(cfg []config.SiteConfig) []board.Site {
	out := make([]board.Site, 0, len(cfg))
	for _, s := range cfg {
		site := board.Site{Name: s.Name, Region: s.Region, BaseURL: s.BaseURL}
		for _, p := range s.Pages {
			site.Boards = append(site.Boards, board.Board{Path: p.Path, Notice: p.Notice})
		}
		out = append(out, site)
	}
	return out
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
