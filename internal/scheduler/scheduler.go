package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"iuem_fetcher/internal/domain"
)

// Runner is one ingestion pipeline.
type Runner interface {
	Name() string
	Run(ctx context.Context) (*domain.RunStats, error)
}

type Config struct {
	Cron     string
	Timezone string
	Timeout  time.Duration
}

type Scheduler struct {
	cron     *cron.Cron
	schedule string
	runners  []Runner
	timeout  time.Duration
	logger   *slog.Logger
}

func New(cfg Config, runners []Runner, logger *slog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	if cfg.Cron != "" {
		if _, err := cron.ParseStandard(cfg.Cron); err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", cfg.Cron, err)
		}
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
	)

	return &Scheduler{
		cron:     c,
		schedule: cfg.Cron,
		runners:  runners,
		timeout:  cfg.Timeout,
		logger:   logger,
	}, nil
}

// Start runs every pipeline once, then again on each tick of the schedule
// until ctx is cancelled. A tick that fires while the previous one is still
// running is skipped.
func (s *Scheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		return errors.New("no schedule configured")
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce(ctx) }); err != nil {
		return fmt.Errorf("schedule pipelines: %w", err)
	}

	s.logger.Info("scheduler started", "schedule", s.schedule, "pipelines", len(s.runners))

	s.RunOnce(ctx)
	s.cron.Start()

	<-ctx.Done()
	<-s.cron.Stop().Done()

	s.logger.Info("scheduler stopped")
	return ctx.Err()
}

// RunOnce runs the pipelines one after another, each under its own timeout.
// A failing pipeline does not stop the ones after it.
func (s *Scheduler) RunOnce(ctx context.Context) error {
	var errs []error

	for _, r := range s.runners {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}

		if err := s.run(ctx, r); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", r.Name(), err))
		}
	}

	return errors.Join(errs...)
}

func (s *Scheduler) run(ctx context.Context, r Runner) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := r.Run(ctx); err != nil {
		s.logger.Error("pipeline failed", "pipeline", r.Name(), "error", err)
		return err
	}
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err)...)
}
