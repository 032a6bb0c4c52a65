package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/transform"
)

// PipelineService runs one source end to end: extract, transform, drop
// inactive posts, merge-write in chunks and announce each committed chunk.
type PipelineService struct {
	extractor Extractor
	writer    PostWriter
	runState  RunStateStore
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewPipelineService(
	extractor Extractor,
	writer PostWriter,
	runState RunStateStore,
	publisher Publisher,
	logger *slog.Logger,
) *PipelineService {
	return &PipelineService{
		extractor: extractor,
		writer:    writer,
		runState:  runState,
		publisher: publisher,
		now:       time.Now,
		logger:    logger.With("source", extractor.Source()),
	}
}

func (s *PipelineService) Name() string {
	return s.extractor.Name()
}

func (s *PipelineService) Run(ctx context.Context) (*domain.RunStats, error) {
	startTime := time.Now()
	s.logger.Info("starting pipeline", "source_name", s.extractor.Name())

	extraction, err := s.extractor.Extract(ctx)
	if err != nil {
		return nil, fmt.Errorf("extract records: %w", err)
	}

	stats := &domain.RunStats{
		Source:  s.extractor.Source(),
		Fetched: len(extraction.Records),
		Errors:  extraction.Failed,
	}
	s.logger.Info("extracted records", "count", stats.Fetched, "failed_units", extraction.Failed)

	posts, errs := transform.All(extraction.Records, s.now())
	for _, err := range errs {
		s.logger.Error("transform record failed", "error", err)
	}
	stats.Errors += len(errs)

	active := posts[:0]
	for _, p := range posts {
		if transform.Active(p) {
			active = append(active, p)
		}
	}
	stats.Dropped = len(posts) - len(active)
	s.logger.Debug("filtered inactive posts", "dropped", stats.Dropped, "remaining", len(active))

	res, err := s.writer.Upsert(ctx, active, s.announce(stats, domain.ActionUpsert))
	stats.Written = res.Written
	stats.Chunks = res.Chunks
	if err != nil {
		return stats, fmt.Errorf("write posts: %w", err)
	}

	if err := s.updateRunState(ctx, stats); err != nil {
		return stats, fmt.Errorf("update run state: %w", err)
	}

	stats.Duration = time.Since(startTime)

	s.logger.Info("pipeline completed",
		"fetched", stats.Fetched,
		"dropped", stats.Dropped,
		"written", stats.Written,
		"chunks", stats.Chunks,
		"errors", stats.Errors,
		"published", stats.Published,
		"duration", stats.Duration,
	)

	return stats, nil
}

// announce publishes a post event per committed chunk. A failed publish is
// counted but never fails the run; the chunk is already stored.
func (s *PipelineService) announce(stats *domain.RunStats, action domain.EventAction) func(context.Context, []string) {
	return func(ctx context.Context, ids []string) {
		if s.publisher == nil {
			return
		}
		event := domain.PostEvent{
			ID:        uuid.NewString(),
			Action:    action,
			Source:    stats.Source,
			IDs:       ids,
			Timestamp: s.now().UTC(),
		}
		if err := s.publisher.Publish(ctx, event); err != nil {
			s.logger.Error("publish event failed", "event_id", event.ID, "error", err)
			stats.Errors++
			return
		}
		stats.Published++
	}
}

func (s *PipelineService) updateRunState(ctx context.Context, stats *domain.RunStats) error {
	state, err := s.runState.GetRunState(ctx, string(stats.Source))
	if err != nil {
		return err
	}

	state.Source = string(stats.Source)
	state.LastRunAt = s.now()
	state.LastWritten = int64(stats.Written)
	state.TotalWritten += int64(stats.Written)

	return s.runState.UpdateRunState(ctx, state)
}
