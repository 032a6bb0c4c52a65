package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"iuem_fetcher/internal/cleanup"
	"iuem_fetcher/internal/domain"
)

// cleanupScanLimit bounds one cleanup scan; stores default to a much
// smaller page when no limit is given.
const cleanupScanLimit = 100000

type CleanupService struct {
	finder    PostFinder
	writer    PostWriter
	publisher Publisher
	now       func() time.Time
	logger    *slog.Logger
}

func NewCleanupService(finder PostFinder, writer PostWriter, publisher Publisher, logger *slog.Logger) *CleanupService {
	return &CleanupService{
		finder:    finder,
		writer:    writer,
		publisher: publisher,
		now:       time.Now,
		logger:    logger,
	}
}

// Run deletes every stored post matched by rule. With dryRun set the
// matches are only logged.
func (s *CleanupService) Run(ctx context.Context, rule cleanup.Rule, dryRun bool) (*domain.CleanupStats, error) {
	startTime := time.Now()
	logger := s.logger.With("rule", rule.Name())

	q := rule.Query()
	q.Limit = cleanupScanLimit
	posts, err := s.finder.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}

	var ids []string
	for _, p := range posts {
		if rule.Match(p) {
			ids = append(ids, p.ID)
			logger.Debug("marked for deletion", "id", p.ID, "title", p.Title)
		}
	}

	stats := &domain.CleanupStats{
		Rule:    rule.Name(),
		Scanned: len(posts),
	}
	logger.Info("cleanup scan finished", "scanned", stats.Scanned, "matched", len(ids), "dry_run", dryRun)

	if dryRun || len(ids) == 0 {
		stats.Duration = time.Since(startTime)
		return stats, nil
	}

	res, err := s.writer.Delete(ctx, ids, func(ctx context.Context, chunk []string) {
		s.announce(ctx, logger, q.Source, chunk)
	})
	stats.Deleted = res.Written
	stats.Chunks = res.Chunks
	if err != nil {
		return stats, fmt.Errorf("delete posts: %w", err)
	}

	stats.Duration = time.Since(startTime)
	logger.Info("cleanup completed", "deleted", stats.Deleted, "chunks", stats.Chunks, "duration", stats.Duration)

	return stats, nil
}

func (s *CleanupService) announce(ctx context.Context, logger *slog.Logger, source domain.Source, ids []string) {
	if s.publisher == nil {
		return
	}
	event := domain.PostEvent{
		ID:        uuid.NewString(),
		Action:    domain.ActionDelete,
		Source:    source,
		IDs:       ids,
		Timestamp: s.now().UTC(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.Error("publish event failed", "event_id", event.ID, "error", err)
	}
}
