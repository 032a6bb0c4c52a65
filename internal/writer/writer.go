package writer

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"iuem_fetcher/internal/domain"
)

const (
	DefaultChunkSize = 400
	MaxChunkSize     = 500
)

// Store is the part of a document store the writer commits to.
type Store interface {
	UpsertBatch(ctx context.Context, posts []domain.Post) error
	DeleteBatch(ctx context.Context, ids []string) error
}

// CommitFunc is called after each chunk has been committed.
type CommitFunc func(ctx context.Context, ids []string)

type Result struct {
	Written int
	Chunks  int
}

// Writer splits writes into chunks and commits each chunk on its own.
// A failing chunk stops the write; chunks committed before it stay.
type Writer struct {
	store     Store
	chunkSize int
	now       func() time.Time
	logger    *slog.Logger
}

func New(store Store, chunkSize int, logger *slog.Logger) *Writer {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if chunkSize > MaxChunkSize {
		chunkSize = MaxChunkSize
	}
	return &Writer{
		store:     store,
		chunkSize: chunkSize,
		now:       time.Now,
		logger:    logger,
	}
}

func (w *Writer) ChunkSize() int {
	return w.chunkSize
}

// Upsert merge-writes posts. Posts sharing a key are collapsed, the later
// one winning. UpdatedAt is stamped on every post; CreatedAt only when the
// caller left it empty, and the store keeps the original on conflict.
func (w *Writer) Upsert(ctx context.Context, posts []domain.Post, committed CommitFunc) (Result, error) {
	posts = dedupe(posts)
	now := w.now().UTC()

	var res Result
	for start := 0; start < len(posts); start += w.chunkSize {
		end := min(start+w.chunkSize, len(posts))
		chunk := posts[start:end]

		for i := range chunk {
			chunk[i].UpdatedAt = now
			if chunk[i].CreatedAt.IsZero() {
				chunk[i].CreatedAt = now
			}
		}

		if err := w.store.UpsertBatch(ctx, chunk); err != nil {
			return res, fmt.Errorf("commit chunk %d: %w", res.Chunks+1, err)
		}

		res.Chunks++
		res.Written += len(chunk)
		w.logger.Info("chunk committed", "chunk", res.Chunks, "size", len(chunk), "written", res.Written, "total", len(posts))

		if committed != nil {
			committed(ctx, ids(chunk))
		}
	}

	return res, nil
}

// Delete removes documents by key in chunks.
func (w *Writer) Delete(ctx context.Context, keys []string, committed CommitFunc) (Result, error) {
	var res Result
	for start := 0; start < len(keys); start += w.chunkSize {
		end := min(start+w.chunkSize, len(keys))
		chunk := keys[start:end]

		if err := w.store.DeleteBatch(ctx, chunk); err != nil {
			return res, fmt.Errorf("delete chunk %d: %w", res.Chunks+1, err)
		}

		res.Chunks++
		res.Written += len(chunk)
		w.logger.Info("delete chunk committed", "chunk", res.Chunks, "size", len(chunk), "deleted", res.Written, "total", len(keys))

		if committed != nil {
			committed(ctx, chunk)
		}
	}

	return res, nil
}

func dedupe(posts []domain.Post) []domain.Post {
	index := make(map[string]int, len(posts))
	out := make([]domain.Post, 0, len(posts))
	for _, p := range posts {
		if i, ok := index[p.ID]; ok {
			out[i] = p
			continue
		}
		index[p.ID] = len(out)
		out = append(out, p)
	}
	return out
}

func ids(posts []domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.ID
	}
	return out
}
