package writer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/storage/sqlite"
)

type recordingStore struct {
	upserts [][]domain.Post
	deletes [][]string
	failOn  int
}

func (s *recordingStore) UpsertBatch(_ context.Context, posts []domain.Post) error {
	if s.failOn > 0 && len(s.upserts)+1 == s.failOn {
		return errors.New("batch rejected")
	}
	s.upserts = append(s.upserts, append([]domain.Post(nil), posts...))
	return nil
}

func (s *recordingStore) DeleteBatch(_ context.Context, ids []string) error {
	if s.failOn > 0 && len(s.deletes)+1 == s.failOn {
		return errors.New("batch rejected")
	}
	s.deletes = append(s.deletes, append([]string(nil), ids...))
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func posts(n int) []domain.Post {
	out := make([]domain.Post, n)
	for i := range out {
		out[i] = domain.Post{
			ID:       DocumentKey("kstartup", strconv.Itoa(i), "공고"),
			Title:    "공고",
			Category: domain.CategorySupport,
			Status:   domain.StatusOngoing,
			Source:   domain.SourceKStartup,
		}
	}
	return out
}

func TestUpsert_Chunking(t *testing.T) {
	tests := []struct {
		name      string
		n         int
		chunkSize int
		chunks    int
	}{
		{"empty", 0, 400, 0},
		{"single partial chunk", 10, 400, 1},
		{"exact multiple", 800, 400, 2},
		{"remainder", 1001, 400, 3},
		{"small chunks", 7, 3, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &recordingStore{}
			w := New(store, tt.chunkSize, testLogger())

			var committed int
			res, err := w.Upsert(context.Background(), posts(tt.n), func(_ context.Context, ids []string) {
				committed += len(ids)
			})
			require.NoError(t, err)

			assert.Equal(t, tt.chunks, res.Chunks)
			assert.Len(t, store.upserts, tt.chunks)
			assert.Equal(t, tt.n, res.Written)
			assert.Equal(t, tt.n, committed)
			for _, chunk := range store.upserts {
				assert.LessOrEqual(t, len(chunk), tt.chunkSize)
			}
		})
	}
}

func TestNew_ClampsChunkSize(t *testing.T) {
	assert.Equal(t, DefaultChunkSize, New(&recordingStore{}, 0, testLogger()).ChunkSize())
	assert.Equal(t, MaxChunkSize, New(&recordingStore{}, 10000, testLogger()).ChunkSize())
	assert.Equal(t, 50, New(&recordingStore{}, 50, testLogger()).ChunkSize())
}

func TestUpsert_FailedChunkKeepsEarlierChunks(t *testing.T) {
	store := &recordingStore{failOn: 2}
	w := New(store, 2, testLogger())

	res, err := w.Upsert(context.Background(), posts(5), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit chunk 2")
	assert.Equal(t, 1, res.Chunks)
	assert.Equal(t, 2, res.Written)
	assert.Len(t, store.upserts, 1)
}

func TestUpsert_CollapsesDuplicateKeys(t *testing.T) {
	store := &recordingStore{}
	w := New(store, 400, testLogger())

	in := posts(3)
	dup := in[0]
	dup.Title = "수정된 공고"
	in = append(in, dup)

	res, err := w.Upsert(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Written)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "수정된 공고", store.upserts[0][0].Title)
}

func TestUpsert_StampsTimestamps(t *testing.T) {
	at := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	created := at.Add(-time.Hour)

	store := &recordingStore{}
	w := New(store, 400, testLogger())
	w.now = func() time.Time { return at }

	in := posts(2)
	in[1].CreatedAt = created

	_, err := w.Upsert(context.Background(), in, nil)
	require.NoError(t, err)

	got := store.upserts[0]
	assert.Equal(t, at, got[0].CreatedAt)
	assert.Equal(t, at, got[0].UpdatedAt)
	assert.Equal(t, created, got[1].CreatedAt)
	assert.Equal(t, at, got[1].UpdatedAt)
}

func TestDelete_Chunking(t *testing.T) {
	store := &recordingStore{}
	w := New(store, 2, testLogger())

	var batches [][]string
	res, err := w.Delete(context.Background(), []string{"a", "b", "c"}, func(_ context.Context, ids []string) {
		batches = append(batches, ids)
	})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Chunks)
	assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, batches)
}

func TestUpsert_IdempotentAgainstStore(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "iuem.db"))
	require.NoError(t, err)
	defer store.Close()

	first := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	w := New(store, 2, testLogger())

	w.now = func() time.Time { return first }
	_, err = w.Upsert(ctx, posts(5), nil)
	require.NoError(t, err)

	w.now = func() time.Time { return second }
	_, err = w.Upsert(ctx, posts(5), nil)
	require.NoError(t, err)

	stored, err := store.Find(ctx, domain.Query{Source: domain.SourceKStartup})
	require.NoError(t, err)
	require.Len(t, stored, 5)
	for _, p := range stored {
		assert.True(t, first.Equal(p.CreatedAt), p.ID)
		assert.True(t, second.Equal(p.UpdatedAt), p.ID)
	}
}
