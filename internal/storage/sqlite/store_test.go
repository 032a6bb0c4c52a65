package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"iuem_fetcher/internal/domain"
)

type StoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *Store
}

func (s *StoreSuite) SetupTest() {
	s.ctx = context.Background()

	store, err := Open(filepath.Join(s.T().TempDir(), "iuem.db"))
	s.Require().NoError(err)
	s.store = store
}

func (s *StoreSuite) TearDownTest() {
	s.store.Close()
}

func TestStoreSuite(t *testing.T) {
	suite.Run(t, new(StoreSuite))
}

func (s *StoreSuite) post(id, title string, at time.Time) domain.Post {
	return domain.Post{
		ID:        id,
		Title:     title,
		Category:  domain.CategorySupport,
		Status:    domain.StatusOngoing,
		Source:    domain.SourceKStartup,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (s *StoreSuite) TestUpsertBatch_MergesAndKeepsCreatedAt() {
	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	p := s.post("kstartup_1_창업지원", "창업 지원", first)
	p.Organization = "창업진흥원"
	p.Images = []string{"https://example.com/a.png"}
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{p}))

	update := s.post("kstartup_1_창업지원", "창업 지원 (수정)", second)
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{update}))

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("창업 지원 (수정)", got.Title)
	s.Equal("창업진흥원", got.Organization)
	s.Equal([]string{"https://example.com/a.png"}, got.Images)
	s.True(first.Equal(got.CreatedAt))
	s.True(second.Equal(got.UpdatedAt))
}

func (s *StoreSuite) TestGet_NotFound() {
	_, err := s.store.Get(s.ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *StoreSuite) TestFind_FiltersAndOrders() {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	older := s.post("a", "older", base)
	newer := s.post("b", "newer", base.Add(time.Hour))
	event := s.post("c", "event", base.Add(2*time.Hour))
	event.Category = domain.CategoryEvent
	event.Source = domain.SourceTourAPI

	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{older, newer, event}))

	posts, err := s.store.Find(s.ctx, domain.Query{Category: domain.CategorySupport})
	s.Require().NoError(err)
	s.Require().Len(posts, 2)
	s.Equal("b", posts[0].ID)
	s.Equal("a", posts[1].ID)

	posts, err = s.store.Find(s.ctx, domain.Query{Source: domain.SourceTourAPI})
	s.Require().NoError(err)
	s.Require().Len(posts, 1)
	s.Equal("c", posts[0].ID)

	posts, err = s.store.Find(s.ctx, domain.Query{Limit: 1})
	s.Require().NoError(err)
	s.Len(posts, 1)
}

func (s *StoreSuite) TestDeleteBatch() {
	now := time.Now().UTC()
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{
		s.post("a", "a", now), s.post("b", "b", now), s.post("c", "c", now),
	}))

	s.Require().NoError(s.store.DeleteBatch(s.ctx, []string{"a", "c", "missing"}))

	posts, err := s.store.Find(s.ctx, domain.Query{})
	s.Require().NoError(err)
	s.Require().Len(posts, 1)
	s.Equal("b", posts[0].ID)
}

func (s *StoreSuite) TestRunState() {
	state, err := s.store.GetRunState(s.ctx, "kopis")
	s.Require().NoError(err)
	s.Equal("kopis", state.Source)
	s.Zero(state.TotalWritten)

	at := time.Date(2025, 5, 5, 5, 5, 5, 0, time.UTC)
	s.Require().NoError(s.store.UpdateRunState(s.ctx, &domain.RunState{
		Source: "kopis", LastRunAt: at, LastWritten: 12, TotalWritten: 40,
	}))

	state, err = s.store.GetRunState(s.ctx, "kopis")
	s.Require().NoError(err)
	s.True(at.Equal(state.LastRunAt))
	s.Equal(int64(12), state.LastWritten)
	s.Equal(int64(40), state.TotalWritten)
}
