//go:build integration

package mongodb

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	tcmongo "github.com/testcontainers/testcontainers-go/modules/mongodb"

	"iuem_fetcher/internal/domain"
)

type MongoIntegrationSuite struct {
	suite.Suite
	ctx       context.Context
	container *tcmongo.MongoDBContainer
	store     *Store
}

func (s *MongoIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()

	container, err := tcmongo.Run(s.ctx, "mongo:7")
	s.Require().NoError(err)
	s.container = container

	uri, err := container.ConnectionString(s.ctx)
	s.Require().NoError(err)

	store, err := Open(s.ctx, uri, "iuem_test")
	s.Require().NoError(err)
	s.store = store
}

func (s *MongoIntegrationSuite) TearDownSuite() {
	if s.store != nil {
		s.store.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(s.ctx)
	}
}

func (s *MongoIntegrationSuite) SetupTest() {
	s.Require().NoError(s.store.posts.Drop(s.ctx))
	s.Require().NoError(s.store.runState.Drop(s.ctx))
}

func TestMongoIntegrationSuite(t *testing.T) {
	suite.Run(t, new(MongoIntegrationSuite))
}

func (s *MongoIntegrationSuite) post(id string, category domain.Category, at time.Time) domain.Post {
	return domain.Post{
		ID:        id,
		Title:     "title " + id,
		Category:  category,
		Status:    domain.StatusUpcoming,
		Source:    domain.SourceKOPIS,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func (s *MongoIntegrationSuite) TestUpsertBatch_MergeKeepsCreatedAt() {
	first := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	second := first.Add(24 * time.Hour)

	p := s.post("kopis_PF1", domain.CategorySeminar, first)
	p.Cast = "홍길동"
	p.Images = []string{"https://example.com/poster.jpg"}
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{p}))

	update := s.post("kopis_PF1", domain.CategorySeminar, second)
	update.Title = "updated"
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{update}))

	got, err := s.store.Get(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal("updated", got.Title)
	s.Equal("홍길동", got.Cast)
	s.Equal([]string{"https://example.com/poster.jpg"}, got.Images)
	s.True(first.Equal(got.CreatedAt))
	s.True(second.Equal(got.UpdatedAt))
}

func (s *MongoIntegrationSuite) TestFindAndDelete() {
	base := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	s.Require().NoError(s.store.UpsertBatch(s.ctx, []domain.Post{
		s.post("a", domain.CategorySeminar, base),
		s.post("b", domain.CategorySeminar, base.Add(time.Hour)),
		s.post("c", domain.CategoryEvent, base.Add(2*time.Hour)),
	}))

	seminars, err := s.store.Find(s.ctx, domain.Query{Category: domain.CategorySeminar})
	s.Require().NoError(err)
	s.Require().Len(seminars, 2)
	s.Equal("b", seminars[0].ID)

	s.Require().NoError(s.store.DeleteBatch(s.ctx, []string{"a", "c"}))

	all, err := s.store.Find(s.ctx, domain.Query{Source: domain.SourceKOPIS})
	s.Require().NoError(err)
	s.Require().Len(all, 1)
	s.Equal("b", all[0].ID)

	_, err = s.store.Get(s.ctx, "a")
	s.ErrorIs(err, domain.ErrNotFound)
}

func (s *MongoIntegrationSuite) TestRunState() {
	state, err := s.store.GetRunState(s.ctx, "tour-api")
	s.Require().NoError(err)
	s.Zero(state.TotalWritten)

	state.LastRunAt = time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)
	state.LastWritten = 40
	state.TotalWritten = 40
	s.Require().NoError(s.store.UpdateRunState(s.ctx, state))

	got, err := s.store.GetRunState(s.ctx, "tour-api")
	s.Require().NoError(err)
	s.Equal(int64(40), got.TotalWritten)
	s.True(state.LastRunAt.Equal(got.LastRunAt))
}
