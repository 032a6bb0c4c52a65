package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/writer"
)

type Extractor interface {
	Source() domain.Source
	Name() string
	Extract(ctx context.Context) (*domain.Extraction, error)
}

type PostWriter interface {
	Upsert(ctx context.Context, posts []domain.Post, committed writer.CommitFunc) (writer.Result, error)
	Delete(ctx context.Context, keys []string, committed writer.CommitFunc) (writer.Result, error)
}

type PostFinder interface {
	Find(ctx context.Context, q domain.Query) ([]domain.Post, error)
}

type RunStateStore interface {
	GetRunState(ctx context.Context, source string) (*domain.RunState, error)
	UpdateRunState(ctx context.Context, state *domain.RunState) error
}

type Publisher interface {
	Publish(ctx context.Context, event domain.PostEvent) error
	Close() error
}
