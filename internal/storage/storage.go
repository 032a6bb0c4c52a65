package storage

import (
	"context"
	"fmt"

	"iuem_fetcher/internal/config"
	"iuem_fetcher/internal/domain"
	"iuem_fetcher/internal/storage/mongodb"
	"iuem_fetcher/internal/storage/postgres"
	"iuem_fetcher/internal/storage/sqlite"
)

// Store is the document store every backend implements.
type Store interface {
	Get(ctx context.Context, id string) (*domain.Post, error)
	Find(ctx context.Context, q domain.Query) ([]domain.Post, error)
	UpsertBatch(ctx context.Context, posts []domain.Post) error
	DeleteBatch(ctx context.Context, ids []string) error
	GetRunState(ctx context.Context, source string) (*domain.RunState, error)
	UpdateRunState(ctx context.Context, state *domain.RunState) error
	Close() error
}

// New connects to the backend named by cfg.Driver.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	var (
		store Store
		err   error
	)

	switch cfg.Driver {
	case config.DriverPostgres:
		store, err = postgres.Open(ctx, cfg.Postgres.DSN())
	case config.DriverMongoDB:
		store, err = mongodb.Open(ctx, cfg.MongoDB.URI, cfg.MongoDB.Database)
	case config.DriverSQLite:
		store, err = sqlite.Open(cfg.SQLite.Path)
	default:
		return nil, fmt.Errorf("unsupported store driver: %q", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	return store, nil
}
