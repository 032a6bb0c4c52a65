package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Store bundles the posts and run state tables behind one connection.
type Store struct {
	*PostStore
	*RunStateStore
	db *sqlx.DB
}

func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	return New(db), nil
}

func New(db *sqlx.DB) *Store {
	return &Store{
		PostStore:     NewPostStore(db, NewTransactionManager(db)),
		RunStateStore: NewRunStateStore(db),
		db:            db,
	}
}

func (s *Store) Close() error {
	return s.db.Close()
}
