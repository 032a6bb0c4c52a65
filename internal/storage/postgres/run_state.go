package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"iuem_fetcher/internal/domain"
)

type RunStateStore struct {
	db *sqlx.DB
}

func NewRunStateStore(db *sqlx.DB) *RunStateStore {
	return &RunStateStore{db: db}
}

func (s *RunStateStore) GetRunState(ctx context.Context, source string) (*domain.RunState, error) {
	var state domain.RunState
	query := `
		SELECT source, last_run_at, last_written, total_written
		FROM run_state
		WHERE source = $1`

	err := s.db.GetContext(ctx, &state, query, source)
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.RunState{Source: source}, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}

func (s *RunStateStore) UpdateRunState(ctx context.Context, state *domain.RunState) error {
	query := `
		INSERT INTO run_state (source, last_run_at, last_written, total_written)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (source) DO UPDATE SET
			last_run_at = EXCLUDED.last_run_at,
			last_written = EXCLUDED.last_written,
			total_written = EXCLUDED.total_written`

	_, err := s.db.ExecContext(ctx, query,
		state.Source,
		state.LastRunAt,
		state.LastWritten,
		state.TotalWritten,
	)
	return err
}
