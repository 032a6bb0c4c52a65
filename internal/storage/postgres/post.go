package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"iuem_fetcher/internal/domain"
)

type PostStore struct {
	db *sqlx.DB
	tx *TransactionManager
}

func NewPostStore(db *sqlx.DB, tx *TransactionManager) *PostStore {
	return &PostStore{db: db, tx: tx}
}

type postRow struct {
	ID        string    `db:"id"`
	Data      []byte    `db:"data"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (r postRow) post() (domain.Post, error) {
	return domain.FromFields(r.ID, r.Data, r.CreatedAt, r.UpdatedAt)
}

// UpsertBatch merges every post into its stored document in one transaction.
// JSONB concatenation overwrites the supplied keys and keeps the others.
func (s *PostStore) UpsertBatch(ctx context.Context, posts []domain.Post) error {
	query := `
		INSERT INTO posts (id, source, category, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4::jsonb, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			source = EXCLUDED.source,
			category = EXCLUDED.category,
			data = posts.data || EXCLUDED.data,
			updated_at = EXCLUDED.updated_at`

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		exec := GetExecutor(txCtx, s.db)
		for _, p := range posts {
			fields, err := p.Fields()
			if err != nil {
				return fmt.Errorf("encode post %s: %w", p.ID, err)
			}
			data, err := json.Marshal(fields)
			if err != nil {
				return fmt.Errorf("encode post %s: %w", p.ID, err)
			}

			if _, err := exec.ExecContext(txCtx, query,
				p.ID,
				p.Source,
				p.Category,
				string(data),
				p.CreatedAt,
				p.UpdatedAt,
			); err != nil {
				return fmt.Errorf("upsert post %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (s *PostStore) DeleteBatch(ctx context.Context, ids []string) error {
	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		_, err := GetExecutor(txCtx, s.db).ExecContext(txCtx,
			`DELETE FROM posts WHERE id = ANY($1)`, pq.Array(ids))
		return err
	})
}

func (s *PostStore) Get(ctx context.Context, id string) (*domain.Post, error) {
	var row postRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, data, created_at, updated_at FROM posts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	p, err := row.post()
	if err != nil {
		return nil, fmt.Errorf("decode post %s: %w", id, err)
	}
	return &p, nil
}

func (s *PostStore) Find(ctx context.Context, q domain.Query) ([]domain.Post, error) {
	query := `
		SELECT id, data, created_at, updated_at
		FROM posts
		WHERE ($1 = '' OR category = $1)
		  AND ($2 = '' OR source = $2)
		ORDER BY created_at DESC
		LIMIT $3`

	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}

	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, query, string(q.Category), string(q.Source), limit); err != nil {
		return nil, err
	}

	posts := make([]domain.Post, 0, len(rows))
	for _, r := range rows {
		p, err := r.post()
		if err != nil {
			return nil, fmt.Errorf("decode post %s: %w", r.ID, err)
		}
		posts = append(posts, p)
	}
	return posts, nil
}
