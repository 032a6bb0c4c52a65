package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"iuem_fetcher/internal/domain"
)

// Fixed width keeps the text column sortable.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store is a single-file document store. Post documents live in a JSON
// column and are merged with json_patch on conflict.
type Store struct {
	db *sql.DB
}

// Open creates the database file if needed and migrates the schema.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		category TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS run_state (
		source TEXT PRIMARY KEY,
		last_run_at TEXT NOT NULL,
		last_written INTEGER NOT NULL DEFAULT 0,
		total_written INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_posts_category ON posts(category, created_at);
	CREATE INDEX IF NOT EXISTS idx_posts_source ON posts(source);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) UpsertBatch(ctx context.Context, posts []domain.Post) error {
	query := `
	INSERT INTO posts (id, source, category, data, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		source = excluded.source,
		category = excluded.category,
		data = json_patch(posts.data, excluded.data),
		updated_at = excluded.updated_at`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		for _, p := range posts {
			data, err := encode(p)
			if err != nil {
				return fmt.Errorf("encode post %s: %w", p.ID, err)
			}
			if _, err := tx.ExecContext(ctx, query,
				p.ID,
				string(p.Source),
				string(p.Category),
				data,
				p.CreatedAt.UTC().Format(timeLayout),
				p.UpdatedAt.UTC().Format(timeLayout),
			); err != nil {
				return fmt.Errorf("upsert post %s: %w", p.ID, err)
			}
		}
		return nil
	})
}

func (s *Store) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := `DELETE FROM posts WHERE id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`

	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

func (s *Store) Get(ctx context.Context, id string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, data, created_at, updated_at FROM posts WHERE id = ?`, id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *Store) Find(ctx context.Context, q domain.Query) ([]domain.Post, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = 1000
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, data, created_at, updated_at
		FROM posts
		WHERE (? = '' OR category = ?)
		  AND (? = '' OR source = ?)
		ORDER BY created_at DESC
		LIMIT ?`,
		string(q.Category), string(q.Category),
		string(q.Source), string(q.Source),
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (s *Store) GetRunState(ctx context.Context, source string) (*domain.RunState, error) {
	var (
		state     = domain.RunState{Source: source}
		lastRunAt string
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT last_run_at, last_written, total_written FROM run_state WHERE source = ?`, source,
	).Scan(&lastRunAt, &state.LastWritten, &state.TotalWritten)
	if errors.Is(err, sql.ErrNoRows) {
		return &state, nil
	}
	if err != nil {
		return nil, err
	}

	if state.LastRunAt, err = time.Parse(timeLayout, lastRunAt); err != nil {
		return nil, fmt.Errorf("parse last_run_at: %w", err)
	}
	return &state, nil
}

func (s *Store) UpdateRunState(ctx context.Context, state *domain.RunState) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO run_state (source, last_run_at, last_written, total_written)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(source) DO UPDATE SET
			last_run_at = excluded.last_run_at,
			last_written = excluded.last_written,
			total_written = excluded.total_written`,
		state.Source,
		state.LastRunAt.UTC().Format(timeLayout),
		state.LastWritten,
		state.TotalWritten,
	)
	return err
}

func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (domain.Post, error) {
	var id, data, createdAt, updatedAt string
	if err := row.Scan(&id, &data, &createdAt, &updatedAt); err != nil {
		return domain.Post{}, err
	}

	created, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Post{}, fmt.Errorf("parse created_at: %w", err)
	}
	updated, err := time.Parse(timeLayout, updatedAt)
	if err != nil {
		return domain.Post{}, fmt.Errorf("parse updated_at: %w", err)
	}

	return domain.FromFields(id, []byte(data), created, updated)
}

func encode(p domain.Post) (string, error) {
	fields, err := p.Fields()
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
