// Package sqlitestore keeps todos in a SQLite database.
package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/Makepad-fr/tada/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS todos (
	id         TEXT NOT NULL PRIMARY KEY,
	text       TEXT NOT NULL,
	completed  INTEGER NOT NULL DEFAULT 0,
	owner_id   TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS todos_owner ON todos (owner_id, created_at);
`

type Store struct {
	db *sql.DB
}

// Open opens (and creates) the database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "todos.sqlite3"
	}
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; also keeps ":memory:" on a single connection.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTodo(row scanner) (model.Todo, error) {
	var (
		t       model.Todo
		created int64
	)
	if err := row.Scan(&t.ID, &t.Text, &t.Completed, &t.OwnerID, &created); err != nil {
		return model.Todo{}, err
	}
	t.CreatedAt = time.Unix(0, created).UTC()
	return t, nil
}

func (s *Store) List(ctx context.Context, owner string) ([]model.Todo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, completed, owner_id, created_at FROM todos
		 WHERE owner_id = ? ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	todos := []model.Todo{}
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (s *Store) Create(ctx context.Context, t model.Todo) (model.Todo, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO todos (id, text, completed, owner_id, created_at) VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Text, t.Completed, t.OwnerID, t.CreatedAt.UnixNano(),
	); err != nil {
		return model.Todo{}, fmt.Errorf("insert todo: %w", err)
	}
	return t, nil
}

func (s *Store) Toggle(ctx context.Context, id, owner string) (model.Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return model.Todo{}, err
	}
	defer func() { _ = tx.Rollback() }()

	t, err := scanTodo(tx.QueryRowContext(ctx,
		`SELECT id, text, completed, owner_id, created_at FROM todos WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Todo{}, model.ErrNotFound
	}
	if err != nil {
		return model.Todo{}, fmt.Errorf("failed to scan: %w", err)
	}
	if t.OwnerID != owner {
		return model.Todo{}, model.ErrForbidden
	}
	t.Completed = !t.Completed
	if _, err := tx.ExecContext(ctx, `UPDATE todos SET completed = ? WHERE id = ?`, t.Completed, id); err != nil {
		return model.Todo{}, fmt.Errorf("update todo: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

func (s *Store) DeleteCompleted(ctx context.Context, owner string) ([]model.Todo, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	rows, err := tx.QueryContext(ctx,
		`SELECT id, text, completed, owner_id, created_at FROM todos
		 WHERE owner_id = ? AND completed = 1 ORDER BY created_at, id`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	var gone []model.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		gone = append(gone, t)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM todos WHERE owner_id = ? AND completed = 1`, owner); err != nil {
		return nil, fmt.Errorf("delete todos: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return gone, nil
}

func (s *Store) Close() error { return s.db.Close() }
