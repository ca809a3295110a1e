package jsonstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

// JSON-backed storage. Single file, human-readable, portable. Every call
// reads and rewrites the whole file under one lock; fine for a few hundred
// todos per user.

const dataFileName = "todos.json"

type Store struct {
	mu   sync.Mutex
	path string
}

// New uses path as the data file. A directory, or an empty path meaning the
// working directory, gets todos.json inside it.
func New(path string) (*Store, error) {
	p, err := dataPath(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir: %w", err)
	}
	return &Store{path: p}, nil
}

func dataPath(path string) (string, error) {
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("getwd: %w", err)
		}
		return filepath.Join(wd, dataFileName), nil
	}
	if fi, err := os.Stat(path); err == nil && fi.IsDir() {
		return filepath.Join(path, dataFileName), nil
	}
	return path, nil
}

func (s *Store) load() ([]model.Todo, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return []model.Todo{}, nil
		}
		return nil, fmt.Errorf("read file: %w", err)
	}
	var todos []model.Todo
	if err := json.Unmarshal(b, &todos); err != nil {
		return nil, fmt.Errorf("json unmarshal: %w", err)
	}
	return todos, nil
}

// save writes to a temp file first so a crash never leaves half a file.
func (s *Store) save(todos []model.Todo) error {
	b, err := json.MarshalIndent(todos, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

func (s *Store) List(_ context.Context, owner string) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return nil, err
	}
	out := make([]model.Todo, 0, len(todos))
	for _, t := range todos {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	model.SortByCreation(out)
	return out, nil
}

func (s *Store) Create(_ context.Context, t model.Todo) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	if err := s.save(append(todos, t)); err != nil {
		return model.Todo{}, err
	}
	return t, nil
}

func (s *Store) Toggle(_ context.Context, id, owner string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return model.Todo{}, err
	}
	for i := range todos {
		if todos[i].ID != id {
			continue
		}
		if todos[i].OwnerID != owner {
			return model.Todo{}, model.ErrForbidden
		}
		todos[i].Completed = !todos[i].Completed
		if err := s.save(todos); err != nil {
			return model.Todo{}, err
		}
		return todos[i], nil
	}
	return model.Todo{}, model.ErrNotFound
}

func (s *Store) DeleteCompleted(_ context.Context, owner string) ([]model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	todos, err := s.load()
	if err != nil {
		return nil, err
	}
	kept := todos[:0]
	var gone []model.Todo
	for _, t := range todos {
		if t.OwnerID == owner && t.Completed {
			gone = append(gone, t)
			continue
		}
		kept = append(kept, t)
	}
	if len(gone) == 0 {
		return nil, nil
	}
	if err := s.save(kept); err != nil {
		return nil, err
	}
	model.SortByCreation(gone)
	return gone, nil
}

func (s *Store) Close() error { return nil }
