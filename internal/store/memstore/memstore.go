// Package memstore keeps todos in memory. Intended for tests and for running
// the backend without persistence.
package memstore

import (
	"context"
	"sync"

	"github.com/Makepad-fr/tada/internal/model"
)

type Store struct {
	mu    sync.RWMutex
	todos map[string]model.Todo
}

func New() *Store {
	return &Store{todos: map[string]model.Todo{}}
}

func (s *Store) List(_ context.Context, owner string) ([]model.Todo, error) {
	s.mu.RLock()
	out := make([]model.Todo, 0, len(s.todos))
	for _, t := range s.todos {
		if t.OwnerID == owner {
			out = append(out, t)
		}
	}
	s.mu.RUnlock()
	model.SortByCreation(out)
	return out, nil
}

func (s *Store) Create(_ context.Context, t model.Todo) (model.Todo, error) {
	s.mu.Lock()
	s.todos[t.ID] = t
	s.mu.Unlock()
	return t, nil
}

func (s *Store) Toggle(_ context.Context, id, owner string) (model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.todos[id]
	if !ok {
		return model.Todo{}, model.ErrNotFound
	}
	if t.OwnerID != owner {
		return model.Todo{}, model.ErrForbidden
	}
	t.Completed = !t.Completed
	s.todos[id] = t
	return t, nil
}

func (s *Store) DeleteCompleted(_ context.Context, owner string) ([]model.Todo, error) {
	s.mu.Lock()
	var gone []model.Todo
	for id, t := range s.todos {
		if t.OwnerID == owner && t.Completed {
			gone = append(gone, t)
			delete(s.todos, id)
		}
	}
	s.mu.Unlock()
	model.SortByCreation(gone)
	return gone, nil
}

func (s *Store) Close() error { return nil }
