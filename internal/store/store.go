// Package store persists todos for the backend. Every method is atomic with
// respect to the others and scoped to one owner.
package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store/badgerstore"
	"github.com/Makepad-fr/tada/internal/store/jsonstore"
	"github.com/Makepad-fr/tada/internal/store/memstore"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
)

type Store interface {
	// List returns the owner's todos, oldest first.
	List(ctx context.Context, owner string) ([]model.Todo, error)
	Create(ctx context.Context, t model.Todo) (model.Todo, error)
	// Toggle flips completed. It fails with model.ErrNotFound when id does
	// not exist and model.ErrForbidden when it belongs to someone else.
	Toggle(ctx context.Context, id, owner string) (model.Todo, error)
	// DeleteCompleted removes and returns the owner's completed todos.
	DeleteCompleted(ctx context.Context, owner string) ([]model.Todo, error)
	Close() error
}

// Open builds the store named by driver: memory, json, sqlite or badger.
func Open(driver, path string, log *slog.Logger) (Store, error) {
	switch driver {
	case "", "memory":
		return memstore.New(), nil
	case "json":
		return jsonstore.New(path)
	case "sqlite":
		return sqlitestore.Open(path)
	case "badger":
		cfg := badgerstore.DefaultConfig()
		cfg.Path = path
		cfg.Logger = log
		return badgerstore.Open(cfg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
