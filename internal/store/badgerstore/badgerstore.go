// Package badgerstore keeps todos in BadgerDB.
//
// Keys:
//
//	todo/<owner>/<id>  JSON encoded model.Todo
//	owner/<id>         owner of <id>, so toggles can tell 404 from 403
package badgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Makepad-fr/tada/internal/model"
)

type Config struct {
	// Path is the directory for BadgerDB files. Ignored when InMemory is true.
	Path string

	// InMemory keeps everything in memory. Useful for testing.
	InMemory bool

	// SyncWrites fsyncs every write.
	SyncWrites bool

	// Logger receives BadgerDB's own logging. Nil disables it.
	Logger *slog.Logger
}

func DefaultConfig() Config {
	return Config{
		SyncWrites: true,
	}
}

func InMemoryConfig() Config {
	return Config{
		InMemory: true,
	}
}

type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

type Store struct {
	db *badger.DB
	// writes are serialised so read-modify-write transactions never conflict
	mu sync.Mutex
}

func Open(cfg Config) (*Store, error) {
	if !cfg.InMemory && cfg.Path == "" {
		return nil, errors.New("path is required for persistent database")
	}

	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(cfg.Path, 0o750); err != nil {
			return nil, fmt.Errorf("create database directory %s: %w", cfg.Path, err)
		}
		opts = badger.DefaultOptions(cfg.Path)
	}
	opts = opts.WithSyncWrites(cfg.SyncWrites)
	if cfg.Logger != nil {
		opts = opts.WithLogger(&badgerLogger{logger: cfg.Logger})
	} else {
		opts = opts.WithLogger(nil)
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger database: %w", err)
	}
	return &Store{db: db}, nil
}

func todoKey(owner, id string) []byte { return []byte("todo/" + owner + "/" + id) }
func ownerKey(id string) []byte       { return []byte("owner/" + id) }
func ownerPrefix(owner string) []byte { return []byte("todo/" + owner + "/") }

func (s *Store) update(fn func(txn *badger.Txn) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(fn)
}

func getTodo(txn *badger.Txn, key []byte) (model.Todo, error) {
	item, err := txn.Get(key)
	if err != nil {
		return model.Todo{}, err
	}
	var t model.Todo
	err = item.Value(func(val []byte) error {
		return json.Unmarshal(val, &t)
	})
	return t, err
}

func putTodo(txn *badger.Txn, t model.Todo) error {
	b, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal todo: %w", err)
	}
	return txn.Set(todoKey(t.OwnerID, t.ID), b)
}

func scanOwner(txn *badger.Txn, owner string, keep func(model.Todo) bool) ([]model.Todo, error) {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()
	prefix := ownerPrefix(owner)
	var out []model.Todo
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		var t model.Todo
		if err := it.Item().Value(func(val []byte) error {
			return json.Unmarshal(val, &t)
		}); err != nil {
			return nil, fmt.Errorf("decode %s: %w", it.Item().Key(), err)
		}
		if keep(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *Store) List(_ context.Context, owner string) ([]model.Todo, error) {
	var out []model.Todo
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		out, err = scanOwner(txn, owner, func(model.Todo) bool { return true })
		return err
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []model.Todo{}
	}
	model.SortByCreation(out)
	return out, nil
}

func (s *Store) Create(_ context.Context, t model.Todo) (model.Todo, error) {
	err := s.update(func(txn *badger.Txn) error {
		if err := putTodo(txn, t); err != nil {
			return err
		}
		return txn.Set(ownerKey(t.ID), []byte(t.OwnerID))
	})
	if err != nil {
		return model.Todo{}, fmt.Errorf("create todo: %w", err)
	}
	return t, nil
}

func (s *Store) Toggle(_ context.Context, id, owner string) (model.Todo, error) {
	var out model.Todo
	err := s.update(func(txn *badger.Txn) error {
		item, err := txn.Get(ownerKey(id))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return model.ErrNotFound
		}
		if err != nil {
			return err
		}
		actual, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if string(actual) != owner {
			return model.ErrForbidden
		}
		t, err := getTodo(txn, todoKey(owner, id))
		if err != nil {
			return err
		}
		t.Completed = !t.Completed
		out = t
		return putTodo(txn, t)
	})
	return out, err
}

func (s *Store) DeleteCompleted(_ context.Context, owner string) ([]model.Todo, error) {
	var gone []model.Todo
	err := s.update(func(txn *badger.Txn) error {
		var err error
		gone, err = scanOwner(txn, owner, func(t model.Todo) bool { return t.Completed })
		if err != nil {
			return err
		}
		for _, t := range gone {
			if err := txn.Delete(todoKey(owner, t.ID)); err != nil {
				return err
			}
			if err := txn.Delete(ownerKey(t.ID)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	model.SortByCreation(gone)
	return gone, nil
}

func (s *Store) Close() error { return s.db.Close() }
