package badgerstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/badgerstore"
	"github.com/Makepad-fr/tada/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := badgerstore.Open(badgerstore.InMemoryConfig())
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := badgerstore.Open(badgerstore.DefaultConfig())
	assert.Error(t, err)
}

func TestPersistsOnDisk(t *testing.T) {
	cfg := badgerstore.DefaultConfig()
	cfg.Path = t.TempDir()
	cfg.SyncWrites = false
	ctx := context.Background()

	s, err := badgerstore.Open(cfg)
	require.NoError(t, err)
	_, err = s.Create(ctx, model.Todo{ID: "a", Text: "Buy milk", OwnerID: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = badgerstore.Open(cfg)
	require.NoError(t, err)
	defer s.Close()
	todos, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0].Text)
}
