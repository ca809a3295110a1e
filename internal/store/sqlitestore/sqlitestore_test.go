package sqlitestore_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
	"github.com/Makepad-fr/tada/internal/store/sqlitestore"
	"github.com/Makepad-fr/tada/internal/store/storetest"
)

func TestContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		s, err := sqlitestore.Open(":memory:")
		require.NoError(t, err)
		t.Cleanup(func() { _ = s.Close() })
		return s
	})
}

func TestReopenFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "todos.sqlite3")
	ctx := context.Background()

	s, err := sqlitestore.Open(p)
	require.NoError(t, err)
	_, err = s.Create(ctx, model.Todo{ID: "a", Text: "Buy milk", OwnerID: "alice", CreatedAt: time.Now()})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = sqlitestore.Open(p)
	require.NoError(t, err)
	defer s.Close()
	todos, err := s.List(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, todos, 1)
	assert.Equal(t, "Buy milk", todos[0].Text)
}
