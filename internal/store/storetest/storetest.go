// Package storetest is the behaviour every store.Store must have.
package storetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/store"
)

// Run exercises a fresh store from newStore in each subtest.
func Run(t *testing.T, newStore func(t *testing.T) store.Store) {
	base := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	todo := func(id, owner string, n int, done bool) model.Todo {
		return model.Todo{
			ID:        id,
			Text:      "todo " + id,
			OwnerID:   owner,
			Completed: done,
			CreatedAt: base.Add(time.Duration(n) * time.Minute),
		}
	}
	ctx := context.Background()

	t.Run("ListEmpty", func(t *testing.T) {
		s := newStore(t)
		todos, err := s.List(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, todos)
	})

	t.Run("CreateAndListScopedByOwner", func(t *testing.T) {
		s := newStore(t)
		for _, td := range []model.Todo{
			todo("b", "alice", 2, false),
			todo("a", "alice", 1, false),
			todo("c", "bob", 0, false),
		} {
			_, err := s.Create(ctx, td)
			require.NoError(t, err)
		}

		todos, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, todos, 2)
		assert.Equal(t, "a", todos[0].ID)
		assert.Equal(t, "b", todos[1].ID)
		assert.Equal(t, "todo a", todos[0].Text)
		assert.True(t, base.Add(time.Minute).Equal(todos[0].CreatedAt))
	})

	t.Run("Toggle", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, todo("a", "alice", 0, false))
		require.NoError(t, err)

		got, err := s.Toggle(ctx, "a", "alice")
		require.NoError(t, err)
		assert.True(t, got.Completed)

		got, err = s.Toggle(ctx, "a", "alice")
		require.NoError(t, err)
		assert.False(t, got.Completed)
	})

	t.Run("ToggleNotFound", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Toggle(ctx, "missing", "alice")
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	t.Run("ToggleForbidden", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, todo("a", "bob", 0, false))
		require.NoError(t, err)

		_, err = s.Toggle(ctx, "a", "alice")
		assert.ErrorIs(t, err, model.ErrForbidden)

		todos, err := s.List(ctx, "bob")
		require.NoError(t, err)
		assert.False(t, todos[0].Completed)
	})

	t.Run("DeleteCompleted", func(t *testing.T) {
		s := newStore(t)
		for _, td := range []model.Todo{
			todo("a", "alice", 0, true),
			todo("b", "alice", 1, false),
			todo("c", "alice", 2, true),
			todo("d", "bob", 3, true),
		} {
			_, err := s.Create(ctx, td)
			require.NoError(t, err)
		}

		gone, err := s.DeleteCompleted(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, gone, 2)
		assert.Equal(t, "a", gone[0].ID)
		assert.Equal(t, "c", gone[1].ID)

		left, err := s.List(ctx, "alice")
		require.NoError(t, err)
		require.Len(t, left, 1)
		assert.Equal(t, "b", left[0].ID)

		bobs, err := s.List(ctx, "bob")
		require.NoError(t, err)
		assert.Len(t, bobs, 1)

		gone, err = s.DeleteCompleted(ctx, "alice")
		require.NoError(t, err)
		assert.Empty(t, gone)
	})

	t.Run("ConcurrentToggles", func(t *testing.T) {
		s := newStore(t)
		_, err := s.Create(ctx, todo("a", "alice", 0, false))
		require.NoError(t, err)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.Toggle(ctx, "a", "alice")
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		todos, err := s.List(ctx, "alice")
		require.NoError(t, err)
		assert.False(t, todos[0].Completed, "an even number of toggles cancels out")
	})
}
