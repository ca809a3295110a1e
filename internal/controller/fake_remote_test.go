package controller

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/Makepad-fr/tada/internal/cache"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/mutation"
)

const testOwner = "user-1"

// fakeRemote behaves like the backend for a single signed-in user.
type fakeRemote struct {
	mu       sync.Mutex
	todos    []model.Todo
	seq      int
	getAlls  int
	creates  int
	failNext error
}

func (f *fakeRemote) take() error {
	err := f.failNext
	f.failNext = nil
	return err
}

func (f *fakeRemote) GetAll(context.Context) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getAlls++
	var out []model.Todo
	for _, t := range f.todos {
		if t.OwnerID == testOwner {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeRemote) Create(_ context.Context, text string) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates++
	if err := f.take(); err != nil {
		return model.Todo{}, err
	}
	if strings.TrimSpace(text) == "" {
		return model.Todo{}, fmt.Errorf("create: %w", model.ErrValidation)
	}
	f.seq++
	t := model.Todo{
		ID:        fmt.Sprintf("srv-%d", f.seq),
		Text:      text,
		OwnerID:   testOwner,
		CreatedAt: time.Unix(int64(f.seq), 0),
	}
	f.todos = append(f.todos, t)
	return t, nil
}

func (f *fakeRemote) Toggle(_ context.Context, id string) (model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take(); err != nil {
		return model.Todo{}, err
	}
	for i := range f.todos {
		if f.todos[i].ID != id {
			continue
		}
		if f.todos[i].OwnerID != testOwner {
			return model.Todo{}, model.ErrForbidden
		}
		f.todos[i].Completed = !f.todos[i].Completed
		return f.todos[i], nil
	}
	return model.Todo{}, model.ErrNotFound
}

func (f *fakeRemote) DeleteCompleted(context.Context) ([]model.Todo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.take(); err != nil {
		return nil, err
	}
	var kept, gone []model.Todo
	for _, t := range f.todos {
		if t.OwnerID == testOwner && t.Completed {
			gone = append(gone, t)
		} else {
			kept = append(kept, t)
		}
	}
	f.todos = kept
	return gone, nil
}

func (f *fakeRemote) seed(todos ...model.Todo) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range todos {
		if t.OwnerID == "" {
			t.OwnerID = testOwner
		}
		f.todos = append(f.todos, t)
	}
}

func (f *fakeRemote) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, t := range f.todos {
		if t.ID == id {
			f.todos = append(f.todos[:i], f.todos[i+1:]...)
			return
		}
	}
}

type recordingSurface struct {
	clears int
	closes int
	err    string
}

func (s *recordingSurface) ClearInput()          { s.clears++ }
func (s *recordingSurface) ShowError(msg string) { s.err = msg }
func (s *recordingSurface) CloseConfirm()        { s.closes++ }

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newTestController(r *fakeRemote) (*Controller, *recordingSurface) {
	c := cache.New(r.GetAll, cache.Options{Logger: quietLogger()})
	ctl := New(r, c, mutation.New(), Options{
		Logger: quietLogger(),
		Now:    func() time.Time { return time.Unix(1700000000, 0) },
	})
	s := &recordingSurface{}
	ctl.SetSurface(s)
	return ctl, s
}

// loaded returns a controller whose cache holds the remote's current list.
func loaded(r *fakeRemote) (*Controller, *recordingSurface) {
	ctl, s := newTestController(r)
	ctl.Drain(ctl.Start(true))
	return ctl, s
}

func snapshot(ctl *Controller) model.Snapshot {
	s, _ := ctl.Cache().Read()
	return s
}
