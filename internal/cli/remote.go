package cli

import (
	"context"
	"sync"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
)

// outcome is what the last write did.
type outcome struct {
	err     error
	created model.Todo
	toggled model.Todo
	deleted []model.Todo
}

// recordingRemote remembers the outcome of the last write so headless
// commands can report it; the controller settles failures silently.
// The interactive view runs writes from concurrent tea.Cmds, hence the lock.
type recordingRemote struct {
	controller.Remote

	mu  sync.Mutex
	out outcome
}

func (r *recordingRemote) last() outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.out
}

func (r *recordingRemote) record(fn func(o *outcome)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(&r.out)
}

func (r *recordingRemote) Create(ctx context.Context, text string) (model.Todo, error) {
	t, err := r.Remote.Create(ctx, text)
	r.record(func(o *outcome) { o.created, o.err = t, err })
	return t, err
}

func (r *recordingRemote) Toggle(ctx context.Context, id string) (model.Todo, error) {
	t, err := r.Remote.Toggle(ctx, id)
	r.record(func(o *outcome) { o.toggled, o.err = t, err })
	return t, err
}

func (r *recordingRemote) DeleteCompleted(ctx context.Context) ([]model.Todo, error) {
	d, err := r.Remote.DeleteCompleted(ctx)
	r.record(func(o *outcome) { o.deleted, o.err = d, err })
	return d, err
}
