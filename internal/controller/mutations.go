package controller

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Makepad-fr/tada/internal/model"
)

func provisionalID() string { return "provisional-" + uuid.NewString() }

// createMutation appends a provisional record. The next refresh replaces it
// with the backend's record.
type createMutation struct {
	text string
	id   string
	at   time.Time
}

func (m *createMutation) Name() string { return "create" }

func (m *createMutation) Begin(c *Controller) {
	c.surface.ClearInput()
	c.surface.ShowError("")
}

func (m *createMutation) ApplyLocally(s model.Snapshot) model.Snapshot {
	next := make(model.Snapshot, 0, len(s)+1)
	next = append(next, s...)
	return append(next, model.Todo{
		ID:        m.id,
		Text:      m.text,
		OwnerID:   model.PendingOwner,
		CreatedAt: m.at,
		State:     model.Provisional,
	})
}

func (m *createMutation) ApplyRemotely(ctx context.Context, r Remote) error {
	_, err := r.Create(ctx, strings.TrimSpace(m.text))
	return err
}

func (m *createMutation) Settle(c *Controller, err error) {
	c.surface.ClearInput()
	if model.KindOf(err) == model.KindValidation {
		c.surface.ShowError(ValidationMessage)
		return
	}
	c.surface.ShowError("")
	if err != nil {
		c.log.Warn("create failed", "err", err)
	}
}

// toggleMutation flips one record. Ownership is not checked locally; a wrong
// guess is corrected by the next refresh.
type toggleMutation struct {
	id string
}

func (m *toggleMutation) Name() string { return "toggle" }

func (m *toggleMutation) ApplyLocally(s model.Snapshot) model.Snapshot {
	i := s.Find(m.id)
	if i < 0 {
		return s
	}
	next := s.Clone()
	next[i].Completed = !next[i].Completed
	return next
}

func (m *toggleMutation) ApplyRemotely(ctx context.Context, r Remote) error {
	_, err := r.Toggle(ctx, m.id)
	return err
}

func (m *toggleMutation) Settle(c *Controller, err error) {
	if err != nil {
		c.log.Warn("toggle failed", "id", m.id, "kind", model.KindOf(err), "err", err)
	}
}

type deleteCompletedMutation struct{}

func (deleteCompletedMutation) Name() string { return "delete_completed" }

func (deleteCompletedMutation) ApplyLocally(s model.Snapshot) model.Snapshot {
	next := make(model.Snapshot, 0, len(s))
	for _, t := range s {
		if !t.Completed {
			next = append(next, t)
		}
	}
	return next
}

func (deleteCompletedMutation) ApplyRemotely(ctx context.Context, r Remote) error {
	_, err := r.DeleteCompleted(ctx)
	return err
}

func (deleteCompletedMutation) Settle(c *Controller, err error) {
	c.surface.CloseConfirm()
	if err != nil {
		c.log.Warn("delete completed failed", "err", err)
	}
}
