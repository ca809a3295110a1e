// Package cache holds the client's believed state of the remote todo list.
//
// The cache is driven from a bubbletea event loop: Replace, Read and the
// refetch bookkeeping all run on that goroutine, while the fetch itself runs
// inside a tea.Cmd and comes back as a FetchedMsg.
package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v5"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/model"
)

// Fetcher loads the authoritative list for the current user.
type Fetcher func(ctx context.Context) ([]model.Todo, error)

// RetryPolicy bounds how hard a failed refresh is retried.
type RetryPolicy struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     4,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     5 * time.Second,
	}
}

// Options configure a Cache. Zero values take defaults.
type Options struct {
	// Timeout bounds a single fetch. Zero means 10s.
	Timeout time.Duration
	Retry   RetryPolicy
	Logger  *slog.Logger
}

// FetchedMsg carries the result of one fetch attempt back to the event loop.
type FetchedMsg struct {
	Gen     uint64
	Attempt int
	Todos   []model.Todo
	Err     error
}

type retryMsg struct {
	gen     uint64
	attempt int
}

type observer struct {
	id int
	fn func(model.Snapshot)
}

// Cache is the snapshot of the remote list plus the refetch bookkeeping.
// It is owned by the event loop goroutine.
type Cache struct {
	fetcher Fetcher
	timeout time.Duration
	retry   RetryPolicy
	bo      *backoff.ExponentialBackOff
	log     *slog.Logger

	snap    model.Snapshot
	loaded  bool
	lastErr error

	gen    uint64
	cancel context.CancelFunc

	observers []observer
	nextID    int
}

func New(fetcher Fetcher, opt Options) *Cache {
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	if opt.Retry.MaxAttempts <= 0 {
		opt.Retry = DefaultRetryPolicy()
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = opt.Retry.InitialInterval
	bo.MaxInterval = opt.Retry.MaxInterval
	bo.Reset()
	return &Cache{
		fetcher: fetcher,
		timeout: opt.Timeout,
		retry:   opt.Retry,
		bo:      bo,
		log:     opt.Logger,
	}
}

// Read returns the current snapshot and whether a first fetch has landed.
// The returned snapshot must not be modified.
func (c *Cache) Read() (model.Snapshot, bool) { return c.snap, c.loaded }

// Replace installs s as the current snapshot and notifies observers.
func (c *Cache) Replace(s model.Snapshot) {
	c.snap = s
	c.notify()
}

// Subscribe registers fn to run after every Replace. The returned func
// removes it again.
func (c *Cache) Subscribe(fn func(model.Snapshot)) (unsubscribe func()) {
	c.nextID++
	id := c.nextID
	c.observers = append(c.observers, observer{id: id, fn: fn})
	return func() {
		for i, o := range c.observers {
			if o.id == id {
				c.observers = append(c.observers[:i], c.observers[i+1:]...)
				return
			}
		}
	}
}

// LastError is the error of the last refresh that exhausted its retries,
// cleared by the next successful one.
func (c *Cache) LastError() error { return c.lastErr }

// CancelRefetch suppresses any pending refresh. A response that is already
// on its way is dropped when it arrives; a request still in flight has its
// context cancelled.
func (c *Cache) CancelRefetch() {
	c.gen++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// InvalidateAndRefetch cancels whatever refresh is pending and starts a new one.
func (c *Cache) InvalidateAndRefetch() tea.Cmd {
	c.CancelRefetch()
	c.bo.Reset()
	return c.fetch(c.gen, 1)
}

// Discard drops the snapshot, e.g. on sign-out.
func (c *Cache) Discard() {
	c.CancelRefetch()
	c.snap = nil
	c.loaded = false
	c.lastErr = nil
	c.notify()
}

// Update applies fetch results for the current generation and schedules
// retries. Messages it does not know are ignored.
func (c *Cache) Update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case FetchedMsg:
		return c.applyFetched(msg)
	case retryMsg:
		if msg.gen != c.gen {
			return nil
		}
		return c.fetch(msg.gen, msg.attempt)
	}
	return nil
}

func (c *Cache) applyFetched(msg FetchedMsg) tea.Cmd {
	if msg.Gen != c.gen {
		c.log.Debug("stale refresh dropped", "gen", msg.Gen, "current", c.gen)
		return nil
	}
	c.cancel = nil

	if msg.Err == nil {
		c.loaded = true
		c.lastErr = nil
		c.Replace(confirmed(msg.Todos))
		c.log.Debug("refreshed", "todos", len(msg.Todos), "attempt", msg.Attempt)
		return nil
	}

	if errors.Is(msg.Err, context.Canceled) {
		return nil
	}
	kind := model.KindOf(msg.Err)
	if kind == model.KindAuthorization || msg.Attempt >= c.retry.MaxAttempts {
		c.lastErr = msg.Err
		c.log.Warn("refresh failed", "attempt", msg.Attempt, "kind", kind, "err", msg.Err)
		c.notify()
		return nil
	}

	wait := c.bo.NextBackOff()
	c.log.Info("refresh failed, retrying", "attempt", msg.Attempt, "in", wait, "err", msg.Err)
	gen, next := msg.Gen, msg.Attempt+1
	return tea.Tick(wait, func(time.Time) tea.Msg {
		return retryMsg{gen: gen, attempt: next}
	})
}

func (c *Cache) fetch(gen uint64, attempt int) tea.Cmd {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	c.cancel = cancel
	fetcher := c.fetcher
	return func() tea.Msg {
		defer cancel()
		todos, err := fetcher(ctx)
		return FetchedMsg{Gen: gen, Attempt: attempt, Todos: todos, Err: err}
	}
}

func (c *Cache) notify() {
	for _, o := range c.observers {
		o.fn(c.snap)
	}
}

func confirmed(todos []model.Todo) model.Snapshot {
	out := make(model.Snapshot, len(todos))
	for i, t := range todos {
		t.State = model.Confirmed
		out[i] = t
	}
	return out
}
