// Package controller applies todo writes optimistically.
//
// Every write goes through the same three steps: the cache is changed
// locally right away, the remote call runs inside a tea.Cmd, and when its
// SettledMsg comes back (success or not) the coordinator is decremented. The
// last settlement of a burst triggers one reconciling refresh.
package controller

import (
	"context"
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/cache"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/mutation"
)

// ValidationMessage is shown when the backend rejects an empty todo.
const ValidationMessage = "Try typing something..."

// Remote is the backend as the controller sees it.
type Remote interface {
	GetAll(ctx context.Context) ([]model.Todo, error)
	Create(ctx context.Context, text string) (model.Todo, error)
	Toggle(ctx context.Context, id string) (model.Todo, error)
	DeleteCompleted(ctx context.Context) ([]model.Todo, error)
}

// Surface is the part of the view the controller drives directly.
type Surface interface {
	ClearInput()
	ShowError(msg string)
	CloseConfirm()
}

// Mutation is one optimistic write.
type Mutation interface {
	Name() string
	// ApplyLocally returns the snapshot to install before the remote call.
	// It must not modify its argument.
	ApplyLocally(model.Snapshot) model.Snapshot
	// ApplyRemotely runs off the event loop and must not touch controller state.
	ApplyRemotely(ctx context.Context, r Remote) error
	// Settle runs on the event loop once the remote call is done.
	Settle(c *Controller, err error)
}

// beginner is implemented by mutations with UI effects of their own that
// must happen before the local apply.
type beginner interface {
	Begin(c *Controller)
}

// SettledMsg reports that a mutation's remote call concluded.
type SettledMsg struct {
	Mutation Mutation
	Err      error
}

type Options struct {
	// Timeout bounds each remote write. Zero means 10s.
	Timeout time.Duration
	Logger  *slog.Logger
	Now     func() time.Time
	NewID   func() string
}

type Controller struct {
	remote  Remote
	cache   *cache.Cache
	coord   *mutation.Coordinator
	surface Surface

	timeout time.Duration
	log     *slog.Logger
	now     func() time.Time
	newID   func() string

	refreshes int
}

func New(remote Remote, c *cache.Cache, coord *mutation.Coordinator, opt Options) *Controller {
	if opt.Timeout <= 0 {
		opt.Timeout = 10 * time.Second
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Now == nil {
		opt.Now = time.Now
	}
	if opt.NewID == nil {
		opt.NewID = provisionalID
	}
	return &Controller{
		remote:  remote,
		cache:   c,
		coord:   coord,
		surface: nopSurface{},
		timeout: opt.Timeout,
		log:     opt.Logger,
		now:     opt.Now,
		newID:   opt.NewID,
	}
}

// SetSurface attaches the view. A nil surface detaches it.
func (c *Controller) SetSurface(s Surface) {
	if s == nil {
		s = nopSurface{}
	}
	c.surface = s
}

func (c *Controller) Cache() *cache.Cache { return c.cache }

func (c *Controller) Coordinator() *mutation.Coordinator { return c.coord }

// Refreshes counts the reconciling refreshes requested so far.
func (c *Controller) Refreshes() int { return c.refreshes }

// Start issues the first fetch when someone is signed in.
func (c *Controller) Start(authenticated bool) tea.Cmd {
	if !authenticated {
		return nil
	}
	return c.Refresh()
}

// SignOut drops the cached list.
func (c *Controller) SignOut() { c.cache.Discard() }

// Refresh asks for the authoritative list, superseding any pending refresh.
func (c *Controller) Refresh() tea.Cmd {
	c.refreshes++
	return c.cache.InvalidateAndRefetch()
}

func (c *Controller) Create(text string) tea.Cmd {
	return c.run(&createMutation{text: text, id: c.newID(), at: c.now()})
}

func (c *Controller) Toggle(id string) tea.Cmd {
	return c.run(&toggleMutation{id: id})
}

func (c *Controller) DeleteCompleted() tea.Cmd {
	return c.run(deleteCompletedMutation{})
}

// Update handles settlements and forwards everything else to the cache.
func (c *Controller) Update(msg tea.Msg) tea.Cmd {
	settled, ok := msg.(SettledMsg)
	if !ok {
		return c.cache.Update(msg)
	}
	settled.Mutation.Settle(c, settled.Err)
	c.coord.EndOne()
	c.log.Debug("mutation settled", "op", settled.Mutation.Name(),
		"in_flight", c.coord.InFlight(), "err", settled.Err)
	if !c.coord.AllEnded() {
		return nil
	}
	return c.Refresh()
}

// Drain runs cmds and everything they lead to on the calling goroutine,
// feeding each message back through Update. Used by the headless CLI.
func (c *Controller) Drain(cmds ...tea.Cmd) {
	queue := append([]tea.Cmd(nil), cmds...)
	for len(queue) > 0 {
		cmd := queue[0]
		queue = queue[1:]
		if cmd == nil {
			continue
		}
		switch msg := cmd().(type) {
		case nil:
		case tea.BatchMsg:
			queue = append(queue, msg...)
		default:
			if next := c.Update(msg); next != nil {
				queue = append(queue, next)
			}
		}
	}
}

func (c *Controller) run(m Mutation) tea.Cmd {
	c.coord.BeginOne()
	c.cache.CancelRefetch()
	if b, ok := m.(beginner); ok {
		b.Begin(c)
	}
	if snap, loaded := c.cache.Read(); loaded {
		c.cache.Replace(m.ApplyLocally(snap))
	}
	c.log.Debug("mutation started", "op", m.Name(), "in_flight", c.coord.InFlight())

	remote, timeout := c.remote, c.timeout
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return SettledMsg{Mutation: m, Err: m.ApplyRemotely(ctx, remote)}
	}
}

type nopSurface struct{}

func (nopSurface) ClearInput()      {}
func (nopSurface) ShowError(string) {}
func (nopSurface) CloseConfirm()    {}
