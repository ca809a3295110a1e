// Package tui is the interactive todo list. It renders whatever the cache
// holds and sends every write through the controller.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
)

const (
	emptyMessage   = "You're all done!"
	signInMessage  = "Please sign in"
	confirmMessage = "Delete all checked items? y/n"
)

// listItem adapts a model.Todo to bubbles/list.Item.
type listItem struct{ todo model.Todo }

func (i listItem) Title() string       { return i.todo.Text }
func (i listItem) Description() string { return "" }
func (i listItem) FilterValue() string { return i.todo.Text }

// itemDelegate renders one todo per line.
type itemDelegate struct{}

func (d itemDelegate) Height() int                               { return 1 }
func (d itemDelegate) Spacing() int                              { return 0 }
func (d itemDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d itemDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	it, _ := item.(listItem)
	fmt.Fprintln(w, renderLine(it.todo, index == m.Index()))
}

func renderLine(t model.Todo, selected bool) string {
	box, text := mutedStyle.Render(boxUnchecked), t.Text
	switch {
	case t.IsProvisional():
		text = provisionalStyle.Render(text + " …")
	case t.Completed:
		box, text = successStyle.Render(boxChecked), doneStyle.Render(text)
	}
	prefix := "  "
	if selected {
		prefix = selectedStyle.Render("> ")
	}
	return prefix + box + " " + text
}

var (
	addKey     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	toggleKey  = key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	deleteKey  = key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "delete checked"))
	refreshKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	quitKey    = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

// Model is the bubbletea model. It is also the controller's Surface, so it
// must be used through a pointer.
type Model struct {
	ctl     *controller.Controller
	session auth.Session

	list  list.Model
	input textinput.Model

	adding     bool
	confirming bool
	errMsg     string

	pending     tea.Cmd // from list.SetItems, returned on the next Update
	unsubscribe func()
}

func New(ctl *controller.Controller, session auth.Session) *Model {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.Styles.PaginationStyle = helpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")
	l.KeyMap.Quit.SetEnabled(false)
	extra := func() []key.Binding { return []key.Binding{addKey, toggleKey, deleteKey, refreshKey, quitKey} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	ti := textinput.New()
	ti.Prompt = "> "
	ti.Placeholder = "What needs to be done?"

	m := &Model{ctl: ctl, session: session, list: l, input: ti}
	ctl.SetSurface(m)
	m.unsubscribe = ctl.Cache().Subscribe(m.setItems)
	m.setItems(nil)
	return m
}

// Close detaches the model from the controller.
func (m *Model) Close() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
	m.ctl.SetSurface(nil)
}

func (m *Model) ClearInput()          { m.input.SetValue("") }
func (m *Model) ShowError(msg string) { m.errMsg = msg }
func (m *Model) CloseConfirm()        { m.confirming = false }

func (m *Model) setItems(s model.Snapshot) {
	items := make([]list.Item, len(s))
	for i, t := range s {
		items[i] = listItem{todo: t}
	}
	m.pending = tea.Batch(m.pending, m.list.SetItems(items))

	done, pending := s.Stats()
	title := fmt.Sprintf("%s   %s %d  %s %d  %s %d",
		titleStyle.Render("Todos"),
		successStyle.Render("✔"), done,
		pendingStyle.Render("•"), pending,
		accentStyle.Render("Total"), len(s),
	)
	if name := m.session.Display(); name != "" {
		title += "   " + mutedStyle.Render(name)
	}
	m.list.Title = title
}

func (m *Model) Init() tea.Cmd { return m.ctl.Start(m.session.Authenticated) }

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	cmd := m.update(msg)
	pending := m.pending
	m.pending = nil
	return m, tea.Batch(cmd, pending)
}

func (m *Model) update(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.list.SetSize(msg.Width-4, msg.Height-6)
		return nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	cmds := []tea.Cmd{m.ctl.Update(msg)}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	cmds = append(cmds, cmd)
	if m.adding {
		m.input, cmd = m.input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return tea.Batch(cmds...)
}

func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if msg.String() == "ctrl+c" {
		return tea.Quit
	}
	if !m.session.Authenticated {
		if key.Matches(msg, quitKey) {
			return tea.Quit
		}
		return nil
	}

	if m.adding {
		switch msg.String() {
		case "enter":
			// empty text is sent as is; the backend rejects it
			return m.ctl.Create(m.input.Value())
		case "esc":
			m.adding = false
			m.input.SetValue("")
			m.input.Blur()
			return nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return cmd
	}

	if m.confirming {
		switch msg.String() {
		case "y", "Y":
			return m.ctl.DeleteCompleted()
		case "n", "N", "esc":
			m.confirming = false
		}
		return nil
	}

	if m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return cmd
	}

	switch {
	case key.Matches(msg, quitKey):
		return tea.Quit
	case key.Matches(msg, addKey):
		m.adding = true
		m.errMsg = ""
		m.input.SetValue("")
		return m.input.Focus()
	case key.Matches(msg, toggleKey):
		if it, ok := m.list.SelectedItem().(listItem); ok {
			return m.ctl.Toggle(it.todo.ID)
		}
		return nil
	case key.Matches(msg, deleteKey):
		if snap, _ := m.ctl.Cache().Read(); len(snap) > 0 {
			m.confirming = true
		}
		return nil
	case key.Matches(msg, refreshKey):
		return m.ctl.Refresh()
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return cmd
}

func (m *Model) View() string {
	if !m.session.Authenticated {
		return panelStyle.Render(strings.Join([]string{
			titleStyle.Render("Todos"),
			"",
			signInMessage,
			mutedStyle.Render("Run: todo auth login"),
			"",
			helpStyle.Render("q quit"),
		}, "\n"))
	}

	var b strings.Builder
	snap, loaded := m.ctl.Cache().Read()
	switch {
	case !loaded:
		b.WriteString(titleStyle.Render("Todos") + "\n\n" + mutedStyle.Render("Loading…"))
	case len(snap) == 0:
		b.WriteString(m.list.Title + "\n\n" + successStyle.Render(emptyMessage) + "\n\n" +
			helpStyle.Render("a add • r refresh • q quit"))
	default:
		b.WriteString(m.list.View())
	}

	if m.adding {
		b.WriteString("\n" + panelStyle.Render("Add a todo\n"+m.input.View()))
	}
	if m.confirming {
		b.WriteString("\n" + accentStyle.Render(confirmMessage))
	}
	if m.errMsg != "" {
		b.WriteString("\n" + errorStyle.Render(m.errMsg))
	}
	if err := m.ctl.Cache().LastError(); err != nil {
		b.WriteString("\n" + errorStyle.Render("refresh failed: "+err.Error()))
	}
	return panelStyle.Render(b.String())
}

// Run starts the interactive program and blocks until the user quits.
func Run(ctl *controller.Controller, session auth.Session) error {
	m := New(ctl, session)
	defer m.Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
