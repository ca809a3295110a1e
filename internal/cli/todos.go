package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/model"
	"github.com/Makepad-fr/tada/internal/tui"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (a *app) lsCommand() *cobra.Command {
	var plain, group bool
	cmd := &cobra.Command{
		Use:   "ls",
		Short: "List todos (interactive unless --plain or not a terminal)",
		Args:  noArgs("ls"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn()
			if err != nil {
				return err
			}
			if !plain && ui.IsTerminal() {
				if err := tui.Run(s.ctl, s.Session); err != nil {
					return fmt.Errorf("tui: %w", err)
				}
				return nil
			}
			if err := s.load(); err != nil {
				return err
			}
			snap, _ := s.ctl.Cache().Read()
			printList(snap, group)
			return nil
		},
	}
	cmd.Flags().BoolVar(&plain, "plain", false, "print the list instead of opening the interactive view")
	cmd.Flags().BoolVar(&group, "group", false, "group the plain list by pending/done")
	return cmd
}

func (a *app) addCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "add <text...>",
		Short: "Add a todo (text can be multiple words)",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return usage("usage: todo add <text...>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn()
			if err != nil {
				return err
			}
			if err := s.load(); err != nil {
				return err
			}
			s.ctl.Drain(s.ctl.Create(strings.Join(args, " ")))
			out := s.remote.last()
			if err := out.err; err != nil {
				if model.KindOf(err) == model.KindValidation {
					return usage("%s", controller.ValidationMessage)
				}
				return fmt.Errorf("add: %w", err)
			}
			ui.OK("added " + ui.Dim(out.created.ID))
			return nil
		},
	}
}

func (a *app) doneCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "done <index|id>",
		Short: "Toggle done for a todo, by 1-based index from `todo ls --plain` or by id",
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return usage("usage: todo done <index|id>")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn()
			if err != nil {
				return err
			}
			if err := s.load(); err != nil {
				return err
			}
			snap, _ := s.ctl.Cache().Read()
			id := args[0]
			if n, err := strconv.Atoi(id); err == nil {
				if n < 1 || n > len(snap) {
					ui.Hint("Hint: run `todo ls --plain` to see valid indexes")
					return usage("index out of range: have %d, got %d", len(snap), n)
				}
				id = snap[n-1].ID
			}

			s.ctl.Drain(s.ctl.Toggle(id))
			out := s.remote.last()
			switch err := out.err; {
			case err == nil:
			case errors.Is(err, model.ErrNotFound):
				return fmt.Errorf("no todo with id %s", id)
			case errors.Is(err, model.ErrForbidden):
				return fmt.Errorf("todo %s belongs to someone else", id)
			default:
				return fmt.Errorf("done: %w", err)
			}
			if out.toggled.Completed {
				ui.OK("done: " + out.toggled.Text)
			} else {
				ui.OK("not done: " + out.toggled.Text)
			}
			return nil
		},
	}
}

func (a *app) clearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete all checked todos",
		Args:  noArgs("clear"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.signedIn()
			if err != nil {
				return err
			}
			if err := s.load(); err != nil {
				return err
			}
			s.ctl.Drain(s.ctl.DeleteCompleted())
			out := s.remote.last()
			if err := out.err; err != nil {
				return fmt.Errorf("clear: %w", err)
			}
			ui.OK(fmt.Sprintf("removed %d", len(out.deleted)))
			return nil
		},
	}
}

func noArgs(name string) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if len(args) > 0 {
			return usage("usage: todo %s", name)
		}
		return nil
	}
}

// -------------- rendering helpers --------------

func printList(todos model.Snapshot, group bool) {
	t := ui.Current()
	d, p := todos.Stats()
	header := fmt.Sprintf("%s  %s %d  %s %d  %s %d",
		ui.C(t.Title, "Todos"),
		ui.C(t.Success, t.SymDone), d,
		ui.C(t.Pending, t.SymUnchecked), p,
		ui.C(t.Accent, "Total"), len(todos),
	)

	lines := []string{header, ui.C(t.Muted, ui.ProgressBar(d, d+p, 28)), ""}
	if group {
		lines = append(lines, groupLines(todos)...)
	} else {
		lines = append(lines, flatLines(todos, 1)...)
	}
	lines = append(lines, "", ui.C(t.Muted, "Tip: add with `todo add \"Buy milk\"`"))
	ui.Panel(lines)
}

// flatLines numbers todos from first, matching the indexes `todo done` takes.
func flatLines(todos []model.Todo, first int) []string {
	t := ui.Current()
	if len(todos) == 0 {
		return []string{ui.C(t.Success, "You're all done!")}
	}
	out := make([]string, 0, len(todos))
	for i, it := range todos {
		idx := fmt.Sprintf("%2d.", first+i)
		box, color := t.BoxUnchecked, t.Muted
		if it.Completed {
			box, color = t.BoxChecked, t.Success
		}
		out = append(out, fmt.Sprintf("%s %s %s", ui.Dim(idx), ui.C(color, box), ui.Truncate(it.Text, 80)))
	}
	return out
}

// groupLines keeps the flat indexes so they stay valid for `todo done`.
func groupLines(todos []model.Todo) []string {
	t := ui.Current()
	var pend, done []string
	for i, it := range todos {
		line := flatLines(todos[i:i+1], i+1)[0]
		if it.Completed {
			done = append(done, line)
		} else {
			pend = append(pend, line)
		}
	}
	section := func(title string, lines []string) []string {
		out := []string{ui.C(t.Accent, title)}
		if len(lines) == 0 {
			return append(out, ui.C(t.Muted, "(none)"))
		}
		return append(out, lines...)
	}
	lines := section("Pending", pend)
	lines = append(lines, "")
	return append(lines, section("Done", done)...)
}
