// Package cli is the `todo` command tree.
package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/cache"
	"github.com/Makepad-fr/tada/internal/client"
	"github.com/Makepad-fr/tada/internal/config"
	"github.com/Makepad-fr/tada/internal/controller"
	"github.com/Makepad-fr/tada/internal/mutation"
	"github.com/Makepad-fr/tada/internal/ui"
)

// Options replace the process streams, mostly for tests.
type Options struct {
	In       io.Reader
	Out, Err io.Writer
}

// usageError makes Run exit with 2.
type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usage(format string, a ...any) error { return usageError{fmt.Sprintf(format, a...)} }

type app struct {
	in  io.Reader
	out io.Writer

	configPath string
	theme      string
	noColor    bool

	cfg     config.Client
	log     *slog.Logger
	logFile *os.File
}

// Run executes the command line and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if opt.In == nil {
		opt.In = os.Stdin
	}
	if opt.Out == nil {
		opt.Out = os.Stdout
	}
	if opt.Err == nil {
		opt.Err = os.Stderr
	}
	ui.SetOutput(opt.Out, opt.Err)

	a := &app{in: opt.In, out: opt.Out, log: slog.New(slog.DiscardHandler)}
	defer a.close()

	root := a.rootCommand()
	root.SetArgs(args)
	root.SetIn(opt.In)
	root.SetOut(opt.Out)
	root.SetErr(opt.Err)

	err := root.Execute()
	var ue usageError
	switch {
	case err == nil:
		return 0
	case errors.As(err, &ue):
		ui.Fail(ue.msg)
		return 2
	default:
		ui.Fail(err.Error())
		return 1
	}
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "todo",
		Short:         "todo - a tiny, optimistic todo list",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usage("unknown subcommand: %s", args[0])
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usage("missing subcommand")
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return usageError{err.Error()}
	})
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.tada/config.yaml)")
	root.PersistentFlags().StringVar(&a.theme, "theme", "", "colour theme: "+strings.Join(ui.Themes, ", "))
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable colours")

	root.AddCommand(a.lsCommand(), a.addCommand(), a.doneCommand(), a.clearCommand(), a.authCommand())
	return root
}

func (a *app) setup() error {
	cfg, err := config.LoadClient(a.configPath)
	if err != nil {
		return err
	}
	a.cfg = cfg

	theme := cfg.Theme
	if a.theme != "" {
		theme = a.theme
	}
	ui.SetTheme(theme)
	if a.noColor {
		ui.SetColorForcing(false, true)
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.log = slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: config.ParseLevel(cfg.LogLevel)}))
	}
	return nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *app) client(token string) *client.Client {
	return client.New(a.cfg.Server, client.Options{
		Token:      token,
		HTTPClient: &http.Client{Timeout: a.cfg.RequestTimeout + time.Second},
		Logger:     a.log,
	})
}

// session wires a controller for the signed-in user.
type session struct {
	auth.Session
	ctl    *controller.Controller
	remote *recordingRemote
}

// signedIn fails with a usage error when nobody is logged in.
func (a *app) signedIn() (*session, error) {
	s := auth.CurrentSession(time.Now())
	if !s.Authenticated {
		return nil, usage("not logged in. Set %s or run `todo auth login`", auth.EnvToken)
	}
	return a.newSession(s), nil
}

func (a *app) newSession(s auth.Session) *session {
	remote := &recordingRemote{Remote: a.client(s.Token)}
	ch := cache.New(remote.GetAll, cache.Options{
		Timeout: a.cfg.RequestTimeout,
		Retry: cache.RetryPolicy{
			MaxAttempts:     a.cfg.Refresh.MaxAttempts,
			InitialInterval: a.cfg.Refresh.InitialInterval,
			MaxInterval:     a.cfg.Refresh.MaxInterval,
		},
		Logger: a.log,
	})
	ctl := controller.New(remote, ch, mutation.New(), controller.Options{
		Timeout: a.cfg.RequestTimeout,
		Logger:  a.log,
	})
	return &session{Session: s, ctl: ctl, remote: remote}
}

// load fetches the list once and reports a failed fetch.
func (s *session) load() error {
	s.ctl.Drain(s.ctl.Start(true))
	if err := s.ctl.Cache().LastError(); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	return nil
}
