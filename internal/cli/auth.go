package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/tada/internal/auth"
	"github.com/Makepad-fr/tada/internal/ui"
)

func (a *app) authCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth <login|logout|status|whoami>",
		Short: "Token authentication",
		Args:  noArgs("auth <login|logout|status|whoami>"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return usage("usage: todo auth <login|logout|status|whoami>")
		},
	}
	cmd.AddCommand(a.loginCommand(), a.logoutCommand(), a.statusCommand(), a.whoamiCommand())
	return cmd
}

func (a *app) loginCommand() *cobra.Command {
	var username string
	var withToken bool
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a username and password, or paste a token with --with-token",
		Args:  noArgs("auth login"),
		RunE: func(cmd *cobra.Command, args []string) error {
			r := bufio.NewReader(a.in)
			if withToken {
				fmt.Fprint(a.out, "Paste your token: ")
				token, err := readLine(r)
				if err != nil {
					return fmt.Errorf("read token: %w", err)
				}
				if err := auth.Save(token, nil); err != nil {
					return fmt.Errorf("save token: %w", err)
				}
				ui.OK("logged in")
				return nil
			}

			if username == "" {
				fmt.Fprint(a.out, "Username: ")
				u, err := readLine(r)
				if err != nil {
					return fmt.Errorf("read username: %w", err)
				}
				username = u
			}
			fmt.Fprint(a.out, "Password: ")
			password, err := readLine(r)
			if err != nil {
				return fmt.Errorf("read password: %w", err)
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), a.cfg.RequestTimeout)
			defer cancel()
			resp, err := a.client("").Login(ctx, username, password)
			if err != nil {
				return fmt.Errorf("login: %w", err)
			}
			if err := auth.Save(resp.Token, &resp.ExpiresAt); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			a.log.Info("logged in", "user", username, "server", a.cfg.Server)
			ui.OK("logged in as " + username)
			return nil
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "username (prompted when empty)")
	cmd.Flags().BoolVar(&withToken, "with-token", false, "read a token from stdin instead of signing in")
	return cmd
}

func (a *app) logoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved token",
		Args:  noArgs("auth logout"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, _ := auth.Load()
			if ti != nil && ti.Source == auth.SourceEnv {
				ui.OK("token is provided by " + auth.EnvToken + " env var (nothing to delete)")
				return nil
			}
			if err := auth.Forget(); err != nil {
				return fmt.Errorf("logout: %w", err)
			}
			ui.OK("logged out")
			return nil
		},
	}
}

func (a *app) statusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show where the token comes from and when it expires",
		Args:  noArgs("auth status"),
		RunE: func(cmd *cobra.Command, args []string) error {
			ti, err := auth.Load()
			if err != nil {
				return err
			}
			if ti == nil {
				ui.Println(ui.C(ui.Current().Muted, "not logged in"))
				ui.Println("Run: todo auth login")
				return nil
			}
			ui.Println("server: " + a.cfg.Server)
			ui.Println("source: " + string(ti.Source))
			if ti.ExpiresAt != nil {
				ui.Println("expires: " + ti.ExpiresAt.UTC().Format(time.RFC3339))
			} else {
				ui.Println("expires: (unknown)")
			}
			if s := auth.CurrentSession(time.Now()); !s.Authenticated {
				ui.Println(ui.C(ui.Current().Error, "token is expired or unreadable"))
			}
			ui.Println("env override: " + auth.EnvToken)
			return nil
		},
	}
}

func (a *app) whoamiCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Print the signed-in user, decoded from the token",
		Args:  noArgs("auth whoami"),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := auth.CurrentSession(time.Now())
			if !s.Authenticated {
				return usage("not logged in. Run: todo auth login")
			}
			ui.Println(s.Display())
			ui.Println(ui.C(ui.Current().Muted, "id: "+s.UserID))
			if !s.ExpiresAt.IsZero() {
				ui.Println(ui.C(ui.Current().Muted, "expires: "+s.ExpiresAt.UTC().Format(time.RFC3339)))
			}
			return nil
		},
	}
}

func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	line = strings.TrimSpace(line)
	if line != "" {
		return line, nil
	}
	if err != nil {
		return "", err
	}
	return "", fmt.Errorf("empty input")
}
