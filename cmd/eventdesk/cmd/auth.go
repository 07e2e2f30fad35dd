package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Togather-Foundation/eventdesk/internal/auth"
	"github.com/Togather-Foundation/eventdesk/internal/sanitize"
	"github.com/Togather-Foundation/eventdesk/internal/session"
	"github.com/spf13/cobra"
)

func newSignupCommand(c *cli) *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account",
		Long: `Create an account on the events service.

Signing up does not sign you in: run "eventdesk login" afterwards.
Missing values are prompted for.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(c.in, cmd.OutOrStdout())
			var err error
			if username, err = p.ask("Username", username); err != nil {
				return err
			}
			if email, err = p.ask("Email", email); err != nil {
				return err
			}
			if password, err = p.secret("Password", password); err != nil {
				return err
			}

			if err := c.state.SignUp(cmd.Context(), username, email, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Account created. Please log in.")
			return nil
		},
	}

	cmd.Flags().StringVar(&username, "username", "", "account username")
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if empty)")
	return cmd
}

func newLoginCommand(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and keep the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := newPrompter(c.in, cmd.OutOrStdout())
			var err error
			if email, err = p.ask("Email", email); err != nil {
				return err
			}
			if password, err = p.secret("Password", password); err != nil {
				return err
			}

			if err := c.state.SignIn(cmd.Context(), email, password); err != nil {
				return err
			}
			user, _ := c.state.User()
			name := user.Username
			if name == "" {
				name = user.Email
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", name)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (prompted if empty)")
	return cmd
}

func newLogoutCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.state.SignOut(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

type whoami struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles,omitempty"`
	ExpiresAt string   `json:"expiresAt,omitempty"`
}

func newWhoamiCommand(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		Long: `Show the signed-in user from the stored session.

This reads local state only. The token expiry shown is what the token claims;
the service may have revoked it earlier.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, ok := c.state.User()
			if !ok {
				return session.ErrNoSession
			}
			info := whoami{ID: user.ID, Username: user.Username, Email: user.Email, Roles: user.Roles}

			tok, err := c.svc.TokenInfo()
			switch {
			case err == nil:
				if len(info.Roles) == 0 {
					info.Roles = tok.Roles
				}
				if tok.ExpiresAt != nil {
					info.ExpiresAt = tok.ExpiresAt.UTC().Format("2006-01-02T15:04:05Z07:00")
				}
			case errors.Is(err, auth.ErrOpaqueToken):
			default:
				c.logger.Debug().Err(err).Msg("token not inspectable")
			}

			out := cmd.OutOrStdout()
			if c.opts.output != formatTable {
				return render(out, c.opts.output, info)
			}
			fmt.Fprintf(out, "User:    %s\n", sanitize.Cell(info.Username, 0))
			fmt.Fprintf(out, "Email:   %s\n", info.Email)
			fmt.Fprintf(out, "ID:      %s\n", info.ID)
			if len(info.Roles) > 0 {
				fmt.Fprintf(out, "Roles:   %s\n", strings.Join(sanitize.TextSlice(info.Roles), ", "))
			}
			if info.ExpiresAt != "" {
				fmt.Fprintf(out, "Expires: %s\n", info.ExpiresAt)
			}
			return nil
		},
	}
}
