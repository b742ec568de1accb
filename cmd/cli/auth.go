package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/and161185/libdesk/internal/access"
	"github.com/and161185/libdesk/internal/session"
)

func loginCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in and store the session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			pw, err := a.readPassword("Password: ")
			if err != nil {
				return err
			}
			id, err := a.sess.SignIn(cmd.Context(), strings.TrimSpace(email), pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s (%s)\n", id.Name, id.Role)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.sess.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Signed out")
			return nil
		},
	}
}

type whoami struct {
	ID    string              `json:"id"`
	Name  string              `json:"name"`
	Email string              `json:"email"`
	Role  string              `json:"role"`
	Menu  []access.MenuItem   `json:"menu"`
	Caps  access.Capabilities `json:"capabilities"`
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user and what they can open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, caps, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			menu := access.Menu(id.Role)
			if a.flags.json {
				printJSON(a.out, whoami{id.UserID, id.Name, id.Email, string(id.Role), menu, caps})
				return nil
			}
			fmt.Fprintf(a.out, "%s <%s>\nrole: %s\nid:   %s\n", id.Name, id.Email, id.Role, id.UserID)
			for _, m := range menu {
				fmt.Fprintf(a.out, "  %-14s %s\n", m.Name, m.Path)
			}
			return nil
		},
	}
}

func verifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the stored session against the backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			a.sess.Check(cmd.Context())
			fmt.Fprintf(a.out, "session %s%s\n", a.sess.State(), expiresIn(a.sess.AccessToken()))
			return nil
		},
	}
}

func refreshCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Exchange the refresh token for a new access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, _, err := a.requireSession(cmd.Context()); err != nil {
				return err
			}
			if err := a.sess.Refresh(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "session %s%s\n", a.sess.State(), expiresIn(a.sess.AccessToken()))
			return nil
		},
	}
}

func expiresIn(token string) string {
	exp, ok, err := session.ExpiresAt(token)
	if err != nil || !ok {
		return ""
	}
	return fmt.Sprintf(", expires in %s", time.Until(exp).Round(time.Second))
}

func resetPasswordCmd(a *app) *cobra.Command {
	var email string
	cmd := &cobra.Command{
		Use:   "reset-password",
		Short: "Set a new password for an account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			if email == "" {
				if email, err = a.readLine("Email: "); err != nil {
					return err
				}
			}
			pw, err := a.newPassword()
			if err != nil {
				return err
			}
			if err := a.client.ResetPassword(cmd.Context(), strings.TrimSpace(email), pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password reset")
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	return cmd
}

func passwdCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "passwd",
		Short: "Change your own password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			id, _, err := a.requireSession(cmd.Context())
			if err != nil {
				return err
			}
			old, err := a.readPassword("Current password: ")
			if err != nil {
				return err
			}
			pw, err := a.newPassword()
			if err != nil {
				return err
			}
			if err := a.client.ChangePassword(cmd.Context(), id.UserID, old, pw); err != nil {
				return err
			}
			fmt.Fprintln(a.out, "Password changed")
			return nil
		},
	}
}
