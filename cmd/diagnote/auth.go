package main

import (
	"bufio"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/akith22/DiagNote-sub000/internal/domain/identity"
	"github.com/akith22/DiagNote-sub000/internal/platform/apiclient"
	"github.com/akith22/DiagNote-sub000/internal/platform/session"
)

// readSecret returns flagValue, or the first line of stdin when it is empty.
func readSecret(cmd *cobra.Command, flagValue, prompt string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", apiclient.Validation("password is required")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func loginCmd(a *app) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the session",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd, password, "Password: ")
			if err != nil {
				return err
			}
			res, err := a.identity.Login(cmd.Context(), email, pw)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s), dashboard %s\n", res.User.Name, res.User.Role, res.Route)
			return nil
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password (read from stdin when omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func registerCmd(a *app) *cobra.Command {
	var req identity.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a portal account",
		RunE: func(cmd *cobra.Command, args []string) error {
			pw, err := readSecret(cmd, req.Password, "Password: ")
			if err != nil {
				return err
			}
			req.Password = pw
			if err := a.identity.Register(cmd.Context(), req); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Registration successful, you can now log in")
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "full name")
	cmd.Flags().StringVar(&req.Email, "email", "", "email address")
	cmd.Flags().StringVar(&req.Password, "password", "", "password, at least 6 characters")
	cmd.Flags().StringVar(&req.Role, "role", identity.RolePatient, "DOCTOR, PATIENT or LABTECH")
	return cmd
}

func logoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.identity.Logout(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		},
	}
}

func whoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			cur, err := a.identity.Current(cmd.Context())
			if errors.Is(err, session.ErrNoSession) {
				fmt.Fprintln(cmd.OutOrStdout(), "Not logged in")
				return nil
			}
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s <%s>\n", cur.User.Name, cur.User.Email)
			fmt.Fprintf(out, "role:      %s\n", cur.User.Role)
			fmt.Fprintf(out, "dashboard: %s\n", cur.Route)
			if cur.ExpiresAt != nil {
				fmt.Fprintf(out, "expires:   %s\n", cur.ExpiresAt.Local().Format(time.RFC1123))
			}
			return nil
		},
	}
}

func sessionCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "session",
		Short: "Manage session storage",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create the shared session table (postgres store only)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.pgStore == nil {
				return apiclient.Validation("session init only applies when SESSION_STORE=postgres")
			}
			if err := a.pgStore.EnsureSchema(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Session table ready")
			return nil
		},
	})
	return cmd
}
