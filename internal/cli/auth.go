package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/session"
)

func (a *App) startSession(cmd *cobra.Command, resp dto.LoginResponse) error {
	s := session.FromLogin(resp, time.Now())
	if err := a.guard.Login(cmd.Context(), s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Signed in as %s (%s)\n", s.User.Email, s.User.Role)
	if s.Project != nil {
		fmt.Fprintf(out, "Project: %s\n", s.Project.Name)
	}
	fmt.Fprintf(out, "Home: %s\n", s.Home())
	return nil
}

func newLoginCommand(app *App) *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with email and password",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.client.Login(cmd.Context(), email, password)
			if err != nil {
				return fmt.Errorf("login failed: %w", err)
			}
			return app.startSession(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "account email")
	cmd.Flags().StringVar(&password, "password", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newRegisterCommand(app *App) *cobra.Command {
	var req dto.RegisterRequest
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create an owner account",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.client.Register(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("register failed: %w", err)
			}
			return app.startSession(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Email, "email", "", "account email")
	cmd.Flags().StringVar(&req.Password, "password", "", "password (8+ characters, one uppercase letter, one digit)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newAcceptInviteCommand(app *App) *cobra.Command {
	var req dto.AcceptInviteRequest
	cmd := &cobra.Command{
		Use:   "accept-invite",
		Short: "Join a project from an invitation token",
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := app.client.AcceptInvite(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("accept invite: %w", err)
			}
			return app.startSession(cmd, resp)
		},
	}
	cmd.Flags().StringVar(&req.Token, "token", "", "invitation token")
	cmd.Flags().StringVar(&req.Name, "name", "", "display name")
	cmd.Flags().StringVar(&req.Password, "password", "", "password")
	_ = cmd.MarkFlagRequired("token")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newLogoutCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		RunE: func(cmd *cobra.Command, args []string) error {
			app.guard.Hydrate(cmd.Context())
			app.guard.Logout(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), "Signed out.")
			return nil
		},
	}
}

type whoami struct {
	User    models.User     `json:"user"`
	Project *models.Project `json:"project,omitempty"`
	Home    string          `json:"home"`
}

func newWhoamiCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in user",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return app.render(out, whoami{User: s.User, Project: s.Project, Home: s.Home()}, func() error {
				w := table(out)
				fmt.Fprintf(w, "User\t%s <%s>\n", s.User.Name, s.User.Email)
				fmt.Fprintf(w, "Role\t%s\n", s.User.Role)
				if s.Project != nil {
					fmt.Fprintf(w, "Project\t%s (%s)\n", s.Project.Name, s.Project.ID)
				}
				fmt.Fprintf(w, "Home\t%s\n", s.Home())
				return w.Flush()
			})
		},
	}
}

func newRouteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "route <path>",
		Short: "Show what the role gate decides for a path",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app.guard.Hydrate(cmd.Context())
			fmt.Fprintln(cmd.OutOrStdout(), app.guard.Decide(args[0]))
			return nil
		},
	}
}
