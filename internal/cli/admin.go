package cli

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func newAdminCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Platform administration (superadmins only)",
	}

	var q dto.AdminQuery
	addPaging := func(c *cobra.Command) {
		c.Flags().StringVar(&q.Search, "search", "", "match name or email")
		c.Flags().StringVar(&q.Status, "status", "", "active or disabled")
		c.Flags().IntVar(&q.Page, "page", 1, "page number")
		c.Flags().IntVar(&q.PerPage, "per-page", 20, "rows per page (max 100)")
	}

	users := &cobra.Command{
		Use:   "users",
		Short: "List every account",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			page, err := app.client.AdminUsers(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list users: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, page, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tROLE\tSTATUS")
				for _, u := range page.Users {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role, u.Status)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return printPage(out, page.Pagination)
			})
		},
	}
	addPaging(users)

	projects := &cobra.Command{
		Use:   "projects",
		Short: "List every project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			page, err := app.client.AdminProjects(cmd.Context(), q)
			if err != nil {
				return fmt.Errorf("list projects: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, page, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "ID\tNAME\tOWNER\tSTATUS\tCREATED")
				for _, p := range page.Projects {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.OwnerID, p.Status, p.CreatedAt.Local().Format(time.DateOnly))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return printPage(out, page.Pagination)
			})
		},
	}
	addPaging(projects)

	var aq dto.AuditQuery
	logs := &cobra.Command{
		Use:   "logs",
		Short: "Show the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			page, err := app.client.AuditLogs(cmd.Context(), aq)
			if err != nil {
				return fmt.Errorf("list audit logs: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, page, func() error {
				tw := table(out)
				fmt.Fprintln(tw, "WHEN\tACTION\tUSER\tENTITY\tIP")
				for _, l := range page.Logs {
					entity := "-"
					if l.EntityType != "" {
						entity = l.EntityType + ":" + l.EntityID
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", l.CreatedAt.Local().Format(time.DateTime), l.Action, dash(l.UserID), entity, dash(l.IPAddress))
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				return printPage(out, page.Pagination)
			})
		},
	}
	logs.Flags().StringVar(&aq.UserID, "user", "", "only entries by this user id")
	logs.Flags().StringVar(&aq.Action, "action", "", "only this action, e.g. user_login")
	logs.Flags().IntVar(&aq.Days, "days", 0, "look back this many days (server default 7)")
	logs.Flags().IntVar(&aq.Page, "page", 1, "page number")
	logs.Flags().IntVar(&aq.PerPage, "per-page", 50, "rows per page (max 100)")

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show platform counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			st, err := app.client.PlatformStats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			out := cmd.OutOrStdout()
			return app.render(out, st, func() error {
				tw := table(out)
				fmt.Fprintf(tw, "Users\t%d (%d active, %d new in 30 days)\n", st.Users.Total, st.Users.Active, st.Users.New30d)
				for _, role := range slices.Sorted(maps.Keys(st.Users.ByRole)) {
					fmt.Fprintf(tw, "  %s\t%d\n", role, st.Users.ByRole[role])
				}
				fmt.Fprintf(tw, "Projects\t%d (%d active, %d new in 30 days)\n", st.Projects.Total, st.Projects.Active, st.Projects.New30d)
				fmt.Fprintf(tw, "Tasks\t%d\n", st.Tasks.Total)
				for _, status := range []models.TaskStatus{models.TaskPending, models.TaskInProgress, models.TaskBlocked, models.TaskDone} {
					fmt.Fprintf(tw, "  %s\t%d\n", status, st.Tasks.ByStatus[status])
				}
				fmt.Fprintf(tw, "Memberships\t%d active\n", st.Memberships.Active)
				return tw.Flush()
			})
		},
	}

	userStatus := &cobra.Command{
		Use:   "user-status <user-id> <active|disabled>",
		Short: "Enable or disable an account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			u, err := app.client.SetUserStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("set user status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", u.Email, u.Status)
			return nil
		},
	}
	projectStatus := &cobra.Command{
		Use:   "project-status <project-id> <active|disabled>",
		Short: "Enable or disable a project",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			p, err := app.client.SetProjectStatus(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("set project status: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s is now %s\n", p.Name, p.Status)
			return nil
		},
	}

	cmd.AddCommand(users, projects, logs, stats, userStatus, projectStatus)
	return cmd
}

func printPage(w io.Writer, p dto.Pagination) error {
	_, err := fmt.Fprintf(w, "page %d of %d, %d total\n", p.Page, p.TotalPages, p.Total)
	return err
}
