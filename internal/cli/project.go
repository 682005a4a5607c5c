package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/session"
)

func newProjectCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Create or show your project",
	}

	var req dto.CreateProjectRequest
	create := &cobra.Command{
		Use:   "create",
		Short: "Create the project you own (onboarding)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.signedIn(cmd.Context()); err != nil {
				return err
			}
			p, err := app.client.CreateProject(cmd.Context(), req)
			if err != nil {
				return fmt.Errorf("create project: %w", err)
			}
			if err := app.guard.UpdateProject(cmd.Context(), p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created project %s (%s)\n", p.Name, p.ID)
			return nil
		},
	}
	create.Flags().StringVar(&req.Name, "name", "", "project name")
	create.Flags().StringVar(&req.Description, "description", "", "project description")
	create.Flags().StringVar(&req.Category, "category", "", "project category")
	_ = create.MarkFlagRequired("name")

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the project you work in",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := app.signedIn(cmd.Context())
			if err != nil {
				return err
			}
			p, err := app.client.MyProject(cmd.Context())
			if err != nil {
				if s.User.Role == models.RoleEmployee && noProject(err) {
					if uerr := app.guard.UpdateMembership(cmd.Context(), nil); uerr != nil {
						return uerr
					}
					return fmt.Errorf("you are not on a project anymore (home is now %s)", session.PathNoProject)
				}
				return fmt.Errorf("load project: %w", err)
			}
			if err := app.reconcile(cmd.Context(), *s, p); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			return app.render(out, p, func() error {
				tw := table(out)
				fmt.Fprintf(tw, "ID\t%s\n", p.ID)
				fmt.Fprintf(tw, "Name\t%s\n", p.Name)
				fmt.Fprintf(tw, "Category\t%s\n", dash(p.Category))
				fmt.Fprintf(tw, "Description\t%s\n", dash(p.Description))
				return tw.Flush()
			})
		},
	}

	cmd.AddCommand(create, show)
	return cmd
}

// noProject reports the server refusing an employee who has no active
// membership.
func noProject(err error) bool {
	var apiErr *apiclient.Error
	return errors.As(err, &apiErr) && apiErr.Kind == apiclient.KindAuthorization && apiErr.Code == "FORBIDDEN"
}

// reconcile brings the stored session in line with the project the server
// reports, so an employee moved to a new project routes correctly.
func (a *App) reconcile(ctx context.Context, s session.Session, p models.Project) error {
	if s.Project == nil || s.Project.ID != p.ID || !s.Project.UpdatedAt.Equal(p.UpdatedAt) {
		if err := a.guard.UpdateProject(ctx, p); err != nil {
			return err
		}
	}
	if s.Membership == nil || s.Membership.ProjectID != p.ID {
		return a.guard.UpdateMembership(ctx, session.DeriveMembership(s.User, p, time.Now()))
	}
	return nil
}
