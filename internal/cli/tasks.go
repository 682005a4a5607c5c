package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/workspace"
)

// board loads the task list the signed-in user may see. Employees only get
// their own assignments.
func (a *App) board(ctx context.Context, q apiclient.TaskQuery) (*workspace.TaskBoard, error) {
	s, err := a.signedIn(ctx)
	if err != nil {
		return nil, err
	}
	b := workspace.NewTaskBoard(a.client, a.co, s.User.Role != models.RoleOwner)
	if err := b.Load(ctx, q); err != nil {
		return nil, err
	}
	return b, nil
}

func (a *App) detail(ctx context.Context, id string) (*workspace.TaskDetail, error) {
	s, err := a.signedIn(ctx)
	if err != nil {
		return nil, err
	}
	d := workspace.NewTaskDetail(a.client, a.co, id, s.User)
	if err := d.Load(ctx); err != nil {
		return nil, err
	}
	return d, nil
}

type taskView struct {
	models.Task
	Comments []models.Comment `json:"comments"`
}

func parseDay(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, fmt.Errorf("dates use YYYY-MM-DD: %w", err)
	}
	return &t, nil
}

func newTasksCommand(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "List and edit tasks",
	}
	cmd.AddCommand(
		newTasksListCommand(app),
		newTasksShowCommand(app),
		newTasksCreateCommand(app),
		newTasksStatusCommand(app),
		newTasksPriorityCommand(app),
		newTasksAssignCommand(app),
		newTasksDeleteCommand(app),
	)
	return cmd
}

func newTasksListCommand(app *App) *cobra.Command {
	var status, assignee string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.board(cmd.Context(), apiclient.TaskQuery{Status: models.TaskStatus(status), AssignedTo: assignee})
			if err != nil {
				return err
			}
			defer b.Close()
			out, tasks := cmd.OutOrStdout(), b.Tasks()
			return app.render(out, tasks, func() error { return printTasks(out, tasks) })
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "only tasks with this status")
	cmd.Flags().StringVar(&assignee, "assignee", "", "only tasks assigned to this user id")
	return cmd
}

func newTasksShowCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <task-id>",
		Short: "Show a task with its checklist and comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			t, _ := d.Task()
			out, comments := cmd.OutOrStdout(), d.Comments()
			return app.render(out, taskView{Task: t, Comments: comments}, func() error { return printTask(out, t, comments) })
		},
	}
}

func newTasksCreateCommand(app *App) *cobra.Command {
	var (
		req       dto.CreateTaskRequest
		priority  string
		due       string
		checklist []string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			var err error
			if req.DueDate, err = parseDay(due); err != nil {
				return err
			}
			req.Priority = models.TaskPriority(priority)
			for _, text := range checklist {
				req.Checklist = append(req.Checklist, models.ChecklistItem{Text: text})
			}
			b, err := app.board(cmd.Context(), apiclient.TaskQuery{})
			if err != nil {
				return err
			}
			defer b.Close()
			t, err := b.Create(cmd.Context(), req)
			if err != nil {
				return reported(err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Title, "title", "", "task title")
	cmd.Flags().StringVar(&req.Description, "description", "", "task description")
	cmd.Flags().StringVar(&priority, "priority", string(models.PriorityMedium), "low, medium, high or urgent")
	cmd.Flags().StringVar(&req.AssignedTo, "assignee", "", "user id to assign")
	cmd.Flags().StringVar(&due, "due", "", "due date (YYYY-MM-DD)")
	cmd.Flags().StringSliceVar(&req.Tags, "tag", nil, "tag, may repeat")
	cmd.Flags().StringArrayVar(&checklist, "item", nil, "checklist item, may repeat")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status <task-id> <pending|in_progress|blocked|done>",
		Short: "Change a task's status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.ChangeStatus(cmd.Context(), models.TaskStatus(args[1])))
		},
	}
}

func newTasksPriorityCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "priority <task-id> <low|medium|high|urgent>",
		Short: "Change a task's priority",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := app.detail(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			defer d.Close()
			return reported(d.ChangePriority(cmd.Context(), models.TaskPriority(args[1])))
		},
	}
}

func newTasksAssignCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <task-id> [user-id]",
		Short: "Assign a task, or unassign it when no user is given",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.board(cmd.Context(), apiclient.TaskQuery{})
			if err != nil {
				return err
			}
			defer b.Close()
			user := ""
			if len(args) == 2 {
				user = args[1]
			}
			return reported(b.Assign(cmd.Context(), args[0], user))
		},
	}
}

func newTasksDeleteCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <task-id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := app.board(cmd.Context(), apiclient.TaskQuery{})
			if err != nil {
				return err
			}
			defer b.Close()
			return reported(b.Delete(cmd.Context(), args[0]))
		},
	}
}
