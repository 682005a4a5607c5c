package workspace

import (
	"context"
	"fmt"
	"time"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/optimistic"
)

// TaskBoard is the task list: owners see the project, employees their own
// assignments. Field edits are optimistic; creating and deleting wait for
// the server because they move rows around.
type TaskBoard struct {
	api   TaskAPI
	co    *optimistic.Coordinator
	tasks *optimistic.Collection[models.Task]
	mine  bool
	now   func() time.Time
}

// NewTaskBoard builds an empty board. With mine set it lists the caller's
// assigned tasks instead of the whole project.
func NewTaskBoard(api TaskAPI, co *optimistic.Coordinator, mine bool) *TaskBoard {
	return &TaskBoard{api: api, co: co, tasks: newTasks(), mine: mine, now: time.Now}
}

// Load replaces the board contents.
func (b *TaskBoard) Load(ctx context.Context, q apiclient.TaskQuery) error {
	var (
		tasks []models.Task
		err   error
	)
	if b.mine {
		tasks, err = b.api.MyTasks(ctx)
	} else {
		tasks, err = b.api.ListTasks(ctx, q)
	}
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	b.tasks.Reset(tasks)
	return nil
}

func (b *TaskBoard) Tasks() []models.Task {
	return b.tasks.Items()
}

func (b *TaskBoard) Task(id string) (models.Task, bool) {
	return b.tasks.Get(id)
}

func (b *TaskBoard) ChangeStatus(ctx context.Context, id string, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	return optimistic.Update(ctx, b.co, b.tasks, id, statusMutation(b.api, id, status, b.now))
}

func (b *TaskBoard) ChangePriority(ctx context.Context, id string, priority models.TaskPriority) error {
	if !priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalid, priority)
	}
	return optimistic.Update(ctx, b.co, b.tasks, id, priorityMutation(b.api, id, priority, b.now))
}

// Assign sets the assignee; an empty userID unassigns.
func (b *TaskBoard) Assign(ctx context.Context, id, userID string) error {
	return optimistic.Update(ctx, b.co, b.tasks, id, optimistic.Mutation[models.Task]{
		Field: "assigned_to",
		Apply: func(t *models.Task) {
			t.AssignedTo = userID
			t.UpdatedAt = b.now().UTC()
		},
		Revert: func(dst *models.Task, prev models.Task) {
			dst.AssignedTo = prev.AssignedTo
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send: func(ctx context.Context) (*models.Task, error) {
			return canonical(b.api.AssignTask(ctx, id, userID))
		},
		Success: "Task assigned",
	})
}

// Create adds the task once the server has stored it.
func (b *TaskBoard) Create(ctx context.Context, req dto.CreateTaskRequest) (models.Task, error) {
	var created models.Task
	err := optimistic.Confirmed(ctx, b.co, b.tasks,
		func(ctx context.Context) error {
			var err error
			created, err = b.api.CreateTask(ctx, req)
			return err
		},
		func(items []models.Task) []models.Task { return optimistic.Upsert(b.tasks, created)(items) },
		"Task created")
	return created, err
}

// Delete removes the task once the server confirms.
func (b *TaskBoard) Delete(ctx context.Context, id string) error {
	return optimistic.Confirmed(ctx, b.co, b.tasks,
		func(ctx context.Context) error { return b.api.DeleteTask(ctx, id) },
		optimistic.Remove(b.tasks, id),
		"Task deleted")
}

// Close drops responses still in flight.
func (b *TaskBoard) Close() {
	b.tasks.Close()
}
