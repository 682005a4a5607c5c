// Package workspace holds the state behind the task screens. Each
// container owns its records and routes every edit through the optimistic
// coordinator.
package workspace

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/optimistic"
)

var (
	// ErrNotFound means the task itself does not exist or is not visible;
	// screens show a not-found state instead of retrying.
	ErrNotFound = errors.New("workspace: task not found")
	ErrEmpty    = errors.New("workspace: text is required")
	ErrInvalid  = errors.New("workspace: invalid value")
)

// TaskAPI is the task half of the REST client.
type TaskAPI interface {
	ListTasks(ctx context.Context, q apiclient.TaskQuery) ([]models.Task, error)
	MyTasks(ctx context.Context) ([]models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	CreateTask(ctx context.Context, req dto.CreateTaskRequest) (models.Task, error)
	UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
	UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error)
	AssignTask(ctx context.Context, id, userID string) (models.Task, error)
}

// CommentAPI is the comment half of the REST client.
type CommentAPI interface {
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, taskID, content string) (models.Comment, error)
	UpdateComment(ctx context.Context, taskID, commentID, content string) (models.Comment, error)
	DeleteComment(ctx context.Context, taskID, commentID string) error
}

type API interface {
	TaskAPI
	CommentAPI
}

var _ API = (*apiclient.Client)(nil)

func newTasks() *optimistic.Collection[models.Task] {
	return optimistic.NewCollection(func(t models.Task) string { return t.ID }, models.Task.Clone)
}

func newComments() *optimistic.Collection[models.Comment] {
	return optimistic.NewCollection(func(c models.Comment) string { return c.ID }, nil)
}

func canonical[T any](v T, err error) (*T, error) {
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// The mutations below touch one task field plus its modification time and
// roll back exactly those.

func statusMutation(api TaskAPI, id string, status models.TaskStatus, now func() time.Time) optimistic.Mutation[models.Task] {
	return optimistic.Mutation[models.Task]{
		Field: "status",
		Apply: func(t *models.Task) {
			t.Status = status
			t.UpdatedAt = now().UTC()
		},
		Revert: func(dst *models.Task, prev models.Task) {
			dst.Status = prev.Status
			dst.CompletedAt = prev.CompletedAt
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send: func(ctx context.Context) (*models.Task, error) {
			return canonical(api.UpdateTaskStatus(ctx, id, status))
		},
		Success: "Status updated",
	}
}

func priorityMutation(api TaskAPI, id string, priority models.TaskPriority, now func() time.Time) optimistic.Mutation[models.Task] {
	return optimistic.Mutation[models.Task]{
		Field: "priority",
		Apply: func(t *models.Task) {
			t.Priority = priority
			t.UpdatedAt = now().UTC()
		},
		Revert: func(dst *models.Task, prev models.Task) {
			dst.Priority = prev.Priority
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send: func(ctx context.Context) (*models.Task, error) {
			return canonical(api.UpdateTask(ctx, id, dto.UpdateTaskRequest{Priority: &priority}))
		},
		Success: "Priority updated",
	}
}
