package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

// TaskQuery filters ListTasks. Empty fields are not sent.
type TaskQuery struct {
	Status     models.TaskStatus
	AssignedTo string
}

func taskPath(id string) string {
	return "/tasks/" + url.PathEscape(id)
}

func (c *Client) ListTasks(ctx context.Context, q TaskQuery) ([]models.Task, error) {
	v := url.Values{}
	if q.Status != "" {
		v.Set("status", string(q.Status))
	}
	if q.AssignedTo != "" {
		v.Set("assigned_to", q.AssignedTo)
	}
	path := "/tasks"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out dto.TaskListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Tasks, err
}

// MyTasks lists the tasks assigned to the caller.
func (c *Client) MyTasks(ctx context.Context) ([]models.Task, error) {
	var out []models.Task
	err := c.do(ctx, http.MethodGet, "/tasks/my-tasks", nil, &out)
	return out, err
}

func (c *Client) TaskStats(ctx context.Context) (models.TaskStats, error) {
	var out dto.StatsResponse
	err := c.do(ctx, http.MethodGet, "/tasks/stats", nil, &out)
	return out.Stats, err
}

func (c *Client) GetTask(ctx context.Context, id string) (models.Task, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodGet, taskPath(id), nil, &out)
	return out.Task, err
}

func (c *Client) CreateTask(ctx context.Context, req dto.CreateTaskRequest) (models.Task, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPost, "/tasks", req, &out)
	return out.Task, err
}

func (c *Client) UpdateTask(ctx context.Context, id string, req dto.UpdateTaskRequest) (models.Task, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id), req, &out)
	return out.Task, err
}

func (c *Client) DeleteTask(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, taskPath(id), nil, nil)
}

// UpdateTaskStatus uses the dedicated status endpoint, which assignees may
// call as well as owners.
func (c *Client) UpdateTaskStatus(ctx context.Context, id string, status models.TaskStatus) (models.Task, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id)+"/status", dto.StatusRequest{Status: status}, &out)
	return out.Task, err
}

// AssignTask sets the assignee; an empty userID unassigns.
func (c *Client) AssignTask(ctx context.Context, id, userID string) (models.Task, error) {
	var out dto.TaskResponse
	err := c.do(ctx, http.MethodPatch, taskPath(id)+"/assign", dto.AssignRequest{AssignedTo: userID}, &out)
	return out.Task, err
}
