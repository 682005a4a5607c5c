package dto

import (
	"time"

	"github.com/hongminglow/projectdesk/internal/models"
)

type CreateTaskRequest struct {
	Title       string                 `json:"title"`
	Description string                 `json:"description"`
	Priority    models.TaskPriority    `json:"priority"`
	AssignedTo  string                 `json:"assigned_to,omitempty"`
	DueDate     *time.Time             `json:"due_date,omitempty"`
	StartDate   *time.Time             `json:"start_date,omitempty"`
	Tags        []string               `json:"tags,omitempty"`
	Checklist   []models.ChecklistItem `json:"checklist,omitempty"`
}

// UpdateTaskRequest is a partial update; nil fields are left untouched.
type UpdateTaskRequest struct {
	Title       *string                 `json:"title,omitempty"`
	Description *string                 `json:"description,omitempty"`
	Priority    *models.TaskPriority    `json:"priority,omitempty"`
	DueDate     *time.Time              `json:"due_date,omitempty"`
	StartDate   *time.Time              `json:"start_date,omitempty"`
	Tags        *[]string               `json:"tags,omitempty"`
	Checklist   *[]models.ChecklistItem `json:"checklist,omitempty"`
}

type StatusRequest struct {
	Status models.TaskStatus `json:"status"`
}

type AssignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

type TaskResponse struct {
	Task models.Task `json:"task"`
}

type TaskListResponse struct {
	Tasks []models.Task `json:"tasks"`
	Total int           `json:"total"`
}

type StatsResponse struct {
	Stats models.TaskStats `json:"stats"`
}
