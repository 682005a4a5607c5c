package models

import (
	"slices"
	"time"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskBlocked    TaskStatus = "blocked"
	TaskDone       TaskStatus = "done"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskBlocked, TaskDone:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// ChecklistItem is a sub-step of a task, stored inline with it.
type ChecklistItem struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}

// Task is the unit of work inside a project.
type Task struct {
	ID          string          `json:"id"`
	ProjectID   string          `json:"project_id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      TaskStatus      `json:"status"`
	Priority    TaskPriority    `json:"priority"`
	AssignedTo  string          `json:"assigned_to,omitempty"`
	CreatedBy   string          `json:"created_by"`
	DueDate     *time.Time      `json:"due_date,omitempty"`
	StartDate   *time.Time      `json:"start_date,omitempty"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Tags        []string        `json:"tags"`
	Checklist   []ChecklistItem `json:"checklist"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Clone returns a copy that shares no slices with t.
func (t Task) Clone() Task {
	t.Tags = slices.Clone(t.Tags)
	t.Checklist = slices.Clone(t.Checklist)
	return t
}

// TaskStats summarises a project's tasks for the dashboard.
type TaskStats struct {
	Total      int                  `json:"total"`
	ByStatus   map[TaskStatus]int   `json:"by_status"`
	ByPriority map[TaskPriority]int `json:"by_priority"`
	Overdue    int                  `json:"overdue"`
}
