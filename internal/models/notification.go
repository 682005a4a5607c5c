package models

import "time"

type NotificationType string

const (
	NotifyTaskAssigned      NotificationType = "task_assigned"
	NotifyTaskComment       NotificationType = "task_comment"
	NotifyTaskStatusChanged NotificationType = "task_status_changed"
)

// Notification is a message addressed to one user, usually about a task.
type Notification struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	ProjectID  string           `json:"project_id,omitempty"`
	Type       NotificationType `json:"type"`
	Message    string           `json:"message"`
	Read       bool             `json:"read"`
	EntityType string           `json:"entity_type,omitempty"`
	EntityID   string           `json:"entity_id,omitempty"`
	CreatedAt  time.Time        `json:"created_at"`
	ReadAt     *time.Time       `json:"read_at,omitempty"`
}
