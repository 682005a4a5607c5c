package models

import "time"

// Audited actions.
const (
	ActionUserRegistered       = "user_registered"
	ActionUserLogin            = "user_login"
	ActionUserLogout           = "user_logout"
	ActionInviteAccepted       = "invite_accepted"
	ActionInviteCreated        = "invite_created"
	ActionInviteCancelled      = "invite_cancelled"
	ActionInviteResent         = "invite_resent"
	ActionProjectCreated       = "project_created"
	ActionTaskCreated          = "task_created"
	ActionTaskUpdated          = "task_updated"
	ActionTaskDeleted          = "task_deleted"
	ActionTaskAssigned         = "task_assigned"
	ActionTaskStatusChanged    = "task_status_changed"
	ActionMemberDeactivated    = "member_deactivated"
	ActionMemberProfileUpdated = "member_profile_updated"
	ActionUserStatusChanged    = "user_status_changed"
	ActionProjectStatusChanged = "project_status_changed"
)

// AuditLog records who did what to which entity.
type AuditLog struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id,omitempty"`
	ProjectID  string         `json:"project_id,omitempty"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type,omitempty"`
	EntityID   string         `json:"entity_id,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	IPAddress  string         `json:"ip_address,omitempty"`
	UserAgent  string         `json:"user_agent,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}
