package models

import "time"

type InviteStatus string

const (
	InvitePending   InviteStatus = "pending"
	InviteAccepted  InviteStatus = "accepted"
	InviteExpired   InviteStatus = "expired"
	InviteCancelled InviteStatus = "cancelled"
)

// MaxInviteResends bounds how many times an owner may resend one invite.
const MaxInviteResends = 3

// Invite asks an email address to join a project as an employee.
type Invite struct {
	ID          string       `json:"id"`
	ProjectID   string       `json:"project_id"`
	Email       string       `json:"email"`
	Token       string       `json:"token"`
	Status      InviteStatus `json:"status"`
	InvitedBy   string       `json:"invited_by"`
	ResendCount int          `json:"resend_count"`
	JobTitle    string       `json:"job_title,omitempty"`
	Department  string       `json:"department,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
	ExpiresAt   time.Time    `json:"expires_at"`
}

// Expired reports whether the invite can no longer be accepted at now.
func (i Invite) Expired(now time.Time) bool {
	return i.Status == InviteExpired || !now.Before(i.ExpiresAt)
}
