package dto

import (
	"time"

	"github.com/hongminglow/projectdesk/internal/models"
)

type InviteRequest struct {
	Email      string `json:"email"`
	JobTitle   string `json:"job_title,omitempty"`
	Department string `json:"department,omitempty"`
}

type InviteResponse struct {
	Invite  models.Invite `json:"invite"`
	Message string        `json:"message"`
}

type InviteListResponse struct {
	Invites []models.Invite `json:"invites"`
	Total   int             `json:"total"`
}

// InviteValidation is what an invitee sees before accepting.
type InviteValidation struct {
	Email       string              `json:"email"`
	ProjectName string              `json:"project_name"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Status      models.InviteStatus `json:"status"`
}
