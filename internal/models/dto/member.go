package dto

import "github.com/hongminglow/projectdesk/internal/models"

type MemberListResponse struct {
	Members  []models.Member `json:"members"`
	Total    int             `json:"total"`
	Active   int             `json:"active"`
	Inactive int             `json:"inactive"`
}

// ProfileUpdateRequest edits profile fields; nil fields are left unchanged.
type ProfileUpdateRequest struct {
	Name             *string `json:"name,omitempty"`
	JobTitle         *string `json:"job_title,omitempty"`
	Department       *string `json:"department,omitempty"`
	Phone            *string `json:"phone,omitempty"`
	Description      *string `json:"description,omitempty"`
	Responsibilities *string `json:"responsibilities,omitempty"`
	Skills           *string `json:"skills,omitempty"`
	Shift            *string `json:"shift,omitempty"`
	Avatar           *string `json:"avatar,omitempty"`
}

type UserResponse struct {
	User models.User `json:"user"`
}
