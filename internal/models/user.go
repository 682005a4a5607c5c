package models

import "time"

// User captures application-facing fields for an authenticated identity.
type User struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	Name             string     `json:"name"`
	Role             Role       `json:"role"`
	Status           UserStatus `json:"status"`
	Avatar           string     `json:"avatar,omitempty"`
	JobTitle         string     `json:"job_title,omitempty"`
	Department       string     `json:"department,omitempty"`
	Phone            string     `json:"phone,omitempty"`
	Description      string     `json:"description,omitempty"`
	Responsibilities string     `json:"responsibilities,omitempty"`
	Skills           string     `json:"skills,omitempty"`
	Shift            string     `json:"shift,omitempty"`
	PasswordHash     string     `json:"-"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// Active reports whether the user may sign in.
func (u User) Active() bool {
	return u.Status == UserActive
}

// Shifts accepted on a profile.
var Shifts = []string{"morning", "afternoon", "night", "flexible"}
