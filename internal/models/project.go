package models

import "time"

// MaxEmployeesPerProject caps active memberships under the MVP plan.
const MaxEmployeesPerProject = 10

// Project is the tenant an owner creates and employees join.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	OwnerID     string    `json:"owner_id"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Project statuses. Superadmins disable projects; members of a disabled
// project lose access to it.
const (
	ProjectActive   = "active"
	ProjectDisabled = "disabled"
)

type MembershipStatus string

const (
	MembershipActive   MembershipStatus = "active"
	MembershipInactive MembershipStatus = "inactive"
)

// Membership records an employee's place in a project.
type Membership struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	ProjectID string           `json:"project_id"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	JoinedAt  time.Time        `json:"joined_at"`
}

// Member is a membership joined with its user, as listed on the team screen.
type Member struct {
	User
	MembershipID string    `json:"membership_id,omitempty"`
	IsOwner      bool      `json:"is_owner"`
	JoinedAt     time.Time `json:"joined_at"`
}
