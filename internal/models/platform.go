package models

// PlatformStats summarizes the whole installation for superadmins.
type PlatformStats struct {
	Users       UserCounts       `json:"users"`
	Projects    ProjectCounts    `json:"projects"`
	Tasks       TaskCounts       `json:"tasks"`
	Memberships MembershipCounts `json:"memberships"`
}

type UserCounts struct {
	Total    int            `json:"total"`
	Active   int            `json:"active"`
	Inactive int            `json:"inactive"`
	ByRole   map[string]int `json:"by_role"`
	New30d   int            `json:"new_last_30_days"`
}

type ProjectCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
	New30d   int `json:"new_last_30_days"`
}

type TaskCounts struct {
	Total    int                `json:"total"`
	ByStatus map[TaskStatus]int `json:"by_status"`
	New30d   int                `json:"new_last_30_days"`
}

type MembershipCounts struct {
	Total    int `json:"total"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}
