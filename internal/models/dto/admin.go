package dto

import "github.com/hongminglow/projectdesk/internal/models"

// Pagination describes one page of an admin listing.
type Pagination struct {
	Total      int  `json:"total"`
	Page       int  `json:"page"`
	PerPage    int  `json:"per_page"`
	TotalPages int  `json:"total_pages"`
	HasNext    bool `json:"has_next"`
	HasPrev    bool `json:"has_prev"`
}

// NewPagination derives page counts from a total.
func NewPagination(total, page, perPage int) Pagination {
	pages := 0
	if perPage > 0 {
		pages = (total + perPage - 1) / perPage
	}
	return Pagination{
		Total:      total,
		Page:       page,
		PerPage:    perPage,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

type UserPage struct {
	Users      []models.User `json:"users"`
	Pagination Pagination    `json:"pagination"`
}

type ProjectPage struct {
	Projects   []models.Project `json:"projects"`
	Pagination Pagination       `json:"pagination"`
}

type AuditPage struct {
	Logs       []models.AuditLog `json:"logs"`
	Pagination Pagination        `json:"pagination"`
}

// AdminStatusRequest sets a user's or project's status to active or disabled.
type AdminStatusRequest struct {
	Status string `json:"status"`
}

// AdminQuery filters the admin user and project listings.
type AdminQuery struct {
	Search  string
	Status  string
	Page    int
	PerPage int
}

// AuditQuery filters the audit log listing. Days defaults to 7 on the server.
type AuditQuery struct {
	UserID  string
	Action  string
	Days    int
	Page    int
	PerPage int
}
