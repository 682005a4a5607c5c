package dto

import "github.com/hongminglow/projectdesk/internal/models"

type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type ProjectResponse struct {
	Project models.Project `json:"project"`
}
