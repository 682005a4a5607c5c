package apiclient

import (
	"context"
	"net/http"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

// CreateProject completes owner onboarding.
func (c *Client) CreateProject(ctx context.Context, req dto.CreateProjectRequest) (models.Project, error) {
	var out dto.ProjectResponse
	err := c.do(ctx, http.MethodPost, "/projects", req, &out)
	return out.Project, err
}

func (c *Client) MyProject(ctx context.Context) (models.Project, error) {
	var out dto.ProjectResponse
	err := c.do(ctx, http.MethodGet, "/projects/my-project", nil, &out)
	return out.Project, err
}
