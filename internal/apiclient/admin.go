package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

// query encodes the non-zero values of pairs as a query string.
func query(path string, pairs ...string) string {
	v := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] != "" && pairs[i+1] != "0" {
			v.Set(pairs[i], pairs[i+1])
		}
	}
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}

func adminPairs(q dto.AdminQuery) []string {
	return []string{"search", q.Search, "status", q.Status, "page", strconv.Itoa(q.Page), "per_page", strconv.Itoa(q.PerPage)}
}

func (c *Client) AdminUsers(ctx context.Context, q dto.AdminQuery) (dto.UserPage, error) {
	var out dto.UserPage
	err := c.do(ctx, http.MethodGet, query("/admin/users", adminPairs(q)...), nil, &out)
	return out, err
}

func (c *Client) AdminProjects(ctx context.Context, q dto.AdminQuery) (dto.ProjectPage, error) {
	var out dto.ProjectPage
	err := c.do(ctx, http.MethodGet, query("/admin/projects", adminPairs(q)...), nil, &out)
	return out, err
}

// AuditLogs lists audit entries. A zero Days uses the server default.
func (c *Client) AuditLogs(ctx context.Context, q dto.AuditQuery) (dto.AuditPage, error) {
	var out dto.AuditPage
	path := query("/admin/audit-logs", "user_id", q.UserID, "action", q.Action, "days", strconv.Itoa(q.Days),
		"page", strconv.Itoa(q.Page), "per_page", strconv.Itoa(q.PerPage))
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

func (c *Client) PlatformStats(ctx context.Context) (models.PlatformStats, error) {
	var out models.PlatformStats
	err := c.do(ctx, http.MethodGet, "/admin/stats", nil, &out)
	return out, err
}

func (c *Client) SetUserStatus(ctx context.Context, userID, status string) (models.User, error) {
	var out dto.UserResponse
	err := c.do(ctx, http.MethodPatch, "/admin/users/"+url.PathEscape(userID)+"/status", dto.AdminStatusRequest{Status: status}, &out)
	return out.User, err
}

func (c *Client) SetProjectStatus(ctx context.Context, projectID, status string) (models.Project, error) {
	var out dto.ProjectResponse
	err := c.do(ctx, http.MethodPatch, "/admin/projects/"+url.PathEscape(projectID)+"/status", dto.AdminStatusRequest{Status: status}, &out)
	return out.Project, err
}
