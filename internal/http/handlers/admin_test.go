package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// superadmin stores a superadmin and returns their access token.
func (e *testEnv) superadmin(t *testing.T) (string, models.User) {
	t.Helper()
	user, err := e.store.CreateUser(context.Background(), models.User{
		Email: "root@example.com", Name: "Root", Role: models.RoleSuperAdmin, Status: models.UserActive,
	})
	require.NoError(t, err)
	token, err := e.tokens.Generate(user, "")
	require.NoError(t, err)
	return token, user
}

func TestAdminRoutesRequireSuperAdmin(t *testing.T) {
	e := newTestEnv()
	ownerToken, project := e.owner(t)
	empToken, _ := e.employee(t, project, "eve@example.com")

	for _, token := range []string{ownerToken, empToken} {
		code, env := e.call(t, http.MethodGet, "/api/admin/users", token, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, respond.CodeForbidden, env.Error.Code)
	}
	code, _ := e.call(t, http.MethodGet, "/api/admin/stats", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestAdminListsUsersWithPagination(t *testing.T) {
	e := newTestEnv()
	token, _ := e.superadmin(t)
	_, project := e.owner(t)
	e.employee(t, project, "eve@example.com")
	e.employee(t, project, "evan@example.com")

	code, env := e.call(t, http.MethodGet, "/api/admin/users?search=EV&per_page=1", token, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	page := decodeData[dto.UserPage](t, env)
	require.Len(t, page.Users, 1)
	assert.Equal(t, dto.Pagination{Total: 2, Page: 1, PerPage: 1, TotalPages: 2, HasNext: true}, page.Pagination)

	code, env = e.call(t, http.MethodGet, "/api/admin/projects?status=active", token, nil)
	require.Equal(t, http.StatusOK, code)
	projects := decodeData[dto.ProjectPage](t, env)
	require.Len(t, projects.Projects, 1)
	assert.Equal(t, "Apollo", projects.Projects[0].Name)
}

func TestDisabledUserIsLockedOut(t *testing.T) {
	e := newTestEnv()
	adminToken, admin := e.superadmin(t)
	ownerToken, _ := e.owner(t)
	owner, err := e.store.FindByEmail(context.Background(), "olivia@example.com")
	require.NoError(t, err)

	code, env := e.call(t, http.MethodPatch, "/api/admin/users/"+owner.ID+"/status", adminToken, dto.AdminStatusRequest{Status: "paused"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, respond.CodeValidation, env.Error.Code)

	code, env = e.call(t, http.MethodPatch, "/api/admin/users/"+owner.ID+"/status", adminToken, dto.AdminStatusRequest{Status: "disabled"})
	require.Equal(t, http.StatusOK, code, env.Error)
	assert.Equal(t, models.UserDisabled, decodeData[dto.UserResponse](t, env).User.Status)

	code, env = e.call(t, http.MethodGet, "/api/tasks", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, respond.CodeUserDisabled, env.Error.Code)
	code, env = e.call(t, http.MethodPost, "/api/auth/login", "", dto.LoginRequest{Email: "olivia@example.com", Password: "Secret123"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, respond.CodeUserDisabled, env.Error.Code)

	code, env = e.call(t, http.MethodPatch, "/api/admin/users/"+admin.ID+"/status", adminToken, dto.AdminStatusRequest{Status: "disabled"})
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, respond.CodeInvalidOp, env.Error.Code)

	logs, _, err := e.store.ListAuditLogs(context.Background(), storage.AuditFilter{Action: models.ActionUserStatusChanged})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, admin.ID, logs[0].UserID)
	assert.Equal(t, owner.ID, logs[0].EntityID)
}

func TestDisabledProjectBlocksMembers(t *testing.T) {
	e := newTestEnv()
	adminToken, _ := e.superadmin(t)
	ownerToken, project := e.owner(t)
	empToken, _ := e.employee(t, project, "eve@example.com")

	code, env := e.call(t, http.MethodPatch, "/api/admin/projects/"+project.ID+"/status", adminToken, dto.AdminStatusRequest{Status: "disabled"})
	require.Equal(t, http.StatusOK, code, env.Error)

	for _, token := range []string{ownerToken, empToken} {
		code, env = e.call(t, http.MethodGet, "/api/projects/my-project", token, nil)
		assert.Equal(t, http.StatusForbidden, code)
		assert.Equal(t, respond.CodeDisabled, env.Error.Code)
	}

	code, _ = e.call(t, http.MethodPatch, "/api/admin/projects/missing/status", adminToken, dto.AdminStatusRequest{Status: "active"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuditTrail(t *testing.T) {
	e := newTestEnv()
	adminToken, _ := e.superadmin(t)
	ownerToken, project := e.owner(t)
	task := e.task(t, ownerToken, dto.CreateTaskRequest{Title: "Draft"})
	code, _ := e.call(t, http.MethodDelete, "/api/tasks/"+task.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, code)
	code, _ = e.call(t, http.MethodPost, "/api/auth/logout", ownerToken, nil)
	require.Equal(t, http.StatusOK, code)

	code, env := e.call(t, http.MethodGet, "/api/admin/audit-logs", adminToken, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	page := decodeData[dto.AuditPage](t, env)
	var actions []string
	for _, l := range page.Logs {
		actions = append(actions, l.Action)
	}
	assert.Equal(t, []string{
		models.ActionUserLogout,
		models.ActionTaskDeleted,
		models.ActionTaskCreated,
		models.ActionProjectCreated,
		models.ActionUserRegistered,
	}, actions)
	assert.Equal(t, project.ID, page.Logs[0].ProjectID)
	assert.Equal(t, "192.0.2.1", page.Logs[0].IPAddress)

	code, env = e.call(t, http.MethodGet, "/api/admin/audit-logs?action=task", adminToken, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2, decodeData[dto.AuditPage](t, env).Pagination.Total)

	code, _ = e.call(t, http.MethodGet, "/api/admin/audit-logs?days=-1", adminToken, nil)
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestPlatformStats(t *testing.T) {
	e := newTestEnv()
	adminToken, _ := e.superadmin(t)
	ownerToken, project := e.owner(t)
	e.employee(t, project, "eve@example.com")
	e.task(t, ownerToken, dto.CreateTaskRequest{Title: "Draft"})

	code, env := e.call(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, code, env.Error)
	stats := decodeData[models.PlatformStats](t, env)
	assert.Equal(t, 3, stats.Users.Total)
	assert.Equal(t, map[string]int{"OWNER": 1, "EMPLOYEE": 1, "SUPERADMIN": 1}, stats.Users.ByRole)
	assert.Equal(t, 3, stats.Users.New30d)
	assert.Equal(t, 1, stats.Projects.Active)
	assert.Equal(t, 1, stats.Tasks.ByStatus[models.TaskPending])
	assert.Equal(t, 1, stats.Memberships.Active)
}
