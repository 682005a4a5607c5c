package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/config"
	"github.com/hongminglow/projectdesk/internal/kv"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/server"
	"github.com/hongminglow/projectdesk/internal/storage"
	"github.com/hongminglow/projectdesk/internal/storage/memory"
)

// terminal is one user's machine: a state store reused across invocations.
type terminal struct {
	t     *testing.T
	api   string
	store kv.Store
}

type result struct {
	code   int
	stdout string
	stderr string
}

func (r result) lastLine() string {
	lines := strings.Split(strings.TrimSpace(r.stdout), "\n")
	return lines[len(lines)-1]
}

func newTerminal(t *testing.T, srv *httptest.Server) *terminal {
	return &terminal{t: t, api: srv.URL + "/api", store: kv.NewMemory()}
}

func (tm *terminal) run(args ...string) result {
	tm.t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		Config: config.ClientConfig{APIURL: tm.api, Timeout: 5 * time.Second},
		Logger: zap.NewNop(),
		Store:  tm.store,
	}
	code := Execute(context.Background(), app, args, &out, &errOut)
	return result{code: code, stdout: out.String(), stderr: errOut.String()}
}

func (tm *terminal) ok(args ...string) result {
	tm.t.Helper()
	r := tm.run(args...)
	require.Equal(tm.t, 0, r.code, "pmctl %s\nstdout: %s\nstderr: %s", strings.Join(args, " "), r.stdout, r.stderr)
	return r
}

func startBackend(t *testing.T) *httptest.Server {
	t.Helper()
	return startBackendWith(t, memory.New())
}

func startBackendWith(t *testing.T, store storage.Store) *httptest.Server {
	t.Helper()
	cfg := config.Config{
		JWTSecret:   "test-secret",
		JWTIssuer:   "projectdesk-test",
		AccessTTL:   15 * time.Minute,
		RefreshTTL:  24 * time.Hour,
		InviteTTL:   time.Hour,
		CORSOrigins: []string{"*"},
	}
	srv := httptest.NewServer(server.Routes(cfg, store, zap.NewNop()))
	t.Cleanup(srv.Close)
	return srv
}

func TestOwnerSessionAcrossInvocations(t *testing.T) {
	owner := newTerminal(t, startBackend(t))

	assert.Equal(t, "redirect /auth/login\n", owner.ok("route", "/app/dashboard").stdout)

	r := owner.ok("register", "--name", "Olivia", "--email", "olivia@example.com", "--password", "Secret123")
	assert.Contains(t, r.stdout, "Signed in as olivia@example.com (owner)")
	assert.Contains(t, r.stdout, "Home: /onboarding")
	assert.Equal(t, "redirect /onboarding\n", owner.ok("route", "/app/dashboard").stdout)

	assert.Contains(t, owner.ok("project", "create", "--name", "Apollo").stdout, "Created project Apollo")
	assert.Equal(t, "allow\n", owner.ok("route", "/app/dashboard").stdout)
	assert.Equal(t, "redirect /app/dashboard\n", owner.ok("route", "/work/my-tasks").stdout)

	r = owner.ok("whoami")
	assert.Contains(t, r.stdout, "Apollo")

	r = owner.ok("tasks", "create", "--title", "Write docs", "--priority", "high", "--item", "Outline", "--due", "2026-12-01")
	assert.Contains(t, r.stdout, "Task created")
	id := r.lastLine()
	require.NotEmpty(t, id)

	assert.Contains(t, owner.ok("tasks", "status", id, "in_progress").stdout, "Status updated")
	assert.Contains(t, owner.ok("tasks", "priority", id, "urgent").stdout, "Priority updated")
	assert.Contains(t, owner.ok("checklist", "add", id, "Review", "draft").stdout, "Item added")
	assert.Contains(t, owner.ok("comments", "add", id, "Looks", "good").stdout, "Comment added")

	r = owner.ok("tasks", "show", id)
	for _, want := range []string{"Write docs", "in_progress", "urgent", "2026-12-01", "Outline", "Review draft", "Olivia: Looks good"} {
		assert.Contains(t, r.stdout, want)
	}
	assert.NotContains(t, r.stdout, "tmp-")

	r = owner.ok("tasks", "list")
	assert.Contains(t, r.stdout, id)

	assert.Contains(t, owner.ok("tasks", "list", "-o", "yaml").stdout, "title: Write docs")
	var shown struct {
		ID       string           `json:"id"`
		Comments []models.Comment `json:"comments"`
	}
	require.NoError(t, json.Unmarshal([]byte(owner.ok("tasks", "show", id, "--output", "json").stdout), &shown))
	assert.Equal(t, id, shown.ID)
	require.Len(t, shown.Comments, 1)
	assert.Equal(t, "Looks good", shown.Comments[0].Text)

	r = owner.run("tasks", "list", "-o", "xml")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "unknown output format")

	r = owner.run("tasks", "status", id, "finished")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid value")

	assert.Contains(t, owner.ok("tasks", "delete", id).stdout, "Task deleted")
	assert.NotContains(t, owner.ok("tasks", "list").stdout, id)

	assert.Equal(t, "Signed out.\n", owner.ok("logout").stdout)
	r = owner.run("whoami")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "not signed in")
}

func TestEmployeeJoinsAndIsRefusedOwnerActions(t *testing.T) {
	srv := startBackend(t)
	owner := newTerminal(t, srv)
	owner.ok("register", "--name", "Olivia", "--email", "olivia@example.com", "--password", "Secret123")
	owner.ok("project", "create", "--name", "Apollo")
	id := owner.ok("tasks", "create", "--title", "Ship it").lastLine()

	r := owner.ok("invites", "send", "eve@example.com", "--job-title", "Engineer")
	fields := strings.Fields(r.stdout)
	require.GreaterOrEqual(t, len(fields), 4)
	token := strings.TrimSuffix(fields[3], ",")
	assert.Contains(t, owner.ok("invites", "check", token).stdout, "eve@example.com is invited to Apollo")
	assert.Contains(t, owner.ok("invites", "list").stdout, "pending")

	employee := newTerminal(t, srv)
	r = employee.ok("accept-invite", "--token", token, "--name", "Eve", "--password", "Secret123")
	assert.Contains(t, r.stdout, "(employee)")
	assert.Contains(t, r.stdout, "Home: /work/my-tasks")
	assert.Equal(t, "redirect /work/my-tasks\n", employee.ok("route", "/app/dashboard").stdout)

	r = employee.run("tasks", "delete", id)
	assert.Equal(t, 1, r.code)
	assert.Equal(t, 1, strings.Count(r.stderr, "error:"), r.stderr)

	members := owner.ok("members", "list").stdout
	assert.Contains(t, members, "eve@example.com")
	assert.Contains(t, members, "2 members")
}

func TestCommandsNeedSession(t *testing.T) {
	anon := newTerminal(t, startBackend(t))
	for _, args := range [][]string{
		{"tasks", "list"},
		{"project", "show"},
		{"members", "list"},
		{"invites", "list"},
	} {
		r := anon.run(args...)
		assert.Equal(t, 1, r.code, args)
		assert.Contains(t, r.stderr, "not signed in", args)
	}
}

func TestLoginFailureShowsServerMessage(t *testing.T) {
	tm := newTerminal(t, startBackend(t))
	r := tm.run("login", "--email", "nobody@example.com", "--password", "Secret123")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "invalid credentials")
}

// joined returns an owner and an employee terminal sharing one project.
func joined(t *testing.T, srv *httptest.Server) (owner, employee *terminal) {
	t.Helper()
	owner = newTerminal(t, srv)
	owner.ok("register", "--name", "Olivia", "--email", "olivia@example.com", "--password", "Secret123")
	owner.ok("project", "create", "--name", "Apollo")
	fields := strings.Fields(owner.ok("invites", "send", "eve@example.com").stdout)
	require.GreaterOrEqual(t, len(fields), 4)
	employee = newTerminal(t, srv)
	employee.ok("accept-invite", "--token", strings.TrimSuffix(fields[3], ","), "--name", "Eve", "--password", "Secret123")
	return owner, employee
}

func (tm *terminal) userID() string {
	tm.t.Helper()
	var me whoami
	require.NoError(tm.t, json.Unmarshal([]byte(tm.ok("whoami", "-o", "json").stdout), &me))
	return me.User.ID
}

func TestProfileEditUpdatesSession(t *testing.T) {
	owner, employee := joined(t, startBackend(t))

	assert.Contains(t, employee.ok("profile", "--name", "Eve Adams", "--shift", "night").stdout, "Profile updated for eve@example.com")
	assert.Contains(t, employee.ok("whoami").stdout, "Eve Adams")

	r := employee.run("profile")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "nothing to change")

	r = employee.run("profile", "--shift", "noon")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "shift must be one of")

	// An owner edit of someone else leaves the owner's own session alone.
	owner.ok("profile", "--user", employee.userID(), "--department", "Platform")
	assert.Contains(t, owner.ok("whoami").stdout, "Olivia <olivia@example.com>")
	assert.Contains(t, owner.ok("members", "list", "-o", "yaml").stdout, "department: Platform")
}

func TestDeactivatedEmployeeIsRoutedToNoProject(t *testing.T) {
	owner, employee := joined(t, startBackend(t))
	assert.Contains(t, employee.ok("project", "show").stdout, "Apollo")

	var members dto.MemberListResponse
	require.NoError(t, json.Unmarshal([]byte(owner.ok("members", "list", "-o", "json").stdout), &members))
	var membershipID string
	for _, m := range members.Members {
		if m.Email == "eve@example.com" {
			membershipID = m.MembershipID
		}
	}
	require.NotEmpty(t, membershipID)
	owner.ok("members", "deactivate", membershipID)

	r := employee.run("project", "show")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "/work/no-project")
	assert.Equal(t, "redirect /work/no-project\n", employee.ok("route", "/work/my-tasks").stdout)
}

func TestNotificationsInbox(t *testing.T) {
	owner, employee := joined(t, startBackend(t))
	owner.ok("tasks", "create", "--title", "Ship it", "--assignee", employee.userID())

	assert.Equal(t, "1\n", employee.ok("notifications", "count").stdout)
	var notes []models.Notification
	require.NoError(t, json.Unmarshal([]byte(employee.ok("notifications", "list", "--unread", "-o", "json").stdout), &notes))
	require.Len(t, notes, 1)
	assert.Equal(t, models.NotifyTaskAssigned, notes[0].Type)

	employee.ok("notifications", "read", notes[0].ID)
	assert.Equal(t, "0\n", employee.ok("notifications", "count").stdout)
	assert.Contains(t, employee.ok("notifications", "read-all").stdout, "Marked 0 read")
	assert.Contains(t, employee.ok("notifications", "delete", notes[0].ID).stdout, "Notification deleted")
	assert.Equal(t, 1, employee.run("notifications", "delete", notes[0].ID).code)
	assert.Equal(t, "0\n", owner.ok("notifications", "count").stdout)
}

func TestAdminDisablesAccount(t *testing.T) {
	store := memory.New()
	require.NoError(t, server.EnsureSuperAdmin(context.Background(), store, "root@example.com", "Secret123", zap.NewNop()))
	srv := startBackendWith(t, store)
	owner, _ := joined(t, srv)

	r := owner.run("admin", "users")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "insufficient permission")

	admin := newTerminal(t, srv)
	assert.Contains(t, admin.ok("login", "--email", "root@example.com", "--password", "Secret123").stdout, "Home: /admin")

	var page dto.UserPage
	require.NoError(t, json.Unmarshal([]byte(admin.ok("admin", "users", "--search", "olivia", "-o", "json").stdout), &page))
	require.Len(t, page.Users, 1)
	assert.Equal(t, 1, page.Pagination.Total)

	assert.Contains(t, admin.ok("admin", "user-status", page.Users[0].ID, "disabled").stdout, "olivia@example.com is now disabled")
	r = owner.run("tasks", "list")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "user disabled")
	r = owner.run("login", "--email", "olivia@example.com", "--password", "Secret123")
	assert.Equal(t, 1, r.code)
	assert.Contains(t, r.stderr, "user disabled")

	stats := admin.ok("admin", "stats").stdout
	assert.Contains(t, stats, "1 active, 1 new in 30 days")
	assert.Contains(t, admin.ok("admin", "logs", "--action", "user_status_changed").stdout, "user_status_changed")
}
