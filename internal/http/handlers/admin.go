package handlers

import (
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// AdminHandler serves the superadmin console: platform-wide listings,
// account and project status, statistics and the audit trail.
type AdminHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewAdminHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{store: store, tokens: tokens, logger: logger, now: time.Now}
}

func (h *AdminHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc { return middleware.RequireAuth(h.tokens, fn) }
	mux.HandleFunc("GET /api/admin/users", protect(h.handleUsers))
	mux.HandleFunc("GET /api/admin/projects", protect(h.handleProjects))
	mux.HandleFunc("GET /api/admin/audit-logs", protect(h.handleAuditLogs))
	mux.HandleFunc("GET /api/admin/stats", protect(h.handleStats))
	mux.HandleFunc("PATCH /api/admin/users/{id}/status", protect(h.handleUserStatus))
	mux.HandleFunc("PATCH /api/admin/projects/{id}/status", protect(h.handleProjectStatus))
}

// listOptions reads page, per_page, search and status from the query.
func listOptions(r *http.Request, perPage int) storage.ListOptions {
	q := r.URL.Query()
	opts := storage.ListOptions{Search: trimmed(q.Get("search")), Status: trimmed(q.Get("status"))}
	opts.Page, _ = strconv.Atoi(q.Get("page"))
	opts.PerPage, _ = strconv.Atoi(q.Get("per_page"))
	return opts.Normalize(perPage)
}

func (h *AdminHandler) handleUsers(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSuperAdmin(w, r, h.store, h.logger); !ok {
		return
	}
	opts := listOptions(r, 20)
	users, total, err := h.store.ListUsers(r.Context(), opts)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	respond.JSON(w, http.StatusOK, dto.UserPage{Users: users, Pagination: dto.NewPagination(total, opts.Page, opts.PerPage)})
}

func (h *AdminHandler) handleProjects(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSuperAdmin(w, r, h.store, h.logger); !ok {
		return
	}
	opts := listOptions(r, 20)
	projects, total, err := h.store.ListProjects(r.Context(), opts)
	if err != nil {
		storeError(w, h.logger, "project", err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	respond.JSON(w, http.StatusOK, dto.ProjectPage{Projects: projects, Pagination: dto.NewPagination(total, opts.Page, opts.PerPage)})
}

// handleAuditLogs lists entries from the last days (default 7; 0 for all).
func (h *AdminHandler) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSuperAdmin(w, r, h.store, h.logger); !ok {
		return
	}
	q := r.URL.Query()
	days := 7
	if raw := q.Get("days"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "days must be a non-negative integer")
			return
		}
		days = n
	}
	filter := storage.AuditFilter{UserID: trimmed(q.Get("user_id")), Action: trimmed(q.Get("action")), ListOptions: listOptions(r, 50)}
	if days > 0 {
		filter.Since = h.now().UTC().AddDate(0, 0, -days)
	}
	logs, total, err := h.store.ListAuditLogs(r.Context(), filter)
	if err != nil {
		storeError(w, h.logger, "audit log", err)
		return
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}
	respond.JSON(w, http.StatusOK, dto.AuditPage{Logs: logs, Pagination: dto.NewPagination(total, filter.Page, filter.PerPage)})
}

func (h *AdminHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	if _, ok := requireSuperAdmin(w, r, h.store, h.logger); !ok {
		return
	}
	stats, err := h.store.PlatformStats(r.Context(), h.now().UTC().AddDate(0, 0, -30))
	if err != nil {
		storeError(w, h.logger, "stats", err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

// decodeStatus reads {"status": "active"|"disabled"}.
func decodeStatus(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req dto.AdminStatusRequest
	if !decodeJSON(w, r, &req) {
		return "", false
	}
	switch req.Status {
	case "":
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "status is required")
		return "", false
	case string(models.UserActive), string(models.UserDisabled):
		return req.Status, true
	}
	respond.Error(w, http.StatusBadRequest, respond.CodeValidation, `status must be "active" or "disabled"`)
	return "", false
}

func (h *AdminHandler) handleUserStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireSuperAdmin(w, r, h.store, h.logger)
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	user, err := h.store.GetUser(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	if user.Role == models.RoleSuperAdmin && status == string(models.UserDisabled) {
		respond.Error(w, http.StatusBadRequest, respond.CodeInvalidOp, "superadmins cannot be disabled")
		return
	}
	prev := user.Status
	user.Status = models.UserStatus(status)
	user.UpdatedAt = h.now().UTC()
	updated, err := h.store.UpdateUser(r.Context(), user)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	h.logger.Info("user status changed", zap.String("user_id", user.ID), zap.String("status", status))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: admin.ID, Action: models.ActionUserStatusChanged, EntityType: "user", EntityID: user.ID,
		Details: map[string]any{"from": prev, "to": status},
	})
	respond.JSON(w, http.StatusOK, dto.UserResponse{User: updated})
}

func (h *AdminHandler) handleProjectStatus(w http.ResponseWriter, r *http.Request) {
	admin, ok := requireSuperAdmin(w, r, h.store, h.logger)
	if !ok {
		return
	}
	status, ok := decodeStatus(w, r)
	if !ok {
		return
	}
	project, err := h.store.UpdateProjectStatus(r.Context(), r.PathValue("id"), status)
	if err != nil {
		storeError(w, h.logger, "project", err)
		return
	}
	h.logger.Info("project status changed", zap.String("project_id", project.ID), zap.String("status", status))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: admin.ID, ProjectID: project.ID, Action: models.ActionProjectStatusChanged, EntityType: "project", EntityID: project.ID,
		Details: map[string]any{"to": status},
	})
	respond.JSON(w, http.StatusOK, dto.ProjectResponse{Project: project})
}
