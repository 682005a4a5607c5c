package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// ProjectHandler serves owner onboarding and project lookup.
type ProjectHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewProjectHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *ProjectHandler {
	return &ProjectHandler{store: store, tokens: tokens, logger: logger}
}

func (h *ProjectHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/projects", middleware.RequireAuth(h.tokens, h.handleCreate))
	mux.HandleFunc("GET /api/projects/my-project", middleware.RequireAuth(h.tokens, h.handleMine))
}

func (h *ProjectHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.store.GetUser(r.Context(), id.UserID)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	if user.Role != models.RoleOwner {
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "only owners create projects")
		return
	}
	var req dto.CreateProjectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "name is required")
		return
	}
	project, err := h.store.CreateProject(r.Context(), models.Project{
		Name:        trimmed(req.Name),
		Description: trimmed(req.Description),
		Category:    trimmed(req.Category),
		OwnerID:     user.ID,
		Status:      models.ProjectActive,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "owner already has a project")
			return
		}
		storeError(w, h.logger, "project", err)
		return
	}
	h.logger.Info("project created", zap.String("project_id", project.ID), zap.String("owner_id", user.ID))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: user.ID, ProjectID: project.ID, Action: models.ActionProjectCreated, EntityType: "project", EntityID: project.ID,
	})
	respond.JSON(w, http.StatusCreated, dto.ProjectResponse{Project: project})
}

func (h *ProjectHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, dto.ProjectResponse{Project: c.Project})
}
