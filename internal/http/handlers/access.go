package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// caller is the authenticated user together with the project they act in.
type caller struct {
	User    models.User
	Project models.Project
}

func (c caller) isOwner() bool {
	return c.User.Role == models.RoleOwner && c.Project.OwnerID == c.User.ID
}

var errNoProject = errors.New("no project")

// projectFor resolves the single project an owner or employee belongs to.
// Project ids embedded in tokens are not trusted since an owner's token may
// predate onboarding.
func projectFor(ctx context.Context, store storage.Store, user models.User) (models.Project, error) {
	switch user.Role {
	case models.RoleOwner:
		p, err := store.ProjectByOwner(ctx, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Project{}, errNoProject
		}
		return p, err
	case models.RoleEmployee:
		m, err := store.ActiveMembership(ctx, user.ID)
		if errors.Is(err, storage.ErrNotFound) {
			return models.Project{}, errNoProject
		}
		if err != nil {
			return models.Project{}, err
		}
		return store.GetProject(ctx, m.ProjectID)
	}
	return models.Project{}, errNoProject
}

// resolveUser loads the active user behind the request, writing the error
// response itself when it returns false.
func resolveUser(w http.ResponseWriter, r *http.Request, store storage.Store, logger *zap.Logger) (models.User, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "missing identity")
		return models.User{}, false
	}
	user, err := store.GetUser(r.Context(), id.UserID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "unknown user")
			return models.User{}, false
		}
		storeError(w, logger, "user", err)
		return models.User{}, false
	}
	if !user.Active() {
		respond.Error(w, http.StatusForbidden, respond.CodeUserDisabled, "user disabled")
		return models.User{}, false
	}
	return user, true
}

// resolveCaller loads the caller and their project, writing the error
// response itself when it returns false.
func resolveCaller(w http.ResponseWriter, r *http.Request, store storage.Store, logger *zap.Logger) (caller, bool) {
	user, ok := resolveUser(w, r, store, logger)
	if !ok {
		return caller{}, false
	}
	project, err := projectFor(r.Context(), store, user)
	if err != nil {
		if errors.Is(err, errNoProject) {
			respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "no active project")
			return caller{}, false
		}
		storeError(w, logger, "project", fmt.Errorf("resolve project: %w", err))
		return caller{}, false
	}
	if project.Status == models.ProjectDisabled {
		respond.Error(w, http.StatusForbidden, respond.CodeDisabled, "project disabled")
		return caller{}, false
	}
	return caller{User: user, Project: project}, true
}

// requireSuperAdmin resolves the caller and writes 403 unless they are a
// superadmin.
func requireSuperAdmin(w http.ResponseWriter, r *http.Request, store storage.Store, logger *zap.Logger) (models.User, bool) {
	user, ok := resolveUser(w, r, store, logger)
	if !ok {
		return models.User{}, false
	}
	if user.Role != models.RoleSuperAdmin {
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "insufficient permission")
		return models.User{}, false
	}
	return user, true
}

// requireOwner writes 403 unless c owns its project.
func requireOwner(w http.ResponseWriter, c caller) bool {
	if !c.isOwner() {
		respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "insufficient permission")
		return false
	}
	return true
}

// canSeeTask reports whether c may read task: owners see their project's
// tasks, employees only those assigned to them.
func canSeeTask(c caller, task models.Task) bool {
	if task.ProjectID != c.Project.ID {
		return false
	}
	return c.isOwner() || task.AssignedTo == c.User.ID
}

// loadTask fetches the task named in the path and enforces visibility.
// Tasks outside the caller's project are reported as missing.
func loadTask(w http.ResponseWriter, r *http.Request, store storage.Store, logger *zap.Logger, c caller) (models.Task, bool) {
	task, err := store.GetTask(r.Context(), r.PathValue("id"))
	if err != nil {
		storeError(w, logger, "task", err)
		return models.Task{}, false
	}
	if task.ProjectID != c.Project.ID {
		storeError(w, logger, "task", storage.ErrNotFound)
		return models.Task{}, false
	}
	if !canSeeTask(c, task) {
		storeError(w, logger, "task", errForbidden)
		return models.Task{}, false
	}
	return task, true
}

// activeMember reports whether userID may be assigned work in project.
func activeMember(ctx context.Context, store storage.Store, project models.Project, userID string) (bool, error) {
	m, err := store.ActiveMembership(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return m.ProjectID == project.ID, nil
}
