package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// MemberHandler lists and deactivates project members.
type MemberHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
}

func NewMemberHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{store: store, tokens: tokens, logger: logger}
}

func (h *MemberHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/members", middleware.RequireAuth(h.tokens, h.handleList))
	mux.HandleFunc("PATCH /api/members/{id}/deactivate", middleware.RequireAuth(h.tokens, h.handleDeactivate))
	mux.HandleFunc("PATCH /api/members/{id}/profile", middleware.RequireAuth(h.tokens, h.handleProfile))
}

func (h *MemberHandler) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	members, err := h.store.ListMembers(r.Context(), c.Project.ID)
	if err != nil {
		storeError(w, h.logger, "member", err)
		return
	}
	resp := dto.MemberListResponse{Members: members, Total: len(members)}
	for _, m := range members {
		if m.Status == models.UserActive {
			resp.Active++
		} else {
			resp.Inactive++
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

func (h *MemberHandler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	m, err := h.store.GetMembership(r.Context(), r.PathValue("id"))
	if err == nil && m.ProjectID != c.Project.ID {
		err = storage.ErrNotFound
	}
	if err != nil {
		storeError(w, h.logger, "membership", err)
		return
	}
	updated, err := h.store.UpdateMembershipStatus(r.Context(), m.ID, models.MembershipInactive)
	if err != nil {
		storeError(w, h.logger, "membership", err)
		return
	}
	h.logger.Info("member deactivated", zap.String("membership_id", m.ID), zap.String("project_id", c.Project.ID))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: c.User.ID, ProjectID: c.Project.ID, Action: models.ActionMemberDeactivated, EntityType: "membership", EntityID: m.ID,
		Details: map[string]any{"member_id": m.UserID},
	})
	respond.JSON(w, http.StatusOK, updated)
}

// handleProfile edits a user's profile. Anyone may edit their own; owners
// may also edit anyone who has been a member of their project.
func (h *MemberHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	actor, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	targetID := r.PathValue("id")
	projectID := ""
	if targetID != actor.ID {
		c, ok := resolveCaller(w, r, h.store, h.logger)
		if !ok || !requireOwner(w, c) {
			return
		}
		member, err := h.isMember(r.Context(), c.Project.ID, targetID)
		if err != nil {
			storeError(w, h.logger, "member", err)
			return
		}
		if !member {
			storeError(w, h.logger, "member", storage.ErrNotFound)
			return
		}
		projectID = c.Project.ID
	} else if p, err := projectFor(r.Context(), h.store, actor); err == nil {
		projectID = p.ID
	}

	var req dto.ProfileUpdateRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := h.store.GetUser(r.Context(), targetID)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	fields, err := applyProfile(&target, req)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	target.UpdatedAt = time.Now().UTC()
	updated, err := h.store.UpdateUser(r.Context(), target)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	record(r, h.store, h.logger, models.AuditLog{
		UserID: actor.ID, ProjectID: projectID, Action: models.ActionMemberProfileUpdated, EntityType: "user", EntityID: updated.ID,
		Details: map[string]any{"updated_fields": fields},
	})
	respond.JSON(w, http.StatusOK, dto.UserResponse{User: updated})
}

func (h *MemberHandler) isMember(ctx context.Context, projectID, userID string) (bool, error) {
	members, err := h.store.ListMembers(ctx, projectID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(members, func(m models.Member) bool { return m.ID == userID }), nil
}

// profileLimits caps profile text fields, in runes.
var profileLimits = map[string]int{
	"name":             255,
	"job_title":        100,
	"department":       100,
	"phone":            20,
	"description":      500,
	"responsibilities": 1000,
	"skills":           500,
	"avatar":           500,
}

// applyProfile copies the set fields of req onto u and returns their names.
func applyProfile(u *models.User, req dto.ProfileUpdateRequest) ([]string, error) {
	var fields []string
	set := func(name string, src *string, dst *string) error {
		if src == nil {
			return nil
		}
		v := trimmed(*src)
		if utf8.RuneCountInString(v) > profileLimits[name] {
			return fmt.Errorf("%s must be at most %d characters", name, profileLimits[name])
		}
		*dst = v
		fields = append(fields, name)
		return nil
	}
	if req.Name != nil && utf8.RuneCountInString(trimmed(*req.Name)) < 2 {
		return nil, errors.New("name must be at least 2 characters")
	}
	if req.Shift != nil && *req.Shift != "" && !slices.Contains(models.Shifts, *req.Shift) {
		return nil, fmt.Errorf("shift must be one of %s", strings.Join(models.Shifts, ", "))
	}
	for _, f := range []struct {
		name     string
		src, dst *string
	}{
		{"name", req.Name, &u.Name},
		{"job_title", req.JobTitle, &u.JobTitle},
		{"department", req.Department, &u.Department},
		{"phone", req.Phone, &u.Phone},
		{"description", req.Description, &u.Description},
		{"responsibilities", req.Responsibilities, &u.Responsibilities},
		{"skills", req.Skills, &u.Skills},
		{"avatar", req.Avatar, &u.Avatar},
	} {
		if err := set(f.name, f.src, f.dst); err != nil {
			return nil, err
		}
	}
	if req.Shift != nil {
		u.Shift = *req.Shift
		fields = append(fields, "shift")
	}
	if len(fields) == 0 {
		return nil, errors.New("no profile fields to update")
	}
	return fields, nil
}

// projectFull reports whether the project already has the maximum number of
// active employees.
func projectFull(ctx context.Context, store storage.Store, projectID string) (bool, error) {
	members, err := store.ListMembers(ctx, projectID)
	if err != nil {
		return false, err
	}
	active := 0
	for _, m := range members {
		if !m.IsOwner && m.Status == models.UserActive {
			active++
		}
	}
	return active >= models.MaxEmployeesPerProject, nil
}
