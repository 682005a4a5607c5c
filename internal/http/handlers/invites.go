package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// InviteHandler lets owners invite employees and invitees check their link.
type InviteHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time
}

func NewInviteHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger, ttl time.Duration) *InviteHandler {
	return &InviteHandler{store: store, tokens: tokens, logger: logger, ttl: ttl, now: time.Now}
}

func (h *InviteHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc { return middleware.RequireAuth(h.tokens, fn) }
	mux.HandleFunc("POST /api/invites", protect(h.handleCreate))
	mux.HandleFunc("GET /api/invites", protect(h.handleList))
	mux.HandleFunc("DELETE /api/invites/{id}", protect(h.handleCancel))
	mux.HandleFunc("POST /api/invites/{id}/resend", protect(h.handleResend))
	mux.HandleFunc("GET /api/invites/validate/{token}", h.handleValidate)
}

func (h *InviteHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	var req dto.InviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	ctx := r.Context()
	if _, err := h.store.FindByEmail(ctx, email); err == nil {
		respond.Error(w, http.StatusConflict, respond.CodeEmailExists, "email already registered")
		return
	} else if !errors.Is(err, storage.ErrNotFound) {
		storeError(w, h.logger, "user", err)
		return
	}
	if full, err := projectFull(ctx, h.store, c.Project.ID); err != nil {
		storeError(w, h.logger, "member", err)
		return
	} else if full {
		respond.Error(w, http.StatusBadRequest, respond.CodeLimitReached, "project reached its employee limit")
		return
	}
	pending, err := h.store.ListInvites(ctx, c.Project.ID, models.InvitePending)
	if err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	for _, inv := range pending {
		if inv.Email == email && !inv.Expired(h.now()) {
			respond.Error(w, http.StatusConflict, respond.CodeConflict, "a pending invitation already exists for this email")
			return
		}
	}

	now := h.now().UTC()
	invite, err := h.store.CreateInvite(ctx, models.Invite{
		ProjectID:  c.Project.ID,
		Email:      email,
		Token:      uuid.NewString(),
		Status:     models.InvitePending,
		InvitedBy:  c.User.ID,
		JobTitle:   trimmed(req.JobTitle),
		Department: trimmed(req.Department),
		CreatedAt:  now,
		ExpiresAt:  now.Add(h.ttl),
	})
	if err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	h.logger.Info("invite sent", zap.String("invite_id", invite.ID), zap.String("project_id", c.Project.ID))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: c.User.ID, ProjectID: c.Project.ID, Action: models.ActionInviteCreated, EntityType: "invite", EntityID: invite.ID,
		Details: map[string]any{"email": invite.Email},
	})
	respond.JSON(w, http.StatusCreated, dto.InviteResponse{Invite: invite, Message: "invitation sent"})
}

func (h *InviteHandler) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	invites, err := h.store.ListInvites(r.Context(), c.Project.ID, models.InviteStatus(r.URL.Query().Get("status")))
	if err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	now := h.now()
	for i := range invites {
		if invites[i].Status == models.InvitePending && invites[i].Expired(now) {
			invites[i].Status = models.InviteExpired
		}
	}
	if invites == nil {
		invites = []models.Invite{}
	}
	respond.JSON(w, http.StatusOK, dto.InviteListResponse{Invites: invites, Total: len(invites)})
}

func (h *InviteHandler) loadOwned(w http.ResponseWriter, r *http.Request, c caller) (models.Invite, bool) {
	invite, err := h.store.GetInvite(r.Context(), r.PathValue("id"))
	if err == nil && invite.ProjectID != c.Project.ID {
		err = storage.ErrNotFound
	}
	if err != nil {
		storeError(w, h.logger, "invite", err)
		return models.Invite{}, false
	}
	return invite, true
}

func (h *InviteHandler) handleCancel(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	invite, ok := h.loadOwned(w, r, c)
	if !ok {
		return
	}
	if invite.Status != models.InvitePending {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "only pending invitations can be cancelled")
		return
	}
	invite.Status = models.InviteCancelled
	if _, err := h.store.UpdateInvite(r.Context(), invite); err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	record(r, h.store, h.logger, models.AuditLog{
		UserID: c.User.ID, ProjectID: c.Project.ID, Action: models.ActionInviteCancelled, EntityType: "invite", EntityID: invite.ID,
	})
	respond.Message(w, http.StatusOK, "invitation cancelled")
}

// handleResend rotates the token and extends the expiry of a pending or
// expired invitation, up to MaxInviteResends times.
func (h *InviteHandler) handleResend(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	invite, ok := h.loadOwned(w, r, c)
	if !ok {
		return
	}
	if invite.Status != models.InvitePending && invite.Status != models.InviteExpired {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "invitation can no longer be resent")
		return
	}
	if invite.ResendCount >= models.MaxInviteResends {
		respond.Error(w, http.StatusBadRequest, respond.CodeLimitReached, "resend limit reached")
		return
	}
	now := h.now().UTC()
	invite.Token = uuid.NewString()
	invite.Status = models.InvitePending
	invite.ResendCount++
	invite.ExpiresAt = now.Add(h.ttl)
	updated, err := h.store.UpdateInvite(r.Context(), invite)
	if err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	record(r, h.store, h.logger, models.AuditLog{
		UserID: c.User.ID, ProjectID: c.Project.ID, Action: models.ActionInviteResent, EntityType: "invite", EntityID: invite.ID,
		Details: map[string]any{"resend_count": updated.ResendCount},
	})
	respond.JSON(w, http.StatusOK, dto.InviteResponse{Invite: updated, Message: "invitation resent"})
}

func (h *InviteHandler) handleValidate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	invite, err := h.store.InviteByToken(ctx, r.PathValue("token"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, respond.CodeInvalidToken, "invalid invitation")
			return
		}
		storeError(w, h.logger, "invite", err)
		return
	}
	if !writeInviteState(w, ctx, h.store, h.logger, invite, h.now()) {
		return
	}
	project, err := h.store.GetProject(ctx, invite.ProjectID)
	if err != nil {
		storeError(w, h.logger, "project", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.InviteValidation{
		Email:       invite.Email,
		ProjectName: project.Name,
		ExpiresAt:   invite.ExpiresAt,
		Status:      invite.Status,
	})
}

// writeInviteState writes a 400 unless invite is pending and unexpired.
// Pending invites found past their expiry are marked expired.
func writeInviteState(w http.ResponseWriter, ctx context.Context, store storage.Store, logger *zap.Logger, invite models.Invite, now time.Time) bool {
	switch invite.Status {
	case models.InviteAccepted:
		respond.Error(w, http.StatusBadRequest, respond.CodeAccepted, "invitation already accepted")
		return false
	case models.InviteCancelled:
		respond.Error(w, http.StatusBadRequest, respond.CodeCancelled, "invitation cancelled")
		return false
	}
	if invite.Expired(now) {
		if invite.Status == models.InvitePending {
			invite.Status = models.InviteExpired
			if _, err := store.UpdateInvite(ctx, invite); err != nil {
				logger.Warn("mark invite expired", zap.String("invite_id", invite.ID), zap.Error(err))
			}
		}
		respond.Error(w, http.StatusBadRequest, respond.CodeExpired, "invitation expired")
		return false
	}
	return true
}
