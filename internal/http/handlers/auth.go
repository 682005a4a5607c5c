package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/session"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// AuthHandler owns the /auth endpoints: account creation, sign-in, token
// refresh and invite acceptance.
type AuthHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{store: store, tokens: tokens, logger: logger, now: time.Now}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/auth/register", h.handleRegister)
	mux.HandleFunc("POST /api/auth/login", h.handleLogin)
	mux.HandleFunc("POST /api/auth/refresh", h.handleRefresh)
	mux.HandleFunc("POST /api/auth/logout", middleware.RequireAuth(h.tokens, h.handleLogout))
	mux.HandleFunc("GET /api/auth/me", middleware.RequireAuth(h.tokens, h.handleMe))
	mux.HandleFunc("POST /api/auth/accept-invite", h.handleAcceptInvite)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req dto.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email, err := normalizeEmail(req.Email)
	if err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	if trimmed(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "name is required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to hash password")
		return
	}

	created, err := h.store.CreateUser(r.Context(), models.User{
		Email:        email,
		Name:         trimmed(req.Name),
		Role:         models.RoleOwner,
		Status:       models.UserActive,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, respond.CodeEmailExists, "email already registered")
			return
		}
		storeError(w, h.logger, "user", err)
		return
	}
	h.logger.Info("user registered", zap.String("user_id", created.ID))
	record(r, h.store, h.logger, models.AuditLog{UserID: created.ID, Action: models.ActionUserRegistered, EntityType: "user", EntityID: created.ID})
	h.respondSession(w, r.Context(), http.StatusCreated, created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Email) == "" || req.Password == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "email and password are required")
		return
	}
	user, err := h.store.FindByEmail(r.Context(), trimmed(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusUnauthorized, respond.CodeInvalidCreds, "invalid credentials")
			return
		}
		storeError(w, h.logger, "user", err)
		return
	}
	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respond.Error(w, http.StatusUnauthorized, respond.CodeInvalidCreds, "invalid credentials")
		return
	}
	if !user.Active() {
		respond.Error(w, http.StatusForbidden, respond.CodeUserDisabled, "user disabled")
		return
	}
	h.logger.Info("user login", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	record(r, h.store, h.logger, models.AuditLog{UserID: user.ID, Action: models.ActionUserLogin, EntityType: "user", EntityID: user.ID})
	h.respondSession(w, r.Context(), http.StatusOK, user)
}

func (h *AuthHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	raw := middleware.BearerToken(r)
	if raw == "" {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "missing refresh token")
		return
	}
	claims, err := h.tokens.Parse(raw, auth.RefreshToken)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid refresh token")
		return
	}
	user, err := h.store.GetUser(r.Context(), claims.Subject)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	if !user.Active() {
		respond.Error(w, http.StatusForbidden, respond.CodeUserDisabled, "user disabled")
		return
	}
	projectID := ""
	if p, err := projectFor(r.Context(), h.store, user); err == nil {
		projectID = p.ID
	}
	access, err := h.tokens.Generate(user, projectID)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to generate token")
		return
	}
	respond.JSON(w, http.StatusOK, dto.RefreshResponse{
		AccessToken: access,
		ExpiresIn:   int(h.tokens.AccessTTL().Seconds()),
	})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	h.logger.Info("user logout", zap.String("user_id", id.UserID))
	entry := models.AuditLog{UserID: id.UserID, Action: models.ActionUserLogout, EntityType: "user", EntityID: id.UserID}
	if user, err := h.store.GetUser(r.Context(), id.UserID); err == nil {
		if p, err := projectFor(r.Context(), h.store, user); err == nil {
			entry.ProjectID = p.ID
		}
	}
	record(r, h.store, h.logger, entry)
	respond.Message(w, http.StatusOK, "session closed")
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	id, _ := middleware.IdentityFrom(r.Context())
	user, err := h.store.GetUser(r.Context(), id.UserID)
	if err != nil {
		storeError(w, h.logger, "user", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MeResponse{User: user})
}

func (h *AuthHandler) handleAcceptInvite(w http.ResponseWriter, r *http.Request) {
	var req dto.AcceptInviteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Token) == "" || trimmed(req.Name) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "token and name are required")
		return
	}
	if err := auth.ValidatePassword(req.Password); err != nil {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, err.Error())
		return
	}
	ctx := r.Context()
	invite, err := h.store.InviteByToken(ctx, trimmed(req.Token))
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
	if full, err := projectFull(ctx, h.store, project.ID); err != nil {
		storeError(w, h.logger, "member", err)
		return
	} else if full {
		respond.Error(w, http.StatusBadRequest, respond.CodeLimitReached, "project reached its employee limit")
		return
	}
	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to hash password")
		return
	}
	user, err := h.store.CreateUser(ctx, models.User{
		Email:        invite.Email,
		Name:         trimmed(req.Name),
		Role:         models.RoleEmployee,
		Status:       models.UserActive,
		JobTitle:     invite.JobTitle,
		Department:   invite.Department,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			respond.Error(w, http.StatusConflict, respond.CodeEmailExists, "email already registered")
			return
		}
		storeError(w, h.logger, "user", err)
		return
	}
	if _, err := h.store.CreateMembership(ctx, models.Membership{
		UserID:    user.ID,
		ProjectID: project.ID,
		Role:      models.RoleEmployee,
		Status:    models.MembershipActive,
	}); err != nil {
		storeError(w, h.logger, "membership", err)
		return
	}
	invite.Status = models.InviteAccepted
	if _, err := h.store.UpdateInvite(ctx, invite); err != nil {
		storeError(w, h.logger, "invite", err)
		return
	}
	h.logger.Info("invite accepted", zap.String("invite_id", invite.ID), zap.String("user_id", user.ID))
	record(r, h.store, h.logger, models.AuditLog{
		UserID: user.ID, ProjectID: project.ID, Action: models.ActionInviteAccepted, EntityType: "invite", EntityID: invite.ID,
	})
	h.respondSession(w, ctx, http.StatusCreated, user)
}

// respondSession issues a token pair for user and reports their project and
// landing path.
func (h *AuthHandler) respondSession(w http.ResponseWriter, ctx context.Context, status int, user models.User) {
	resp := dto.LoginResponse{User: user, ExpiresIn: int(h.tokens.AccessTTL().Seconds())}
	projectID := ""
	project, err := projectFor(ctx, h.store, user)
	switch {
	case err == nil:
		resp.Project = &project
		projectID = project.ID
	case !errors.Is(err, errNoProject):
		storeError(w, h.logger, "project", err)
		return
	}
	hasProject := user.Role == models.RoleOwner && resp.Project != nil
	hasMembership := user.Role == models.RoleEmployee && resp.Project != nil
	resp.RedirectURL = session.ResolveHome(user.Role, hasProject, hasMembership)

	if resp.AccessToken, err = h.tokens.Generate(user, projectID); err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to generate token")
		return
	}
	if resp.RefreshToken, err = h.tokens.GenerateRefresh(user); err != nil {
		respond.Error(w, http.StatusInternalServerError, respond.CodeServer, "failed to generate token")
		return
	}
	respond.JSON(w, status, resp)
}

func normalizeEmail(raw string) (string, error) {
	addr, err := mail.ParseAddress(trimmed(raw))
	if err != nil || addr.Address != trimmed(raw) {
		return "", errors.New("a valid email is required")
	}
	return strings.ToLower(addr.Address), nil
}
