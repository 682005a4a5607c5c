package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// NotificationHandler serves the signed-in user's notifications.
type NotificationHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewNotificationHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *NotificationHandler {
	return &NotificationHandler{store: store, tokens: tokens, logger: logger, now: time.Now}
}

func (h *NotificationHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc { return middleware.RequireAuth(h.tokens, fn) }
	mux.HandleFunc("GET /api/notifications", protect(h.handleList))
	mux.HandleFunc("GET /api/notifications/unread-count", protect(h.handleUnreadCount))
	mux.HandleFunc("PATCH /api/notifications/read-all", protect(h.handleReadAll))
	mux.HandleFunc("PATCH /api/notifications/{id}/read", protect(h.handleRead))
	mux.HandleFunc("DELETE /api/notifications/{id}", protect(h.handleDelete))
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	user, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	unreadOnly := r.URL.Query().Get("unread_only") == "true"
	notes, err := h.store.ListNotifications(r.Context(), user.ID, unreadOnly)
	if err != nil {
		storeError(w, h.logger, "notification", err)
		return
	}
	if notes == nil {
		notes = []models.Notification{}
	}
	respond.JSON(w, http.StatusOK, dto.NotificationListResponse{Notifications: notes, Total: len(notes)})
}

func (h *NotificationHandler) handleUnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	n, err := h.store.UnreadCount(r.Context(), user.ID)
	if err != nil {
		storeError(w, h.logger, "notification", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.UnreadCountResponse{UnreadCount: n})
}

func (h *NotificationHandler) handleRead(w http.ResponseWriter, r *http.Request) {
	user, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	n, err := h.store.MarkNotificationRead(r.Context(), r.PathValue("id"), user.ID, h.now().UTC())
	if err != nil {
		storeError(w, h.logger, "notification", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.NotificationResponse{Notification: n})
}

func (h *NotificationHandler) handleReadAll(w http.ResponseWriter, r *http.Request) {
	user, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	n, err := h.store.MarkAllNotificationsRead(r.Context(), user.ID, h.now().UTC())
	if err != nil {
		storeError(w, h.logger, "notification", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.MarkedResponse{MarkedCount: n})
}

func (h *NotificationHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	user, ok := resolveUser(w, r, h.store, h.logger)
	if !ok {
		return
	}
	if err := h.store.DeleteNotification(r.Context(), r.PathValue("id"), user.ID); err != nil {
		storeError(w, h.logger, "notification", err)
		return
	}
	respond.Message(w, http.StatusOK, "notification deleted")
}
