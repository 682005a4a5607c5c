package handlers

import (
	"fmt"
	"net/http"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/middleware"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// CommentHandler serves comments nested under a task.
type CommentHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewCommentHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{store: store, tokens: tokens, logger: logger, now: time.Now}
}

func (h *CommentHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc { return middleware.RequireAuth(h.tokens, fn) }
	mux.HandleFunc("GET /api/tasks/{id}/comments", protect(h.handleList))
	mux.HandleFunc("POST /api/tasks/{id}/comments", protect(h.handleCreate))
	mux.HandleFunc("PATCH /api/tasks/{id}/comments/{commentID}", protect(h.handleUpdate))
	mux.HandleFunc("DELETE /api/tasks/{id}/comments/{commentID}", protect(h.handleDelete))
}

func (h *CommentHandler) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return
	}
	comments, err := h.store.ListComments(r.Context(), task.ID)
	if err != nil {
		storeError(w, h.logger, "comment", err)
		return
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	respond.JSON(w, http.StatusOK, comments)
}

func (h *CommentHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return
	}
	var req dto.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Content) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "content is required")
		return
	}
	now := h.now().UTC()
	comment, err := h.store.CreateComment(r.Context(), models.Comment{
		TaskID:    task.ID,
		UserID:    c.User.ID,
		UserName:  c.User.Name,
		Text:      trimmed(req.Content),
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		storeError(w, h.logger, "comment", err)
		return
	}
	msg := fmt.Sprintf("%s commented on %s", c.User.Name, task.Title)
	for _, to := range recipients(task.AssignedTo, task.CreatedBy) {
		notify(r.Context(), h.store, h.logger, c.User.ID, taskNotification(to, models.NotifyTaskComment, task, msg))
	}
	respond.JSON(w, http.StatusCreated, comment)
}

// loadComment fetches the path's comment and checks it belongs to the path's task.
func (h *CommentHandler) loadComment(w http.ResponseWriter, r *http.Request, c caller) (models.Comment, bool) {
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return models.Comment{}, false
	}
	comment, err := h.store.GetComment(r.Context(), r.PathValue("commentID"))
	if err == nil && comment.TaskID != task.ID {
		err = storage.ErrNotFound
	}
	if err != nil {
		storeError(w, h.logger, "comment", err)
		return models.Comment{}, false
	}
	return comment, true
}

func (h *CommentHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	comment, ok := h.loadComment(w, r, c)
	if !ok {
		return
	}
	if comment.UserID != c.User.ID {
		storeError(w, h.logger, "comment", errForbidden)
		return
	}
	var req dto.CommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Content) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "content is required")
		return
	}
	comment.Text = trimmed(req.Content)
	comment.UpdatedAt = h.now().UTC()
	updated, err := h.store.UpdateComment(r.Context(), comment)
	if err != nil {
		storeError(w, h.logger, "comment", err)
		return
	}
	respond.JSON(w, http.StatusOK, updated)
}

// handleDelete lets authors remove their own comments and owners remove any.
func (h *CommentHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	comment, ok := h.loadComment(w, r, c)
	if !ok {
		return
	}
	if comment.UserID != c.User.ID && !c.isOwner() {
		storeError(w, h.logger, "comment", errForbidden)
		return
	}
	if err := h.store.DeleteComment(r.Context(), comment.ID); err != nil {
		storeError(w, h.logger, "comment", err)
		return
	}
	respond.Message(w, http.StatusOK, "comment deleted")
}

// recipients drops empty and repeated user ids.
func recipients(ids ...string) []string {
	var out []string
	for _, id := range ids {
		if id != "" && !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}
