package handlers

import (
	"fmt"
	"net/http"
	"strings"
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

const tempIDPrefix = "tmp-"

// TaskHandler serves task CRUD plus the dedicated status and assignment endpoints.
type TaskHandler struct {
	store  storage.Store
	tokens *auth.TokenManager
	logger *zap.Logger
	now    func() time.Time
}

func NewTaskHandler(store storage.Store, tokens *auth.TokenManager, logger *zap.Logger) *TaskHandler {
	return &TaskHandler{store: store, tokens: tokens, logger: logger, now: time.Now}
}

func (h *TaskHandler) Register(mux *http.ServeMux) {
	protect := func(fn http.HandlerFunc) http.HandlerFunc { return middleware.RequireAuth(h.tokens, fn) }
	mux.HandleFunc("GET /api/tasks", protect(h.handleList))
	mux.HandleFunc("POST /api/tasks", protect(h.handleCreate))
	mux.HandleFunc("GET /api/tasks/my-tasks", protect(h.handleMine))
	mux.HandleFunc("GET /api/tasks/stats", protect(h.handleStats))
	mux.HandleFunc("GET /api/tasks/{id}", protect(h.handleGet))
	mux.HandleFunc("PATCH /api/tasks/{id}", protect(h.handleUpdate))
	mux.HandleFunc("DELETE /api/tasks/{id}", protect(h.handleDelete))
	mux.HandleFunc("PATCH /api/tasks/{id}/status", protect(h.handleStatus))
	mux.HandleFunc("PATCH /api/tasks/{id}/assign", protect(h.handleAssign))
}

func (h *TaskHandler) handleList(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	filter := storage.TaskFilter{
		ProjectID:  c.Project.ID,
		AssignedTo: r.URL.Query().Get("assigned_to"),
		Status:     models.TaskStatus(r.URL.Query().Get("status")),
	}
	if !c.isOwner() {
		filter.AssignedTo = c.User.ID
	}
	tasks, err := h.store.ListTasks(r.Context(), filter)
	if err != nil {
		storeError(w, h.logger, "task", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respond.JSON(w, http.StatusOK, dto.TaskListResponse{Tasks: tasks, Total: len(tasks)})
}

func (h *TaskHandler) handleMine(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), storage.TaskFilter{ProjectID: c.Project.ID, AssignedTo: c.User.ID})
	if err != nil {
		storeError(w, h.logger, "task", err)
		return
	}
	if tasks == nil {
		tasks = []models.Task{}
	}
	respond.JSON(w, http.StatusOK, tasks)
}

func (h *TaskHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	tasks, err := h.store.ListTasks(r.Context(), storage.TaskFilter{ProjectID: c.Project.ID})
	if err != nil {
		storeError(w, h.logger, "task", err)
		return
	}
	respond.JSON(w, http.StatusOK, dto.StatsResponse{Stats: summarize(tasks, h.now())})
}

func summarize(tasks []models.Task, now time.Time) models.TaskStats {
	stats := models.TaskStats{
		Total:      len(tasks),
		ByStatus:   map[models.TaskStatus]int{models.TaskPending: 0, models.TaskInProgress: 0, models.TaskBlocked: 0, models.TaskDone: 0},
		ByPriority: map[models.TaskPriority]int{models.PriorityLow: 0, models.PriorityMedium: 0, models.PriorityHigh: 0, models.PriorityUrgent: 0},
	}
	for _, t := range tasks {
		stats.ByStatus[t.Status]++
		stats.ByPriority[t.Priority]++
		if t.DueDate != nil && t.Status != models.TaskDone && t.DueDate.Before(now) {
			stats.Overdue++
		}
	}
	return stats
}

func (h *TaskHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok || !requireOwner(w, c) {
		return
	}
	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if trimmed(req.Title) == "" {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "title is required")
		return
	}
	if req.Priority == "" {
		req.Priority = models.PriorityMedium
	}
	if !req.Priority.Valid() {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "invalid priority")
		return
	}
	if req.AssignedTo != "" && !h.assignable(w, r, c, req.AssignedTo) {
		return
	}
	now := h.now().UTC()
	task, err := h.store.CreateTask(r.Context(), models.Task{
		ProjectID:   c.Project.ID,
		Title:       trimmed(req.Title),
		Description: trimmed(req.Description),
		Status:      models.TaskPending,
		Priority:    req.Priority,
		AssignedTo:  req.AssignedTo,
		CreatedBy:   c.User.ID,
		DueDate:     req.DueDate,
		StartDate:   req.StartDate,
		Tags:        req.Tags,
		Checklist:   normalizeChecklist(req.Checklist),
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		storeError(w, h.logger, "task", err)
		return
	}
	record(r, h.store, h.logger, taskAudit(c, task, models.ActionTaskCreated, nil))
	notify(r.Context(), h.store, h.logger, c.User.ID,
		taskNotification(task.AssignedTo, models.NotifyTaskAssigned, task, "You were assigned to "+task.Title))
	respond.JSON(w, http.StatusCreated, dto.TaskResponse{Task: task})
}

func (h *TaskHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return
	}
	respond.JSON(w, http.StatusOK, dto.TaskResponse{Task: task})
}

// handleUpdate applies a partial update. Assignees may only edit the checklist.
func (h *TaskHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return
	}
	var req dto.UpdateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !c.isOwner() {
		if req.Title != nil || req.Description != nil || req.Priority != nil || req.DueDate != nil || req.StartDate != nil || req.Tags != nil {
			respond.Error(w, http.StatusForbidden, respond.CodeForbidden, "insufficient permission")
			return
		}
	}
	if req.Title != nil {
		if trimmed(*req.Title) == "" {
			respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "title is required")
			return
		}
		task.Title = trimmed(*req.Title)
	}
	if req.Description != nil {
		task.Description = trimmed(*req.Description)
	}
	if req.Priority != nil {
		if !req.Priority.Valid() {
			respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "invalid priority")
			return
		}
		task.Priority = *req.Priority
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.StartDate != nil {
		task.StartDate = req.StartDate
	}
	if req.Tags != nil {
		task.Tags = *req.Tags
	}
	if req.Checklist != nil {
		task.Checklist = normalizeChecklist(*req.Checklist)
	}
	h.save(w, r, c, task, models.ActionTaskUpdated, nil)
}

func (h *TaskHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok || !requireOwner(w, c) {
		return
	}
	if err := h.store.DeleteTask(r.Context(), task.ID); err != nil {
		storeError(w, h.logger, "task", err)
		return
	}
	record(r, h.store, h.logger, taskAudit(c, task, models.ActionTaskDeleted, map[string]any{"title": task.Title}))
	respond.Message(w, http.StatusOK, "task deleted")
}

func (h *TaskHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok {
		return
	}
	var req dto.StatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !req.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "invalid status")
		return
	}
	prev := task.Status
	task.Status = req.Status
	if req.Status == models.TaskDone {
		done := h.now().UTC()
		task.CompletedAt = &done
	} else {
		task.CompletedAt = nil
	}
	updated, ok := h.save(w, r, c, task, models.ActionTaskStatusChanged, map[string]any{"from": prev, "to": req.Status})
	if ok && prev != req.Status {
		msg := fmt.Sprintf("%s moved %s to %s", c.User.Name, updated.Title, updated.Status)
		notify(r.Context(), h.store, h.logger, c.User.ID, taskNotification(c.Project.OwnerID, models.NotifyTaskStatusChanged, updated, msg))
	}
}

func (h *TaskHandler) handleAssign(w http.ResponseWriter, r *http.Request) {
	c, ok := resolveCaller(w, r, h.store, h.logger)
	if !ok {
		return
	}
	task, ok := loadTask(w, r, h.store, h.logger, c)
	if !ok || !requireOwner(w, c) {
		return
	}
	var req dto.AssignRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AssignedTo != "" && !h.assignable(w, r, c, req.AssignedTo) {
		return
	}
	prev := task.AssignedTo
	task.AssignedTo = req.AssignedTo
	updated, ok := h.save(w, r, c, task, models.ActionTaskAssigned, map[string]any{"from": prev, "to": req.AssignedTo})
	if ok && prev != req.AssignedTo {
		notify(r.Context(), h.store, h.logger, c.User.ID,
			taskNotification(updated.AssignedTo, models.NotifyTaskAssigned, updated, "You were assigned to "+updated.Title))
	}
}

// assignable writes 400 unless userID is the owner or an active employee of c's project.
func (h *TaskHandler) assignable(w http.ResponseWriter, r *http.Request, c caller, userID string) bool {
	if userID == c.Project.OwnerID {
		return true
	}
	ok, err := activeMember(r.Context(), h.store, c.Project, userID)
	if err != nil {
		storeError(w, h.logger, "membership", err)
		return false
	}
	if !ok {
		respond.Error(w, http.StatusBadRequest, respond.CodeValidation, "assignee is not an active member")
		return false
	}
	return true
}

// normalizeChecklist gives server ids to items that arrive without one or
// with a client placeholder id.
func normalizeChecklist(items []models.ChecklistItem) []models.ChecklistItem {
	for i := range items {
		if items[i].ID == "" || strings.HasPrefix(items[i].ID, tempIDPrefix) {
			items[i].ID = uuid.NewString()
		}
		items[i].Text = trimmed(items[i].Text)
	}
	return items
}

// save stores task, records action against it and writes the response.
func (h *TaskHandler) save(w http.ResponseWriter, r *http.Request, c caller, task models.Task, action string, details map[string]any) (models.Task, bool) {
	task.UpdatedAt = h.now().UTC()
	updated, err := h.store.UpdateTask(r.Context(), task)
	if err != nil {
		storeError(w, h.logger, "task", err)
		return models.Task{}, false
	}
	record(r, h.store, h.logger, taskAudit(c, updated, action, details))
	respond.JSON(w, http.StatusOK, dto.TaskResponse{Task: updated})
	return updated, true
}

func taskAudit(c caller, task models.Task, action string, details map[string]any) models.AuditLog {
	return models.AuditLog{
		UserID:     c.User.ID,
		ProjectID:  c.Project.ID,
		Action:     action,
		EntityType: "task",
		EntityID:   task.ID,
		Details:    details,
	}
}
