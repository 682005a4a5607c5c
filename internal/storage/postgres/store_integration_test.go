package postgres

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/joho/godotenv"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// TestStoreIntegration exercises the task lifecycle against a live database.
func TestStoreIntegration(t *testing.T) {
	if os.Getenv("RUN_STORE_INTEGRATION") != "true" {
		t.Skip("set RUN_STORE_INTEGRATION=true to run this integration test")
	}
	for _, path := range []string{".env", "../.env", "../../.env", "../../../.env"} {
		_ = godotenv.Overload(path)
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Fatal("DATABASE_URL is required")
	}

	ctx := context.Background()
	store, err := NewStore(ctx, dbURL)
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	defer store.Close()

	suffix := time.Now().UnixNano()
	owner, err := store.CreateUser(ctx, models.User{
		Email:        fmt.Sprintf("owner_%d@example.com", suffix),
		Name:         "Owner",
		Role:         models.RoleOwner,
		Status:       models.UserActive,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	if _, err := store.CreateUser(ctx, models.User{Email: owner.Email, Name: "dup", Role: models.RoleOwner, PasswordHash: "x"}); !errors.Is(err, storage.ErrAlreadyExists) {
		t.Fatalf("duplicate email: got %v", err)
	}

	project, err := store.CreateProject(ctx, models.Project{Name: "Launch", OwnerID: owner.ID, Status: "active"})
	if err != nil {
		t.Fatalf("create project: %v", err)
	}

	task, err := store.CreateTask(ctx, models.Task{
		ProjectID: project.ID,
		Title:     "Write brief",
		Status:    models.TaskPending,
		Priority:  models.PriorityHigh,
		CreatedBy: owner.ID,
		Checklist: []models.ChecklistItem{{ID: "c1", Text: "outline"}},
	})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}
	task.Status = models.TaskInProgress
	task.UpdatedAt = time.Now().UTC()
	updated, err := store.UpdateTask(ctx, task)
	if err != nil {
		t.Fatalf("update task: %v", err)
	}
	if updated.Status != models.TaskInProgress || len(updated.Checklist) != 1 {
		t.Fatalf("unexpected task after update: %+v", updated)
	}
	if err := store.DeleteTask(ctx, task.ID); err != nil {
		t.Fatalf("delete task: %v", err)
	}
	if _, err := store.GetTask(ctx, task.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("get deleted task: got %v", err)
	}

	owner.Shift = "night"
	owner.Status = models.UserDisabled
	if saved, err := store.UpdateUser(ctx, owner); err != nil || saved.Shift != "night" || saved.Active() {
		t.Fatalf("update user: %+v %v", saved, err)
	}

	if err := store.RecordAudit(ctx, models.AuditLog{UserID: owner.ID, Action: models.ActionTaskDeleted,
		Details: map[string]any{"task_id": task.ID}}); err != nil {
		t.Fatalf("record audit: %v", err)
	}
	logs, total, err := store.ListAuditLogs(ctx, storage.AuditFilter{UserID: owner.ID, Action: "task"})
	if err != nil || total != 1 || logs[0].Details["task_id"] != task.ID {
		t.Fatalf("list audit logs: %+v %d %v", logs, total, err)
	}

	note, err := store.CreateNotification(ctx, models.Notification{UserID: owner.ID, Type: models.NotifyTaskComment, Message: "hi"})
	if err != nil {
		t.Fatalf("create notification: %v", err)
	}
	if n, err := store.UnreadCount(ctx, owner.ID); err != nil || n != 1 {
		t.Fatalf("unread count: %d %v", n, err)
	}
	if _, err := store.MarkNotificationRead(ctx, note.ID, "someone-else", time.Now()); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("mark foreign notification: got %v", err)
	}
	if n, err := store.MarkAllNotificationsRead(ctx, owner.ID, time.Now()); err != nil || n != 1 {
		t.Fatalf("mark all read: %d %v", n, err)
	}
	if err := store.DeleteNotification(ctx, note.ID, owner.ID); err != nil {
		t.Fatalf("delete notification: %v", err)
	}
}
