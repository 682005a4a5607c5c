package workspace

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
	"github.com/hongminglow/projectdesk/internal/optimistic"
)

// TaskDetail is one task with its checklist and comment thread.
type TaskDetail struct {
	api      API
	co       *optimistic.Coordinator
	id       string
	author   models.User
	task     *optimistic.Collection[models.Task]
	comments *optimistic.Collection[models.Comment]
	now      func() time.Time

	mu        sync.Mutex
	draft     string
	itemDraft string
}

// NewTaskDetail builds the container for task id. author is the signed-in
// user, shown on comments while they are pending.
func NewTaskDetail(api API, co *optimistic.Coordinator, id string, author models.User) *TaskDetail {
	return &TaskDetail{
		api:      api,
		co:       co,
		id:       id,
		author:   author,
		task:     newTasks(),
		comments: newComments(),
		now:      time.Now,
	}
}

// Load fetches the task and its comments. A missing task yields
// ErrNotFound.
func (d *TaskDetail) Load(ctx context.Context) error {
	task, err := d.api.GetTask(ctx, d.id)
	if err != nil {
		if apiclient.KindOf(err) == apiclient.KindNotFound {
			return fmt.Errorf("%w: %s", ErrNotFound, d.id)
		}
		return fmt.Errorf("load task: %w", err)
	}
	comments, err := d.api.ListComments(ctx, d.id)
	if err != nil {
		return fmt.Errorf("load comments: %w", err)
	}
	d.task.Reset([]models.Task{task})
	d.comments.Reset(comments)
	return nil
}

// Task returns the loaded task.
func (d *TaskDetail) Task() (models.Task, bool) {
	return d.task.Get(d.id)
}

func (d *TaskDetail) Comments() []models.Comment {
	return d.comments.Items()
}

// Draft is the comment being composed.
func (d *TaskDetail) Draft() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.draft
}

func (d *TaskDetail) SetDraft(text string) {
	d.mu.Lock()
	d.draft = text
	d.mu.Unlock()
}

// ItemDraft is the checklist item being composed.
func (d *TaskDetail) ItemDraft() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.itemDraft
}

func (d *TaskDetail) SetItemDraft(text string) {
	d.mu.Lock()
	d.itemDraft = text
	d.mu.Unlock()
}

// restore puts text back in a compose field, keeping anything typed since
// it was sent.
func (d *TaskDetail) restore(field *string, text, sep string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if strings.TrimSpace(*field) == "" {
		*field = text
		return
	}
	*field = text + sep + *field
}

func (d *TaskDetail) ChangeStatus(ctx context.Context, status models.TaskStatus) error {
	if !status.Valid() {
		return fmt.Errorf("%w: status %q", ErrInvalid, status)
	}
	return optimistic.Update(ctx, d.co, d.task, d.id, statusMutation(d.api, d.id, status, d.now))
}

func (d *TaskDetail) ChangePriority(ctx context.Context, priority models.TaskPriority) error {
	if !priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrInvalid, priority)
	}
	return optimistic.Update(ctx, d.co, d.task, d.id, priorityMutation(d.api, d.id, priority, d.now))
}

// editChecklist runs edit over the checklist optimistically and sends the
// resulting list.
func (d *TaskDetail) editChecklist(ctx context.Context, edit func([]models.ChecklistItem) []models.ChecklistItem, success string, onFailure func(error)) error {
	var sent []models.ChecklistItem
	return optimistic.Update(ctx, d.co, d.task, d.id, optimistic.Mutation[models.Task]{
		Field: "checklist",
		Apply: func(t *models.Task) {
			t.Checklist = edit(t.Checklist)
			t.UpdatedAt = d.now().UTC()
			sent = slices.Clone(t.Checklist)
		},
		Revert: func(dst *models.Task, prev models.Task) {
			dst.Checklist = slices.Clone(prev.Checklist)
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send: func(ctx context.Context) (*models.Task, error) {
			if sent == nil {
				sent = []models.ChecklistItem{}
			}
			return canonical(d.api.UpdateTask(ctx, d.id, dto.UpdateTaskRequest{Checklist: &sent}))
		},
		Success:   success,
		OnFailure: onFailure,
	})
}

var errNoItem = errors.New("workspace: checklist item not found")

func (d *TaskDetail) ToggleChecklist(ctx context.Context, itemID string) error {
	task, ok := d.Task()
	if !ok || !slices.ContainsFunc(task.Checklist, func(it models.ChecklistItem) bool { return it.ID == itemID }) {
		return errNoItem
	}
	return d.editChecklist(ctx, func(items []models.ChecklistItem) []models.ChecklistItem {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Completed = !items[i].Completed
			}
		}
		return items
	}, "Checklist updated", nil)
}

// AddChecklistItem appends the item draft under a temporary id; the
// server's copy of the task, with the item's permanent id, replaces it on
// success. The draft is cleared at once and restored on failure.
func (d *TaskDetail) AddChecklistItem(ctx context.Context) error {
	d.mu.Lock()
	text := strings.TrimSpace(d.itemDraft)
	if text == "" {
		d.mu.Unlock()
		return ErrEmpty
	}
	d.itemDraft = ""
	d.mu.Unlock()
	return d.editChecklist(ctx, func(items []models.ChecklistItem) []models.ChecklistItem {
		return append(items, models.ChecklistItem{ID: optimistic.TempID(), Text: text})
	}, "Item added", func(error) { d.restore(&d.itemDraft, text, " ") })
}

func (d *TaskDetail) RemoveChecklistItem(ctx context.Context, itemID string) error {
	task, ok := d.Task()
	if !ok || !slices.ContainsFunc(task.Checklist, func(it models.ChecklistItem) bool { return it.ID == itemID }) {
		return errNoItem
	}
	return d.editChecklist(ctx, func(items []models.ChecklistItem) []models.ChecklistItem {
		return slices.DeleteFunc(items, func(it models.ChecklistItem) bool { return it.ID == itemID })
	}, "Item removed", nil)
}

// AddComment posts the current draft. The draft is cleared at once and
// restored if the server rejects the comment.
func (d *TaskDetail) AddComment(ctx context.Context) (models.Comment, error) {
	d.mu.Lock()
	text := strings.TrimSpace(d.draft)
	if text == "" {
		d.mu.Unlock()
		return models.Comment{}, ErrEmpty
	}
	d.draft = ""
	d.mu.Unlock()

	return optimistic.Create(ctx, d.co, d.comments, optimistic.Creation[models.Comment]{
		Draft: func(tempID string) models.Comment {
			now := d.now().UTC()
			return models.Comment{
				ID:        tempID,
				TaskID:    d.id,
				UserID:    d.author.ID,
				UserName:  d.author.Name,
				Text:      text,
				CreatedAt: now,
				UpdatedAt: now,
			}
		},
		Send: func(ctx context.Context) (models.Comment, error) {
			return d.api.CreateComment(ctx, d.id, text)
		},
		OnFailure: func(error) { d.restore(&d.draft, text, "\n") },
		Success:   "Comment added",
	})
}

func (d *TaskDetail) EditComment(ctx context.Context, commentID, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmpty
	}
	return optimistic.Update(ctx, d.co, d.comments, commentID, optimistic.Mutation[models.Comment]{
		Field: "text",
		Apply: func(c *models.Comment) {
			c.Text = text
			c.UpdatedAt = d.now().UTC()
		},
		Revert: func(dst *models.Comment, prev models.Comment) {
			dst.Text = prev.Text
			dst.UpdatedAt = prev.UpdatedAt
		},
		Send: func(ctx context.Context) (*models.Comment, error) {
			return canonical(d.api.UpdateComment(ctx, d.id, commentID, text))
		},
		Success: "Comment updated",
	})
}

// DeleteComment removes the comment at once and restores it in place if
// the server refuses.
func (d *TaskDetail) DeleteComment(ctx context.Context, commentID string) error {
	return optimistic.Delete(ctx, d.co, d.comments, commentID, func(ctx context.Context) error {
		return d.api.DeleteComment(ctx, d.id, commentID)
	}, "Comment deleted")
}

// Close drops responses still in flight.
func (d *TaskDetail) Close() {
	d.task.Close()
	d.comments.Close()
}
