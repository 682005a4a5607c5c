package storage

import (
	"context"
	"errors"
	"time"

	"github.com/hongminglow/projectdesk/internal/models"
)

// ErrNotFound indicates a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures persistence operations on accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	GetUser(ctx context.Context, id string) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	UpdateUser(ctx context.Context, user models.User) (models.User, error)
	ListUsers(ctx context.Context, opts ListOptions) ([]models.User, int, error)
}

// ListOptions pages and filters the admin listings. Search matches names
// (and emails for users) case-insensitively; Status matches exactly.
type ListOptions struct {
	Search  string
	Status  string
	Page    int
	PerPage int
}

// Normalize clamps paging to sane bounds, using perPage as the default size.
func (o ListOptions) Normalize(perPage int) ListOptions {
	if o.Page < 1 {
		o.Page = 1
	}
	if o.PerPage < 1 {
		o.PerPage = perPage
	}
	if o.PerPage > 100 {
		o.PerPage = 100
	}
	return o
}

// Offset is the number of rows skipped before the current page.
func (o ListOptions) Offset() int {
	return (o.Page - 1) * o.PerPage
}

// ProjectStore persists projects and the memberships inside them.
type ProjectStore interface {
	CreateProject(ctx context.Context, project models.Project) (models.Project, error)
	GetProject(ctx context.Context, id string) (models.Project, error)
	ProjectByOwner(ctx context.Context, ownerID string) (models.Project, error)
	CreateMembership(ctx context.Context, m models.Membership) (models.Membership, error)
	GetMembership(ctx context.Context, id string) (models.Membership, error)
	ActiveMembership(ctx context.Context, userID string) (models.Membership, error)
	ListMembers(ctx context.Context, projectID string) ([]models.Member, error)
	UpdateMembershipStatus(ctx context.Context, id string, status models.MembershipStatus) (models.Membership, error)
	ListProjects(ctx context.Context, opts ListOptions) ([]models.Project, int, error)
	UpdateProjectStatus(ctx context.Context, id, status string) (models.Project, error)
}

// TaskFilter narrows ListTasks; zero fields match everything.
type TaskFilter struct {
	ProjectID  string
	AssignedTo string
	Status     models.TaskStatus
}

// TaskStore persists tasks.
type TaskStore interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	GetTask(ctx context.Context, id string) (models.Task, error)
	ListTasks(ctx context.Context, filter TaskFilter) ([]models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id string) error
}

// CommentStore persists task comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c models.Comment) (models.Comment, error)
	GetComment(ctx context.Context, id string) (models.Comment, error)
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, c models.Comment) (models.Comment, error)
	DeleteComment(ctx context.Context, id string) error
}

// InviteStore persists project invitations.
type InviteStore interface {
	CreateInvite(ctx context.Context, inv models.Invite) (models.Invite, error)
	GetInvite(ctx context.Context, id string) (models.Invite, error)
	InviteByToken(ctx context.Context, token string) (models.Invite, error)
	ListInvites(ctx context.Context, projectID string, status models.InviteStatus) ([]models.Invite, error)
	UpdateInvite(ctx context.Context, inv models.Invite) (models.Invite, error)
}

// AuditFilter narrows ListAuditLogs. Action matches as a substring.
type AuditFilter struct {
	UserID string
	Action string
	Since  time.Time
	ListOptions
}

// AuditStore records and lists audit entries.
type AuditStore interface {
	RecordAudit(ctx context.Context, entry models.AuditLog) error
	ListAuditLogs(ctx context.Context, filter AuditFilter) ([]models.AuditLog, int, error)
}

// NotificationStore persists per-user notifications. Lookups by id are
// scoped to the owning user and report ErrNotFound for anyone else's.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error)
	ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkNotificationRead(ctx context.Context, id, userID string, at time.Time) (models.Notification, error)
	MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int, error)
	DeleteNotification(ctx context.Context, id, userID string) error
}

// Store is the full persistence surface used by the HTTP handlers.
type Store interface {
	UserStore
	ProjectStore
	TaskStore
	CommentStore
	InviteStore
	AuditStore
	NotificationStore
	// PlatformStats counts every record; "new" counters start at since.
	PlatformStats(ctx context.Context, since time.Time) (models.PlatformStats, error)
	Ping(ctx context.Context) error
	Close()
}
