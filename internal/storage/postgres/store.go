package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// Ensure Store satisfies the storage.Store interface at compile time.
var _ storage.Store = (*Store)(nil)

// Store provides Postgres-backed persistence.
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new Store and runs migrations.
func NewStore(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	s := &Store{pool: pool}
	if err := s.migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Ping checks that the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases database resources.
func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			email TEXT NOT NULL,
			name TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'OWNER',
			status TEXT NOT NULL DEFAULT 'active',
			avatar TEXT NOT NULL DEFAULT '',
			job_title TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			phone TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			responsibilities TEXT NOT NULL DEFAULT '',
			skills TEXT NOT NULL DEFAULT '',
			shift TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS users_email_unique_idx ON users (lower(email));`,
		`ALTER TABLE users
			ADD COLUMN IF NOT EXISTS description TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS responsibilities TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS skills TEXT NOT NULL DEFAULT '',
			ADD COLUMN IF NOT EXISTS shift TEXT NOT NULL DEFAULT '';`,
		`CREATE TABLE IF NOT EXISTS projects (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			category TEXT NOT NULL DEFAULT '',
			owner_id TEXT NOT NULL UNIQUE REFERENCES users(id),
			status TEXT NOT NULL DEFAULT 'active',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS memberships (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			project_id TEXT NOT NULL REFERENCES projects(id),
			role TEXT NOT NULL DEFAULT 'EMPLOYEE',
			status TEXT NOT NULL DEFAULT 'active',
			joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (user_id, project_id)
		);`,
		`CREATE TABLE IF NOT EXISTS tasks (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			priority TEXT NOT NULL DEFAULT 'medium',
			assigned_to TEXT NOT NULL DEFAULT '',
			created_by TEXT NOT NULL,
			due_date TIMESTAMPTZ,
			start_date TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			tags TEXT[] NOT NULL DEFAULT '{}',
			checklist JSONB NOT NULL DEFAULT '[]',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS tasks_project_idx ON tasks (project_id, created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS comments (
			id TEXT PRIMARY KEY,
			task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
			user_id TEXT NOT NULL REFERENCES users(id),
			user_name TEXT NOT NULL DEFAULT '',
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE TABLE IF NOT EXISTS invites (
			id TEXT PRIMARY KEY,
			project_id TEXT NOT NULL REFERENCES projects(id),
			email TEXT NOT NULL,
			token TEXT NOT NULL UNIQUE,
			status TEXT NOT NULL DEFAULT 'pending',
			invited_by TEXT NOT NULL,
			resend_count INT NOT NULL DEFAULT 0,
			job_title TEXT NOT NULL DEFAULT '',
			department TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			expires_at TIMESTAMPTZ NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS audit_logs (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL DEFAULT '',
			project_id TEXT NOT NULL DEFAULT '',
			action TEXT NOT NULL,
			entity_type TEXT NOT NULL DEFAULT '',
			entity_id TEXT NOT NULL DEFAULT '',
			details JSONB,
			ip_address TEXT NOT NULL DEFAULT '',
			user_agent TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);`,
		`CREATE INDEX IF NOT EXISTS audit_logs_created_idx ON audit_logs (created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id),
			project_id TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL,
			message TEXT NOT NULL,
			read BOOLEAN NOT NULL DEFAULT FALSE,
			entity_type TEXT NOT NULL DEFAULT '',
			entity_id TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			read_at TIMESTAMPTZ
		);`,
		`CREATE INDEX IF NOT EXISTS notifications_user_idx ON notifications (user_id, read, created_at DESC);`,
	}
	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
	}
	return nil
}

func newID(id string) string {
	if id == "" {
		return uuid.NewString()
	}
	return id
}

func translate(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return storage.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return storage.ErrAlreadyExists
	}
	return err
}

const userColumns = `id, email, name, role, status, avatar, job_title, department, phone, description, responsibilities, skills, shift, password_hash, created_at, updated_at`

// CreateUser inserts a new user row.
func (s *Store) CreateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `INSERT INTO users (id, email, name, role, status, avatar, job_title, department, phone, description, responsibilities, skills, shift, password_hash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, newID(user.ID), user.Email, user.Name, user.Role.Wire(), string(user.Status),
		user.Avatar, user.JobTitle, user.Department, user.Phone, user.Description, user.Responsibilities, user.Skills,
		user.Shift, user.PasswordHash)
	return scanUser(row)
}

// UpdateUser writes the profile and status fields of an existing user.
func (s *Store) UpdateUser(ctx context.Context, user models.User) (models.User, error) {
	query := `UPDATE users SET name = $2, status = $3, avatar = $4, job_title = $5, department = $6, phone = $7,
		description = $8, responsibilities = $9, skills = $10, shift = $11, updated_at = NOW()
		WHERE id = $1 RETURNING ` + userColumns
	row := s.pool.QueryRow(ctx, query, user.ID, user.Name, string(user.Status), user.Avatar, user.JobTitle,
		user.Department, user.Phone, user.Description, user.Responsibilities, user.Skills, user.Shift)
	return scanUser(row)
}

// GetUser fetches a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByEmail fetches a user by email address, case-insensitively.
func (s *Store) FindByEmail(ctx context.Context, email string) (models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, strings.TrimSpace(email))
	return scanUser(row)
}

// userFields lists scan targets in userColumns order.
func userFields(u *models.User, role, status *string) []any {
	return []any{&u.ID, &u.Email, &u.Name, role, status, &u.Avatar, &u.JobTitle, &u.Department, &u.Phone,
		&u.Description, &u.Responsibilities, &u.Skills, &u.Shift, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt}
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	var role, status string
	if err := row.Scan(userFields(&user, &role, &status)...); err != nil {
		return models.User{}, translate(err)
	}
	user.Role, _ = models.ParseRole(role)
	user.Status = models.UserStatus(status)
	return user, nil
}

const projectColumns = `id, name, description, category, owner_id, status, created_at, updated_at`

func (s *Store) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	query := `INSERT INTO projects (id, name, description, category, owner_id, status)
		VALUES ($1, $2, $3, $4, $5, $6) RETURNING ` + projectColumns
	return scanProject(s.pool.QueryRow(ctx, query, newID(p.ID), p.Name, p.Description, p.Category, p.OwnerID, p.Status))
}

func (s *Store) GetProject(ctx context.Context, id string) (models.Project, error) {
	return scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE id = $1`, id))
}

func (s *Store) ProjectByOwner(ctx context.Context, ownerID string) (models.Project, error) {
	return scanProject(s.pool.QueryRow(ctx, `SELECT `+projectColumns+` FROM projects WHERE owner_id = $1`, ownerID))
}

func scanProject(row pgx.Row) (models.Project, error) {
	var p models.Project
	if err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.OwnerID, &p.Status, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return models.Project{}, translate(err)
	}
	return p, nil
}

const membershipColumns = `id, user_id, project_id, role, status, joined_at`

func (s *Store) CreateMembership(ctx context.Context, m models.Membership) (models.Membership, error) {
	query := `INSERT INTO memberships (id, user_id, project_id, role, status)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + membershipColumns
	return scanMembership(s.pool.QueryRow(ctx, query, newID(m.ID), m.UserID, m.ProjectID, m.Role.Wire(), string(m.Status)))
}

func (s *Store) GetMembership(ctx context.Context, id string) (models.Membership, error) {
	return scanMembership(s.pool.QueryRow(ctx, `SELECT `+membershipColumns+` FROM memberships WHERE id = $1`, id))
}

func (s *Store) ActiveMembership(ctx context.Context, userID string) (models.Membership, error) {
	query := `SELECT ` + membershipColumns + ` FROM memberships WHERE user_id = $1 AND status = 'active' LIMIT 1`
	return scanMembership(s.pool.QueryRow(ctx, query, userID))
}

func (s *Store) UpdateMembershipStatus(ctx context.Context, id string, status models.MembershipStatus) (models.Membership, error) {
	query := `UPDATE memberships SET status = $2 WHERE id = $1 RETURNING ` + membershipColumns
	return scanMembership(s.pool.QueryRow(ctx, query, id, string(status)))
}

func scanMembership(row pgx.Row) (models.Membership, error) {
	var m models.Membership
	var role, status string
	if err := row.Scan(&m.ID, &m.UserID, &m.ProjectID, &role, &status, &m.JoinedAt); err != nil {
		return models.Membership{}, translate(err)
	}
	m.Role, _ = models.ParseRole(role)
	m.Status = models.MembershipStatus(status)
	return m, nil
}

// ListMembers returns the owner first, then employees by join date.
func (s *Store) ListMembers(ctx context.Context, projectID string) ([]models.Member, error) {
	project, err := s.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}
	owner, err := s.GetUser(ctx, project.OwnerID)
	if err != nil {
		return nil, err
	}
	out := []models.Member{{User: owner, IsOwner: true, JoinedAt: project.CreatedAt}}

	query := `SELECT m.id, m.status, m.joined_at, ` + prefixed("u", userColumns) + `
		FROM memberships m JOIN users u ON u.id = m.user_id
		WHERE m.project_id = $1 ORDER BY m.joined_at`
	rows, err := s.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var member models.Member
		var mStatus, role, uStatus string
		u := &member.User
		dest := append([]any{&member.MembershipID, &mStatus, &member.JoinedAt}, userFields(u, &role, &uStatus)...)
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		u.Role, _ = models.ParseRole(role)
		u.Status = models.UserStatus(uStatus)
		if models.MembershipStatus(mStatus) == models.MembershipInactive {
			u.Status = models.UserDisabled
		}
		out = append(out, member)
	}
	return out, rows.Err()
}

func prefixed(alias, columns string) string {
	parts := strings.Split(columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

const taskColumns = `id, project_id, title, description, status, priority, assigned_to, created_by, due_date, start_date, completed_at, tags, checklist, created_at, updated_at`

func (s *Store) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = now
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	query := `INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15) RETURNING ` + taskColumns
	row := s.pool.QueryRow(ctx, query, newID(t.ID), t.ProjectID, t.Title, t.Description, string(t.Status), string(t.Priority),
		t.AssignedTo, t.CreatedBy, t.DueDate, t.StartDate, t.CompletedAt, nonNil(t.Tags), nonNilChecklist(t.Checklist),
		t.CreatedAt, t.UpdatedAt)
	return scanTask(row)
}

func (s *Store) GetTask(ctx context.Context, id string) (models.Task, error) {
	return scanTask(s.pool.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))
}

func (s *Store) ListTasks(ctx context.Context, f storage.TaskFilter) ([]models.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks
		WHERE ($1::text = '' OR project_id = $1) AND ($2::text = '' OR assigned_to = $2) AND ($3::text = '' OR status = $3)
		ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query, f.ProjectID, f.AssignedTo, string(f.Status))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()
	var out []models.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, task)
	}
	return out, rows.Err()
}

func (s *Store) UpdateTask(ctx context.Context, t models.Task) (models.Task, error) {
	query := `UPDATE tasks SET title = $2, description = $3, status = $4, priority = $5, assigned_to = $6,
		due_date = $7, start_date = $8, completed_at = $9, tags = $10, checklist = $11, updated_at = $12
		WHERE id = $1 RETURNING ` + taskColumns
	row := s.pool.QueryRow(ctx, query, t.ID, t.Title, t.Description, string(t.Status), string(t.Priority), t.AssignedTo,
		t.DueDate, t.StartDate, t.CompletedAt, nonNil(t.Tags), nonNilChecklist(t.Checklist), t.UpdatedAt)
	return scanTask(row)
}

func (s *Store) DeleteTask(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanTask(row pgx.Row) (models.Task, error) {
	var t models.Task
	var status, priority string
	if err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &status, &priority, &t.AssignedTo, &t.CreatedBy,
		&t.DueDate, &t.StartDate, &t.CompletedAt, &t.Tags, &t.Checklist, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return models.Task{}, translate(err)
	}
	t.Status = models.TaskStatus(status)
	t.Priority = models.TaskPriority(priority)
	return t, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}

func nonNilChecklist(items []models.ChecklistItem) []models.ChecklistItem {
	if items == nil {
		return []models.ChecklistItem{}
	}
	return items
}

const commentColumns = `id, task_id, user_id, user_name, text, created_at, updated_at`

func (s *Store) CreateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	query := `INSERT INTO comments (id, task_id, user_id, user_name, text)
		VALUES ($1, $2, $3, $4, $5) RETURNING ` + commentColumns
	created, err := scanComment(s.pool.QueryRow(ctx, query, newID(c.ID), c.TaskID, c.UserID, c.UserName, c.Text))
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23503" {
		return models.Comment{}, storage.ErrNotFound
	}
	return created, err
}

func (s *Store) GetComment(ctx context.Context, id string) (models.Comment, error) {
	return scanComment(s.pool.QueryRow(ctx, `SELECT `+commentColumns+` FROM comments WHERE id = $1`, id))
}

func (s *Store) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+commentColumns+` FROM comments WHERE task_id = $1 ORDER BY created_at, id`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	defer rows.Close()
	var out []models.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) UpdateComment(ctx context.Context, c models.Comment) (models.Comment, error) {
	query := `UPDATE comments SET text = $2, updated_at = $3 WHERE id = $1 RETURNING ` + commentColumns
	return scanComment(s.pool.QueryRow(ctx, query, c.ID, c.Text, c.UpdatedAt))
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanComment(row pgx.Row) (models.Comment, error) {
	var c models.Comment
	if err := row.Scan(&c.ID, &c.TaskID, &c.UserID, &c.UserName, &c.Text, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return models.Comment{}, translate(err)
	}
	return c, nil
}

const inviteColumns = `id, project_id, email, token, status, invited_by, resend_count, job_title, department, created_at, expires_at`

func (s *Store) CreateInvite(ctx context.Context, inv models.Invite) (models.Invite, error) {
	query := `INSERT INTO invites (id, project_id, email, token, status, invited_by, resend_count, job_title, department, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING ` + inviteColumns
	row := s.pool.QueryRow(ctx, query, newID(inv.ID), inv.ProjectID, inv.Email, inv.Token, string(inv.Status),
		inv.InvitedBy, inv.ResendCount, inv.JobTitle, inv.Department, inv.ExpiresAt)
	return scanInvite(row)
}

func (s *Store) GetInvite(ctx context.Context, id string) (models.Invite, error) {
	return scanInvite(s.pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE id = $1`, id))
}

func (s *Store) InviteByToken(ctx context.Context, token string) (models.Invite, error) {
	return scanInvite(s.pool.QueryRow(ctx, `SELECT `+inviteColumns+` FROM invites WHERE token = $1`, token))
}

func (s *Store) ListInvites(ctx context.Context, projectID string, status models.InviteStatus) ([]models.Invite, error) {
	query := `SELECT ` + inviteColumns + ` FROM invites WHERE project_id = $1 AND ($2::text = '' OR status = $2) ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query, projectID, string(status))
	if err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	defer rows.Close()
	var out []models.Invite
	for rows.Next() {
		inv, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, rows.Err()
}

func (s *Store) UpdateInvite(ctx context.Context, inv models.Invite) (models.Invite, error) {
	query := `UPDATE invites SET token = $2, status = $3, resend_count = $4, expires_at = $5
		WHERE id = $1 RETURNING ` + inviteColumns
	return scanInvite(s.pool.QueryRow(ctx, query, inv.ID, inv.Token, string(inv.Status), inv.ResendCount, inv.ExpiresAt))
}

func scanInvite(row pgx.Row) (models.Invite, error) {
	var inv models.Invite
	var status string
	if err := row.Scan(&inv.ID, &inv.ProjectID, &inv.Email, &inv.Token, &status, &inv.InvitedBy, &inv.ResendCount,
		&inv.JobTitle, &inv.Department, &inv.CreatedAt, &inv.ExpiresAt); err != nil {
		return models.Invite{}, translate(err)
	}
	inv.Status = models.InviteStatus(status)
	return inv, nil
}
