package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// ListUsers pages through users, newest first.
func (s *Store) ListUsers(ctx context.Context, opts storage.ListOptions) ([]models.User, int, error) {
	opts = opts.Normalize(20)
	where := `WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%' OR email ILIKE '%' || $1 || '%')
		AND ($2::text = '' OR status = $2)`
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM users `+where, opts.Search, opts.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users `+where+` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		opts.Search, opts.Status, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()
	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

// ListProjects pages through projects, newest first.
func (s *Store) ListProjects(ctx context.Context, opts storage.ListOptions) ([]models.Project, int, error) {
	opts = opts.Normalize(20)
	where := `WHERE ($1::text = '' OR name ILIKE '%' || $1 || '%') AND ($2::text = '' OR status = $2)`
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM projects `+where, opts.Search, opts.Status).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count projects: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+projectColumns+` FROM projects `+where+` ORDER BY created_at DESC, id LIMIT $3 OFFSET $4`,
		opts.Search, opts.Status, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()
	var out []models.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (s *Store) UpdateProjectStatus(ctx context.Context, id, status string) (models.Project, error) {
	query := `UPDATE projects SET status = $2, updated_at = NOW() WHERE id = $1 RETURNING ` + projectColumns
	return scanProject(s.pool.QueryRow(ctx, query, id, status))
}

// PlatformStats runs one grouped count per table.
func (s *Store) PlatformStats(ctx context.Context, since time.Time) (models.PlatformStats, error) {
	stats := models.PlatformStats{
		Users: models.UserCounts{ByRole: make(map[string]int)},
		Tasks: models.TaskCounts{ByStatus: make(map[models.TaskStatus]int)},
	}

	err := s.groups(ctx, `SELECT role, status = 'active', created_at >= $1, count(*) FROM users GROUP BY 1, 2, 3`, since,
		func(key string, active, recent bool, n int) {
			stats.Users.Total += n
			stats.Users.ByRole[key] += n
			if active {
				stats.Users.Active += n
			}
			if recent {
				stats.Users.New30d += n
			}
		})
	if err != nil {
		return models.PlatformStats{}, fmt.Errorf("count users: %w", err)
	}
	stats.Users.Inactive = stats.Users.Total - stats.Users.Active

	err = s.groups(ctx, `SELECT '', status = 'active', created_at >= $1, count(*) FROM projects GROUP BY 1, 2, 3`, since,
		func(_ string, active, recent bool, n int) {
			stats.Projects.Total += n
			if active {
				stats.Projects.Active += n
			}
			if recent {
				stats.Projects.New30d += n
			}
		})
	if err != nil {
		return models.PlatformStats{}, fmt.Errorf("count projects: %w", err)
	}
	stats.Projects.Inactive = stats.Projects.Total - stats.Projects.Active

	err = s.groups(ctx, `SELECT status, TRUE, created_at >= $1, count(*) FROM tasks GROUP BY 1, 2, 3`, since,
		func(key string, _, recent bool, n int) {
			stats.Tasks.Total += n
			stats.Tasks.ByStatus[models.TaskStatus(key)] += n
			if recent {
				stats.Tasks.New30d += n
			}
		})
	if err != nil {
		return models.PlatformStats{}, fmt.Errorf("count tasks: %w", err)
	}

	err = s.groups(ctx, `SELECT '', status = 'active', joined_at >= $1, count(*) FROM memberships GROUP BY 1, 2, 3`, since,
		func(_ string, active, _ bool, n int) {
			stats.Memberships.Total += n
			if active {
				stats.Memberships.Active += n
			}
		})
	if err != nil {
		return models.PlatformStats{}, fmt.Errorf("count memberships: %w", err)
	}
	stats.Memberships.Inactive = stats.Memberships.Total - stats.Memberships.Active
	return stats, nil
}

// groups runs a (key, active, recent, count) aggregate and feeds each row to add.
func (s *Store) groups(ctx context.Context, query string, since time.Time, add func(key string, active, recent bool, n int)) error {
	rows, err := s.pool.Query(ctx, query, since)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var key string
		var active, recent bool
		var n int
		if err := rows.Scan(&key, &active, &recent, &n); err != nil {
			return err
		}
		add(key, active, recent, n)
	}
	return rows.Err()
}

const auditColumns = `id, user_id, project_id, action, entity_type, entity_id, details, ip_address, user_agent, created_at`

func (s *Store) RecordAudit(ctx context.Context, e models.AuditLog) error {
	query := `INSERT INTO audit_logs (id, user_id, project_id, action, entity_type, entity_id, details, ip_address, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := s.pool.Exec(ctx, query, newID(e.ID), e.UserID, e.ProjectID, e.Action, e.EntityType, e.EntityID,
		e.Details, e.IPAddress, e.UserAgent); err != nil {
		return fmt.Errorf("record audit: %w", err)
	}
	return nil
}

func (s *Store) ListAuditLogs(ctx context.Context, f storage.AuditFilter) ([]models.AuditLog, int, error) {
	opts := f.ListOptions.Normalize(50)
	where := `WHERE created_at >= $1 AND ($2::text = '' OR user_id = $2) AND ($3::text = '' OR action ILIKE '%' || $3 || '%')`
	var total int
	if err := s.pool.QueryRow(ctx, `SELECT count(*) FROM audit_logs `+where, f.Since, f.UserID, f.Action).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}
	rows, err := s.pool.Query(ctx, `SELECT `+auditColumns+` FROM audit_logs `+where+` ORDER BY created_at DESC, id LIMIT $4 OFFSET $5`,
		f.Since, f.UserID, f.Action, opts.PerPage, opts.Offset())
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.AuditLog, error) {
		var e models.AuditLog
		err := row.Scan(&e.ID, &e.UserID, &e.ProjectID, &e.Action, &e.EntityType, &e.EntityID, &e.Details,
			&e.IPAddress, &e.UserAgent, &e.CreatedAt)
		return e, err
	})
	if err != nil {
		return nil, 0, fmt.Errorf("scan audit log: %w", err)
	}
	return logs, total, nil
}
