package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// page returns the slice of items selected by opts together with the
// unpaged total.
func page[T any](items []T, opts storage.ListOptions) ([]T, int) {
	total := len(items)
	start := min(opts.Offset(), total)
	end := min(start+opts.PerPage, total)
	return items[start:end], total
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func (s *Store) ListUsers(_ context.Context, opts storage.ListOptions) ([]models.User, int, error) {
	opts = opts.Normalize(20)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.User
	for _, u := range s.users {
		if opts.Search != "" && !contains(u.Name, opts.Search) && !contains(u.Email, opts.Search) {
			continue
		}
		if opts.Status != "" && string(u.Status) != opts.Status {
			continue
		}
		out = append(out, u)
	}
	slices.SortFunc(out, func(a, b models.User) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	users, total := page(out, opts)
	return users, total, nil
}

func (s *Store) ListProjects(_ context.Context, opts storage.ListOptions) ([]models.Project, int, error) {
	opts = opts.Normalize(20)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Project
	for _, p := range s.projects {
		if opts.Search != "" && !contains(p.Name, opts.Search) {
			continue
		}
		if opts.Status != "" && p.Status != opts.Status {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b models.Project) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	projects, total := page(out, opts)
	return projects, total, nil
}

func (s *Store) UpdateProjectStatus(_ context.Context, id, status string) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	p.Status = status
	p.UpdatedAt = s.now().UTC()
	s.projects[id] = p
	return p, nil
}

func (s *Store) PlatformStats(_ context.Context, since time.Time) (models.PlatformStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stats := models.PlatformStats{
		Users: models.UserCounts{ByRole: make(map[string]int)},
		Tasks: models.TaskCounts{ByStatus: make(map[models.TaskStatus]int)},
	}
	for _, u := range s.users {
		stats.Users.Total++
		if u.Active() {
			stats.Users.Active++
		}
		stats.Users.ByRole[u.Role.Wire()]++
		if !u.CreatedAt.Before(since) {
			stats.Users.New30d++
		}
	}
	stats.Users.Inactive = stats.Users.Total - stats.Users.Active
	for _, p := range s.projects {
		stats.Projects.Total++
		if p.Status == models.ProjectActive {
			stats.Projects.Active++
		}
		if !p.CreatedAt.Before(since) {
			stats.Projects.New30d++
		}
	}
	stats.Projects.Inactive = stats.Projects.Total - stats.Projects.Active
	for _, t := range s.tasks {
		stats.Tasks.Total++
		stats.Tasks.ByStatus[t.Status]++
		if !t.CreatedAt.Before(since) {
			stats.Tasks.New30d++
		}
	}
	for _, m := range s.memberships {
		stats.Memberships.Total++
		if m.Status == models.MembershipActive {
			stats.Memberships.Active++
		}
	}
	stats.Memberships.Inactive = stats.Memberships.Total - stats.Memberships.Active
	return stats, nil
}

func (s *Store) RecordAudit(_ context.Context, entry models.AuditLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}
	s.audits = append(s.audits, entry)
	return nil
}

func (s *Store) ListAuditLogs(_ context.Context, f storage.AuditFilter) ([]models.AuditLog, int, error) {
	opts := f.ListOptions.Normalize(50)
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.AuditLog
	for _, e := range s.audits {
		if !f.Since.IsZero() && e.CreatedAt.Before(f.Since) {
			continue
		}
		if f.UserID != "" && e.UserID != f.UserID {
			continue
		}
		if f.Action != "" && !contains(e.Action, f.Action) {
			continue
		}
		out = append(out, e)
	}
	// Entries are appended in time order; newest first.
	slices.Reverse(out)
	logs, total := page(out, opts)
	return logs, total, nil
}
