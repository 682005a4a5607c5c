// Package memory is an in-process storage.Store used when no database is
// configured and by handler tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

var _ storage.Store = (*Store)(nil)

// Store keeps every record in maps guarded by one mutex.
type Store struct {
	mu          sync.RWMutex
	users       map[string]models.User
	projects    map[string]models.Project
	memberships map[string]models.Membership
	tasks       map[string]models.Task
	comments    map[string]models.Comment
	invites     map[string]models.Invite
	audits      []models.AuditLog
	notes       map[string]models.Notification
	now         func() time.Time
}

// New returns an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		projects:    make(map[string]models.Project),
		memberships: make(map[string]models.Membership),
		tasks:       make(map[string]models.Task),
		comments:    make(map[string]models.Comment),
		invites:     make(map[string]models.Invite),
		notes:       make(map[string]models.Notification),
		now:         time.Now,
	}
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) Close() {}

func (s *Store) stamp(id *string, created *time.Time) {
	if *id == "" {
		*id = uuid.NewString()
	}
	if created.IsZero() {
		*created = s.now().UTC()
	}
}

func (s *Store) CreateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	email := strings.ToLower(user.Email)
	for _, existing := range s.users {
		if strings.ToLower(existing.Email) == email {
			return models.User{}, storage.ErrAlreadyExists
		}
	}
	s.stamp(&user.ID, &user.CreatedAt)
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) GetUser(_ context.Context, id string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[id]
	if !ok {
		return models.User{}, storage.ErrNotFound
	}
	return user, nil
}

func (s *Store) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, user := range s.users {
		if strings.ToLower(user.Email) == email {
			return user, nil
		}
	}
	return models.User{}, storage.ErrNotFound
}

func (s *Store) UpdateUser(_ context.Context, user models.User) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.ID]; !ok {
		return models.User{}, storage.ErrNotFound
	}
	s.users[user.ID] = user
	return user, nil
}

func (s *Store) CreateProject(_ context.Context, project models.Project) (models.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.projects {
		if existing.OwnerID == project.OwnerID {
			return models.Project{}, storage.ErrAlreadyExists
		}
	}
	s.stamp(&project.ID, &project.CreatedAt)
	project.UpdatedAt = project.CreatedAt
	s.projects[project.ID] = project
	return project, nil
}

func (s *Store) GetProject(_ context.Context, id string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	if !ok {
		return models.Project{}, storage.ErrNotFound
	}
	return p, nil
}

func (s *Store) ProjectByOwner(_ context.Context, ownerID string) (models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.projects {
		if p.OwnerID == ownerID {
			return p, nil
		}
	}
	return models.Project{}, storage.ErrNotFound
}

func (s *Store) CreateMembership(_ context.Context, m models.Membership) (models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.memberships {
		if existing.UserID == m.UserID && existing.ProjectID == m.ProjectID {
			return models.Membership{}, storage.ErrAlreadyExists
		}
	}
	s.stamp(&m.ID, &m.JoinedAt)
	s.memberships[m.ID] = m
	return m, nil
}

func (s *Store) GetMembership(_ context.Context, id string) (models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.memberships[id]
	if !ok {
		return models.Membership{}, storage.ErrNotFound
	}
	return m, nil
}

func (s *Store) ActiveMembership(_ context.Context, userID string) (models.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.memberships {
		if m.UserID == userID && m.Status == models.MembershipActive {
			return m, nil
		}
	}
	return models.Membership{}, storage.ErrNotFound
}

func (s *Store) ListMembers(_ context.Context, projectID string) ([]models.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[projectID]
	if !ok {
		return nil, storage.ErrNotFound
	}
	var out []models.Member
	if owner, ok := s.users[project.OwnerID]; ok {
		out = append(out, models.Member{User: owner, IsOwner: true, JoinedAt: project.CreatedAt})
	}
	var employees []models.Member
	for _, m := range s.memberships {
		if m.ProjectID != projectID {
			continue
		}
		user, ok := s.users[m.UserID]
		if !ok {
			continue
		}
		if m.Status == models.MembershipInactive {
			user.Status = models.UserDisabled
		}
		employees = append(employees, models.Member{User: user, MembershipID: m.ID, JoinedAt: m.JoinedAt})
	}
	slices.SortFunc(employees, func(a, b models.Member) int { return a.JoinedAt.Compare(b.JoinedAt) })
	return append(out, employees...), nil
}

func (s *Store) UpdateMembershipStatus(_ context.Context, id string, status models.MembershipStatus) (models.Membership, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.memberships[id]
	if !ok {
		return models.Membership{}, storage.ErrNotFound
	}
	m.Status = status
	s.memberships[id] = m
	return m, nil
}

func (s *Store) CreateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&task.ID, &task.CreatedAt)
	if task.UpdatedAt.IsZero() {
		task.UpdatedAt = task.CreatedAt
	}
	s.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

func (s *Store) GetTask(_ context.Context, id string) (models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	task, ok := s.tasks[id]
	if !ok {
		return models.Task{}, storage.ErrNotFound
	}
	return task.Clone(), nil
}

func (s *Store) ListTasks(_ context.Context, filter storage.TaskFilter) ([]models.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Task
	for _, task := range s.tasks {
		if filter.ProjectID != "" && task.ProjectID != filter.ProjectID {
			continue
		}
		if filter.AssignedTo != "" && task.AssignedTo != filter.AssignedTo {
			continue
		}
		if filter.Status != "" && task.Status != filter.Status {
			continue
		}
		out = append(out, task.Clone())
	}
	slices.SortFunc(out, func(a, b models.Task) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UpdateTask(_ context.Context, task models.Task) (models.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[task.ID]; !ok {
		return models.Task{}, storage.ErrNotFound
	}
	s.tasks[task.ID] = task.Clone()
	return task.Clone(), nil
}

func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.tasks, id)
	for cid, c := range s.comments {
		if c.TaskID == id {
			delete(s.comments, cid)
		}
	}
	return nil
}

func (s *Store) CreateComment(_ context.Context, c models.Comment) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[c.TaskID]; !ok {
		return models.Comment{}, storage.ErrNotFound
	}
	s.stamp(&c.ID, &c.CreatedAt)
	c.UpdatedAt = c.CreatedAt
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) GetComment(_ context.Context, id string) (models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return models.Comment{}, storage.ErrNotFound
	}
	return c, nil
}

func (s *Store) ListComments(_ context.Context, taskID string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Comment
	for _, c := range s.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	slices.SortFunc(out, func(a, b models.Comment) int {
		return cmp.Or(a.CreatedAt.Compare(b.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UpdateComment(_ context.Context, c models.Comment) (models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[c.ID]; !ok {
		return models.Comment{}, storage.ErrNotFound
	}
	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) CreateInvite(_ context.Context, inv models.Invite) (models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.invites {
		if existing.Token == inv.Token {
			return models.Invite{}, storage.ErrAlreadyExists
		}
	}
	s.stamp(&inv.ID, &inv.CreatedAt)
	s.invites[inv.ID] = inv
	return inv, nil
}

func (s *Store) GetInvite(_ context.Context, id string) (models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	inv, ok := s.invites[id]
	if !ok {
		return models.Invite{}, storage.ErrNotFound
	}
	return inv, nil
}

func (s *Store) InviteByToken(_ context.Context, token string) (models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, inv := range s.invites {
		if inv.Token == token {
			return inv, nil
		}
	}
	return models.Invite{}, storage.ErrNotFound
}

func (s *Store) ListInvites(_ context.Context, projectID string, status models.InviteStatus) ([]models.Invite, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Invite
	for _, inv := range s.invites {
		if inv.ProjectID != projectID || (status != "" && inv.Status != status) {
			continue
		}
		out = append(out, inv)
	}
	slices.SortFunc(out, func(a, b models.Invite) int { return b.CreatedAt.Compare(a.CreatedAt) })
	return out, nil
}

func (s *Store) UpdateInvite(_ context.Context, inv models.Invite) (models.Invite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[inv.ID]; !ok {
		return models.Invite{}, storage.ErrNotFound
	}
	s.invites[inv.ID] = inv
	return inv, nil
}
