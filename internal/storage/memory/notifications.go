package memory

import (
	"cmp"
	"context"
	"slices"
	"strings"
	"time"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

func (s *Store) CreateNotification(_ context.Context, n models.Notification) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stamp(&n.ID, &n.CreatedAt)
	s.notes[n.ID] = n
	return n, nil
}

func (s *Store) ListNotifications(_ context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Notification
	for _, n := range s.notes {
		if n.UserID != userID || (unreadOnly && n.Read) {
			continue
		}
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b models.Notification) int {
		return cmp.Or(b.CreatedAt.Compare(a.CreatedAt), strings.Compare(a.ID, b.ID))
	})
	return out, nil
}

func (s *Store) UnreadCount(_ context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, n := range s.notes {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count, nil
}

func (s *Store) MarkNotificationRead(_ context.Context, id, userID string, at time.Time) (models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return models.Notification{}, storage.ErrNotFound
	}
	if !n.Read {
		n.Read, n.ReadAt = true, &at
		s.notes[id] = n
	}
	return n, nil
}

func (s *Store) MarkAllNotificationsRead(_ context.Context, userID string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	marked := 0
	for id, n := range s.notes {
		if n.UserID != userID || n.Read {
			continue
		}
		n.Read, n.ReadAt = true, &at
		s.notes[id] = n
		marked++
	}
	return marked, nil
}

func (s *Store) DeleteNotification(_ context.Context, id, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.notes[id]
	if !ok || n.UserID != userID {
		return storage.ErrNotFound
	}
	delete(s.notes, id)
	return nil
}
