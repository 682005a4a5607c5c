package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

const notificationColumns = `id, user_id, project_id, type, message, read, entity_type, entity_id, created_at, read_at`

func (s *Store) CreateNotification(ctx context.Context, n models.Notification) (models.Notification, error) {
	query := `INSERT INTO notifications (id, user_id, project_id, type, message, entity_type, entity_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING ` + notificationColumns
	return scanNotification(s.pool.QueryRow(ctx, query, newID(n.ID), n.UserID, n.ProjectID, string(n.Type), n.Message,
		n.EntityType, n.EntityID))
}

func (s *Store) ListNotifications(ctx context.Context, userID string, unreadOnly bool) ([]models.Notification, error) {
	query := `SELECT ` + notificationColumns + ` FROM notifications
		WHERE user_id = $1 AND (NOT $2 OR NOT read) ORDER BY created_at DESC, id`
	rows, err := s.pool.Query(ctx, query, userID, unreadOnly)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()
	var out []models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *Store) UnreadCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx, `SELECT count(*) FROM notifications WHERE user_id = $1 AND NOT read`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string, at time.Time) (models.Notification, error) {
	query := `UPDATE notifications SET read = TRUE, read_at = COALESCE(read_at, $3)
		WHERE id = $1 AND user_id = $2 RETURNING ` + notificationColumns
	return scanNotification(s.pool.QueryRow(ctx, query, id, userID, at))
}

func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string, at time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE, read_at = $2 WHERE user_id = $1 AND NOT read`, userID, at)
	if err != nil {
		return 0, fmt.Errorf("mark notifications read: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

func scanNotification(row pgx.Row) (models.Notification, error) {
	var n models.Notification
	var kind string
	if err := row.Scan(&n.ID, &n.UserID, &n.ProjectID, &kind, &n.Message, &n.Read, &n.EntityType, &n.EntityID,
		&n.CreatedAt, &n.ReadAt); err != nil {
		return models.Notification{}, translate(err)
	}
	n.Type = models.NotificationType(kind)
	return n, nil
}
