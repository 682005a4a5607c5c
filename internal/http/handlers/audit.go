package handlers

import (
	"context"
	"net"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/storage"
)

// record stores an audit entry for the request. A failed write is logged
// and never fails the request that triggered it.
func record(r *http.Request, store storage.Store, logger *zap.Logger, entry models.AuditLog) {
	entry.IPAddress = clientIP(r)
	entry.UserAgent = r.UserAgent()
	if err := store.RecordAudit(r.Context(), entry); err != nil {
		logger.Warn("record audit entry", zap.String("action", entry.Action), zap.Error(err))
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// notify delivers n unless it has no recipient or would go to actorID,
// the user who caused it.
func notify(ctx context.Context, store storage.Store, logger *zap.Logger, actorID string, n models.Notification) {
	if n.UserID == "" || n.UserID == actorID {
		return
	}
	if _, err := store.CreateNotification(ctx, n); err != nil {
		logger.Warn("create notification", zap.String("type", string(n.Type)), zap.Error(err))
	}
}

// taskNotification addresses a notification about task to userID.
func taskNotification(userID string, kind models.NotificationType, task models.Task, message string) models.Notification {
	return models.Notification{
		UserID:     userID,
		ProjectID:  task.ProjectID,
		Type:       kind,
		Message:    message,
		EntityType: "task",
		EntityID:   task.ID,
	}
}
