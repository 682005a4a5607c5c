package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func (c *Client) Notifications(ctx context.Context, unreadOnly bool) ([]models.Notification, error) {
	path := "/notifications"
	if unreadOnly {
		path += "?unread_only=true"
	}
	var out dto.NotificationListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Notifications, err
}

func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var out dto.UnreadCountResponse
	err := c.do(ctx, http.MethodGet, "/notifications/unread-count", nil, &out)
	return out.UnreadCount, err
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (models.Notification, error) {
	var out dto.NotificationResponse
	err := c.do(ctx, http.MethodPatch, "/notifications/"+url.PathEscape(id)+"/read", nil, &out)
	return out.Notification, err
}

// MarkAllNotificationsRead returns how many notifications changed.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) (int, error) {
	var out dto.MarkedResponse
	err := c.do(ctx, http.MethodPatch, "/notifications/read-all", nil, &out)
	return out.MarkedCount, err
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/notifications/"+url.PathEscape(id), nil, nil)
}
