package dto

import "github.com/hongminglow/projectdesk/internal/models"

type NotificationListResponse struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
}

type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

type NotificationResponse struct {
	Notification models.Notification `json:"notification"`
}

type MarkedResponse struct {
	MarkedCount int `json:"marked_count"`
}
