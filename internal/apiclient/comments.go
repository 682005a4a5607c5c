package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func commentsPath(taskID string) string {
	return taskPath(taskID) + "/comments"
}

func (c *Client) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	var out []models.Comment
	err := c.do(ctx, http.MethodGet, commentsPath(taskID), nil, &out)
	return out, err
}

func (c *Client) CreateComment(ctx context.Context, taskID, content string) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPost, commentsPath(taskID), dto.CommentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) UpdateComment(ctx context.Context, taskID, commentID, content string) (models.Comment, error) {
	var out models.Comment
	err := c.do(ctx, http.MethodPatch, commentsPath(taskID)+"/"+url.PathEscape(commentID), dto.CommentRequest{Content: content}, &out)
	return out, err
}

func (c *Client) DeleteComment(ctx context.Context, taskID, commentID string) error {
	return c.do(ctx, http.MethodDelete, commentsPath(taskID)+"/"+url.PathEscape(commentID), nil, nil)
}
