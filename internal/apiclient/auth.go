package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func (c *Client) Login(ctx context.Context, email, password string) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, pathLogin, dto.LoginRequest{Email: email, Password: password}, &out)
	return out, err
}

// Register creates an owner account.
func (c *Client) Register(ctx context.Context, req dto.RegisterRequest) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", req, &out)
	return out, err
}

// AcceptInvite creates an employee account from an invitation.
func (c *Client) AcceptInvite(ctx context.Context, req dto.AcceptInviteRequest) (dto.LoginResponse, error) {
	var out dto.LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/accept-invite", req, &out)
	return out, err
}

// ValidateInvite looks up an invitation token without signing in.
func (c *Client) ValidateInvite(ctx context.Context, token string) (dto.InviteValidation, error) {
	var out dto.InviteValidation
	err := c.do(ctx, http.MethodGet, "/invites/validate/"+url.PathEscape(token), nil, &out)
	return out, err
}

// Me fetches the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (models.User, error) {
	var out dto.MeResponse
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	return out.User, err
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}
