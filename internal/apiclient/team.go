package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

func (c *Client) ListMembers(ctx context.Context) (dto.MemberListResponse, error) {
	var out dto.MemberListResponse
	err := c.do(ctx, http.MethodGet, "/members", nil, &out)
	return out, err
}

func (c *Client) DeactivateMember(ctx context.Context, membershipID string) (models.Membership, error) {
	var out models.Membership
	err := c.do(ctx, http.MethodPatch, "/members/"+url.PathEscape(membershipID)+"/deactivate", nil, &out)
	return out, err
}

func (c *Client) SendInvite(ctx context.Context, req dto.InviteRequest) (models.Invite, error) {
	var out dto.InviteResponse
	err := c.do(ctx, http.MethodPost, "/invites", req, &out)
	return out.Invite, err
}

// ListInvites lists the project's invitations, optionally by status.
func (c *Client) ListInvites(ctx context.Context, status models.InviteStatus) ([]models.Invite, error) {
	path := "/invites"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var out dto.InviteListResponse
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out.Invites, err
}

func (c *Client) ResendInvite(ctx context.Context, id string) (models.Invite, error) {
	var out dto.InviteResponse
	err := c.do(ctx, http.MethodPost, "/invites/"+url.PathEscape(id)+"/resend", nil, &out)
	return out.Invite, err
}

func (c *Client) CancelInvite(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/invites/"+url.PathEscape(id), nil, nil)
}

// UpdateProfile edits userID's profile; only the set fields change.
func (c *Client) UpdateProfile(ctx context.Context, userID string, req dto.ProfileUpdateRequest) (models.User, error) {
	var out dto.UserResponse
	err := c.do(ctx, http.MethodPatch, "/members/"+url.PathEscape(userID)+"/profile", req, &out)
	return out.User, err
}
