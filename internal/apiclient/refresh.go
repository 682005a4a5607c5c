package apiclient

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/projectdesk/internal/models/dto"
)

// refresh returns an access token newer than stale. Callers that arrive
// while an exchange is running wait for it instead of starting another.
func (c *Client) refresh(ctx context.Context, stale string) (string, error) {
	cur, refreshToken := c.tokens.Tokens()
	if cur != "" && cur != stale {
		return cur, nil
	}
	if refreshToken == "" {
		// Already expired or never signed in: nothing to exchange and
		// nothing left to drop.
		return "", sessionExpired()
	}
	ch := c.refreshes.DoChan("refresh", func() (any, error) {
		// Detached so one caller giving up does not fail the others.
		ctx := context.WithoutCancel(ctx)
		if cur, _ := c.tokens.Tokens(); cur != "" && cur != stale {
			return cur, nil
		}
		return c.exchange(ctx)
	})
	select {
	case <-ctx.Done():
		return "", &Error{Kind: KindNetwork, Message: "request cancelled", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	}
}

// exchange trades the refresh token for a new access token. Any failure
// drops the stored session.
func (c *Client) exchange(ctx context.Context) (string, error) {
	_, refreshToken := c.tokens.Tokens()
	if refreshToken == "" {
		return "", c.expire(ctx, nil)
	}
	status, body, err := c.roundTrip(ctx, http.MethodPost, pathRefresh, nil, refreshToken)
	if err != nil {
		return "", c.expire(ctx, err)
	}
	var out dto.RefreshResponse
	if err := c.decode(http.MethodPost, pathRefresh, status, body, &out); err != nil {
		return "", c.expire(ctx, err)
	}
	if out.AccessToken == "" {
		return "", c.expire(ctx, nil)
	}
	if err := c.tokens.SetAccessToken(ctx, out.AccessToken); err != nil {
		c.logger.Warn("store refreshed token", zap.Error(err))
	}
	c.logger.Debug("access token refreshed")
	return out.AccessToken, nil
}

func (c *Client) expire(ctx context.Context, cause error) error {
	c.logger.Info("session expired", zap.Error(cause))
	c.tokens.Expire(ctx)
	if c.onExpired != nil {
		c.onExpired()
	}
	return sessionExpired()
}

func sessionExpired() error {
	return &Error{Status: http.StatusUnauthorized, Kind: KindAuthentication, Message: "session expired, please sign in again", Err: ErrSessionExpired}
}
