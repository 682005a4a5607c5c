// Package apiclient is the REST client for the projectdesk API. It
// attaches the session's access token to every call and renews it once
// through the refresh endpoint when the server answers 401.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	pathLogin   = "/auth/login"
	pathRefresh = "/auth/refresh"
)

// TokenStore is where the client reads credentials and reports refreshes.
// session.Guard implements it.
type TokenStore interface {
	Tokens() (access, refresh string)
	SetAccessToken(ctx context.Context, token string) error
	Expire(ctx context.Context)
}

// Client talks to the API rooted at baseURL (for example
// http://localhost:8080/api).
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenStore
	logger  *zap.Logger

	refreshes singleflight.Group
	onExpired func()
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSessionExpired registers fn to run after a refresh fails and the
// stored tokens were dropped.
func WithSessionExpired(fn func()) Option {
	return func(c *Client) { c.onExpired = fn }
}

func New(baseURL string, tokens TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// envelope is the body every endpoint answers with.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   *errorBody      `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// UnmarshalJSON also accepts a bare string error.
func (b *errorBody) UnmarshalJSON(raw []byte) error {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		b.Message = s
		return nil
	}
	type plain errorBody
	return json.Unmarshal(raw, (*plain)(b))
}

func refreshable(path string) bool {
	return !strings.HasPrefix(path, pathLogin) && !strings.HasPrefix(path, pathRefresh)
}

// do sends one call and decodes the envelope's data into out (which may be
// nil). A 401 triggers at most one refresh and one replay.
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		if payload, err = json.Marshal(in); err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
	}
	access := ""
	if c.tokens != nil {
		access, _ = c.tokens.Tokens()
	}
	status, body, err := c.roundTrip(ctx, method, path, payload, access)
	if err != nil {
		return err
	}
	if status == http.StatusUnauthorized && refreshable(path) && c.tokens != nil {
		token, err := c.refresh(ctx, access)
		if err != nil {
			return err
		}
		if status, body, err = c.roundTrip(ctx, method, path, payload, token); err != nil {
			return err
		}
	}
	return c.decode(method, path, status, body, out)
}

func (c *Client) roundTrip(ctx context.Context, method, path string, payload []byte, token string) (int, []byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("request failed", zap.String("method", method), zap.String("path", path), zap.Error(err))
		return 0, nil, &Error{Kind: KindNetwork, Message: "could not reach the server", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, &Error{Status: resp.StatusCode, Kind: KindNetwork, Message: "connection interrupted", Err: err}
	}
	c.logger.Debug("api call", zap.String("method", method), zap.String("path", path), zap.Int("status", resp.StatusCode))
	return resp.StatusCode, body, nil
}

// decode unwraps the envelope. A body without a success flag is judged by
// the HTTP status.
func (c *Client) decode(method, path string, status int, body []byte, out any) error {
	ok := status >= 200 && status < 300
	var env envelope
	if len(bytes.TrimSpace(body)) > 0 {
		if err := json.Unmarshal(body, &env); err != nil {
			c.logger.Warn("unexpected response format", zap.String("path", path), zap.Int("status", status), zap.Error(err))
			if ok {
				return &Error{Status: status, Kind: KindValidation, Message: "unexpected response from server", Err: err}
			}
			return &Error{Status: status, Kind: kindForStatus(status), Message: fmt.Sprintf("Error %d", status)}
		}
	}
	if env.Success == nil {
		c.logger.Warn("response missing success field", zap.String("method", method), zap.String("path", path), zap.Int("status", status))
	} else if !*env.Success {
		ok = false
	}

	if !ok {
		apiErr := &Error{Status: status, Kind: kindForStatus(status), Message: fmt.Sprintf("Error %d", status)}
		if status >= 200 && status < 300 {
			apiErr.Kind = KindServer
		}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			if env.Error.Message != "" {
				apiErr.Message = env.Error.Message
			}
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		c.logger.Warn("successful response missing data", zap.String("method", method), zap.String("path", path))
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &Error{Status: status, Kind: KindValidation, Message: "unexpected response from server", Err: err}
	}
	return nil
}
