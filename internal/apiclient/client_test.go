package apiclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/hongminglow/projectdesk/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memTokens struct {
	mu      sync.Mutex
	access  string
	refresh string
	expired int
}

func (m *memTokens) Tokens() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.access, m.refresh
}

func (m *memTokens) SetAccessToken(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access = token
	return nil
}

func (m *memTokens) Expire(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.access, m.refresh = "", ""
	m.expired++
}

func writeEnvelope(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(data any) map[string]any {
	return map[string]any{"success": true, "data": data}
}

func fail(code, msg string) map[string]any {
	return map[string]any{"success": false, "error": map[string]string{"code": code, "message": msg}}
}

func newTestClient(t *testing.T, h http.Handler, tokens TokenStore, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(srv.URL+"/api", tokens, append([]Option{WithHTTPClient(srv.Client())}, opts...)...)
}

func TestDoAttachesBearerAndDecodesData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks/{id}", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		writeEnvelope(w, http.StatusOK, ok(map[string]any{"task": map[string]any{"id": r.PathValue("id"), "status": "pending"}}))
	})
	c := newTestClient(t, mux, &memTokens{access: "access-1", refresh: "refresh-1"})

	task, err := c.GetTask(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", task.ID)
	assert.Equal(t, models.TaskPending, task.Status)
}

func TestErrorEnvelopeIsClassified(t *testing.T) {
	tests := []struct {
		status int
		body   any
		kind   Kind
		code   string
		msg    string
	}{
		{http.StatusForbidden, fail("FORBIDDEN", "insufficient permission"), KindAuthorization, "FORBIDDEN", "insufficient permission"},
		{http.StatusNotFound, fail("NOT_FOUND", "task not found"), KindNotFound, "NOT_FOUND", "task not found"},
		{http.StatusInternalServerError, map[string]any{"success": false}, KindServer, "", "Error 500"},
		{http.StatusBadRequest, map[string]any{"success": false, "error": "title is required"}, KindServer, "", "title is required"},
		{http.StatusServiceUnavailable, fail("SERVER_ERROR", "down"), KindNetwork, "SERVER_ERROR", "down"},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, tt.status, tt.body)
			}), &memTokens{access: "a", refresh: "r"})

			_, err := c.GetTask(context.Background(), "t1")
			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, tt.status, apiErr.Status)
			assert.Equal(t, tt.kind, apiErr.Kind)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, tt.msg, apiErr.Message)
			assert.Equal(t, tt.kind, KindOf(err))
		})
	}
}

func TestMissingSuccessIsInferredFromStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tasks/good", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, map[string]any{"data": map[string]any{"task": map[string]any{"id": "good"}}})
	})
	mux.HandleFunc("GET /api/tasks/bad", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusBadGateway, map[string]any{"data": nil})
	})
	c := newTestClient(t, mux, &memTokens{access: "a", refresh: "r"})

	task, err := c.GetTask(context.Background(), "good")
	require.NoError(t, err)
	assert.Equal(t, "good", task.ID)

	_, err = c.GetTask(context.Background(), "bad")
	assert.Equal(t, KindNetwork, KindOf(err))
}

func TestSuccessFalseOn200IsAnError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusOK, fail("CONFLICT", "already exists"))
	}), &memTokens{access: "a", refresh: "r"})

	_, err := c.GetTask(context.Background(), "t1")
	assert.Equal(t, KindServer, KindOf(err))
}

func TestMalformedBodyIsValidationError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("<html>gateway</html>"))
	}), &memTokens{access: "a", refresh: "r"})

	_, err := c.GetTask(context.Background(), "t1")
	assert.Equal(t, KindValidation, KindOf(err))
}

func TestUnreachableServerIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(url+"/api", &memTokens{access: "a"}, WithTimeout(time.Second))
	_, err := c.GetTask(context.Background(), "t1")
	assert.Equal(t, KindNetwork, KindOf(err))
}

// refreshServer answers 401 to anything not carrying the current token.
// With barrier set, rejected requests are held until that many arrived.
type refreshServer struct {
	current   string
	failNext  bool
	refreshes atomic.Int32

	barrier int
	mu      sync.Mutex
	waiting int
	release chan struct{}
}

func (s *refreshServer) hold() {
	if s.barrier == 0 {
		return
	}
	s.mu.Lock()
	if s.release == nil {
		s.release = make(chan struct{})
	}
	s.waiting++
	if s.waiting == s.barrier {
		close(s.release)
	}
	release := s.release
	s.mu.Unlock()
	select {
	case <-release:
	case <-time.After(2 * time.Second):
	}
}

func (s *refreshServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/auth/refresh" {
		s.refreshes.Add(1)
		if s.failNext || r.Header.Get("Authorization") != "Bearer refresh-1" {
			writeEnvelope(w, http.StatusUnauthorized, fail("UNAUTHORIZED", "invalid refresh token"))
			return
		}
		time.Sleep(20 * time.Millisecond)
		writeEnvelope(w, http.StatusOK, ok(map[string]any{"access_token": s.current, "expires_in": 900}))
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+s.current {
		s.hold()
		writeEnvelope(w, http.StatusUnauthorized, fail("TOKEN_EXPIRED", "token expired"))
		return
	}
	writeEnvelope(w, http.StatusOK, ok(map[string]any{"user": map[string]any{"id": "u1", "role": "OWNER"}}))
}

func TestConcurrentExpiredRequestsShareOneRefresh(t *testing.T) {
	const callers = 3
	srv := &refreshServer{current: "access-2", barrier: callers}
	tokens := &memTokens{access: "access-1", refresh: "refresh-1"}
	c := newTestClient(t, srv, tokens)

	var wg sync.WaitGroup
	errs := make([]error, callers)
	users := make([]models.User, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			users[i], errs[i] = c.Me(context.Background())
		}()
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "u1", users[i].ID)
		assert.Equal(t, models.RoleOwner, users[i].Role)
	}
	assert.EqualValues(t, 1, srv.refreshes.Load())
	access, _ := tokens.Tokens()
	assert.Equal(t, "access-2", access)
}

func TestRefreshFailureExpiresSession(t *testing.T) {
	srv := &refreshServer{current: "access-2", failNext: true}
	tokens := &memTokens{access: "access-1", refresh: "refresh-1"}
	expired := 0
	c := newTestClient(t, srv, tokens, WithSessionExpired(func() { expired++ }))

	_, err := c.Me(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSessionExpired)
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.Equal(t, 1, tokens.expired)
	assert.Equal(t, 1, expired)
	assert.EqualValues(t, 1, srv.refreshes.Load())
}

func TestExpiredSessionIsNotExpiredAgain(t *testing.T) {
	srv := &refreshServer{current: "access-2", failNext: true}
	tokens := &memTokens{access: "access-1", refresh: "refresh-1"}
	expired := 0
	c := newTestClient(t, srv, tokens, WithSessionExpired(func() { expired++ }))

	_, err := c.Me(context.Background())
	require.ErrorIs(t, err, ErrSessionExpired)

	for range 2 {
		_, err = c.Me(context.Background())
		assert.ErrorIs(t, err, ErrSessionExpired)
		assert.Equal(t, KindAuthentication, KindOf(err))
	}
	assert.Equal(t, 1, tokens.expired)
	assert.Equal(t, 1, expired)
	assert.EqualValues(t, 1, srv.refreshes.Load(), "no exchange without a refresh token")
}

func TestLoginFailureDoesNotRefresh(t *testing.T) {
	var refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnauthorized, fail("INVALID_CREDENTIALS", "invalid credentials"))
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
	})
	tokens := &memTokens{refresh: "refresh-1"}
	c := newTestClient(t, mux, tokens)

	_, err := c.Login(context.Background(), "ana@example.com", "wrong")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "INVALID_CREDENTIALS", apiErr.Code)
	assert.Equal(t, KindAuthentication, apiErr.Kind)
	assert.Zero(t, refreshes.Load())
	assert.Zero(t, tokens.expired)
}

func TestReplayHappensOnce(t *testing.T) {
	var calls, refreshes atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/auth/me", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		writeEnvelope(w, http.StatusUnauthorized, fail("TOKEN_EXPIRED", "token expired"))
	})
	mux.HandleFunc("POST /api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		refreshes.Add(1)
		writeEnvelope(w, http.StatusOK, ok(map[string]any{"access_token": "access-2"}))
	})
	c := newTestClient(t, mux, &memTokens{access: "access-1", refresh: "refresh-1"})

	_, err := c.Me(context.Background())
	assert.Equal(t, KindAuthentication, KindOf(err))
	assert.EqualValues(t, 2, calls.Load())
	assert.EqualValues(t, 1, refreshes.Load())
}
