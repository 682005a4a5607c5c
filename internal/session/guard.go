package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/kv"
	"github.com/hongminglow/projectdesk/internal/models"
)

// Backend is the part of the REST API the guard talks to.
type Backend interface {
	Me(ctx context.Context) (models.User, error)
	Logout(ctx context.Context) error
}

// Guard owns the current session. It is the single writer of persisted
// session state; the API client reads tokens from it and reports refreshes
// and expiry back through SetAccessToken and Expire.
type Guard struct {
	store   kv.Store
	backend Backend
	logger  *zap.Logger

	hydrate singleflight.Group

	mu        sync.Mutex
	state     State
	staged    [2]string // access, refresh read from storage during hydration
	listeners map[int]func(State)
	nextID    int
}

// NewGuard returns an unresolved guard. backend may be set later with Bind
// when it depends on the guard itself.
func NewGuard(store kv.Store, backend Backend, logger *zap.Logger) *Guard {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Guard{store: store, backend: backend, logger: logger, listeners: make(map[int]func(State))}
}

// Bind sets the backend. Call it before Hydrate or Logout.
func (g *Guard) Bind(backend Backend) {
	g.mu.Lock()
	g.backend = backend
	g.mu.Unlock()
}

// Current returns the published state.
func (g *Guard) Current() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolved reports whether hydration or a login has settled the session.
func (g *Guard) Resolved() bool {
	return g.Current().Resolved
}

// Decide evaluates path against the current state.
func (g *Guard) Decide(path string) Decision {
	return Decide(g.Current(), path)
}

// Subscribe registers fn for every published state and returns a function
// that removes it.
func (g *Guard) Subscribe(fn func(State)) (unsubscribe func()) {
	g.mu.Lock()
	id := g.nextID
	g.nextID++
	g.listeners[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.listeners, id)
		g.mu.Unlock()
	}
}

// publish replaces the state and notifies listeners outside the lock.
func (g *Guard) publish(next State) {
	g.mu.Lock()
	g.state = next
	g.staged = [2]string{}
	fns := make([]func(State), 0, len(g.listeners))
	for _, fn := range g.listeners {
		fns = append(fns, fn)
	}
	g.mu.Unlock()
	for _, fn := range fns {
		fn(next)
	}
}

// Hydrate restores a persisted session. Concurrent callers share one
// in-flight run, which is detached from any single caller's cancellation;
// a caller that gives up early gets an unresolved State carrying ctx.Err().
// Once settled, later calls return immediately unless the last run could
// not reach the server, in which case they try again.
func (g *Guard) Hydrate(ctx context.Context) State {
	if st := g.Current(); settled(st) {
		return st
	}
	ch := g.hydrate.DoChan("hydrate", func() (any, error) {
		if st := g.Current(); settled(st) {
			return st, nil
		}
		st := g.restore(context.WithoutCancel(ctx))
		g.publish(st)
		return st, nil
	})
	select {
	case res := <-ch:
		return res.Val.(State)
	case <-ctx.Done():
		return State{Err: ctx.Err()}
	}
}

func settled(st State) bool {
	return st.Resolved && st.Err == nil
}

func (g *Guard) restore(ctx context.Context) State {
	anonymous := State{Resolved: true}
	access, err := kv.Lookup(ctx, g.store, KeyAccessToken)
	if err != nil {
		g.logger.Warn("read access token", zap.Error(err))
		return anonymous
	}
	refresh, err := kv.Lookup(ctx, g.store, KeyRefreshToken)
	if err != nil {
		g.logger.Warn("read refresh token", zap.Error(err))
		return anonymous
	}
	if access == "" || refresh == "" {
		return anonymous
	}

	g.mu.Lock()
	g.staged = [2]string{access, refresh}
	backend := g.backend
	g.mu.Unlock()
	if backend == nil {
		g.logger.Warn("hydrate without backend")
		return anonymous
	}

	user, err := backend.Me(ctx)
	if err != nil {
		// Only a rejected credential ends the session. Anything else keeps
		// the stored tokens for the next attempt.
		if apiclient.KindOf(err) != apiclient.KindAuthentication {
			g.logger.Warn("session not verified", zap.Error(err))
			return State{Resolved: true, Err: err}
		}
		g.logger.Info("session not restored", zap.Error(err))
		g.clear(ctx)
		return anonymous
	}
	// The profile call may have refreshed the access token.
	access, refresh = g.Tokens()

	s := &Session{User: user, AccessToken: access, RefreshToken: refresh}
	if raw, err := kv.Lookup(ctx, g.store, KeySessionData); err != nil {
		g.logger.Warn("read session data", zap.Error(err))
	} else if raw != "" {
		var side sideData
		if err := json.Unmarshal([]byte(raw), &side); err != nil {
			g.logger.Warn("discard malformed session data", zap.Error(err))
		} else {
			s.Project, s.Membership = side.Project, side.Membership
		}
	}
	return State{Resolved: true, Session: s}
}

// Login persists s and publishes it. The session is published even when
// persisting fails; the error is returned so the caller can report it.
func (g *Guard) Login(ctx context.Context, s Session) error {
	err := g.persist(ctx, s)
	g.publish(State{Resolved: true, Session: &s})
	return err
}

func (g *Guard) persist(ctx context.Context, s Session) error {
	if err := g.store.Set(ctx, KeyAccessToken, s.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if err := g.store.Set(ctx, KeyRefreshToken, s.RefreshToken); err != nil {
		return fmt.Errorf("persist refresh token: %w", err)
	}
	return g.persistSide(ctx, s)
}

func (g *Guard) persistSide(ctx context.Context, s Session) error {
	raw, err := json.Marshal(sideData{Project: s.Project, Membership: s.Membership})
	if err != nil {
		return fmt.Errorf("encode session data: %w", err)
	}
	if err := g.store.Set(ctx, KeySessionData, string(raw)); err != nil {
		return fmt.Errorf("persist session data: %w", err)
	}
	return nil
}

// Logout tells the backend best-effort, then clears everything.
func (g *Guard) Logout(ctx context.Context) {
	g.mu.Lock()
	backend, signedIn := g.backend, g.state.Session != nil
	g.mu.Unlock()
	if backend != nil && signedIn {
		if err := backend.Logout(ctx); err != nil {
			g.logger.Info("backend logout failed", zap.Error(err))
		}
	}
	g.clear(ctx)
	g.publish(State{Resolved: true})
}

func (g *Guard) clear(ctx context.Context) {
	if err := g.store.Delete(ctx, KeyAccessToken, KeyRefreshToken, KeySessionData); err != nil {
		g.logger.Warn("clear session storage", zap.Error(err))
	}
}

// Tokens returns the credentials to send, including those staged while a
// hydration is still validating them.
func (g *Guard) Tokens() (access, refresh string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if s := g.state.Session; s != nil {
		return s.AccessToken, s.RefreshToken
	}
	return g.staged[0], g.staged[1]
}

// SetAccessToken stores a refreshed access token.
func (g *Guard) SetAccessToken(ctx context.Context, token string) error {
	g.mu.Lock()
	if s := g.state.Session; s != nil {
		next := *s
		next.AccessToken = token
		g.mu.Unlock()
		g.publish(State{Resolved: true, Session: &next})
	} else {
		g.staged[0] = token
		g.mu.Unlock()
	}
	if err := g.store.Set(ctx, KeyAccessToken, token); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	return nil
}

// Expire drops the session after an unrecoverable authentication failure.
// During hydration only the staged tokens are dropped; Hydrate publishes.
func (g *Guard) Expire(ctx context.Context) {
	g.clear(ctx)
	g.mu.Lock()
	resolved := g.state.Resolved
	g.staged = [2]string{}
	g.mu.Unlock()
	if resolved {
		g.publish(State{Resolved: true})
	}
}

// UpdateProject replaces the session's project, e.g. after onboarding or
// a settings edit.
func (g *Guard) UpdateProject(ctx context.Context, p models.Project) error {
	return g.update(ctx, func(s *Session) { s.Project = &p })
}

// UpdateUser replaces the session's user after a profile edit.
func (g *Guard) UpdateUser(ctx context.Context, u models.User) error {
	return g.update(ctx, func(s *Session) { s.User = u })
}

// UpdateMembership replaces the session's membership.
func (g *Guard) UpdateMembership(ctx context.Context, m *models.Membership) error {
	return g.update(ctx, func(s *Session) { s.Membership = m })
}

// ErrAnonymous is returned by updates made without a session.
var ErrAnonymous = errors.New("session: not signed in")

func (g *Guard) update(ctx context.Context, edit func(*Session)) error {
	g.mu.Lock()
	cur := g.state.Session
	g.mu.Unlock()
	if cur == nil {
		return ErrAnonymous
	}
	next := *cur
	edit(&next)
	g.publish(State{Resolved: true, Session: &next})
	return g.persistSide(ctx, next)
}
