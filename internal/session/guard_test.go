package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hongminglow/projectdesk/internal/apiclient"
	"github.com/hongminglow/projectdesk/internal/kv"
	"github.com/hongminglow/projectdesk/internal/models"
)

type fakeBackend struct {
	meCalls     atomic.Int32
	logoutCalls atomic.Int32
	user        models.User
	meErr       error
	logoutErr   error
	release     chan struct{}
}

func (f *fakeBackend) Me(ctx context.Context) (models.User, error) {
	f.meCalls.Add(1)
	if f.release != nil {
		select {
		case <-f.release:
		case <-ctx.Done():
			return models.User{}, ctx.Err()
		}
	}
	return f.user, f.meErr
}

func (f *fakeBackend) Logout(ctx context.Context) error {
	f.logoutCalls.Add(1)
	return f.logoutErr
}

func seeded(t *testing.T, side *sideData) *kv.Memory {
	t.Helper()
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, KeyAccessToken, "access-1"))
	require.NoError(t, store.Set(ctx, KeyRefreshToken, "refresh-1"))
	if side != nil {
		raw, err := json.Marshal(side)
		require.NoError(t, err)
		require.NoError(t, store.Set(ctx, KeySessionData, string(raw)))
	}
	return store
}

func TestHydrateAnonymousWithoutTokens(t *testing.T) {
	backend := &fakeBackend{}
	g := NewGuard(kv.NewMemory(), backend, nil)

	st := g.Hydrate(context.Background())
	assert.True(t, st.Resolved)
	assert.Nil(t, st.Session)
	assert.Zero(t, backend.meCalls.Load())
}

func TestHydrateRestoresSession(t *testing.T) {
	project := &models.Project{ID: "p1", Name: "Apollo"}
	backend := &fakeBackend{user: models.User{ID: "u1", Role: models.RoleOwner}}
	g := NewGuard(seeded(t, &sideData{Project: project}), backend, nil)

	st := g.Hydrate(context.Background())
	require.True(t, st.Authenticated())
	assert.Equal(t, "u1", st.Session.User.ID)
	assert.Equal(t, "access-1", st.Session.AccessToken)
	assert.Equal(t, "refresh-1", st.Session.RefreshToken)
	assert.Equal(t, project, st.Session.Project)
	assert.Equal(t, "/app/dashboard", st.Session.Home())
}

func TestHydrateIsIdempotent(t *testing.T) {
	backend := &fakeBackend{user: models.User{ID: "u1", Role: models.RoleEmployee}}
	g := NewGuard(seeded(t, nil), backend, nil)
	ctx := context.Background()

	g.Hydrate(ctx)
	g.Hydrate(ctx)
	assert.EqualValues(t, 1, backend.meCalls.Load())
}

func TestHydrateConcurrentCallersShareOneFetch(t *testing.T) {
	backend := &fakeBackend{user: models.User{ID: "u1", Role: models.RoleEmployee}, release: make(chan struct{})}
	g := NewGuard(seeded(t, nil), backend, nil)

	var wg sync.WaitGroup
	results := make([]State, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = g.Hydrate(context.Background())
		}()
	}
	close(backend.release)
	wg.Wait()

	assert.EqualValues(t, 1, backend.meCalls.Load())
	for _, st := range results {
		assert.True(t, st.Authenticated())
	}
}

func TestHydrateFailureClearsStorage(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, &sideData{Project: &models.Project{ID: "p1"}})
	g := NewGuard(store, &fakeBackend{meErr: &apiclient.Error{Status: 401, Kind: apiclient.KindAuthentication}}, nil)

	st := g.Hydrate(ctx)
	assert.True(t, st.Resolved)
	assert.Nil(t, st.Session)
	for _, key := range []string{KeyAccessToken, KeyRefreshToken, KeySessionData} {
		_, err := store.Get(ctx, key)
		assert.ErrorIs(t, err, kv.ErrNotFound, key)
	}
}

func TestHydrateKeepsSessionWhenServerUnreachable(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, &sideData{Project: &models.Project{ID: "p1"}})
	backend := &fakeBackend{meErr: &apiclient.Error{Kind: apiclient.KindNetwork, Message: "connection refused"}}
	g := NewGuard(store, backend, nil)

	st := g.Hydrate(ctx)
	assert.True(t, st.Resolved)
	assert.Nil(t, st.Session)
	assert.Equal(t, apiclient.KindNetwork, apiclient.KindOf(st.Err))
	refresh, err := store.Get(ctx, KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", refresh)

	backend.meErr = nil
	backend.user = models.User{ID: "u1", Role: models.RoleOwner}
	st = g.Hydrate(ctx)
	require.True(t, st.Authenticated())
	assert.Nil(t, st.Err)
	assert.Equal(t, "refresh-1", st.Session.RefreshToken)
	assert.EqualValues(t, 2, backend.meCalls.Load())
}

func TestHydrateSurvivesCancelledCaller(t *testing.T) {
	store := seeded(t, nil)
	backend := &fakeBackend{user: models.User{ID: "u1", Role: models.RoleEmployee}, release: make(chan struct{})}
	g := NewGuard(store, backend, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	st := g.Hydrate(ctx)
	assert.False(t, st.Resolved)
	assert.ErrorIs(t, st.Err, context.Canceled)

	close(backend.release)
	st = g.Hydrate(context.Background())
	require.True(t, st.Authenticated())
	assert.EqualValues(t, 1, backend.meCalls.Load())
	access, refresh := g.Tokens()
	assert.Equal(t, "access-1", access)
	assert.Equal(t, "refresh-1", refresh)
	stored, err := store.Get(context.Background(), KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "refresh-1", stored)
}

func TestHydrateIgnoresMalformedSideData(t *testing.T) {
	ctx := context.Background()
	store := seeded(t, nil)
	require.NoError(t, store.Set(ctx, KeySessionData, "{not json"))
	g := NewGuard(store, &fakeBackend{user: models.User{ID: "u1", Role: models.RoleOwner}}, nil)

	st := g.Hydrate(ctx)
	require.True(t, st.Authenticated())
	assert.Nil(t, st.Session.Project)
	assert.Equal(t, "/onboarding", st.Session.Home())
}

func TestLoginPersistsAndPublishes(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	g := NewGuard(store, &fakeBackend{}, nil)

	var seen []State
	unsubscribe := g.Subscribe(func(st State) { seen = append(seen, st) })
	defer unsubscribe()

	s := Session{
		User:         models.User{ID: "u2", Role: models.RoleEmployee},
		AccessToken:  "a",
		RefreshToken: "r",
		Project:      &models.Project{ID: "p1"},
		Membership:   &models.Membership{ID: "m1", ProjectID: "p1", Status: models.MembershipActive},
	}
	require.NoError(t, g.Login(ctx, s))

	require.Len(t, seen, 1)
	assert.Equal(t, "u2", seen[0].Session.User.ID)
	assert.Equal(t, Decision{Action: Allow}, g.Decide("/work/my-tasks"))

	access, _ := store.Get(ctx, KeyAccessToken)
	refresh, _ := store.Get(ctx, KeyRefreshToken)
	raw, _ := store.Get(ctx, KeySessionData)
	assert.Equal(t, "a", access)
	assert.Equal(t, "r", refresh)
	var side sideData
	require.NoError(t, json.Unmarshal([]byte(raw), &side))
	assert.Equal(t, "m1", side.Membership.ID)
}

func TestLogoutIgnoresBackendFailure(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	backend := &fakeBackend{logoutErr: errors.New("offline")}
	g := NewGuard(store, backend, nil)
	require.NoError(t, g.Login(ctx, Session{User: models.User{ID: "u1", Role: models.RoleOwner}, AccessToken: "a", RefreshToken: "r"}))

	g.Logout(ctx)

	assert.EqualValues(t, 1, backend.logoutCalls.Load())
	assert.Nil(t, g.Current().Session)
	assert.True(t, g.Resolved())
	_, err := store.Get(ctx, KeyAccessToken)
	assert.ErrorIs(t, err, kv.ErrNotFound)
	assert.Equal(t, RedirectTo("/auth/login"), g.Decide("/app/dashboard"))
}

func TestSetAccessTokenReplacesSession(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	g := NewGuard(store, &fakeBackend{}, nil)
	require.NoError(t, g.Login(ctx, Session{User: models.User{ID: "u1", Role: models.RoleOwner}, AccessToken: "old", RefreshToken: "r"}))
	before := g.Current().Session

	require.NoError(t, g.SetAccessToken(ctx, "new"))

	access, refresh := g.Tokens()
	assert.Equal(t, "new", access)
	assert.Equal(t, "r", refresh)
	assert.Equal(t, "old", before.AccessToken, "published sessions are replaced, not mutated")
	stored, _ := store.Get(ctx, KeyAccessToken)
	assert.Equal(t, "new", stored)
}

func TestExpireDropsSession(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	g := NewGuard(store, &fakeBackend{}, nil)
	require.NoError(t, g.Login(ctx, Session{User: models.User{ID: "u1", Role: models.RoleOwner}, AccessToken: "a", RefreshToken: "r"}))

	g.Expire(ctx)

	assert.Nil(t, g.Current().Session)
	access, refresh := g.Tokens()
	assert.Empty(t, access)
	assert.Empty(t, refresh)
}

func TestUpdateProjectRoutesOwnerToDashboard(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	g := NewGuard(store, &fakeBackend{}, nil)

	require.ErrorIs(t, g.UpdateProject(ctx, models.Project{ID: "p1"}), ErrAnonymous)

	require.NoError(t, g.Login(ctx, Session{User: models.User{ID: "u1", Role: models.RoleOwner}, AccessToken: "a", RefreshToken: "r"}))
	assert.Equal(t, RedirectTo("/onboarding"), g.Decide("/app/dashboard"))

	require.NoError(t, g.UpdateProject(ctx, models.Project{ID: "p1", Name: "Apollo"}))
	assert.Equal(t, Decision{Action: Allow}, g.Decide("/app/dashboard"))

	raw, err := store.Get(ctx, KeySessionData)
	require.NoError(t, err)
	assert.Contains(t, raw, "Apollo")
}

func TestUpdateUserReplacesProfile(t *testing.T) {
	ctx := context.Background()
	g := NewGuard(kv.NewMemory(), &fakeBackend{}, nil)

	require.ErrorIs(t, g.UpdateUser(ctx, models.User{ID: "u1"}), ErrAnonymous)

	project := &models.Project{ID: "p1"}
	require.NoError(t, g.Login(ctx, Session{
		User:         models.User{ID: "u1", Name: "Eve", Role: models.RoleEmployee},
		AccessToken:  "a",
		RefreshToken: "r",
		Project:      project,
		Membership:   &models.Membership{ID: "m1", ProjectID: "p1", Status: models.MembershipActive},
	}))
	before := g.Current().Session

	require.NoError(t, g.UpdateUser(ctx, models.User{ID: "u1", Name: "Eve", Role: models.RoleEmployee, JobTitle: "Designer"}))

	after := g.Current().Session
	assert.Equal(t, "Designer", after.User.JobTitle)
	assert.Empty(t, before.User.JobTitle, "published sessions are replaced, not mutated")
	assert.Equal(t, "a", after.AccessToken)
	assert.Equal(t, project, after.Project)
	assert.Equal(t, Decision{Action: Allow}, g.Decide("/work/my-tasks"))
}

func TestUpdateMembershipRoutesEmployeeToNoProject(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	g := NewGuard(store, &fakeBackend{}, nil)
	require.NoError(t, g.Login(ctx, Session{
		User:         models.User{ID: "u1", Role: models.RoleEmployee},
		AccessToken:  "a",
		RefreshToken: "r",
		Project:      &models.Project{ID: "p1"},
		Membership:   &models.Membership{ID: "m1", ProjectID: "p1", Status: models.MembershipActive},
	}))
	assert.Equal(t, Decision{Action: Allow}, g.Decide("/work/my-tasks"))

	require.NoError(t, g.UpdateMembership(ctx, nil))
	assert.Equal(t, RedirectTo("/work/no-project"), g.Decide("/work/my-tasks"))

	// The change survives a restart.
	restarted := NewGuard(store, &fakeBackend{user: models.User{ID: "u1", Role: models.RoleEmployee}}, nil)
	st := restarted.Hydrate(ctx)
	require.True(t, st.Authenticated())
	assert.Nil(t, st.Session.Membership)
	assert.Equal(t, "/work/no-project", st.Session.Home())
}
