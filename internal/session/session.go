// Package session holds the signed-in actor, persists it between runs and
// decides which routes it may reach.
package session

import (
	"time"

	"github.com/hongminglow/projectdesk/internal/models"
	"github.com/hongminglow/projectdesk/internal/models/dto"
)

// Persisted keys.
const (
	KeyAccessToken  = "access_token"
	KeyRefreshToken = "refresh_token"
	KeySessionData  = "session_data"
)

// Session is an authenticated actor with its credentials and tenant.
// Owners carry a Project once onboarded, employees a Membership once they
// joined one, superadmins neither.
type Session struct {
	User         models.User        `json:"user"`
	AccessToken  string             `json:"access_token"`
	RefreshToken string             `json:"refresh_token"`
	Project      *models.Project    `json:"project,omitempty"`
	Membership   *models.Membership `json:"membership,omitempty"`
}

// Home is the landing path for s.
func (s Session) Home() string {
	return ResolveHome(s.User.Role, s.Project != nil, s.Membership != nil)
}

// sideData is the auxiliary blob stored under KeySessionData.
type sideData struct {
	Project    *models.Project    `json:"project,omitempty"`
	Membership *models.Membership `json:"membership,omitempty"`
}

// State is what subscribers observe. Session is nil when anonymous. Err is
// set when hydration could not verify a stored session, e.g. because the
// server was unreachable; the stored tokens are kept.
type State struct {
	Resolved bool
	Session  *Session
	Err      error
}

// Authenticated reports whether a session is present.
func (s State) Authenticated() bool {
	return s.Resolved && s.Session != nil
}

// FromLogin builds a session from a login, register or invite-acceptance
// response. The backend does not return memberships, so one is derived
// from the project for owners and employees.
func FromLogin(resp dto.LoginResponse, now time.Time) Session {
	s := Session{
		User:         resp.User,
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		Project:      resp.Project,
	}
	if resp.Project != nil {
		s.Membership = DeriveMembership(resp.User, *resp.Project, now)
	}
	return s
}

// DeriveMembership builds the active membership an owner or employee has
// in p. It returns nil for other roles.
func DeriveMembership(u models.User, p models.Project, now time.Time) *models.Membership {
	if u.Role != models.RoleOwner && u.Role != models.RoleEmployee {
		return nil
	}
	return &models.Membership{
		ID:        "mem-" + p.ID,
		UserID:    u.ID,
		ProjectID: p.ID,
		Role:      u.Role,
		Status:    models.MembershipActive,
		JoinedAt:  now.UTC(),
	}
}
