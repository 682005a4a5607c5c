package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/hongminglow/projectdesk/internal/auth"
	"github.com/hongminglow/projectdesk/internal/http/respond"
	"github.com/hongminglow/projectdesk/internal/models"
)

type identityKey struct{}

// Identity is the caller resolved from a verified access token.
type Identity struct {
	UserID    string
	Email     string
	Role      models.Role
	ProjectID string
}

// IdentityFrom returns the identity stored by RequireAuth.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// BearerToken extracts the token from an Authorization header.
func BearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// RequireAuth rejects requests without a valid access token with 401.
func RequireAuth(tokens *auth.TokenManager, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := BearerToken(r)
		if raw == "" {
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "missing access token")
			return
		}
		claims, err := tokens.Parse(raw, auth.AccessToken)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				respond.Error(w, http.StatusUnauthorized, respond.CodeTokenExpired, "access token expired")
				return
			}
			respond.Error(w, http.StatusUnauthorized, respond.CodeUnauthorized, "invalid access token")
			return
		}
		id := Identity{
			UserID:    claims.Subject,
			Email:     claims.Email,
			Role:      claims.Role,
			ProjectID: claims.ProjectID,
		}
		next(w, r.WithContext(WithIdentity(r.Context(), id)))
	}
}
