package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/hongminglow/projectdesk/internal/models"
)

// TokenKind separates short-lived access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

// ErrInvalidToken is returned for any token that fails verification.
var ErrInvalidToken = errors.New("invalid token")

// ErrExpiredToken is returned when a token is well formed but past its exp.
var ErrExpiredToken = errors.New("token expired")

// Claims is the verified content of a token.
type Claims struct {
	jwt.RegisteredClaims
	Kind      TokenKind   `json:"typ"`
	Email     string      `json:"email,omitempty"`
	Role      models.Role `json:"role,omitempty"`
	ProjectID string      `json:"project_id,omitempty"`
}

// TokenManager issues and verifies signed JWTs for authenticated users.
type TokenManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewTokenManager creates a manager with the provided secret, issuer, and lifetimes.
func NewTokenManager(secret, issuer string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}
}

// AccessTTL reports the lifetime of issued access tokens.
func (t *TokenManager) AccessTTL() time.Duration {
	return t.accessTTL
}

// Generate issues a signed access token carrying the user's role and project.
func (t *TokenManager) Generate(user models.User, projectID string) (string, error) {
	return t.sign(user, projectID, AccessToken, t.accessTTL)
}

// GenerateRefresh issues a refresh token that can only be exchanged for new access tokens.
func (t *TokenManager) GenerateRefresh(user models.User) (string, error) {
	return t.sign(user, "", RefreshToken, t.refreshTTL)
}

func (t *TokenManager) sign(user models.User, projectID string, kind TokenKind, ttl time.Duration) (string, error) {
	now := t.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    t.issuer,
			Subject:   user.ID,
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Kind: kind,
	}
	if kind == AccessToken {
		claims.Email = user.Email
		claims.Role = user.Role
		claims.ProjectID = projectID
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Parse verifies raw and checks that it is of the expected kind.
func (t *TokenManager) Parse(raw string, kind TokenKind) (Claims, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Kind != kind || claims.Subject == "" {
		return Claims{}, ErrInvalidToken
	}
	return claims, nil
}
