// Package auth provides JWT token issuance and verification plus the
// authentication middleware for the pizza ordering API.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

// ErrInvalidToken is returned when a credential is missing, malformed,
// expired, or fails signature verification.
var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated principal extracted from a verified token.
type Identity struct {
	UserID uuid.UUID
	Role   models.UserRole
}

// TokenVerifier verifies a bearer credential and returns the identity it
// carries. The realtime gateway and the HTTP middleware both consume this.
type TokenVerifier interface {
	Verify(token string) (*Identity, error)
}

// Tokens issues and verifies HMAC-signed JWTs.
type Tokens struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

var _ TokenVerifier = (*Tokens)(nil)

// NewTokens creates a token service with the given signing secret and lifetimes.
func NewTokens(secret string, accessTTL, refreshTTL time.Duration) (*Tokens, error) {
	if secret == "" {
		return nil, fmt.Errorf("signing secret is required")
	}
	return &Tokens{
		secret:          []byte(secret),
		accessTokenTTL:  accessTTL,
		refreshTokenTTL: refreshTTL,
	}, nil
}

type claims struct {
	Role string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// IssueAccessToken returns a signed access token carrying the user id and role.
func (t *Tokens) IssueAccessToken(userID uuid.UUID, role models.UserRole) (string, error) {
	return t.issue(userID, string(role), t.accessTokenTTL)
}

// IssueRefreshToken returns a signed refresh token carrying only the user id.
func (t *Tokens) IssueRefreshToken(userID uuid.UUID) (string, error) {
	return t.issue(userID, "", t.refreshTokenTTL)
}

func (t *Tokens) issue(userID uuid.UUID, role string, ttl time.Duration) (string, error) {
	now := time.Now()
	c := claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, returning the identity it carries.
func (t *Tokens) Verify(tokenString string) (*Identity, error) {
	if tokenString == "" {
		return nil, ErrInvalidToken
	}

	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	role := models.UserRole(c.Role)
	if role == "" {
		role = models.RoleUser
	}

	return &Identity{UserID: userID, Role: role}, nil
}
