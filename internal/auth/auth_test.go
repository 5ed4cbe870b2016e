package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

func newTestTokens(t *testing.T) *Tokens {
	t.Helper()
	tokens, err := NewTokens("test-secret", 30*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return tokens
}

func TestTokens_RoundTrip(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	userID := uuid.New()

	signed, err := tokens.IssueAccessToken(userID, models.RoleAdmin)
	require.NoError(t, err)

	identity, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, userID, identity.UserID)
	assert.Equal(t, models.RoleAdmin, identity.Role)
}

func TestTokens_RefreshTokenDefaultsToUserRole(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	userID := uuid.New()

	signed, err := tokens.IssueRefreshToken(userID)
	require.NoError(t, err)

	identity, err := tokens.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, identity.Role)
}

func TestTokens_Verify_Invalid(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)

	tests := []struct {
		name  string
		token string
	}{
		{name: "empty", token: ""},
		{name: "garbage", token: "not.a.jwt"},
		{
			name: "wrong_secret",
			token: func() string {
				other, err := NewTokens("other-secret", time.Minute, time.Minute)
				require.NoError(t, err)
				signed, err := other.IssueAccessToken(uuid.New(), models.RoleUser)
				require.NoError(t, err)
				return signed
			}(),
		},
		{
			name: "expired",
			token: func() string {
				expired, err := NewTokens("test-secret", -time.Minute, -time.Minute)
				require.NoError(t, err)
				signed, err := expired.IssueAccessToken(uuid.New(), models.RoleUser)
				require.NoError(t, err)
				return signed
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := tokens.Verify(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestHashPassword_RoundTrip(t *testing.T) {
	t.Parallel()
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPassword(hash, "s3cret!"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestExtractBearerToken(t *testing.T) {
	t.Parallel()

	t.Run("from_header", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		r.Header.Set("Authorization", "Bearer abc123")
		assert.Equal(t, "abc123", ExtractBearerToken(r))
	})

	t.Run("from_query_param", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/ws/orders?token=qtok", nil)
		assert.Equal(t, "qtok", ExtractBearerToken(r))
	})

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		assert.Empty(t, ExtractBearerToken(r))
	})
}

func TestMiddleware(t *testing.T) {
	t.Parallel()
	tokens := newTestTokens(t)
	userID := uuid.New()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		require.NotNil(t, identity)
		assert.Equal(t, userID, identity.UserID)
		w.WriteHeader(http.StatusOK)
	})
	handler := Middleware(tokens)(next)

	t.Run("valid_token", func(t *testing.T) {
		t.Parallel()
		signed, err := tokens.IssueAccessToken(userID, models.RoleUser)
		require.NoError(t, err)

		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		r.Header.Set("Authorization", "Bearer "+signed)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("missing_token", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("invalid_token", func(t *testing.T) {
		t.Parallel()
		r := httptest.NewRequest(http.MethodGet, "/orders", nil)
		r.Header.Set("Authorization", "Bearer bad-token")
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestRequireAdmin(t *testing.T) {
	t.Parallel()
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RequireAdmin(next)

	tests := []struct {
		name       string
		identity   *Identity
		wantStatus int
	}{
		{
			name:       "admin_allowed",
			identity:   &Identity{UserID: uuid.New(), Role: models.RoleAdmin},
			wantStatus: http.StatusOK,
		},
		{
			name:       "user_forbidden",
			identity:   &Identity{UserID: uuid.New(), Role: models.RoleUser},
			wantStatus: http.StatusForbidden,
		},
		{
			name:       "unauthenticated_forbidden",
			identity:   nil,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := httptest.NewRequest(http.MethodGet, "/orders/history", nil)
			if tt.identity != nil {
				r = r.WithContext(ContextWithIdentity(r.Context(), tt.identity))
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, r)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}
