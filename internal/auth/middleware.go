package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prasnshabrainerhub/pizza-ordering-system/internal/models"
)

// RFC 6750 Section 3 error codes.
const (
	errorCodeInvalidRequest = "invalid_request"
	errorCodeInvalidToken   = "invalid_token"
)

type contextKey string

const identityKey contextKey = "auth.identity"

// IdentityFromContext returns the authenticated identity stored by the
// middleware, or nil when the request was not authenticated.
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey).(*Identity)
	return id
}

// ContextWithIdentity stores an identity in the context. Exposed for tests
// and for the realtime gateway.
func ContextWithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// ExtractBearerToken pulls the bearer credential from the Authorization
// header, falling back to the "token" query parameter for clients that
// cannot set headers (the websocket handshake).
func ExtractBearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return r.URL.Query().Get("token")
}

// Middleware returns an HTTP middleware that authenticates requests with the
// given verifier and stores the identity in the request context.
func Middleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r)
			if token == "" {
				writeAuthError(w, http.StatusUnauthorized, errorCodeInvalidRequest,
					"missing or malformed authorization header")
				return
			}

			identity, err := verifier.Verify(token)
			if err != nil {
				slog.Warn("Token validation failed",
					"error", err,
					"remote_addr", r.RemoteAddr,
					"path", r.URL.Path)
				writeAuthError(w, http.StatusUnauthorized, errorCodeInvalidToken,
					"token validation failed")
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithIdentity(r.Context(), identity)))
		})
	}
}

// RequireAdmin returns a middleware that rejects non-admin identities. It
// must run after Middleware.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity := IdentityFromContext(r.Context())
		if identity == nil || identity.Role != models.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, "insufficient_scope",
				"admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeAuthError(w http.ResponseWriter, status int, code, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             code,
		"error_description": description,
	})
}
