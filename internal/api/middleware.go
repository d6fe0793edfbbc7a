package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mlakar/shramba/internal/auth"
	"github.com/mlakar/shramba/internal/model"
)

type contextKey string

const (
	identityKey contextKey = "identity"
	tokenKey    contextKey = "token"
)

// unauthorizedMsg is the uniform message for every token failure mode;
// callers never learn whether the token was missing, malformed, expired, or
// revoked.
const unauthorizedMsg = "Invalid or expired token."

// authScheme is the exact header prefix: case-sensitive keyword, single
// space. Anything else counts as a missing token.
const authScheme = "Token "

// TokenMiddleware resolves the bearer token from the Authorization header
// and adds the identity (and raw token) to the request context.
func TokenMiddleware(a *auth.Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), authScheme)
			if !ok || token == "" {
				jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
				return
			}

			identity, err := a.Authenticate(r.Context(), token)
			if err != nil {
				if err != auth.ErrUnauthorized {
					slog.Error("token lookup failed", "error", err)
					jsonError(w, http.StatusInternalServerError, "internal error")
					return
				}
				jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity)
			ctx = context.WithValue(ctx, tokenKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole returns middleware that checks if the user has at least the
// given role. Runs after TokenMiddleware.
func RequireRole(minimum string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity := GetIdentity(r.Context())
			if identity == nil {
				jsonError(w, http.StatusUnauthorized, unauthorizedMsg)
				return
			}
			if !model.RoleAtLeast(identity.Role, minimum) {
				jsonError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetIdentity retrieves the authenticated identity from the context.
func GetIdentity(ctx context.Context) *auth.Identity {
	identity, _ := ctx.Value(identityKey).(*auth.Identity)
	return identity
}

// GetToken retrieves the raw bearer token from the context.
func GetToken(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// userIDFromContext returns the authenticated user's ID for audit
// attribution, or nil when unauthenticated.
func userIDFromContext(ctx context.Context) *int64 {
	identity := GetIdentity(ctx)
	if identity == nil {
		return nil
	}
	id := identity.UserID
	return &id
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware assigns each request an ID and logs method, path,
// status, and duration.
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := uuid.NewString()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		slog.Info("request",
			"request_id", requestID,
			"method", r.Method,
			"path", r.URL.RequestURI(),
			"status", rec.status,
			"duration", time.Since(start).Round(time.Millisecond),
		)
	})
}
