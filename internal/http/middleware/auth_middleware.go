package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
	"github.com/sandeepkv93/shortlink-backend/internal/service"
)

type contextKey string

const (
	UserIDContextKey       contextKey = "user_id"
	SessionTokenContextKey contextKey = "session_token"
)

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint, error)
}

// SessionAuth requires an opaque session token in the Authorization header.
// The header carries the bare token; a "Bearer " prefix is tolerated.
func SessionAuth(auth Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionTokenFromRequest(r)
			if token == "" {
				response.Error(w, r, http.StatusUnauthorized, service.CodeUnauthorized, "missing session token", nil)
				return
			}
			userID, err := auth.Authenticate(r.Context(), token)
			if err != nil {
				if service.ErrorCode(err) == service.CodeUnauthorized {
					response.Error(w, r, http.StatusUnauthorized, service.CodeUnauthorized, "invalid or expired session", nil)
					return
				}
				response.Error(w, r, http.StatusInternalServerError, service.CodeInternal, "internal server error", nil)
				return
			}
			ctx := context.WithValue(r.Context(), UserIDContextKey, userID)
			ctx = context.WithValue(ctx, SessionTokenContextKey, token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func SessionTokenFromRequest(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(raw) > 7 && strings.EqualFold(raw[:7], "bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	return raw
}

func UserIDFromContext(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDContextKey).(uint)
	return id, ok
}

func SessionTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(SessionTokenContextKey).(string)
	return token, ok
}
