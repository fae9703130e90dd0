package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dom/task-tracker/internal/api/response"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/dom/task-tracker/internal/metrics"
	"github.com/google/uuid"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
)

const unauthenticated = "unauthenticated"

// Authenticator resolves a bearer token to the user it was issued for.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uuid.UUID, error)
}

// Auth rejects any request without a valid bearer token before the next
// handler runs, and otherwise stores the caller's user ID in the context.
func Auth(authenticator Authenticator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := BearerToken(r)
			if !ok {
				slog.DebugContext(r.Context(), "missing or malformed authorization header")
				metrics.RecordAuth("token", "missing")
				response.Error(w, http.StatusUnauthorized, unauthenticated)
				return
			}

			userID, err := authenticator.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, domain.ErrUnauthorized) {
					slog.DebugContext(r.Context(), "token rejected", "error", err)
					metrics.RecordAuth("token", "rejected")
					response.Error(w, http.StatusUnauthorized, unauthenticated)
					return
				}
				slog.ErrorContext(r.Context(), "token check failed", "error", err)
				response.Error(w, http.StatusInternalServerError, "Internal server error")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func BearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", false
	}

	scheme, token, found := strings.Cut(authHeader, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", false
	}
	return token, true
}

func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
