package middleware_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dom/task-tracker/internal/api/middleware"
	"github.com/dom/task-tracker/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	tokens map[string]uuid.UUID
	err    error
}

func (a stubAuthenticator) Authenticate(ctx context.Context, token string) (uuid.UUID, error) {
	if a.err != nil {
		return uuid.Nil, a.err
	}
	id, ok := a.tokens[token]
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: unknown token", domain.ErrUnauthorized)
	}
	return id, nil
}

func TestAuth(t *testing.T) {
	userID := uuid.New()
	authenticator := stubAuthenticator{tokens: map[string]uuid.UUID{"good-token": userID}}

	tests := []struct {
		name           string
		authenticator  stubAuthenticator
		header         string
		expectedStatus int
		expectCalled   bool
	}{
		{
			name:           "valid bearer token",
			authenticator:  authenticator,
			header:         "Bearer good-token",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "scheme is case insensitive",
			authenticator:  authenticator,
			header:         "bearer good-token",
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "missing header",
			authenticator:  authenticator,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "wrong scheme",
			authenticator:  authenticator,
			header:         "Basic good-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "empty token",
			authenticator:  authenticator,
			header:         "Bearer ",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "rejected token",
			authenticator:  authenticator,
			header:         "Bearer bad-token",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "store failure",
			authenticator:  stubAuthenticator{err: errors.New("db down")},
			header:         "Bearer good-token",
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				called = true
				got, ok := middleware.GetUserID(r.Context())
				require.True(t, ok)
				assert.Equal(t, userID, got)
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/tasks", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			middleware.Auth(tt.authenticator)(next).ServeHTTP(rec, req)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			assert.Equal(t, tt.expectCalled, called)
			if tt.expectedStatus == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"unauthenticated"}`, rec.Body.String())
			}
		})
	}
}

func TestGetUserID_Missing(t *testing.T) {
	_, ok := middleware.GetUserID(context.Background())
	assert.False(t, ok)
}
