package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furever-community/backend/internal/auth"
)

func authGate(t *testing.T) (*auth.TokenService, http.Handler) {
	t.Helper()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(auth.UserIDFromContext(r.Context())))
	})
	return tokens, RequireAuth(tokens)(next)
}

func TestRequireAuthMissingHeader(t *testing.T) {
	_, gate := authGate(t)

	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authentication required")
}

func TestRequireAuthInvalidToken(t *testing.T) {
	_, gate := authGate(t)

	for _, header := range []string{
		"Bearer garbage",
		"Basic abc",
		"Bearer",
	} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", header)
		rec := httptest.NewRecorder()
		gate.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "header %q", header)
	}
}

func TestRequireAuthExpiredToken(t *testing.T) {
	expired := auth.NewTokenService("test-secret", -time.Minute)
	token, err := expired.Issue("user-1")
	require.NoError(t, err)

	_, gate := authGate(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthInjectsUserID(t *testing.T) {
	tokens, gate := authGate(t)
	token, err := tokens.Issue("user-42")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	gate.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-42", rec.Body.String())
}
