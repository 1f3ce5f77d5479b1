package middleware

import (
	"net/http"

	"github.com/furever-community/backend/internal/auth"
	"github.com/furever-community/backend/internal/web"
)

// RequireAuth validates the bearer token and injects the user id into
// the request context. A missing, malformed or expired token
// short-circuits with 401; the middleware has no other side effects.
func RequireAuth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := auth.TokenFromHeader(r.Header.Get("Authorization"))
			if err != nil {
				web.Error(w, r, http.StatusUnauthorized, "Authentication required", nil)
				return
			}

			userID, err := tokens.Verify(token)
			if err != nil {
				web.Error(w, r, http.StatusUnauthorized, "Authentication required", nil)
				return
			}

			ctx := auth.ContextWithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
