package identity

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/fuelbook/fuelbook/internal/platform/httpx"
)

// Middleware resolves the actor from the Authorization header and stores it
// in the request context. Requests without a valid bearer token are rejected.
func Middleware(secret []byte, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing bearer token")
				return
			}
			actor, err := ParseToken(token, secret)
			if err != nil {
				if logger != nil {
					logger.Warn("token rejected", slog.Any("error", err))
				}
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(ContextWithActor(r.Context(), actor)))
		})
	}
}

// RequireAdmin guards routes reserved for the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor not resolved")
			return
		}
		if !actor.IsAdmin() {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", "admin role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActor guards routes that must run with a resolved actor.
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "actor not resolved")
			return
		}
		next.ServeHTTP(w, r)
	})
}
