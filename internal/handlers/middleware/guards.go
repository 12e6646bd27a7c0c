package middleware

import (
	"net/http"
	"slices"

	"github.com/google/uuid"
	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/handlers/render"
	"github.com/quizdeck/identity/internal/models"
)

// RequireRole passes only principals whose role is in the allowed set.
// Must run inside Auth.Require, a missing principal is rejected
func RequireRole(allowed ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalctx.FromContext(r.Context())
			if !ok || !slices.Contains(allowed, principal.Role) {
				render.ServiceError(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin is RequireRole narrowed to ADMIN
func RequireAdmin() func(http.Handler) http.Handler {
	return RequireRole(models.RoleAdmin)
}

// RequireSelfOrAdmin passes when the principal owns the resource addressed by
// the id path segment, or is an admin
func RequireSelfOrAdmin(pathParam string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := principalctx.FromContext(r.Context())
			if !ok {
				render.ServiceError(w, "Access denied", http.StatusForbidden)
				return
			}

			ownerID, err := uuid.Parse(r.PathValue(pathParam))
			if err != nil {
				render.ServiceError(w, "Invalid user id", http.StatusBadRequest)
				return
			}

			if principal.UserID != ownerID && !principal.Role.IsAdmin() {
				render.ServiceError(w, "Access denied", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
