// Package rbac gates routes on the staff role carried in the bearer token.
package rbac

import (
	"net/http"

	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/middleware"
	"github.com/shashiranjanraj/apotek/pkg/response"
)

// HasRole allows only users holding one of roles. AuthMiddleware must run
// first.
func HasRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := middleware.RoleFromCtx(r)
			if !ok || !allowed[role] {
				logger.WithCtx(r.Context()).Warn("rbac: access denied", "role", role, "path", r.URL.Path)
				response.Forbidden(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
