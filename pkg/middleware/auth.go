package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/shashiranjanraj/apotek/pkg/auth"
	"github.com/shashiranjanraj/apotek/pkg/logger"
	"github.com/shashiranjanraj/apotek/pkg/response"
)

// Identity is the authenticated staff member behind a request.
type Identity struct {
	UserID uint
	Name   string
	Role   string
}

type identityKey struct{}

// WithIdentity stores id in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromCtx returns the identity set by AuthMiddleware.
func IdentityFromCtx(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserIDFromCtx(r *http.Request) (uint, bool) {
	id, ok := IdentityFromCtx(r.Context())
	return id.UserID, ok
}

func RoleFromCtx(r *http.Request) (string, bool) {
	id, ok := IdentityFromCtx(r.Context())
	return id.Role, ok
}

// AuthMiddleware requires a valid "Authorization: Bearer <jwt>" header and
// puts the caller's Identity into the request context.
func AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, found := strings.CutPrefix(header, "Bearer ")
		if !found || strings.TrimSpace(token) == "" {
			response.Unauthorized(w)
			return
		}

		claims, err := auth.ValidateToken(strings.TrimSpace(token))
		if err != nil {
			response.Error(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		id := Identity{UserID: claims.UserID, Name: claims.Name, Role: claims.Role}
		ctx := WithIdentity(r.Context(), id)
		ctx = logger.InjectLogger(ctx, logger.WithCtx(ctx).With("user_id", id.UserID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
