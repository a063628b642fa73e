package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"hwportal/internal/transport/http/api"
)

type PermissionStore interface {
	HasPermission(ctx context.Context, role, permission string) (bool, error)
}

// RequirePermission lets the request through when the caller's role grants any
// of the listed permissions.
func RequirePermission(store PermissionStore, permissions ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			user, ok := GetUser(ctx)
			if !ok {
				api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(ctx))
				return
			}
			for _, permission := range permissions {
				allowed, err := store.HasPermission(ctx, user.RoleName, permission)
				if err != nil {
					slog.Error("permission check failed", "role", user.RoleName, "permission", permission, "err", err, "request_id", GetRequestID(ctx))
					api.Fail(w, http.StatusInternalServerError, "permission_error", "permission check failed", GetRequestID(ctx))
					return
				}
				if allowed {
					next.ServeHTTP(w, r)
					return
				}
			}
			api.Fail(w, http.StatusForbidden, "forbidden", "insufficient permissions", GetRequestID(ctx))
		})
	}
}
