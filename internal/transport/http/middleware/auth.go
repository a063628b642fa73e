package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"hwportal/internal/domain/auth"
	"hwportal/internal/transport/http/api"
)

const (
	devUserHeader = "X-Portal-User"
	devRoleHeader = "X-Portal-Role"
)

// identityFunc resolves the caller from a request, reporting false when the
// request carries no usable identity.
type identityFunc func(r *http.Request) (auth.UserContext, bool)

// Auth attaches the caller identity. A configured secret means bearer JWTs.
// Without one, trustHeaders takes X-Portal-User at face value, which is only
// meant for local development. Requests without identity pass through
// unchanged; RequireUser decides whether that is acceptable.
func Auth(secret string, trustHeaders bool) func(http.Handler) http.Handler {
	var resolve identityFunc
	switch {
	case secret != "":
		resolve = bearerIdentity(secret)
	case trustHeaders:
		slog.Warn("trusting X-Portal-User header for identity; do not use in production")
		resolve = headerIdentity
	default:
		resolve = func(*http.Request) (auth.UserContext, bool) { return auth.UserContext{}, false }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user, ok := resolve(r); ok {
				r = r.WithContext(WithUser(r.Context(), user))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerIdentity(secret string) identityFunc {
	return func(r *http.Request) (auth.UserContext, bool) {
		scheme, token, found := strings.Cut(strings.TrimSpace(r.Header.Get("Authorization")), " ")
		if !found || !strings.EqualFold(scheme, "bearer") {
			return auth.UserContext{}, false
		}
		claims, err := auth.ParseToken(secret, strings.TrimSpace(token))
		if err != nil {
			slog.Debug("bearer token rejected", "err", err, "request_id", GetRequestID(r.Context()))
			return auth.UserContext{}, false
		}
		return claims.User(), true
	}
}

func headerIdentity(r *http.Request) (auth.UserContext, bool) {
	userID := strings.TrimSpace(r.Header.Get(devUserHeader))
	if userID == "" {
		return auth.UserContext{}, false
	}
	role := strings.TrimSpace(r.Header.Get(devRoleHeader))
	if role == "" {
		role = auth.RoleHQAdmin
	}
	return auth.UserContext{UserID: userID, Email: userID, RoleName: role}, true
}

// RequireUser rejects requests that carry no identity.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetUser(r.Context()); !ok {
			api.Fail(w, http.StatusUnauthorized, "unauthorized", "authentication required", GetRequestID(r.Context()))
			return
		}
		next.ServeHTTP(w, r)
	})
}
