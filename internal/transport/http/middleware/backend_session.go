package middleware

import (
	"net/http"
	"strings"

	"hwportal/internal/requestctx"
)

const (
	csrfHeader    = "X-Frappe-CSRF-Token"
	sessionCookie = "sid"
)

// BackendSession lifts the caller's upstream CSRF token and session cookie
// into the request context so backend calls run as that user.
func BackendSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := requestctx.UpstreamSession{
			CSRFToken: strings.TrimSpace(r.Header.Get(csrfHeader)),
		}
		if cookie, err := r.Cookie(sessionCookie); err == nil {
			session.SessionID = cookie.Value
		}
		if session.CSRFToken == "" && session.SessionID == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := requestctx.WithUpstreamSession(r.Context(), session)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
