package requestctx

import "context"

type ctxKey string

const (
	requestIDKey       ctxKey = "request_id"
	upstreamSessionKey ctxKey = "upstream_session"
)

// UpstreamSession carries the browser's backend credentials so outbound calls
// act on behalf of the signed-in user.
type UpstreamSession struct {
	CSRFToken string
	SessionID string
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func GetRequestID(ctx context.Context) string {
	if value, ok := ctx.Value(requestIDKey).(string); ok {
		return value
	}
	return ""
}

func WithUpstreamSession(ctx context.Context, session UpstreamSession) context.Context {
	return context.WithValue(ctx, upstreamSessionKey, session)
}

func GetUpstreamSession(ctx context.Context) (UpstreamSession, bool) {
	session, ok := ctx.Value(upstreamSessionKey).(UpstreamSession)
	return session, ok
}
