package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"hwportal/internal/transport/http/api"
)

type RateLimitKeyFunc func(r *http.Request) string

type RateLimitOption func(*rateLimiter)

// keyedBucket is a token bucket per caller key. A caller may burst up to
// limit requests, refilled evenly over the window.
type keyedBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type rateLimiter struct {
	mu      sync.Mutex
	limit   int
	window  time.Duration
	every   rate.Limit
	keyFn   RateLimitKeyFunc
	buckets map[string]*keyedBucket
}

const maxTrackedKeys = 1024

func WithKeyFunc(fn RateLimitKeyFunc) RateLimitOption {
	return func(rl *rateLimiter) {
		if fn != nil {
			rl.keyFn = fn
		}
	}
}

func RateLimit(limit int, window time.Duration, opts ...RateLimitOption) func(http.Handler) http.Handler {
	rl := newRateLimiter(limit, window, actorOrIPKey)
	for _, opt := range opts {
		opt(rl)
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rl.allow(w, r) {
				next.ServeHTTP(w, r)
			}
		})
	}
}

// UploadRateLimit applies a tighter per-actor budget to the upload mutations
// that parse files or create backend jobs.
func UploadRateLimit(baseLimit int, window time.Duration) func(http.Handler) http.Handler {
	uploadsByActor := newRateLimiter(max(baseLimit/4, 1), window, actorOrIPKey)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isUploadMutation(r) && !uploadsByActor.allow(w, r) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isUploadMutation(r *http.Request) bool {
	if r.Method != http.MethodPost {
		return false
	}
	path := strings.TrimPrefix(strings.TrimSpace(r.URL.Path), "/api/v1")
	if !strings.HasPrefix(path, "/uploads/sessions/") {
		return false
	}
	return strings.HasSuffix(path, "/file") || strings.HasSuffix(path, "/submit")
}

func actorOrIPKey(r *http.Request) string {
	if user, ok := GetUser(r.Context()); ok && user.UserID != "" {
		return "user:" + user.UserID
	}
	return clientIPKey(r)
}

func clientIPKey(r *http.Request) string {
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if value := strings.TrimSpace(first); value != "" {
			return value
		}
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

func newRateLimiter(limit int, window time.Duration, keyFn RateLimitKeyFunc) *rateLimiter {
	if keyFn == nil {
		keyFn = actorOrIPKey
	}
	rl := &rateLimiter{
		limit:   limit,
		window:  window,
		keyFn:   keyFn,
		buckets: map[string]*keyedBucket{},
	}
	if limit > 0 && window > 0 {
		rl.every = rate.Every(window / time.Duration(limit))
	}
	return rl
}

func (rl *rateLimiter) allow(w http.ResponseWriter, r *http.Request) bool {
	if rl.limit <= 0 || rl.every == 0 {
		return true
	}

	key := rl.keyFn(r)
	if key == "" {
		key = clientIPKey(r)
	}
	now := time.Now()
	limiter := rl.bucket(key, now)

	allowed := limiter.AllowN(now, 1)
	tokens := limiter.TokensAt(now)
	header := w.Header()
	header.Set("X-RateLimit-Limit", strconv.Itoa(rl.limit))
	header.Set("X-RateLimit-Remaining", strconv.Itoa(max(int(math.Floor(tokens)), 0)))
	if allowed {
		return true
	}

	retryAfter := time.Duration((1 - tokens) / float64(rl.every) * float64(time.Second))
	header.Set("Retry-After", strconv.Itoa(max(int(math.Ceil(retryAfter.Seconds())), 1)))
	slog.Warn("rate limit exceeded",
		"key", key,
		"path", r.URL.Path,
		"method", r.Method,
		"limit", rl.limit,
		"window", rl.window.String(),
		"request_id", GetRequestID(r.Context()),
	)
	api.Fail(w, http.StatusTooManyRequests, "rate_limited", "too many requests", GetRequestID(r.Context()))
	return false
}

func (rl *rateLimiter) bucket(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b, ok := rl.buckets[key]
	if !ok {
		if len(rl.buckets) >= maxTrackedKeys {
			rl.evictIdleLocked(now)
		}
		b = &keyedBucket{limiter: rate.NewLimiter(rl.every, rl.limit)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// evictIdleLocked forgets callers quiet for a full window. Their bucket would
// have refilled completely, so dropping it changes nothing.
func (rl *rateLimiter) evictIdleLocked(now time.Time) {
	for key, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.window {
			delete(rl.buckets, key)
		}
	}
}
