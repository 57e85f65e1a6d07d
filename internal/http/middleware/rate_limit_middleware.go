package middleware

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sandeepkv93/shortlink-backend/internal/http/response"
	"github.com/sandeepkv93/shortlink-backend/internal/observability"
)

type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
	Remaining  int
	ResetAt    time.Time
}

// RateLimitPolicy allows Limit requests per key within any Window.
type RateLimitPolicy struct {
	Limit  int
	Window time.Duration
}

func (p RateLimitPolicy) normalized() RateLimitPolicy {
	if p.Limit <= 0 {
		p.Limit = 1
	}
	if p.Window <= 0 {
		p.Window = time.Minute
	}
	return p
}

type Limiter interface {
	Allow(ctx context.Context, key string, policy RateLimitPolicy) (Decision, error)
}

type FailureMode string

const (
	FailOpen   FailureMode = "fail_open"
	FailClosed FailureMode = "fail_closed"
)

// slidingWindowLimiter keeps the hit times of every key in process.
type slidingWindowLimiter struct {
	mu        sync.Mutex
	hits      map[string][]time.Time
	nextPrune time.Time
	now       func() time.Time
}

func NewSlidingWindowLimiter() Limiter {
	return &slidingWindowLimiter{
		hits: make(map[string][]time.Time),
		now:  time.Now,
	}
}

func (l *slidingWindowLimiter) Allow(_ context.Context, key string, policy RateLimitPolicy) (Decision, error) {
	policy = policy.normalized()
	now := l.now()
	cutoff := now.Add(-policy.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextPrune) {
		for k, hits := range l.hits {
			if len(hits) == 0 || !hits[len(hits)-1].After(cutoff) {
				delete(l.hits, k)
			}
		}
		l.nextPrune = now.Add(policy.Window)
	}

	live := l.hits[key][:0]
	for _, hit := range l.hits[key] {
		if hit.After(cutoff) {
			live = append(live, hit)
		}
	}

	if len(live) >= policy.Limit {
		l.hits[key] = live
		resetAt := live[0].Add(policy.Window)
		return Decision{
			RetryAfter: max(resetAt.Sub(now), time.Second),
			ResetAt:    resetAt,
		}, nil
	}

	live = append(live, now)
	l.hits[key] = live
	return Decision{
		Allowed:   true,
		Remaining: policy.Limit - len(live),
		ResetAt:   live[0].Add(policy.Window),
	}, nil
}

type RateLimiter struct {
	limiter Limiter
	policy  RateLimitPolicy
	mode    FailureMode
	scope   string
	keyFunc func(r *http.Request) string
}

// NewRateLimiter limits per client IP with an in-process limiter.
func NewRateLimiter(limit int, window time.Duration, scope string) *RateLimiter {
	return NewDistributedRateLimiter(NewSlidingWindowLimiter(), limit, window, FailClosed, scope, nil)
}

func NewDistributedRateLimiter(
	limiter Limiter,
	limit int,
	window time.Duration,
	mode FailureMode,
	scope string,
	keyFunc func(r *http.Request) string,
) *RateLimiter {
	if scope == "" {
		scope = "api"
	}
	if keyFunc == nil {
		keyFunc = clientIPKey
	}
	return &RateLimiter{
		limiter: limiter,
		policy:  RateLimitPolicy{Limit: limit, Window: window}.normalized(),
		mode:    mode,
		scope:   scope,
		keyFunc: keyFunc,
	}
}

func (rl *RateLimiter) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := rl.keyFunc(r)
			if key == "" {
				key = clientIPKey(r)
			}
			decision, err := rl.limiter.Allow(r.Context(), rl.scope+":"+key, rl.policy)
			if err != nil {
				observability.RecordRateLimitDecision(r.Context(), rl.scope, "backend_error")
				if rl.mode == FailOpen {
					slog.WarnContext(r.Context(), "rate limiter unavailable, allowing request",
						"scope", rl.scope, "error", err.Error())
					next.ServeHTTP(w, r)
					return
				}
				decision = Decision{RetryAfter: rl.policy.Window, ResetAt: time.Now().Add(rl.policy.Window)}
			}

			h := w.Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(rl.policy.Limit))
			h.Set("X-RateLimit-Remaining", strconv.Itoa(max(decision.Remaining, 0)))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
			if !decision.Allowed {
				if err == nil {
					observability.RecordRateLimitDecision(r.Context(), rl.scope, "deny")
				}
				h.Set("Retry-After", retryAfterSeconds(decision.RetryAfter))
				response.Error(w, r, http.StatusTooManyRequests, "RATE_LIMITED", "too many requests", nil)
				return
			}
			observability.RecordRateLimitDecision(r.Context(), rl.scope, "allow")
			next.ServeHTTP(w, r)
		})
	}
}

// clientIPKey reads RemoteAddr, which chi's RealIP has already replaced with
// the forwarded client address when present.
func clientIPKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if ip := net.ParseIP(strings.TrimSpace(host)); ip != nil {
		return ip.String()
	}
	return r.RemoteAddr
}

func retryAfterSeconds(d time.Duration) string {
	return strconv.Itoa(max(int(d.Round(time.Second).Seconds()), 1))
}
