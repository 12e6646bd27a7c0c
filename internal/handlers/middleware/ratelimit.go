package middleware

import (
	"net"
	"net/http"

	"github.com/quizdeck/identity/internal/handlers/principalctx"
	"github.com/quizdeck/identity/internal/handlers/render"
	"github.com/quizdeck/identity/internal/ratelimit"
)

// RateLimit throttles per principal id, falling back to the caller IP for
// unauthenticated requests. Place it inside Auth.Require on protected routes
// so the principal key is available
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.Allow(rateLimitKey(r))
			if !ok {
				render.RateLimited(w, retryAfter)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func rateLimitKey(r *http.Request) string {
	if principal, ok := principalctx.FromContext(r.Context()); ok {
		return "user:" + principal.UserID.String()
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}

	return "ip:" + host
}
