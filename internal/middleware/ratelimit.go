package middleware

import (
	"net/http"

	"github.com/swapin/backend/internal/config"
	"github.com/swapin/backend/internal/models"
	"github.com/swapin/backend/internal/services"
)

// RateLimit applies the per-action admission check. The subject is the
// authenticated user when present, otherwise the client address, so the
// middleware also guards unauthenticated routes.
func RateLimit(limiter *services.RateLimiter, action string, rule config.RateLimitRule) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			subject, ok := GetUserID(r.Context())
			if !ok {
				subject = r.RemoteAddr
			}

			result := limiter.Check(r.Context(), subject, action, rule.Limit, rule.Window)
			if !result.Allowed {
				respond(w, http.StatusTooManyRequests, models.NewRateLimitResponse(result.ResetTime))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
