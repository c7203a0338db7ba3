package appMiddleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"

	"github.com/FACorreiaa/nizhal-navigator/internal/api"
)

// RateLimit caps requests per client IP per minute. A non-positive limit disables it.
// Rejections use the same JSON envelope as handler errors.
func RateLimit(requestsPerMinute int, logger *slog.Logger) func(http.Handler) http.Handler {
	if requestsPerMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			logger.WarnContext(r.Context(), "Rate limit exceeded",
				slog.String("req_id", middleware.GetReqID(r.Context())),
				slog.String("path", r.URL.Path))
			api.ErrorResponse(w, r, http.StatusTooManyRequests, "too many requests")
		}),
	)
}
