package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/httprate"
	"github.com/rs/zerolog"

	"github.com/de-tools/bacc-research/pkg/handlers/httpio"
)

const rateLimitMessage = "Too many requests from this IP, please try again later."

// RateLimit allows requests per client IP inside a sliding window and answers
// the rest with 429.
func RateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			zerolog.Ctx(r.Context()).Warn().Msg("rate limit exceeded")
			httpio.Error(w, r, http.StatusTooManyRequests, rateLimitMessage)
		}),
	)
}
