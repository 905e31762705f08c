package mid

import (
	"net/http"

	"golang.org/x/time/rate"
)

// RateLimit returns middleware that bounds request throughput with a token
// bucket of rps requests per second and the given burst. Requests over the
// budget get 429 rather than queueing; the conversation layer retries.
func RateLimit(rps float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(rps), burst)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
