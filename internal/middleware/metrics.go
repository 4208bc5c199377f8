package middleware

import (
	"net/http"
	"time"
)

// Observer records request outcomes.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
}

// Metrics labels requests with the matched ServeMux pattern, which the mux
// fills in on the shared request while routing.
func Metrics(obs Observer, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := wrap(w)
		next.ServeHTTP(rec, r)

		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		obs.ObserveRequest(r.Method, route, rec.status, time.Since(start))
	})
}
