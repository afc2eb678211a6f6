package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/kbukum/eventhub/observability"
)

// Metrics returns middleware that records request counts, durations and the
// number of in-flight requests. Open SSE streams count as in flight.
func Metrics(m *observability.Metrics, route func(*http.Request) string) Middleware {
	if route == nil {
		route = func(r *http.Request) string { return r.URL.Path }
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			start := time.Now()
			m.RecordRequestStart(ctx)
			sw := newStatusWriter(w)
			defer func() {
				m.RecordRequestEnd(ctx, r.Method, route(r), strconv.Itoa(sw.status), time.Since(start))
			}()
			next.ServeHTTP(sw, r)
		})
	}
}
