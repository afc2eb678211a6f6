package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/kbukum/eventhub/logger"
)

// RequestLogger returns middleware that logs every request with method,
// path, status code, and duration. Probe paths are skipped. Streams are
// logged when they end, so their duration is the connection lifetime.
func RequestLogger(log *logger.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isProbeEndpoint(r.URL.Path) {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			sw := newStatusWriter(w)
			next.ServeHTTP(sw, r)
			duration := time.Since(start)

			fields := logger.Fields(
				"method", r.Method,
				"path", r.URL.Path,
				logger.FieldStatus, sw.status,
				logger.FieldDuration, duration.Milliseconds(),
				"bytes", sw.bytes,
			)
			if sw.Header().Get("Content-Type") == "text/event-stream" {
				fields["stream"] = true
			}
			logByStatus(log.WithContext(r.Context()), fields, sw.status)
		})
	}
}

var probePaths = []string{"/health", "/alive", "/ready", "/metrics"}

func isProbeEndpoint(path string) bool {
	for _, p := range probePaths {
		if path == p || (strings.HasPrefix(path, "/api") && strings.HasSuffix(path, p)) {
			return true
		}
	}
	return false
}

// logByStatus logs request fields at a level chosen by HTTP status code.
func logByStatus(log *logger.Logger, fields map[string]interface{}, status int) {
	switch {
	case status >= 500:
		log.Error("request completed", fields)
	case status >= 400:
		log.Warn("request completed", fields)
	default:
		log.Debug("request completed", fields)
	}
}
