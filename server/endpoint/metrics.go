package endpoint

import (
	"context"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
)

// StatsFunc returns application figures for the metrics snapshot.
type StatsFunc func(ctx context.Context) map[string]any

// Metrics returns a handler that reports a JSON snapshot of runtime memory,
// goroutines and, when stats is set, application figures under "app".
// Time series go to the OTLP exporter; this endpoint is for quick looks.
func Metrics(stats StatsFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		body := gin.H{
			"timestamp":  time.Now().UTC().Format(time.RFC3339),
			"goroutines": runtime.NumGoroutine(),
			"memory": gin.H{
				"alloc_mb":       m.Alloc / 1024 / 1024,
				"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
				"sys_mb":         m.Sys / 1024 / 1024,
				"gc_runs":        m.NumGC,
			},
		}
		if stats != nil {
			body["app"] = stats(c.Request.Context())
		}
		c.JSON(http.StatusOK, body)
	}
}
