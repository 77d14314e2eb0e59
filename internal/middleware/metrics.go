package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/task-manager-api/internal/metrics"
)

// Instrument records request count and latency labelled by the matched route
// template, so /api/tasks/:id is one series however many ids are requested.
func Instrument(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.ObserveRequest(c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start))
	}
}
