package middleware

import (
	"strconv"
	"time"

	"github.com/agri4/agri-server/internal/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware records request counts and latency per matched route.
func MetricsMiddleware(ctx *gin.Context) {
	started := time.Now()
	ctx.Next()

	route := ctx.FullPath()
	if route == "" {
		route = "unmatched"
	}

	metrics.HTTPRequestsTotal.WithLabelValues(ctx.Request.Method, route, strconv.Itoa(ctx.Writer.Status())).Inc()
	metrics.HTTPRequestDurationSeconds.WithLabelValues(ctx.Request.Method, route).Observe(time.Since(started).Seconds())
}
