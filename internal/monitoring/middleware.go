package monitoring

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// Middleware 记录请求数、耗时和并发连接数。按路由模板打标签，避免 id 让标签基数爆炸。
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.FullPath()
		if path == "/metrics" {
			// Skip collecting metrics from metrics endpoint itself
			c.Next()
			return
		}
		if path == "" {
			path = "unmatched"
		}

		timer := prometheus.NewTimer(HttpRequestDuration.WithLabelValues(path))
		ActiveConnections.Inc()

		c.Next()

		timer.ObserveDuration()
		ActiveConnections.Dec()
		HttpRequestsTotal.WithLabelValues(path, strconv.Itoa(c.Writer.Status())).Inc()
	}
}
