package middleware

import (
	"time"

	"storefront_bff/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware HTTP 请求指标中间件
func MetricsMiddleware(collector *metrics.MetricsCollector) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 用路由模板做 endpoint 标签，避免基数爆炸
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}

		status := metrics.GetStatusCategory(c.Writer.Status())
		collector.RecordHTTPRequest(c.Request.Method, endpoint, status, time.Since(start))
	}
}
