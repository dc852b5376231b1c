package middleware

import (
	"time"

	"storefront_bff/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// LoggerMiddleware 请求访问日志
// 追踪 ID 由 TraceMiddleware 生成，这里只消费，不再单独造一个请求 ID
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		cost := time.Since(start)

		if logger.Log != nil {
			logger.Log.Info(path,
				zap.Int("status", c.Writer.Status()),
				zap.String("method", c.Request.Method),
				zap.String("path", path),
				zap.String("query", query),
				zap.String("ip", c.ClientIP()),
				zap.String("user-agent", c.Request.UserAgent()),
				zap.String("trace_id", c.GetString(TraceIDKey)),
				zap.Duration("cost", cost),
			)
		}
	}
}
