package middleware

import (
	"net/http"
	"strings"

	"storefront_bff/internal/pkg/session"
	"storefront_bff/pkg/response"
	"storefront_bff/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware 会话认证中间件
// 解析 Bearer Token 并把会话注入上下文；原始 token 保留用于转发上游
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header is required"})
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		tokenString := parts[1]
		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		session.Inject(c, &session.Session{
			ID:     claims.SessionID,
			UserID: claims.UserID,
			Token:  tokenString,
		})

		c.Next()
	}
}
