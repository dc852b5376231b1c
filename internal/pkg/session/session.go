package session

import (
	"github.com/gin-gonic/gin"
)

// Session 一次购物会话
// ID 用于定位 Redis 中的会话状态，Token 原样转发给上游服务
type Session struct {
	ID     string
	UserID string
	Token  string
}

const ginKey = "session"

// Inject 将会话写入 gin 上下文 (由认证中间件调用)
func Inject(c *gin.Context, s *Session) {
	c.Set(ginKey, s)
}

// FromGin 从 gin 上下文取出会话
func FromGin(c *gin.Context) (*Session, bool) {
	val, exists := c.Get(ginKey)
	if !exists {
		return nil, false
	}
	s, ok := val.(*Session)
	return s, ok
}
