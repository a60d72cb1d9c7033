// Package middleware 存放 Gin 框架的中间件。
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// RequestIDKey 是请求 ID 在 gin.Context 中的存放键。
const RequestIDKey = "requestId"

// RequestID 为每个请求生成一个 uuid，写入上下文和响应头。
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := uuid.NewString()
		c.Set(RequestIDKey, id)
		c.Writer.Header().Set("X-Request-Id", id)
		c.Next()
	}
}

// GetRequestID 读取当前请求的 ID，未设置时返回空字符串。
func GetRequestID(c *gin.Context) string {
	if id, ok := c.Get(RequestIDKey); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}
