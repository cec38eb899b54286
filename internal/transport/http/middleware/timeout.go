package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"

	resp "gin-gorm-snippets/internal/transport/http/response"
)

// Timeout 给请求上下文设置截止时间；gorm/redis 调用都会感知
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !c.Writer.Written() {
			c.AbortWithStatusJSON(resp.Status(resp.CodeTimeout), resp.Error(resp.CodeTimeout, "timeout"))
		}
	}
}
