package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"agrichain/internal/app/pkg/ginx"
	"agrichain/pkg/logger"
)

// ErrorHandler 统一错误处理中间件
// 捕获 panic；handler 记录了错误但未写响应时补写错误响应
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Errorf(c.Request.Context(), "[ErrorHandler] panic: %v", r)
				if !c.Writer.Written() {
					ginx.InternalError(c, "internal error")
				}
				c.Abort()
			}
		}()

		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		log.Warnf(c.Request.Context(), "[ErrorHandler] %s %s: %v", c.Request.Method, c.FullPath(), err.Err)
		if !c.Writer.Written() {
			ginx.FromError(c, err.Err)
		}
	}
}

// CORS 跨域中间件
func CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		h.Set("Access-Control-Expose-Headers", "X-Request-ID")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
