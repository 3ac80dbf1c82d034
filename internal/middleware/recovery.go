package middleware

import (
	"fmt"
	"runtime/debug"

	"github.com/haierkeys/note-registry-service/pkg/code"
	apperrors "github.com/haierkeys/note-registry-service/pkg/errors"
	"github.com/haierkeys/note-registry-service/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RecoveryWithLogger 创建带日志器的 Recovery 中间件（支持依赖注入）
func RecoveryWithLogger(lg *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery
		defer func() {
			if r := recover(); r != nil {
				fields := []zap.Field{
					zap.Int("status", c.Writer.Status()),
					zap.String("router", path),
					zap.String("method", c.Request.Method),
					zap.String("query", query),
					zap.String("ip", c.ClientIP()),
					zap.String("user-agent", c.Request.UserAgent()),
					zap.String("stack", string(debug.Stack())), // 错误堆栈
				}

				var cause error
				switch v := r.(type) {
				case error:
					cause = v
					fields = append(fields, zap.Error(v))
				default:
					// 其它类型的 panic 值
					cause = fmt.Errorf("%v", v)
					fields = append(fields, zap.String("panic_value", cause.Error()))
				}
				logger.WithTrace(c.Request.Context(), lg).Error("Recovered from panic", fields...)

				// 返回统一的错误响应, 不向客户端暴露 panic 内容
				if !c.Writer.Written() {
					apperrors.ErrorResponse(c, apperrors.NewAppError(code.ErrorServerInternal, cause))
				}
				c.Abort()
			}
		}()

		c.Next()
	}
}
