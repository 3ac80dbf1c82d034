// Package api_router 提供 HTTP API 路由处理器
package api_router

import (
	"context"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/service"
	"github.com/haierkeys/note-registry-service/pkg/logger"

	"go.uber.org/zap"
)

// Handler 基础 Handler 结构体，封装 App Container
// 所有 API Handler 都应该嵌入此结构体以获得依赖注入能力
type Handler struct {
	App *app.App
}

// NewHandler 创建基础 Handler 实例
func NewHandler(a *app.App) *Handler {
	return &Handler{App: a}
}

// logError 记录处理失败, 注册表拒绝的请求只记 Warn
func (h *Handler) logError(ctx context.Context, op string, err error, fields ...zap.Field) {
	lg := logger.WithTrace(ctx, h.App.Logger())
	fields = append(fields, zap.String(logger.FieldMethod, op), zap.Error(err))
	if service.IsRegistryError(err) {
		lg.Warn(op+" rejected", fields...)
		return
	}
	lg.Error(op+" failed", fields...)
}
