package api_router

import (
	"time"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/dto"
	pkgapp "github.com/haierkeys/note-registry-service/pkg/app"
	"github.com/haierkeys/note-registry-service/pkg/code"

	"github.com/gin-gonic/gin"
)

// HealthHandler 健康检查处理器
type HealthHandler struct {
	*Handler
}

// NewHealthHandler 创建健康检查处理器实例
func NewHealthHandler(a *app.App) *HealthHandler {
	return &HealthHandler{Handler: NewHandler(a)}
}

// Check 健康检查接口
// @Summary 健康检查
// @Description 检查服务健康状态，包括数据库连接与事件流订阅数
// @Tags 系统
// @Produce json
// @Success 200 {object} pkgapp.Res{data=dto.HealthDTO}
// @Router /api/health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	health := dto.HealthDTO{
		Status:      "healthy",
		Version:     h.App.Version().Version,
		Uptime:      time.Since(h.App.StartTime).Seconds(),
		Database:    "connected",
		Subscribers: h.App.EventHub.ClientCount(),
	}

	if h.App.DB == nil {
		health.Database = "memory"
		pkgapp.NewResponse(c).ToResponse(code.Success.WithData(health))
		return
	}

	// 检查数据库连接
	sqlDB, err := h.App.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		health.Status = "unhealthy"
		health.Database = "error"
		h.logError(c.Request.Context(), "HealthHandler.Check", err)
		pkgapp.NewResponse(c).ToResponse(code.ErrorServerInternal.WithDetails(err.Error()).WithData(health))
		return
	}

	pkgapp.NewResponse(c).ToResponse(code.Success.WithData(health))
}
