package routers

import (
	"time"

	"github.com/haierkeys/note-registry-service/internal/app"
	"github.com/haierkeys/note-registry-service/internal/middleware"
	"github.com/haierkeys/note-registry-service/internal/routers/api_router"
	"github.com/haierkeys/note-registry-service/pkg/limiter"

	"github.com/gin-gonic/gin"
	ut "github.com/go-playground/universal-translator"
)

// defaultLimiterRules 未配置 limiter.rules 时使用的写接口限流
var defaultLimiterRules = []limiter.BucketRule{
	{
		Key:          "/api/note/transfer",
		FillInterval: time.Second,
		Capacity:     20,
		Quantum:      20,
	},
}

func NewRouter(appContainer *app.App, uni *ut.UniversalTranslator) *gin.Engine {

	// 获取配置
	cfg := appContainer.Config()

	rules := cfg.Limiter.Rules
	if len(rules) == 0 {
		rules = defaultLimiterRules
	}
	methodLimiters := limiter.NewMethodLimiter().AddBuckets(rules...)

	auth := middleware.IdentityAuthToken(appContainer.TokenManager)
	optionalAuth := middleware.OptionalIdentityAuthToken(appContainer.TokenManager)

	r := gin.New()

	api := r.Group("/api")
	{
		api.Use(middleware.AppInfoWithConfig(app.Name, appContainer.Version().Version))
		api.Use(middleware.TraceMiddlewareWithConfig(cfg.Tracer.Enabled, cfg.Tracer.Header)) // Trace ID 中间件
		api.Use(middleware.RateLimiter(methodLimiters))
		api.Use(middleware.ContextTimeout(time.Duration(cfg.App.DefaultContextTimeout) * time.Second))
		api.Use(middleware.Cors())
		api.Use(middleware.LangWithTranslator(uni))
		api.Use(middleware.AccessLogWithLogger(appContainer.Logger()))
		api.Use(middleware.RecoveryWithLogger(appContainer.Logger()))

		// 创建 Handlers（注入 App Container）
		registryHandler := api_router.NewRegistryHandler(appContainer)
		versionHandler := api_router.NewVersionHandler(appContainer)
		healthHandler := api_router.NewHealthHandler(appContainer)

		// 无需认证
		api.GET("/version", versionHandler.ServerVersion)
		api.GET("/health", healthHandler.Check)
		api.GET("/note/next_id", registryHandler.NextID)
		api.GET("/note/owner", registryHandler.Owner)
		api.GET("/events", registryHandler.Events)
		api.GET("/stats", registryHandler.Stats)

		// owner 为空时读取调用者自己的笔记
		api.GET("/note", optionalAuth, registryHandler.Get)

		api.POST("/note", auth, registryHandler.Create)
		api.POST("/note/transfer", auth, registryHandler.Transfer)
		api.GET("/notes", auth, registryHandler.List)
		api.GET("/events/stream", auth, appContainer.EventHub.Handler())
	}

	r.Use(middleware.Cors())
	r.NoRoute(middleware.NoFound())

	return r
}
