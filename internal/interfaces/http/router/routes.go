package router

import (
	"github.com/erp/reportdispatch/internal/interfaces/http/handler"
	"github.com/erp/reportdispatch/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// CronRoutes mounts the bearer-protected dispatch trigger under /api/cron
func CronRoutes(h *handler.DispatchHandler, secret string) RouteRegistrar {
	return RegistrarFunc(func(rg *gin.RouterGroup) {
		cron := rg.Group("/api/cron", middleware.CronAuth(secret))
		cron.GET("/scheduled-reports", h.Trigger)
		cron.POST("/scheduled-reports", h.Trigger)
		cron.GET("/scheduled-reports/status", h.Status)
	})
}

// HealthRoutes mounts GET /health
func HealthRoutes(h *handler.SystemHandler) RouteRegistrar {
	return RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/health", h.Health)
	})
}

// SystemRoutes mounts GET /system/ping under the versioned API
func SystemRoutes(h *handler.SystemHandler) RouteRegistrar {
	return RegistrarFunc(func(rg *gin.RouterGroup) {
		rg.GET("/system/ping", h.Ping)
	})
}
