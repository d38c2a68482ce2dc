package router

import (
	"github.com/erp/reportdispatch/internal/infrastructure/logger"
	"github.com/erp/reportdispatch/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// EngineConfig configures the gin engine
type EngineConfig struct {
	Production     bool
	TrustedProxies []string
	Tracing        middleware.TracingConfig
}

// NewEngine creates a gin engine with the standard middleware chain:
// request id, tracing, request logging, recovery and security headers.
func NewEngine(cfg EngineConfig, log *zap.Logger) (*gin.Engine, error) {
	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, err
	}
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(),
		middleware.Tracing(cfg.Tracing),
		middleware.SpanEnricher(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
	)
	engine.NoRoute(middleware.NoRoute())
	return engine, nil
}
