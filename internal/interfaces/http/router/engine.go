package router

import (
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// EngineConfig holds what the HTTP engine needs beyond the handlers
type EngineConfig struct {
	ServiceName    string
	HTTP           config.HTTPConfig
	Auth           middleware.JWTMiddlewareConfig
	Logger         *zap.Logger
	TracerProvider trace.TracerProvider
	Meter          metric.Meter
}

// NewEngine builds the gin engine with the middleware chain and all routes.
//
// Chain order: tracing, request ID, recovery, request log, metrics,
// security headers, CORS, body limit. Versioned routes then authenticate,
// enrich the span and check permissions.
func NewEngine(cfg EngineConfig, h Handlers) (*gin.Engine, error) {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if err := middleware.SetupValidator(); err != nil {
		return nil, err
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	engine.Use(middleware.Tracing(cfg.ServiceName, cfg.TracerProvider))
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(cfg.Logger))
	engine.Use(logger.GinMiddleware(cfg.Logger))
	engine.Use(middleware.HTTPMetrics(cfg.Meter, cfg.Logger))
	engine.Use(middleware.Secure())

	cors := middleware.DefaultCORSConfig()
	cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	engine.Use(middleware.CORSWithConfig(cors))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", h.System.Health)

	r := NewRouter(engine, WithAPIVersion("v1"))

	auth := cfg.Auth
	if auth.Logger == nil {
		auth.Logger = cfg.Logger
	}
	systemPrefix := r.Prefix() + "/system"
	auth.SkipPaths = append(auth.SkipPaths, systemPrefix+"/info", systemPrefix+"/ping")

	r.Use(middleware.JWTAuthMiddleware(auth), middleware.SpanAttributes())
	r.Register(PricingRoutes(h, cfg.Logger)).
		Register(SystemRoutes(h.System))
	r.Setup()

	return engine, nil
}
