package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	pricingapp "github.com/erp/pricing/internal/application/pricing"
	"github.com/erp/pricing/internal/domain/pricing"
	"github.com/erp/pricing/internal/infrastructure/auth"
	"github.com/erp/pricing/internal/infrastructure/cache"
	"github.com/erp/pricing/internal/infrastructure/config"
	"github.com/erp/pricing/internal/infrastructure/event"
	"github.com/erp/pricing/internal/infrastructure/logger"
	"github.com/erp/pricing/internal/infrastructure/persistence"
	"github.com/erp/pricing/internal/infrastructure/scheduler"
	"github.com/erp/pricing/internal/infrastructure/strategy"
	"github.com/erp/pricing/internal/infrastructure/telemetry"
	"github.com/erp/pricing/internal/interfaces/http/handler"
	"github.com/erp/pricing/internal/interfaces/http/middleware"
	"github.com/erp/pricing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// version is set at build time via -ldflags "-X main.version=..."
var version = "dev"

const logTimeFormat = "2006-01-02T15:04:05.000Z07:00"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Bootstrap logger, used until the OTEL log bridge is available
	bootLog, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logTimeFormat,
		Service:    cfg.Telemetry.ServiceName,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()

	// Telemetry providers
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	loggerProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, bootLog)
	if err != nil {
		bootLog.Fatal("Failed to initialize logger provider", zap.Error(err))
	}

	// Final logger tees stdout with the OTEL log bridge
	level, err := zapcore.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logTimeFormat,
		Service:    cfg.Telemetry.ServiceName,
	}, telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		LoggerProvider: loggerProvider,
		Level:          level,
	}))
	if err != nil {
		bootLog.Fatal("Failed to initialize logger", zap.Error(err))
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting pricing service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
		zap.Bool("telemetry", cfg.Telemetry.Enabled),
	)

	meter := meterProvider.Meter(cfg.Telemetry.ServiceName)

	// Database with zap-backed GORM logger and query observability
	dbMetrics, err := telemetry.NewDBMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create database metrics", zap.Error(err))
	}
	dbPlugin := telemetry.NewDBPlugin(telemetry.DBTracingConfig{
		TracingEnabled:  cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, dbMetrics, log)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugins(dbPlugin),
	)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	sqlDB, err := db.DB.DB()
	if err != nil {
		log.Fatal("Failed to get database handle", zap.Error(err))
	}
	if err := dbMetrics.ObservePool(sqlDB); err != nil {
		log.Warn("Connection pool metrics disabled", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Redis backs the segment config cache and the token revocation list
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()

	storeFactory := cache.NewSegmentConfigStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	)
	configStore, err := storeFactory.CreateStore()
	if err != nil {
		log.Fatal("Failed to create segment config cache", zap.Error(err))
	}
	defer func() {
		_ = configStore.Close()
	}()

	// Repositories
	configRepo := cache.NewCachedSegmentPricingConfigRepository(
		persistence.NewGormSegmentPricingConfigRepository(db.DB),
		configStore,
		cache.WithTTL(cfg.Pricing.SegmentCacheTTL),
		cache.WithCacheLogger(log),
	)
	campaignRepo := persistence.NewGormPromotionalCampaignRepository(db.DB)

	// Event bus
	eventBus := event.NewInMemoryEventBus(log, event.WithTracerProvider(tracerProvider.Provider()))

	// Strategy registry and domain services
	registry, err := strategy.NewRegistryWithOptions(strategy.Options{
		Markdown: pricing.MarkdownCoefficients{
			DemandWeight:        decimal.NewFromFloat(cfg.Pricing.MarkdownDemandWeight),
			ProfitabilityWeight: decimal.NewFromFloat(cfg.Pricing.MarkdownProfitabilityWeight),
			HorizonDays:         cfg.Pricing.MarkdownHorizonDays,
		},
		DefaultStrategyID: cfg.Pricing.DefaultStrategy,
	})
	if err != nil {
		log.Fatal("Failed to build strategy registry", zap.Error(err))
	}
	guardRail := pricing.NewMarginGuardRailService(eventBus)
	stacking := pricing.NewPromotionStackingService(eventBus)
	governance := pricing.NewPricingGovernanceService(guardRail, stacking)
	calculator := pricing.NewPriceCalculationService(registry, eventBus)

	pricingMetrics, err := telemetry.NewPricingMetrics(meter, log)
	if err != nil {
		log.Fatal("Failed to create pricing metrics", zap.Error(err))
	}

	// Event handlers
	marginBreachHandler := pricingapp.NewMarginBreachHandler(governance, log).WithMetrics(pricingMetrics)
	eventBus.Subscribe(marginBreachHandler, marginBreachHandler.EventTypes()...)
	ruleViolationHandler := pricingapp.NewRuleViolationHandler(pricingMetrics, log)
	eventBus.Subscribe(ruleViolationHandler, ruleViolationHandler.EventTypes()...)
	auditHandler := pricingapp.NewPricingAuditHandler(log)
	eventBus.Subscribe(auditHandler, auditHandler.EventTypes()...)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Application services
	quotationService := pricingapp.NewPriceQuotationService(
		configRepo, campaignRepo, calculator, guardRail, governance, eventBus, log,
	).WithMetrics(pricingMetrics)
	campaignService := pricingapp.NewCampaignService(campaignRepo, eventBus, log)

	// Governance scheduler
	schedulerConfig := scheduler.DefaultGovernanceSchedulerConfig()
	if cfg.Pricing.GovernanceInterval > 0 {
		schedulerConfig.Interval = cfg.Pricing.GovernanceInterval
	}
	governanceScheduler, err := scheduler.NewGovernanceScheduler(schedulerConfig, governance, pricingMetrics, log)
	if err != nil {
		log.Fatal("Failed to create governance scheduler", zap.Error(err))
	}
	if err := governanceScheduler.Start(ctx); err != nil {
		log.Fatal("Failed to start governance scheduler", zap.Error(err))
	}

	// HTTP
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	checks := map[string]handler.HealthChecker{
		"database": handler.HealthCheckerFunc(db.Ping),
		"redis": handler.HealthCheckerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}),
	}
	engine, err := router.NewEngine(router.EngineConfig{
		ServiceName:    cfg.Telemetry.ServiceName,
		HTTP:           cfg.HTTP,
		Logger:         log,
		TracerProvider: tracerProvider.Provider(),
		Meter:          meter,
		Auth: middleware.JWTMiddlewareConfig{
			Verifier:    auth.NewTokenVerifier(cfg.JWT),
			Revocations: auth.NewRedisTokenBlacklist(redisClient),
			Logger:      log,
		},
	}, router.Handlers{
		Pricing:    handler.NewPricingHandler(quotationService),
		Campaigns:  handler.NewCampaignHandler(campaignService),
		Governance: handler.NewGovernanceHandler(governance),
		Strategies: handler.NewStrategyHandler(registry),
		System:     handler.NewSystemHandler(cfg.App.Name, version, checks),
	})
	if err != nil {
		log.Fatal("Failed to build HTTP engine", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := governanceScheduler.Stop(shutdownCtx); err != nil {
		log.Warn("Governance scheduler did not stop cleanly", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus did not stop cleanly", zap.Error(err))
	}
	if err := dbMetrics.Stop(); err != nil {
		log.Warn("Failed to unregister pool metrics", zap.Error(err))
	}

	// Flush telemetry last so shutdown spans and logs are exported
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Warn("Meter provider shutdown failed", zap.Error(err))
	}
	log.Info("Server exited gracefully")
	if err := loggerProvider.Shutdown(shutdownCtx); err != nil {
		bootLog.Warn("Logger provider shutdown failed", zap.Error(err))
	}
}
