package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/hearthstay/server/internal/alerts"
	"github.com/hearthstay/server/internal/auth"
	"github.com/hearthstay/server/internal/cache"
	"github.com/hearthstay/server/internal/config"
	"github.com/hearthstay/server/internal/container"
	"github.com/hearthstay/server/internal/database"
	"github.com/hearthstay/server/internal/handlers"
	"github.com/hearthstay/server/internal/logger"
	"github.com/hearthstay/server/internal/metrics"
	"github.com/hearthstay/server/internal/middleware"
	"github.com/hearthstay/server/internal/repository"
	"github.com/hearthstay/server/internal/service"
	"github.com/hearthstay/server/internal/telemetry"
	"github.com/hearthstay/server/internal/tracking"
	"github.com/hearthstay/server/internal/validation"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

const serviceName = "hearthstay-ui-components"

func main() {
	envErr := godotenv.Load()

	cfg := config.Load()
	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic(err)
	}
	defer logger.Close()

	if envErr != nil {
		logger.Log.Info(".env file not found, using system environment variables")
	}
	if err := cfg.Validate(); err != nil {
		logger.FatalWithFields("Invalid configuration", err)
	}

	metrics.Initialize()

	tp, err := telemetry.InitTracer(context.Background(), telemetry.Config{
		ServiceName:  serviceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	if err := database.Initialize(cfg); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	app := container.New().WithDB(database.DB)
	app.OnCleanup("database", func(context.Context) error { return database.Close() })
	if tp != nil {
		app.OnCleanup("tracer", tp.Shutdown)
	}

	var redisClient *cache.RedisClient
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Port, cfg.Redis.Password)
		if err != nil {
			logger.WarnWithFields("Redis unavailable, serving without descriptor cache", err)
			redisClient = nil
		} else {
			app.OnCleanup("redis", func(context.Context) error { return redisClient.Close() })
		}
	}
	app.WithCache(redisClient, cache.NewComponentCache(redisClient, cfg.CacheTTL))

	pingRedis := func(ctx context.Context) error {
		if redisClient == nil {
			return validation.ErrUnavailable
		}
		return redisClient.Ping(ctx)
	}
	pingDatabase := func(context.Context) error { return database.Health() }

	validator := validation.NewServiceValidator(map[string]validation.Check{
		"database": pingDatabase,
		"redis":    pingRedis,
	})
	if err := validator.ValidateServices(context.Background()); err != nil {
		logger.FatalWithFields("Required service unavailable", err)
	}

	svc := service.NewComponentService(service.Deps{
		Components: repository.NewComponentRepository(database.DB),
		Usages:     repository.NewUsageRepository(database.DB),
		Cache:      app.ComponentCache(),
	})
	app.WithComponents(svc)

	tracker := tracking.NewTracker(svc, tracking.Options{
		Workers:   cfg.Tracking.Workers,
		QueueSize: cfg.Tracking.QueueSize,
		Timeout:   cfg.Tracking.Timeout,
	})
	tracker.Start()
	svc.SetTracker(tracker)
	app.WithTracker(tracker).OnCleanup("tracker", tracker.Stop)

	app.WithAuth(auth.NewService([]byte(cfg.JWTSecret), repository.NewUserRepository(database.DB)))

	if err := app.Validate(); err != nil {
		logger.FatalWithFields("Startup wiring incomplete", err)
	}

	h := handlers.NewHandlers(svc)
	h.SetHealthChecks(
		handlers.HealthCheck{Name: "database", Critical: true, Check: pingDatabase},
		handlers.HealthCheck{Name: "redis", Check: pingRedis},
	)

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()
	if cfg.AlertInterval > 0 {
		app.WithAlerts(alerts.NewManager())
		evaluator := alerts.NewEvaluator(app.Alerts(), app.AlertSource())
		evaluator.InstallDefaultRules()
		go evaluator.Run(bgCtx, cfg.AlertInterval)
		h.SetAlerts(app.Alerts())
	}

	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if cfg.OTelEnabled {
		r.Use(middleware.TracingMiddleware(serviceName))
	}
	r.Use(middleware.CorrelationMiddleware())
	r.Use(middleware.SpanEnrichmentMiddleware())
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORSAllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID", "X-Correlation-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-Correlation-ID", "Retry-After"}
	r.Use(cors.New(corsConfig))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	h.RegisterRoutes(r, app.Auth(), handlers.RouteOptions{
		APIRatePerMinute:   cfg.APIRatePerMinute,
		TrackRatePerMinute: cfg.Tracking.RatePerMinute,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Server starting",
			zap.String("port", cfg.Port),
			zap.String("environment", cfg.Environment),
			zap.Bool("cache", redisClient != nil),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	stopBackground()

	// requests are done; the tracker drains before redis and the database close
	if err := app.Cleanup(ctx); err != nil {
		logger.WarnWithFields("Shutdown incomplete", err)
	}
	recorded, failed, dropped := tracker.Stats()
	logger.Log.Info("Usage tracker stopped",
		zap.Int64("recorded", recorded),
		zap.Int64("failed", failed),
		zap.Int64("dropped", dropped),
	)
	logger.Log.Info("Server exited")
}
