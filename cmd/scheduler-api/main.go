package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/SmartGPTLLC/AllIincompassing-sub002/api/swagger"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/handler"
	internalmiddleware "github.com/SmartGPTLLC/AllIincompassing-sub002/internal/middleware"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/repository"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/internal/service"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/cache"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/config"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/database"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/geo"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/jobs"
	"github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/logger"
	corsmiddleware "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/middleware/cors"
	reqidmiddleware "github.com/SmartGPTLLC/AllIincompassing-sub002/pkg/middleware/requestid"
)

// @title Therapy Scheduler API
// @version 0.1.0
// @description Schedule generation, conflict checks and route optimisation for therapy sessions
// @BasePath /api/v1
// @schemes http

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server exited", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	loc, err := loadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return err
	}

	metrics := service.NewMetricsService()
	checks := map[string]handler.ReadinessCheck{}

	deps := service.SchedulingDeps{
		Metrics:   metrics,
		Validator: validator.New(),
		Logger:    logr.Named("scheduling"),
		Location:  loc,
	}

	if cfg.Database.Enabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close() //nolint:errcheck
		deps.Therapists = repository.NewTherapistRepository(db, metrics)
		deps.Clients = repository.NewClientRepository(db, metrics)
		deps.Sessions = repository.NewSessionRepository(db, metrics)
		checks["postgres"] = db.PingContext
	} else {
		logr.Warn("database disabled; snapshot generation and therapist routes are unavailable")
	}

	if cfg.Redis.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		cacheRepo := repository.NewCacheRepository(client, logr.Named("cache"))
		defer cacheRepo.Close() //nolint:errcheck
		resultCache := service.NewCacheService(cacheRepo, metrics, service.CacheServiceConfig{
			Enabled:    true,
			DefaultTTL: cfg.Scheduler.ResultCacheTTL,
			Namespace:  service.CacheNamespace(cfg.Scheduler, cfg.Weights, cfg.Travel),
		}, logr.Named("cache"))
		logr.Info("result cache enabled", zap.String("namespace", resultCache.Namespace()))
		deps.Cache = resultCache
		checks["redis"] = cacheRepo.Ping
	}

	queue := jobs.NewQueue("scheduler", jobs.QueueConfig{
		Workers:    cfg.Jobs.Workers,
		BufferSize: cfg.Jobs.BufferSize,
		MaxRetries: cfg.Jobs.MaxRetries,
		RetryDelay: cfg.Jobs.RetryDelay,
		JobTimeout: cfg.Jobs.Timeout,
		Observer:   metrics,
		Logger:     logr.Named("jobs"),
	})
	deps.Queue = queue

	if err := buildEngine(cfg, loc, logr, &deps); err != nil {
		return err
	}

	scheduling := service.NewSchedulingService(deps, service.SchedulingConfig{
		ProposalTTL:    cfg.Scheduler.ProposalTTL,
		ResultCacheTTL: cfg.Scheduler.ResultCacheTTL,
	})

	queue.Start(ctx)
	defer queue.Stop()
	go sweepProposals(ctx, scheduling, cfg.Scheduler.ProposalTTL, logr)

	router := newRouter(cfg, logr, metrics, scheduling, checks)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Sugar().Infow("server starting", "addr", server.Addr, "env", cfg.Env, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildEngine(cfg *config.Config, loc *time.Location, logr *zap.Logger, deps *service.SchedulingDeps) error {
	factors, err := service.NewFactorStrategy(cfg.Scheduler.FactorMode)
	if err != nil {
		return err
	}
	engine, err := service.NewScoringEngine(service.ScoringEngineConfig{
		Weights:          service.ScoringWeightsFromConfig(cfg.Weights),
		Speeds:           geoSpeeds(cfg.Travel),
		Factors:          factors,
		Location:         loc,
		DefaultWeeklyMax: cfg.Scheduler.DefaultWeeklyMax,
		DefaultDailyMax:  cfg.Scheduler.MaxDailyHours,
	})
	if err != nil {
		return err
	}

	genCfg, err := service.GeneratorConfigFromConfig(cfg.Scheduler)
	if err != nil {
		return err
	}
	caches := service.NewMemoCacheFactory(cfg.Scheduler.CacheSize, cfg.Scheduler.CacheTTL)
	detector := service.NewConflictDetector(loc)

	deps.Generator = service.NewScheduleGeneratorService(engine, genCfg, caches, logr.Named("generator"))
	deps.Detector = detector
	deps.Suggester = service.NewAlternativeSuggester(engine, detector, service.AlternativeConfigFromConfig(cfg.Alternatives, cfg.Scheduler), caches)
	deps.Router = service.NewRouteOptimizer(service.AnnealingConfigFromConfig(cfg.Route), logr.Named("routes"))
	deps.Exporter = service.NewExportService(loc, logr.Named("export"), nil, nil)
	return nil
}

func newRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, scheduling *service.SchedulingService, checks map[string]handler.ReadinessCheck) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, checks)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	schedulingHandler := handler.NewSchedulingHandler(scheduling)
	routeHandler := handler.NewRouteHandler(scheduling)

	api := r.Group(cfg.APIPrefix)
	api.GET("/metrics/summary", metricsHandler.Summary)

	schedules := api.Group("/schedules")
	schedules.POST("/generate", schedulingHandler.Generate)
	schedules.POST("/generate/snapshot", schedulingHandler.GenerateSnapshot)
	schedules.GET("/proposals/:id", schedulingHandler.Proposal)
	schedules.GET("/proposals/:id/export", schedulingHandler.Export)
	schedules.DELETE("/cache", schedulingHandler.InvalidateCache)

	sessions := api.Group("/sessions")
	sessions.POST("/conflicts", schedulingHandler.Conflicts)
	sessions.POST("/alternatives", schedulingHandler.Alternatives)

	routes := api.Group("/routes")
	routes.POST("/optimize", routeHandler.Optimize)
	routes.GET("/therapists/:id", routeHandler.TherapistDay)

	return r
}

func sweepProposals(ctx context.Context, scheduling *service.SchedulingService, ttl time.Duration, logr *zap.Logger) {
	interval := ttl / 2
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := scheduling.SweepProposals(); removed > 0 {
				logr.Debug("expired proposals removed", zap.Int("count", removed))
			}
		}
	}
}

func geoSpeeds(cfg config.TravelConfig) geo.SpeedProfile {
	return geo.SpeedProfile{RushHourKmh: cfg.RushHourKmh, OffPeakKmh: cfg.OffPeakKmh}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("load scheduler timezone %q: %w", name, err)
	}
	return loc, nil
}
