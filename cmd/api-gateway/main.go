package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/harborline/voyage-api/api/swagger"
	"github.com/harborline/voyage-api/internal/handler"
	"github.com/harborline/voyage-api/internal/middleware"
	"github.com/harborline/voyage-api/internal/repository"
	"github.com/harborline/voyage-api/internal/scheduler"
	"github.com/harborline/voyage-api/internal/service"
	"github.com/harborline/voyage-api/pkg/cache"
	"github.com/harborline/voyage-api/pkg/config"
	"github.com/harborline/voyage-api/pkg/database"
	"github.com/harborline/voyage-api/pkg/logger"
	corsmiddleware "github.com/harborline/voyage-api/pkg/middleware/cors"
	reqidmiddleware "github.com/harborline/voyage-api/pkg/middleware/requestid"
)

// @title Voyage API
// @version 0.1.0
// @description Personal cruise itinerary planner with automatic conflict resolution
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		// The cache is an accelerator, not a dependency; run without it.
		logr.Warn("redis unavailable, running without cache", zap.Error(err))
		redisClient = nil
	}

	companionRules, err := scheduler.LoadCompanionRules(cfg.Scheduler.CompanionRuleFile)
	if err != nil {
		logr.Fatal("failed to load companion rules", zap.Error(err))
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	eventRepo := repository.NewEventRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	preferenceRepo := repository.NewPreferenceRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            "voyage-api",
	})
	eventService := service.NewEventService(eventRepo, validate, logr, cfg.Importer.MaxRecurrences)
	importService := service.NewImportService(eventRepo, validate, logr, cfg.Importer.Workers, cfg.Importer.MaxEventsPerBatch)
	attendanceService := service.NewAttendanceService(attendanceRepo, eventRepo, logr)
	preferenceService := service.NewPreferenceService(preferenceRepo, cacheRepo, logr)
	agendaService := service.NewAgendaService(attendanceService, cacheRepo, logr, cfg.Agenda.CacheTTL)
	metricsService := service.NewMetricsService()
	plannerService := service.NewPlannerService(eventService, attendanceRepo, preferenceService, cacheRepo, validate, logr, service.PlannerConfig{
		SessionTTL:       cfg.Scheduler.SessionTTL,
		MaxDisplaceDepth: cfg.Scheduler.MaxDisplaceDepth,
		CompanionRules:   companionRules,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	importService.Start(rootCtx)
	defer importService.Stop()

	sweeper := cron.New()
	if _, err := sweeper.AddFunc(cfg.Scheduler.SweepSpec, func() { plannerService.Sweep() }); err != nil {
		logr.Fatal("invalid sweep spec", zap.Error(err))
	}
	sweeper.Start()
	defer sweeper.Stop()

	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService)
	attendanceHandler := handler.NewAttendanceHandler(attendanceService)
	preferenceHandler := handler.NewPreferenceHandler(preferenceService)
	plannerHandler := handler.NewPlannerHandler(plannerService, metricsService)
	importHandler := handler.NewImportHandler(importService)
	agendaHandler := handler.NewAgendaHandler(agendaService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authService))
	authed.GET("/auth/me", authHandler.Me)

	authed.GET("/events", eventHandler.List)
	authed.GET("/events/:uid", eventHandler.Get)
	authed.POST("/events/custom", eventHandler.CreateCustom)
	authed.DELETE("/events/custom/:uid", eventHandler.DeleteCustom)

	authed.GET("/attendance", attendanceHandler.List)
	authed.PUT("/attendance/:uid", attendanceHandler.Add)
	authed.DELETE("/attendance/:uid", attendanceHandler.Remove)

	authed.GET("/preferences", preferenceHandler.Get)
	authed.PUT("/preferences", preferenceHandler.Update)

	authed.POST("/scheduler/sessions", plannerHandler.Start)
	authed.GET("/scheduler/sessions/:id", plannerHandler.Get)
	authed.DELETE("/scheduler/sessions/:id", plannerHandler.Cancel)
	authed.POST("/scheduler/sessions/:id/choices", plannerHandler.Choices)
	authed.POST("/scheduler/sessions/:id/back", plannerHandler.Back)
	authed.POST("/scheduler/sessions/:id/alternatives", plannerHandler.Alternative)
	authed.POST("/scheduler/sessions/:id/apply", plannerHandler.Apply)
	authed.POST("/scheduler/reschedule", plannerHandler.Reschedule)

	authed.GET("/agenda", agendaHandler.Get)
	authed.GET("/agenda/export", agendaHandler.Export)

	authed.POST("/import/schedule", importHandler.ImportJSON)
	authed.POST("/import/ics", importHandler.ImportICS)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Warn("graceful shutdown failed", zap.Error(err))
	}
}
