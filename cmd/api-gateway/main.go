package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/noah-isme/k12-scheduler-api/internal/handler"
	"github.com/noah-isme/k12-scheduler-api/internal/middleware"
	"github.com/noah-isme/k12-scheduler-api/internal/repository"
	"github.com/noah-isme/k12-scheduler-api/internal/service"
	"github.com/noah-isme/k12-scheduler-api/internal/sis"
	"github.com/noah-isme/k12-scheduler-api/pkg/cache"
	"github.com/noah-isme/k12-scheduler-api/pkg/config"
	"github.com/noah-isme/k12-scheduler-api/pkg/database"
	"github.com/noah-isme/k12-scheduler-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/k12-scheduler-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/k12-scheduler-api/pkg/middleware/requestid"
)

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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	// Redis only backs the warm snapshot store; the engine runs without it.
	rdb, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, warm snapshot store disabled", zap.Error(err))
		rdb = nil
	} else {
		defer rdb.Close()
	}

	sisClient := sis.NewClient(cfg.SIS, logr)
	snapshots := sis.NewStore(sisClient, rdb, cfg.SIS.WarmStoreKey, cfg.SIS.SnapshotTTL, logr)

	scheduleRepo := repository.NewScheduleRepository(db)
	conflictRepo := repository.NewConflictRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)

	metrics := service.NewMetricsService()
	schedulerCfg := service.SchedulerConfigurationFrom(cfg.Scheduler)

	scheduleSvc := service.NewScheduleService(
		scheduleRepo, conflictRepo, courseRepo, snapshots, db,
		schedulerCfg, cfg.Solver, metrics, logr,
	)
	syncSvc := service.NewSyncService(snapshots, teacherRepo, courseRepo, db, logr)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	scheduleSvc.StartWorkers(workerCtx)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	planningHandler := handler.NewPlanningHandler(scheduleSvc, syncSvc)
	metricsHandler := handler.NewMetricsHandler(metrics, scheduleSvc)

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	api := r.Group(cfg.APIPrefix)
	{
		schedules := api.Group("/schedules")
		{
			schedules.POST("", scheduleHandler.Create)
			schedules.GET("", scheduleHandler.List)
			schedules.POST("/generate", scheduleHandler.Generate)
			schedules.GET("/:id", scheduleHandler.Get)
			schedules.DELETE("/:id", scheduleHandler.Delete)
			schedules.GET("/:id/slots", scheduleHandler.Slots)
			schedules.GET("/:id/conflicts", scheduleHandler.Conflicts)
			schedules.POST("/:id/validate", scheduleHandler.Validate)
			schedules.POST("/:id/slots/validate", scheduleHandler.ValidateSlot)
			schedules.POST("/:id/publish", scheduleHandler.Publish)
			schedules.POST("/:id/archive", scheduleHandler.Archive)
			schedules.POST("/:id/clone", scheduleHandler.Clone)
		}
		api.POST("/matcher/assign", planningHandler.MatchTeachers)
		api.GET("/feasibility", planningHandler.Feasibility)
		api.POST("/sync", planningHandler.Sync)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Warn("forced shutdown", zap.Error(err))
	}
	stopWorkers()
	scheduleSvc.StopWorkers()
	logr.Info("server stopped")
}
