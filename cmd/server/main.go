package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"userstore.backend/internal/config"
	"userstore.backend/internal/domain/entities"
	"userstore.backend/internal/infrastructure/cache"
	"userstore.backend/internal/infrastructure/changes"
	"userstore.backend/internal/infrastructure/datasources"
	"userstore.backend/internal/infrastructure/jobs"
	"userstore.backend/internal/infrastructure/metrics"
	"userstore.backend/internal/infrastructure/repositories"
	"userstore.backend/internal/interfaces/http/handlers"
	"userstore.backend/internal/interfaces/http/middleware"
	"userstore.backend/internal/usecases"
	"userstore.backend/pkg/logger"
	"userstore.backend/pkg/redis"
)

var (
	loadDotenv   = godotenv.Load
	loadCfg      = config.Load
	initLog      = logger.Init
	initRedis    = redis.Init
	openStore    = datasources.NewConnection
	ensureSchema = func(s *datasources.Store) error { return datasources.EnsureSchema(s.DB) }
	newRegistry  = prometheus.NewRegistry
	runServer    = func(r *gin.Engine, port string) error { return r.Run(":" + port) }
)

func main() {
	if err := runMainProcess(); err != nil {
		log.Fatal(err)
	}
}

func runMainProcess() error {
	if err := loadDotenv(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := loadCfg()

	initLog(cfg.Server.Env)
	ctx := context.Background()
	logger.Info(ctx, "Logger initialized", zap.String("env", cfg.Server.Env))

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer store.Close()
	logger.Info(ctx, "Connected to database", zap.String("driver", store.Dialect.Name))

	if err := ensureSchema(store); err != nil {
		return fmt.Errorf("failed to prepare schema: %w", err)
	}

	// One tracker per process: every gateway queues into it and the unit of
	// work drains it.
	tracker := changes.NewTracker()
	defer tracker.Close()

	registry := newRegistry()
	collector := metrics.New(registry, func() float64 { return float64(tracker.Len()) })

	uow := repositories.NewUnitOfWork(store.DB, tracker, store.Dialect,
		repositories.WithMetrics(collector),
		repositories.WithCommitTimeout(cfg.UnitOfWork.CommitTimeout),
	)
	userRepo := repositories.NewUserRepository(store.DB, tracker, store.Dialect)

	if cfg.Redis.Enabled {
		if err := initRedis(cfg.Redis.URL, cfg.Redis.PASSWORD); err != nil {
			logger.Error(ctx, "Failed to initialize Redis", zap.Error(err))
			return fmt.Errorf("failed to initialize redis: %w", err)
		}
		defer redis.Close()

		userCache := cache.NewEntityCache("user", cfg.Cache.TTL, func() *entities.User { return &entities.User{} })
		userRepo.WithCache(userCache)
		uow.OnCommit(userCache.InvalidateCommitted)
		logger.Info(ctx, "Redis user cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	userUsecase := usecases.NewUserUsecase(userRepo, uow)

	userHandler := handlers.NewUserHandler(userUsecase)
	changeHandler := handlers.NewChangeHandler(userUsecase)

	jobCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	autoCommitJob := jobs.NewAutoCommitJob(uow, cfg.UnitOfWork.AutoCommitInterval)
	go autoCommitJob.Start(jobCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggerMiddleware())

	applyCORSMiddleware(r)
	registerHealthRoute(r)
	registerMetricsRoute(r, registry)
	registerAPIV1Routes(r, routeDeps{
		userHandler:   userHandler,
		changeHandler: changeHandler,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		logger.Info(ctx, "Shutting down server")
		autoCommitJob.Stop()
		cancel()
	}()

	logger.Info(ctx, "User store starting",
		zap.String("port", cfg.Server.Port),
		zap.Int("routes", len(r.Routes())),
	)

	if err := runServer(r, cfg.Server.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}
