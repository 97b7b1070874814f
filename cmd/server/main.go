package main

import (
	"context"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"github.com/quillfeed/quillfeed/config"
	"github.com/quillfeed/quillfeed/internal/api"
	"github.com/quillfeed/quillfeed/internal/api/handler"
	"github.com/quillfeed/quillfeed/internal/rankstore"
	"github.com/quillfeed/quillfeed/internal/repository"
	"github.com/quillfeed/quillfeed/internal/service"
	"github.com/quillfeed/quillfeed/internal/stream"
	"github.com/quillfeed/quillfeed/pkg/database"
	"github.com/quillfeed/quillfeed/pkg/logger"
	"github.com/quillfeed/quillfeed/pkg/redisclient"
	"github.com/quillfeed/quillfeed/pkg/tracing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}
	format := "console"
	if cfg.App.LogJSON {
		format = "json"
	}
	if err := logger.Init(cfg.App.LogLevel, format); err != nil {
		panic(err)
	}
	defer logger.Sync()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.App.Env}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	ctx := context.Background()
	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		logger.Error("tracing init failed", zap.Error(err))
	} else {
		defer shutdownTracing(ctx)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		logger.Error("database init failed", zap.Error(err))
		return
	}
	rdb, err := redisclient.Init(cfg)
	if err != nil {
		logger.Error("redis init failed", zap.Error(err))
		return
	}
	defer rdb.Close()

	ranks := rankstore.New(rdb)
	userRepo := repository.NewUserRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	followRepo := repository.NewFollowRepository(db)
	blockRepo := repository.NewBlockRepository(db)

	streams := stream.NewDefaultSet(ranks, userRepo, statusRepo, cfg.Feed.MaxLength)

	queue := service.NewWorkerQueue(cfg.Queue.Size, cfg.Queue.MaxRetries)
	stopQueue := queue.Start(cfg.Queue.Workers)
	defer stopQueue(ctx)

	reconciler := service.NewReconciler(streams, userRepo, statusRepo, queue)
	statusService := service.NewStatusService(statusRepo, reconciler)
	relService := service.NewRelationshipService(followRepo, blockRepo, reconciler)
	userService := service.NewUserService(userRepo, reconciler)

	h := handler.New(relService, statusService, userService, streams, cfg.Auth.JWTSecret)
	router := api.NewRouter(cfg, h)

	logger.Info("listening", zap.String("addr", cfg.Server.Addr))
	if err := router.Run(cfg.Server.Addr); err != nil {
		logger.Error("server stopped", zap.Error(err))
	}
}
