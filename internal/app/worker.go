package app

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/loxigl/Rent-Pro/internal/config"
	"github.com/loxigl/Rent-Pro/internal/logger"
	"github.com/loxigl/Rent-Pro/internal/taskqueue"
	"github.com/loxigl/Rent-Pro/internal/workers"
)

// RunWorker starts the task queue consumer process.
func RunWorker() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}
	logger.Init(cfg.Server.Env)
	logger.Info("Worker logger initialized", "env", cfg.Server.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := BuildContainer(ctx, cfg)
	if err != nil {
		logger.Fatal("Failed to build worker", "error", err)
	}
	defer container.Close()

	srv := taskqueue.NewServer(taskqueue.Config{
		RedisAddr:     cfg.Redis.Addr,
		RedisPassword: cfg.Redis.Password,
		RedisDB:       cfg.Redis.QueueDB,
		TaskTimeout:   time.Duration(cfg.Upload.TaskTimeout) * time.Second,
		TaskRetries:   cfg.Upload.TaskRetries,
		Concurrency:   cfg.Worker.Concurrency,
	})

	mux := asynq.NewServeMux()
	imageWorker := workers.NewImageWorker(container.PhotoService)
	imageWorker.Register(mux)

	go func() {
		logger.Info("Worker starting", "concurrency", cfg.Worker.Concurrency)
		if err := srv.Run(mux); err != nil {
			logger.Fatal("Worker startup error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("Worker shutting down")
	srv.Shutdown()
}
