package main

import (
	"context"
	stdlog "log"
	"os/signal"
	"syscall"
	"time"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/database"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/pkg/logger"
	"github.com/qs3c/fbsched_server/internal/pkg/pubsub"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
	"github.com/qs3c/fbsched_server/internal/pkg/storage"
	"github.com/qs3c/fbsched_server/internal/service"
	"github.com/qs3c/fbsched_server/internal/worker"
)

func main() {
	// 加载配置
	cfg, err := config.Load("config.yaml")
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.Log).With().Str("process", "worker").Logger()

	// 独立 worker 必须与 API 共享数据库
	if cfg.Database.Driver == "" || cfg.Database.Driver == "memory" {
		log.Fatal().Msg("worker requires a shared database driver (sqlite/mysql/postgres)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repos, err := database.OpenRepositories(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	log.Info().Msg("database connected")

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	log.Info().Msg("redis connected")

	var locker keylock.Locker = keylock.NewLocal()
	if cfg.Lock.Driver == "redis" {
		locker = keylock.NewRedis(rdb, "fbsched:lock:", time.Duration(cfg.Lock.TTLSeconds)*time.Second).WithLogger(log)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init file storage")
	}

	usageService := service.NewUsageService(repos, locker, log)
	videoService := service.NewVideoService(repos, usageService, files, locker, cfg, log)
	settingsService := service.NewSettingsService(repos, locker)

	jobQueue := queue.NewQueue(rdb, cfg.Queue.PublishQueue)
	processor := worker.NewProcessor(videoService, settingsService, worker.NewPublisher(cfg.Publish, log), cfg.Publish, log)
	processor.SetNotifier(pubsub.NewPublisher(rdb))
	pool := worker.NewPool(jobQueue, processor, cfg.Queue.MaxWorkers, log)

	log.Info().Int("max_workers", cfg.Queue.MaxWorkers).Msg("worker started")
	pool.Run(ctx)
	log.Info().Msg("worker shutdown complete")
}
