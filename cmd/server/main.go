package main

import (
	"context"
	"errors"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/api"
	"github.com/qs3c/fbsched_server/internal/api/handler"
	"github.com/qs3c/fbsched_server/internal/database"
	"github.com/qs3c/fbsched_server/internal/pkg/ai"
	"github.com/qs3c/fbsched_server/internal/pkg/cron"
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
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化存储层
	repos, err := database.OpenRepositories(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}
	log.Info().Str("driver", cfg.Database.Driver).Msg("database ready")

	// Redis 用于发布队列和跨实例锁，不可用时只提供 API
	rdb := connectRedis(cfg, log)

	var locker keylock.Locker = keylock.NewLocal()
	if cfg.Lock.Driver == "redis" {
		locker = keylock.NewRedis(rdb, "fbsched:lock:", time.Duration(cfg.Lock.TTLSeconds)*time.Second).WithLogger(log)
	}

	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init file storage")
	}

	// 初始化 Service
	usageService := service.NewUsageService(repos, locker, log)
	subscriptionService := service.NewSubscriptionService(repos, cfg, log)
	authService := service.NewAuthService(repos, subscriptionService, usageService, cfg, log)
	userService := service.NewUserService(repos)
	settingsService := service.NewSettingsService(repos, locker)
	videoService := service.NewVideoService(repos, usageService, files, locker, cfg, log)
	captionService := service.NewCaptionService(repos, usageService, ai.NewClient(cfg.AI), cfg, log)

	var dispatcher cron.Dispatcher
	if rdb != nil {
		jobQueue := queue.NewQueue(rdb, cfg.Queue.PublishQueue)
		videoService.SetQueue(jobQueue)
		dispatcher = videoService

		// 内存存储无法与独立 worker 进程共享，在进程内消费队列
		if cfg.Database.Driver == "" || cfg.Database.Driver == "memory" {
			processor := worker.NewProcessor(videoService, settingsService, worker.NewPublisher(cfg.Publish, log), cfg.Publish, log)
			processor.SetNotifier(pubsub.NewPublisher(rdb))
			pool := worker.NewPool(jobQueue, processor, cfg.Queue.MaxWorkers, log)
			go pool.Run(ctx)
		}

		go logVideoEvents(ctx, pubsub.NewSubscriber(rdb), log)
	}

	cronService := cron.NewService(
		dispatcher,
		subscriptionService,
		time.Duration(cfg.Cron.DispatchIntervalSeconds)*time.Second,
		time.Duration(cfg.Cron.ExpireIntervalSeconds)*time.Second,
		log,
	)
	cronService.Start()
	defer cronService.Stop()

	// 初始化 Router
	router := api.NewRouter(
		handler.NewAuthHandler(authService),
		handler.NewUserHandler(userService),
		handler.NewSettingsHandler(settingsService),
		handler.NewVideoHandler(videoService),
		handler.NewScheduleHandler(videoService),
		handler.NewCaptionHandler(captionService),
		handler.NewSubscriptionHandler(subscriptionService),
		handler.NewUsageHandler(usageService),
		subscriptionService,
		cfg,
		log,
	)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router.Setup(),
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("server stopped unexpectedly")
			stop()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("failed to shutdown server")
	}
}

// connectRedis 连接 Redis；使用 redis 锁时必须可用
func connectRedis(cfg *config.Config, log zerolog.Logger) *redis.Client {
	if cfg.Redis.Host == "" {
		if cfg.Lock.Driver == "redis" {
			log.Fatal().Msg("lock driver redis requires redis.host")
		}
		return nil
	}

	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		if cfg.Lock.Driver == "redis" {
			log.Fatal().Err(err).Msg("failed to connect redis")
		}
		log.Warn().Err(err).Msg("redis unavailable, scheduled publishing disabled")
		return nil
	}
	log.Info().Msg("redis connected")
	return rdb
}

// logVideoEvents 记录 worker 广播的发布结果
func logVideoEvents(ctx context.Context, sub *pubsub.Subscriber, log zerolog.Logger) {
	err := sub.Subscribe(ctx, func(event *pubsub.VideoEvent) {
		log.Info().
			Int64("user_id", event.UserID).
			Int64("video_id", event.VideoID).
			Str("status", event.Status).
			Str("reason", event.Reason).
			Msg("video event")
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("video event subscription stopped")
	}
}
