package main

import (
	"context"
	"flag"
	stdlog "log"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/database"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/pkg/logger"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
	"github.com/qs3c/fbsched_server/internal/pkg/storage"
	"github.com/qs3c/fbsched_server/internal/repository"
	"github.com/qs3c/fbsched_server/internal/service"
)

var (
	dryRun   = flag.Bool("dry-run", true, "Only report what would change")
	expire   = flag.Bool("expire", true, "Mark overdue subscriptions as expired")
	dispatch = flag.Bool("dispatch", false, "Push due scheduled videos to the publish queue")
	timeout  = flag.Duration("timeout", 5*time.Minute, "Overall timeout")
)

// 一次性维护任务，供 crontab 或运维手动执行
func main() {
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		stdlog.Fatalf("Failed to load config: %v", err)
	}
	log := logger.New(cfg.Log).With().Str("process", "cleanup").Logger()

	if cfg.Database.Driver == "" || cfg.Database.Driver == "memory" {
		log.Fatal().Msg("cleanup requires a persistent database driver")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	repos, err := database.OpenRepositories(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	log.Info().Bool("dry_run", *dryRun).Msg("starting maintenance")

	if *expire {
		if *dryRun {
			reportExpiring(ctx, repos, log)
		} else {
			n, err := service.NewSubscriptionService(repos, cfg, log).ExpireDue(ctx)
			if err != nil {
				log.Error().Err(err).Msg("failed to expire subscriptions")
			} else {
				log.Info().Int("count", n).Msg("subscriptions expired")
			}
		}
	}

	if *dispatch {
		if *dryRun {
			reportDue(ctx, repos, log)
		} else {
			runDispatch(ctx, cfg, repos, log)
		}
	}

	if *dryRun {
		log.Info().Msg("dry run finished, rerun with -dry-run=false to apply")
	}
}

func reportExpiring(ctx context.Context, repos *repository.Repositories, log zerolog.Logger) {
	subs, err := repos.Subscription.ListActiveExpiringBefore(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to list expiring subscriptions")
		return
	}
	for _, sub := range subs {
		log.Info().Int64("user_id", sub.UserID).Str("plan", sub.Plan).Time("expires_at", *sub.ExpiresAt).Msg("would expire")
	}
	log.Info().Int("count", len(subs)).Msg("subscriptions to expire")
}

func reportDue(ctx context.Context, repos *repository.Repositories, log zerolog.Logger) {
	due, err := repos.Video.ListDue(ctx, time.Now().UTC())
	if err != nil {
		log.Error().Err(err).Msg("failed to list due videos")
		return
	}
	for _, v := range due {
		log.Info().Int64("video_id", v.ID).Int64("user_id", v.UserID).Time("slot", *v.ScheduledFor).Msg("would dispatch")
	}
	log.Info().Int("count", len(due)).Msg("videos to dispatch")
}

func runDispatch(ctx context.Context, cfg *config.Config, repos *repository.Repositories, log zerolog.Logger) {
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Error().Err(err).Msg("failed to connect redis, skip dispatch")
		return
	}
	defer rdb.Close()

	var locker keylock.Locker = keylock.NewLocal()
	if cfg.Lock.Driver == "redis" {
		locker = keylock.NewRedis(rdb, "fbsched:lock:", time.Duration(cfg.Lock.TTLSeconds)*time.Second).WithLogger(log)
	}
	files, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		log.Error().Err(err).Msg("failed to init file storage, skip dispatch")
		return
	}

	usageService := service.NewUsageService(repos, locker, log)
	videoService := service.NewVideoService(repos, usageService, files, locker, cfg, log)
	videoService.SetQueue(queue.NewQueue(rdb, cfg.Queue.PublishQueue))

	n, err := videoService.DispatchDue(ctx)
	if err != nil {
		log.Error().Err(err).Msg("failed to dispatch due videos")
		return
	}
	log.Info().Int("count", n).Msg("due videos dispatched")
}
