package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/pubsub"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
)

// VideoResults 记录发布结果
type VideoResults interface {
	MarkPublished(ctx context.Context, videoID int64) (*model.Video, error)
	MarkFailed(ctx context.Context, videoID int64, reason string) (*model.Video, error)
}

// SettingsReader 读取用户的 Facebook 配置，未配置时返回 nil, nil
type SettingsReader interface {
	Get(ctx context.Context, userID int64) (*model.FacebookSettings, error)
}

// Notifier 广播发布结果，可选
type Notifier interface {
	PublishVideoEvent(ctx context.Context, event *pubsub.VideoEvent) error
}

const missingSettingsMessage = "未配置 Facebook 主页或访问令牌"

// Processor 发布任务处理器
type Processor struct {
	videos      VideoResults
	settings    SettingsReader
	publisher   Publisher
	notifier    Notifier
	maxRetries  int
	baseBackoff time.Duration
	log         zerolog.Logger
}

// NewProcessor 创建发布任务处理器
func NewProcessor(
	videos VideoResults,
	settings SettingsReader,
	publisher Publisher,
	cfg config.PublishConfig,
	log zerolog.Logger,
) *Processor {
	return &Processor{
		videos:      videos,
		settings:    settings,
		publisher:   publisher,
		maxRetries:  cfg.MaxRetries,
		baseBackoff: time.Second,
		log:         log.With().Str("component", "processor").Logger(),
	}
}

func (p *Processor) SetNotifier(n Notifier) {
	p.notifier = n
}

func (p *Processor) notify(ctx context.Context, job *queue.PublishJob, status model.VideoStatus, reason string) {
	if p.notifier == nil {
		return
	}
	event := &pubsub.VideoEvent{
		UserID:  job.UserID,
		VideoID: job.VideoID,
		Status:  string(status),
		Reason:  reason,
	}
	if err := p.notifier.PublishVideoEvent(ctx, event); err != nil {
		p.log.Warn().Err(err).Int64("video_id", job.VideoID).Msg("failed to publish video event")
	}
}

// Process 发布一个到期视频，结果写回视频状态
func (p *Processor) Process(ctx context.Context, job *queue.PublishJob) error {
	settings, err := p.settings.Get(ctx, job.UserID)
	if err != nil {
		return p.fail(ctx, job, "读取 Facebook 配置失败", fmt.Errorf("failed to load settings: %w", err))
	}
	if settings == nil || settings.PageID == "" || settings.AccessToken == "" {
		return p.fail(ctx, job, missingSettingsMessage, errors.New("facebook settings incomplete"))
	}

	req := &PublishRequest{
		Job:         job,
		PageID:      settings.PageID,
		AccessToken: settings.AccessToken,
	}
	if err := PublishWithRetry(ctx, p.publisher, req, p.maxRetries, p.baseBackoff, p.log); err != nil {
		reason := "发布失败"
		var pe *PublishError
		if errors.As(err, &pe) {
			reason = pe.UserMessage
		}
		return p.fail(ctx, job, reason, err)
	}

	if _, err := p.videos.MarkPublished(ctx, job.VideoID); err != nil {
		return fmt.Errorf("failed to mark video %d published: %w", job.VideoID, err)
	}
	p.notify(ctx, job, model.VideoStatusPublished, "")

	p.log.Info().Int64("video_id", job.VideoID).Int64("user_id", job.UserID).Msg("video published")
	return nil
}

func (p *Processor) fail(ctx context.Context, job *queue.PublishJob, reason string, cause error) error {
	ctx = context.WithoutCancel(ctx)
	if _, err := p.videos.MarkFailed(ctx, job.VideoID, reason); err != nil {
		p.log.Error().Err(err).Int64("video_id", job.VideoID).Msg("failed to mark video failed")
		return cause
	}
	p.notify(ctx, job, model.VideoStatusFailed, reason)
	return cause
}
