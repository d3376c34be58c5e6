package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
)

// PublishRequest 发布一个视频到 Facebook 主页所需的全部信息
type PublishRequest struct {
	Job         *queue.PublishJob
	PageID      string
	AccessToken string
}

// Publisher 将视频发布到外部平台
type Publisher interface {
	Publish(ctx context.Context, req *PublishRequest) error
}

// PublishError 发布错误，包含用户可见消息和原始错误
type PublishError struct {
	UserMessage string // 中文，写入视频的失败原因
	RawError    error  // 原始错误，写日志
	Transient   bool
}

func (e *PublishError) Error() string {
	return e.UserMessage
}

func (e *PublishError) Unwrap() error {
	return e.RawError
}

// classifyStatus 根据 webhook 响应码分类错误
func classifyStatus(status int, body string) *PublishError {
	raw := fmt.Errorf("webhook returned %d: %s", status, body)

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &PublishError{UserMessage: "Facebook 授权无效，请更新访问令牌", RawError: raw}
	case status == http.StatusNotFound:
		return &PublishError{UserMessage: "Facebook 主页不存在，请检查主页 ID", RawError: raw}
	case status == http.StatusTooManyRequests:
		return &PublishError{UserMessage: "发布过于频繁，请稍后重试", RawError: raw, Transient: true}
	case status >= 500:
		return &PublishError{UserMessage: "发布服务暂时不可用", RawError: raw, Transient: true}
	default:
		return &PublishError{UserMessage: "发布失败，请检查视频与主页配置", RawError: raw}
	}
}

// WebhookPublisher 以 JSON POST 把发布请求交给外部发布服务
type WebhookPublisher struct {
	url        string
	httpClient *http.Client
}

func NewWebhookPublisher(cfg config.PublishConfig) *WebhookPublisher {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WebhookPublisher{
		url:        cfg.WebhookURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	VideoID      int64     `json:"video_id"`
	UserID       int64     `json:"user_id"`
	Title        string    `json:"title"`
	Filename     string    `json:"filename"`
	ScheduledFor time.Time `json:"scheduled_for"`
	PageID       string    `json:"page_id"`
	AccessToken  string    `json:"access_token"`
}

func (w *WebhookPublisher) Publish(ctx context.Context, req *PublishRequest) error {
	payload, err := json.Marshal(webhookPayload{
		VideoID:      req.Job.VideoID,
		UserID:       req.Job.UserID,
		Title:        req.Job.Title,
		Filename:     req.Job.Filename,
		ScheduledFor: req.Job.ScheduledFor,
		PageID:       req.PageID,
		AccessToken:  req.AccessToken,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(httpReq)
	if err != nil {
		return &PublishError{UserMessage: "无法连接发布服务，请稍后重试", RawError: err, Transient: true}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	return classifyStatus(resp.StatusCode, string(body))
}

// LogPublisher 未配置 webhook 时使用，只记录日志
type LogPublisher struct {
	log zerolog.Logger
}

func NewLogPublisher(log zerolog.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(_ context.Context, req *PublishRequest) error {
	p.log.Info().
		Int64("video_id", req.Job.VideoID).
		Str("page_id", req.PageID).
		Msg("publish webhook not configured, video marked as published")
	return nil
}

// NewPublisher 配置了 webhook 地址时使用 WebhookPublisher
func NewPublisher(cfg config.PublishConfig, log zerolog.Logger) Publisher {
	if cfg.WebhookURL == "" {
		return NewLogPublisher(log)
	}
	return NewWebhookPublisher(cfg)
}

// isTransient 暂时性错误值得重试
func isTransient(err error) bool {
	var pe *PublishError
	if errors.As(err, &pe) {
		return pe.Transient
	}
	return false
}

// PublishWithRetry 指数退避重试，非暂时性错误不重试
func PublishWithRetry(ctx context.Context, p Publisher, req *PublishRequest, maxRetries int, baseBackoff time.Duration, log zerolog.Logger) error {
	if maxRetries < 0 {
		maxRetries = 0
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * baseBackoff
			log.Debug().Int("attempt", attempt).Dur("backoff", backoff).Int64("video_id", req.Job.VideoID).Msg("retrying publish")
			select {
			case <-ctx.Done():
				return &PublishError{UserMessage: "发布超时", RawError: ctx.Err()}
			case <-time.After(backoff):
			}
		}

		lastErr = p.Publish(ctx, req)
		if lastErr == nil {
			return nil
		}

		log.Warn().Err(lastErr).Int("attempt", attempt+1).Int64("video_id", req.Job.VideoID).Msg("publish attempt failed")

		if !isTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}
