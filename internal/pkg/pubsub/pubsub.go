package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	ChannelVideoEvents = "video_events"
)

// VideoEvent 视频发布结果事件
type VideoEvent struct {
	Type       string    `json:"type"`
	UserID     int64     `json:"user_id"`
	VideoID    int64     `json:"video_id"`
	Status     string    `json:"status"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Publisher Redis 发布者
type Publisher struct {
	client *redis.Client
}

// NewPublisher 创建发布者
func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

// PublishVideoEvent 发布视频状态变化
func (p *Publisher) PublishVideoEvent(ctx context.Context, event *VideoEvent) error {
	event.Type = "video_status"
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal video event: %w", err)
	}

	return p.client.Publish(ctx, ChannelVideoEvents, data).Err()
}

// Subscriber Redis 订阅者
type Subscriber struct {
	client *redis.Client
}

// NewSubscriber 创建订阅者
func NewSubscriber(client *redis.Client) *Subscriber {
	return &Subscriber{client: client}
}

// Subscribe 阻塞消费视频事件直到 ctx 取消
func (s *Subscriber) Subscribe(ctx context.Context, handler func(*VideoEvent)) error {
	pubsub := s.client.Subscribe(ctx, ChannelVideoEvents)
	defer pubsub.Close()

	ch := pubsub.Channel()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}

			var event VideoEvent
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue // 忽略解析错误
			}

			handler(&event)
		}
	}
}
