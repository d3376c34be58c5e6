// Package store 提供内存实现的实体存储，实现 repository 包中的全部仓储接口。
// 存储不做归属校验，调用方负责传入已校验的 userID。
package store

import (
	"time"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/repository"
)

// Seed 初始数据，记录保留各自的 ID
type Seed struct {
	Users            []model.User
	FacebookSettings []model.FacebookSettings
	Videos           []model.Video
	Captions         []model.Caption
	Subscriptions    []model.Subscription
	UsageMetrics     []model.UsageMetrics
}

type Store struct {
	users         *collection[model.User]
	settings      *collection[model.FacebookSettings]
	videos        *collection[model.Video]
	captions      *collection[model.Caption]
	subscriptions *collection[model.Subscription]
	usage         *collection[model.UsageMetrics]
	now           func() time.Time
}

type Option func(*Store)

// WithClock 替换创建时间的时钟
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithSeed 注入初始数据
func WithSeed(seed Seed) Option {
	return func(s *Store) {
		s.users.seed(seed.Users)
		s.settings.seed(seed.FacebookSettings)
		s.videos.seed(seed.Videos)
		s.captions.seed(seed.Captions)
		s.subscriptions.seed(seed.Subscriptions)
		s.usage.seed(seed.UsageMetrics)
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		users:         newCollection(func(u *model.User) *int64 { return &u.ID }, nil),
		settings:      newCollection(func(f *model.FacebookSettings) *int64 { return &f.ID }, nil),
		videos:        newCollection(func(v *model.Video) *int64 { return &v.ID }, cloneVideo),
		captions:      newCollection(func(c *model.Caption) *int64 { return &c.ID }, nil),
		subscriptions: newCollection(func(sub *model.Subscription) *int64 { return &sub.ID }, cloneSubscription),
		usage:         newCollection(func(m *model.UsageMetrics) *int64 { return &m.ID }, nil),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repositories 以仓储接口暴露内存存储
func (s *Store) Repositories() *repository.Repositories {
	return &repository.Repositories{
		User:             &userRepo{s: s},
		FacebookSettings: &facebookSettingsRepo{s: s},
		Video:            &videoRepo{s: s},
		Caption:          &captionRepo{s: s},
		Subscription:     &subscriptionRepo{s: s},
		Usage:            &usageRepo{s: s},
	}
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}

func cloneVideo(v model.Video) model.Video {
	v.ScheduledFor = cloneTime(v.ScheduledFor)
	v.PublishedAt = cloneTime(v.PublishedAt)
	return v
}

func cloneSubscription(s model.Subscription) model.Subscription {
	s.ExpiresAt = cloneTime(s.ExpiresAt)
	return s
}

func ptr[T any](v T) *T {
	return &v
}

func ptrs[T any](values []T) []*T {
	result := make([]*T, len(values))
	for i := range values {
		result[i] = &values[i]
	}
	return result
}
