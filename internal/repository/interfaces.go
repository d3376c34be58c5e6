package repository

import (
	"context"
	"errors"
	"time"

	"github.com/qs3c/fbsched_server/internal/model"
)

var (
	// ErrNotFound 记录不存在
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 违反唯一约束
	ErrDuplicate = errors.New("duplicate record")
)

// UserRepository 用户存取
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id int64) (*model.User, error)
	GetByUsername(ctx context.Context, username string) (*model.User, error)
	Update(ctx context.Context, id int64, patch model.UserPatch) (*model.User, error)
}

// FacebookSettingsRepository Facebook 配置存取，按用户唯一
type FacebookSettingsRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.FacebookSettings, error)
	Create(ctx context.Context, settings *model.FacebookSettings) error
	UpdateByUserID(ctx context.Context, userID int64, patch model.FacebookSettingsPatch) (*model.FacebookSettings, error)
}

// VideoRepository 视频存取
type VideoRepository interface {
	Create(ctx context.Context, video *model.Video) error
	GetByID(ctx context.Context, id int64) (*model.Video, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Video, error)
	Update(ctx context.Context, id int64, patch model.VideoPatch) (*model.Video, error)
	Delete(ctx context.Context, id int64) (bool, error)
	// FindBySlot 查找该用户在指定时段占用该时段的视频
	FindBySlot(ctx context.Context, userID int64, slot time.Time) ([]*model.Video, error)
	// ListDue 列出排期时间不晚于 before 的已排期视频
	ListDue(ctx context.Context, before time.Time) ([]*model.Video, error)
}

// CaptionRepository 文案存取
type CaptionRepository interface {
	Create(ctx context.Context, caption *model.Caption) error
	GetByID(ctx context.Context, id int64) (*model.Caption, error)
	ListByUser(ctx context.Context, userID int64) ([]*model.Caption, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

// SubscriptionRepository 订阅存取，按用户唯一
type SubscriptionRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.Subscription, error)
	Create(ctx context.Context, sub *model.Subscription) error
	UpdateByUserID(ctx context.Context, userID int64, patch model.SubscriptionPatch) (*model.Subscription, error)
	ListActiveExpiringBefore(ctx context.Context, before time.Time) ([]*model.Subscription, error)
}

// UsageRepository 用量存取，按用户唯一
type UsageRepository interface {
	GetByUserID(ctx context.Context, userID int64) (*model.UsageMetrics, error)
	Create(ctx context.Context, metrics *model.UsageMetrics) error
	UpdateByUserID(ctx context.Context, userID int64, patch model.UsageMetricsPatch) (*model.UsageMetrics, error)
}

// Repositories 汇总所有仓储，便于注入
type Repositories struct {
	User             UserRepository
	FacebookSettings FacebookSettingsRepository
	Video            VideoRepository
	Caption          CaptionRepository
	Subscription     SubscriptionRepository
	Usage            UsageRepository
}
