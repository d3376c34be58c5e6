package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/fbsched_server/internal/model"
)

type subscriptionRepo struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepo{db: db}
}

func (r *subscriptionRepo) GetByUserID(ctx context.Context, userID int64) (*model.Subscription, error) {
	var sub model.Subscription
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error
	if err != nil {
		return nil, translate(err)
	}
	return &sub, nil
}

func (r *subscriptionRepo) Create(ctx context.Context, sub *model.Subscription) error {
	return translate(r.db.WithContext(ctx).Create(sub).Error)
}

func (r *subscriptionRepo) UpdateByUserID(ctx context.Context, userID int64, patch model.SubscriptionPatch) (*model.Subscription, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&model.Subscription{}).Where("user_id = ?", userID).Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
	}
	return r.GetByUserID(ctx, userID)
}

func (r *subscriptionRepo) ListActiveExpiringBefore(ctx context.Context, before time.Time) ([]*model.Subscription, error) {
	var subs []*model.Subscription
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", model.SubscriptionActive, before).
		Find(&subs).Error
	return subs, err
}
