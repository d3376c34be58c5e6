package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/fbsched_server/internal/model"
)

type usageRepo struct {
	db *gorm.DB
}

func NewUsageRepository(db *gorm.DB) UsageRepository {
	return &usageRepo{db: db}
}

func (r *usageRepo) GetByUserID(ctx context.Context, userID int64) (*model.UsageMetrics, error) {
	var metrics model.UsageMetrics
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&metrics).Error
	if err != nil {
		return nil, translate(err)
	}
	return &metrics, nil
}

func (r *usageRepo) Create(ctx context.Context, metrics *model.UsageMetrics) error {
	return translate(r.db.WithContext(ctx).Create(metrics).Error)
}

func (r *usageRepo) UpdateByUserID(ctx context.Context, userID int64, patch model.UsageMetricsPatch) (*model.UsageMetrics, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&model.UsageMetrics{}).Where("user_id = ?", userID).Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
	}
	return r.GetByUserID(ctx, userID)
}
