package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/fbsched_server/internal/model"
)

type facebookSettingsRepo struct {
	db *gorm.DB
}

func NewFacebookSettingsRepository(db *gorm.DB) FacebookSettingsRepository {
	return &facebookSettingsRepo{db: db}
}

func (r *facebookSettingsRepo) GetByUserID(ctx context.Context, userID int64) (*model.FacebookSettings, error) {
	var settings model.FacebookSettings
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&settings).Error
	if err != nil {
		return nil, translate(err)
	}
	return &settings, nil
}

func (r *facebookSettingsRepo) Create(ctx context.Context, settings *model.FacebookSettings) error {
	return translate(r.db.WithContext(ctx).Create(settings).Error)
}

func (r *facebookSettingsRepo) UpdateByUserID(ctx context.Context, userID int64, patch model.FacebookSettingsPatch) (*model.FacebookSettings, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&model.FacebookSettings{}).Where("user_id = ?", userID).Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
	}
	return r.GetByUserID(ctx, userID)
}
