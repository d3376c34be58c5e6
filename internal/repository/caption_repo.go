package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/qs3c/fbsched_server/internal/model"
)

type captionRepo struct {
	db *gorm.DB
}

func NewCaptionRepository(db *gorm.DB) CaptionRepository {
	return &captionRepo{db: db}
}

// Create 创建文案
func (r *captionRepo) Create(ctx context.Context, caption *model.Caption) error {
	return translate(r.db.WithContext(ctx).Create(caption).Error)
}

// GetByID 根据 ID 获取文案
func (r *captionRepo) GetByID(ctx context.Context, id int64) (*model.Caption, error) {
	var caption model.Caption
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&caption).Error
	if err != nil {
		return nil, translate(err)
	}
	return &caption, nil
}

func (r *captionRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Caption, error) {
	var captions []*model.Caption
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&captions).Error
	return captions, err
}

// Delete 删除文案
func (r *captionRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Caption{}, id)
	return result.RowsAffected > 0, result.Error
}
