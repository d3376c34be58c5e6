package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/fbsched_server/internal/model"
)

type videoRepo struct {
	db *gorm.DB
}

func NewVideoRepository(db *gorm.DB) VideoRepository {
	return &videoRepo{db: db}
}

// Create 创建视频
func (r *videoRepo) Create(ctx context.Context, video *model.Video) error {
	return translate(r.db.WithContext(ctx).Create(video).Error)
}

// GetByID 根据 ID 获取视频
func (r *videoRepo) GetByID(ctx context.Context, id int64) (*model.Video, error) {
	var video model.Video
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&video).Error
	if err != nil {
		return nil, translate(err)
	}
	return &video, nil
}

// ListByUser 按插入顺序列出用户的视频
func (r *videoRepo) ListByUser(ctx context.Context, userID int64) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&videos).Error
	return videos, err
}

// Update 浅合并更新，ID 与 user_id 不在补丁范围内
func (r *videoRepo) Update(ctx context.Context, id int64, patch model.VideoPatch) (*model.Video, error) {
	if fields := patch.Fields(); len(fields) > 0 {
		result := r.db.WithContext(ctx).Model(&model.Video{}).Where("id = ?", id).Updates(fields)
		if result.Error != nil {
			return nil, result.Error
		}
	}
	return r.GetByID(ctx, id)
}

// Delete 删除视频，返回记录是否存在
func (r *videoRepo) Delete(ctx context.Context, id int64) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&model.Video{}, id)
	return result.RowsAffected > 0, result.Error
}

// FindBySlot 时间以 UTC 比较，SQLite 按字符串比较时间
func (r *videoRepo) FindBySlot(ctx context.Context, userID int64, slot time.Time) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND scheduled_for = ? AND status IN ?", userID, slot.UTC(),
			[]model.VideoStatus{model.VideoStatusScheduled, model.VideoStatusProcessing}).
		Order("id ASC").
		Find(&videos).Error
	return videos, err
}

func (r *videoRepo) ListDue(ctx context.Context, before time.Time) ([]*model.Video, error) {
	var videos []*model.Video
	err := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_for IS NOT NULL AND scheduled_for <= ?", model.VideoStatusScheduled, before.UTC()).
		Order("scheduled_for ASC").
		Find(&videos).Error
	return videos, err
}
