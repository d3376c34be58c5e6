package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/repository"
)

type SettingsService struct {
	settingsRepo repository.FacebookSettingsRepository
	locker       keylock.Locker
}

func NewSettingsService(repos *repository.Repositories, locker keylock.Locker) *SettingsService {
	return &SettingsService{
		settingsRepo: repos.FacebookSettings,
		locker:       locker,
	}
}

// Get 未配置时返回 nil, nil
func (s *SettingsService) Get(ctx context.Context, userID int64) (*model.FacebookSettings, error) {
	settings, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return settings, nil
}

// Upsert 存在则更新，否则创建；created 表示是否新建
func (s *SettingsService) Upsert(ctx context.Context, userID int64, patch model.FacebookSettingsPatch) (settings *model.FacebookSettings, created bool, err error) {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return nil, false, fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()

	existing, err := s.settingsRepo.GetByUserID(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, false, err
	}

	if existing != nil {
		merged := *existing
		patch.Apply(&merged)
		if err := validate.Struct(merged); err != nil {
			return nil, false, ErrInvalidUploadFrequency
		}
		settings, err = s.settingsRepo.UpdateByUserID(ctx, userID, patch)
		return settings, false, err
	}

	settings = &model.FacebookSettings{
		UserID:          userID,
		UploadFrequency: model.DefaultUploadFrequency,
	}
	patch.Apply(settings)
	if err := validate.Struct(settings); err != nil {
		return nil, false, ErrInvalidUploadFrequency
	}
	if err := s.settingsRepo.Create(ctx, settings); err != nil {
		return nil, false, fmt.Errorf("failed to create facebook settings: %w", err)
	}
	return settings, true, nil
}
