package repository

import (
	"errors"

	"gorm.io/gorm"
)

// NewGormRepositories 基于 gorm 的持久化仓储
func NewGormRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:             NewUserRepository(db),
		FacebookSettings: NewFacebookSettingsRepository(db),
		Video:            NewVideoRepository(db),
		Caption:          NewCaptionRepository(db),
		Subscription:     NewSubscriptionRepository(db),
		Usage:            NewUsageRepository(db),
	}
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return err
}
