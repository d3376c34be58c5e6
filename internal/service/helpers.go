package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/repository"
)

var validate = validator.New()

// requireOwner 加载实体并校验归属：不存在返回 notFound，归属不符返回 denied
func requireOwner[T model.Owned](
	ctx context.Context,
	get func(context.Context, int64) (T, error),
	id, userID int64,
	notFound, denied error,
) (T, error) {
	var zero T

	entity, err := get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return zero, notFound
		}
		return zero, fmt.Errorf("failed to load %d: %w", id, err)
	}
	if entity.OwnerID() != userID {
		return zero, denied
	}
	return entity, nil
}

func userLockKey(userID int64) string {
	return fmt.Sprintf("user:%d", userID)
}

// NormalizeSlot 排期时段按 UTC 分钟对齐
func NormalizeSlot(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func ptr[T any](v T) *T {
	return &v
}
