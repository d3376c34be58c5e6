package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/repository"
)

const bytesPerMB = 1024 * 1024

// UsageService 用量记账：存储字节数与任务次数，额度来自当前有效订阅。
// 同一用户的读改写都在用户锁内完成。
type UsageService struct {
	usageRepo repository.UsageRepository
	subRepo   repository.SubscriptionRepository
	locker    keylock.Locker
	log       zerolog.Logger
	now       func() time.Time
}

func NewUsageService(repos *repository.Repositories, locker keylock.Locker, log zerolog.Logger) *UsageService {
	return &UsageService{
		usageRepo: repos.Usage,
		subRepo:   repos.Subscription,
		locker:    locker,
		log:       log.With().Str("service", "usage").Logger(),
		now:       time.Now,
	}
}

// limits 当前额度；订阅不存在、非 active 或已过期时额度为 0
func (s *UsageService) limits(ctx context.Context, userID int64) (storageMB int, tasks int, err error) {
	sub, err := s.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return 0, 0, nil
		}
		return 0, 0, fmt.Errorf("failed to load subscription: %w", err)
	}
	if !sub.IsActive(s.now()) {
		return 0, 0, nil
	}
	return sub.Storage, sub.Tasks, nil
}

// metricsOrZero 用量记录不存在时返回零值（不落库）
func (s *UsageService) metricsOrZero(ctx context.Context, userID int64) (*model.UsageMetrics, error) {
	m, err := s.usageRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return &model.UsageMetrics{UserID: userID}, nil
		}
		return nil, fmt.Errorf("failed to load usage metrics: %w", err)
	}
	return m, nil
}

// getOrCreate 必须在用户锁内调用
func (s *UsageService) getOrCreate(ctx context.Context, userID int64) (*model.UsageMetrics, error) {
	m, err := s.usageRepo.GetByUserID(ctx, userID)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("failed to load usage metrics: %w", err)
	}

	m = &model.UsageMetrics{UserID: userID}
	if err := s.usageRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to create usage metrics: %w", err)
	}
	return m, nil
}

func (s *UsageService) withUserLock(ctx context.Context, userID int64, fn func() error) error {
	unlock, err := s.locker.Lock(ctx, userLockKey(userID))
	if err != nil {
		return fmt.Errorf("failed to lock user %d: %w", userID, err)
	}
	defer unlock()
	return fn()
}

// Init 为新用户创建零用量记录，已存在时不做修改
func (s *UsageService) Init(ctx context.Context, userID int64) error {
	return s.withUserLock(ctx, userID, func() error {
		_, err := s.getOrCreate(ctx, userID)
		return err
	})
}

// AdjustStorage 按 delta 调整已用存储并钳制到 0；没有用量记录时不做任何事
func (s *UsageService) AdjustStorage(ctx context.Context, userID int64, deltaBytes int64) error {
	return s.withUserLock(ctx, userID, func() error {
		m, err := s.usageRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				s.log.Debug().Int64("user_id", userID).Msg("no usage metrics, storage adjustment skipped")
				return nil
			}
			return fmt.Errorf("failed to load usage metrics: %w", err)
		}

		used := m.StorageUsed + deltaBytes
		if used < 0 {
			used = 0
		}
		_, err = s.usageRepo.UpdateByUserID(ctx, userID, model.UsageMetricsPatch{StorageUsed: &used})
		return err
	})
}

func fitsStorage(usedBytes, addBytes int64, ceilingMB int) bool {
	return float64(usedBytes+addBytes)/bytesPerMB <= float64(ceilingMB)
}

// CanConsumeStorage 判断再写入 bytes 字节后是否仍在存储额度内
func (s *UsageService) CanConsumeStorage(ctx context.Context, userID int64, bytes int64) (bool, error) {
	m, err := s.metricsOrZero(ctx, userID)
	if err != nil {
		return false, err
	}
	storageMB, _, err := s.limits(ctx, userID)
	if err != nil {
		return false, err
	}
	return fitsStorage(m.StorageUsed, bytes, storageMB), nil
}

// ConsumeStorage 检查额度并记账，两步在同一把锁内完成
func (s *UsageService) ConsumeStorage(ctx context.Context, userID int64, bytes int64) error {
	return s.withUserLock(ctx, userID, func() error {
		m, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		storageMB, _, err := s.limits(ctx, userID)
		if err != nil {
			return err
		}
		if !fitsStorage(m.StorageUsed, bytes, storageMB) {
			return ErrStorageQuotaExceeded
		}

		used := m.StorageUsed + bytes
		_, err = s.usageRepo.UpdateByUserID(ctx, userID, model.UsageMetricsPatch{StorageUsed: &used})
		return err
	})
}

// IncrementTasks 任务次数加一，不检查上限
func (s *UsageService) IncrementTasks(ctx context.Context, userID int64) (*model.UsageMetrics, error) {
	var result *model.UsageMetrics
	err := s.withUserLock(ctx, userID, func() error {
		m, err := s.usageRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrUsageNotFound
			}
			return fmt.Errorf("failed to load usage metrics: %w", err)
		}

		tasks := m.TasksUsed + 1
		result, err = s.usageRepo.UpdateByUserID(ctx, userID, model.UsageMetricsPatch{TasksUsed: &tasks})
		return err
	})
	return result, err
}

// ReserveTask 在上限内预占一次任务
func (s *UsageService) ReserveTask(ctx context.Context, userID int64) error {
	return s.withUserLock(ctx, userID, func() error {
		m, err := s.getOrCreate(ctx, userID)
		if err != nil {
			return err
		}
		_, tasks, err := s.limits(ctx, userID)
		if err != nil {
			return err
		}
		if m.TasksUsed >= tasks {
			return ErrTaskQuotaExceeded
		}

		used := m.TasksUsed + 1
		_, err = s.usageRepo.UpdateByUserID(ctx, userID, model.UsageMetricsPatch{TasksUsed: &used})
		return err
	})
}

// RefundTask 退还预占的任务
func (s *UsageService) RefundTask(ctx context.Context, userID int64) error {
	return s.withUserLock(ctx, userID, func() error {
		m, err := s.usageRepo.GetByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			return fmt.Errorf("failed to load usage metrics: %w", err)
		}
		if m.TasksUsed == 0 {
			return nil
		}

		used := m.TasksUsed - 1
		_, err = s.usageRepo.UpdateByUserID(ctx, userID, model.UsageMetricsPatch{TasksUsed: &used})
		return err
	})
}

// GetMetrics 没有记录时返回零值
func (s *UsageService) GetMetrics(ctx context.Context, userID int64) (*model.UsageMetrics, error) {
	return s.metricsOrZero(ctx, userID)
}

func percent(used, ceiling float64) float64 {
	if ceiling <= 0 {
		return 100
	}
	return math.Min(100, used/ceiling*100)
}

// GetUtilization 用量占比，额度为 0 时视为 100%
func (s *UsageService) GetUtilization(ctx context.Context, userID int64) (*dto.Utilization, error) {
	m, err := s.metricsOrZero(ctx, userID)
	if err != nil {
		return nil, err
	}
	storageMB, tasks, err := s.limits(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &dto.Utilization{
		StoragePct: percent(float64(m.StorageUsed)/bytesPerMB, float64(storageMB)),
		TasksPct:   percent(float64(m.TasksUsed), float64(tasks)),
	}, nil
}
