package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/repository"
)

type SubscriptionService struct {
	subRepo repository.SubscriptionRepository
	plans   map[string]config.PlanConfig
	log     zerolog.Logger
	now     func() time.Time
}

func NewSubscriptionService(repos *repository.Repositories, cfg *config.Config, log zerolog.Logger) *SubscriptionService {
	plans := cfg.Plans
	if len(plans) == 0 {
		plans = config.DefaultPlans()
	}
	return &SubscriptionService{
		subRepo: repos.Subscription,
		plans:   plans,
		log:     log.With().Str("service", "subscription").Logger(),
		now:     time.Now,
	}
}

// Get 未订阅时返回 nil, nil
func (s *SubscriptionService) Get(ctx context.Context, userID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.GetByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// ListPlans 按价格升序
func (s *SubscriptionService) ListPlans() []dto.PlanInfo {
	plans := make([]dto.PlanInfo, 0, len(s.plans))
	for key, p := range s.plans {
		plans = append(plans, dto.PlanInfo{
			Plan:         key,
			Name:         p.Name,
			Price:        p.Price,
			Storage:      p.Storage,
			Tasks:        p.Tasks,
			DurationDays: p.DurationDays,
		})
	}
	sort.Slice(plans, func(i, j int) bool {
		if plans[i].Price != plans[j].Price {
			return plans[i].Price < plans[j].Price
		}
		return plans[i].Plan < plans[j].Plan
	})
	return plans
}

func (s *SubscriptionService) expiry(plan config.PlanConfig) *time.Time {
	if plan.DurationDays <= 0 {
		return nil
	}
	t := s.now().Add(time.Duration(plan.DurationDays) * 24 * time.Hour)
	return &t
}

// StartTrial 为新用户开通试用；已有订阅时保持不变
func (s *SubscriptionService) StartTrial(ctx context.Context, userID int64) (*model.Subscription, error) {
	plan, ok := s.plans[model.PlanTrial]
	if !ok {
		return nil, ErrPlanNotFound
	}

	sub := &model.Subscription{
		UserID:    userID,
		Plan:      model.PlanTrial,
		Status:    model.SubscriptionActive,
		ExpiresAt: s.expiry(plan),
		Storage:   plan.Storage,
		Tasks:     plan.Tasks,
	}
	if err := s.subRepo.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return s.subRepo.GetByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to create subscription: %w", err)
	}
	return sub, nil
}

// ChangePlan 切换套餐并替换额度，重新计算过期时间
func (s *SubscriptionService) ChangePlan(ctx context.Context, userID int64, planKey string) (*model.Subscription, error) {
	plan, ok := s.plans[planKey]
	if !ok {
		return nil, ErrPlanNotFound
	}

	expiresAt := &sql.NullTime{}
	if t := s.expiry(plan); t != nil {
		expiresAt = &sql.NullTime{Time: *t, Valid: true}
	}
	patch := model.SubscriptionPatch{
		Plan:      &planKey,
		Status:    ptr(model.SubscriptionActive),
		ExpiresAt: expiresAt,
		Storage:   &plan.Storage,
		Tasks:     &plan.Tasks,
	}

	sub, err := s.subRepo.UpdateByUserID(ctx, userID, patch)
	if errors.Is(err, repository.ErrNotFound) {
		sub = &model.Subscription{UserID: userID}
		patch.Apply(sub)
		err = s.subRepo.Create(ctx, sub)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to change plan: %w", err)
	}

	s.log.Info().Int64("user_id", userID).Str("plan", planKey).Msg("plan changed")
	return sub, nil
}

// Cancel 取消订阅，额度立即失效
func (s *SubscriptionService) Cancel(ctx context.Context, userID int64) (*model.Subscription, error) {
	sub, err := s.subRepo.UpdateByUserID(ctx, userID, model.SubscriptionPatch{Status: ptr(model.SubscriptionCancelled)})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}
	return sub, nil
}

// ExpireDue 将已过期的 active 订阅标记为 expired，返回处理数量
func (s *SubscriptionService) ExpireDue(ctx context.Context) (int, error) {
	subs, err := s.subRepo.ListActiveExpiringBefore(ctx, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to list expiring subscriptions: %w", err)
	}

	expired := 0
	for _, sub := range subs {
		if _, err := s.subRepo.UpdateByUserID(ctx, sub.UserID, model.SubscriptionPatch{Status: ptr(model.SubscriptionExpired)}); err != nil {
			s.log.Error().Err(err).Int64("user_id", sub.UserID).Msg("failed to expire subscription")
			continue
		}
		expired++
	}
	return expired, nil
}
