package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/pkg/ai"
	"github.com/qs3c/fbsched_server/internal/pkg/errs"
	"github.com/qs3c/fbsched_server/internal/repository"
)

// GenerateInput AI 生成参数；Creativity 为空时使用配置默认值
type GenerateInput struct {
	Prompt        string
	Tone          string
	Length        string `validate:"omitempty,oneof=short medium long"`
	Keywords      []string
	Creativity    *float64
	LanguageStyle string
}

type CaptionService struct {
	captionRepo       repository.CaptionRepository
	usage             *UsageService
	generator         ai.Generator
	enforce           bool
	timeout           time.Duration
	defaultCreativity float64
	log               zerolog.Logger
}

func NewCaptionService(
	repos *repository.Repositories,
	usage *UsageService,
	generator ai.Generator,
	cfg *config.Config,
	log zerolog.Logger,
) *CaptionService {
	return &CaptionService{
		captionRepo:       repos.Caption,
		usage:             usage,
		generator:         generator,
		enforce:           cfg.Quota.Enforce,
		timeout:           cfg.AI.Timeout(),
		defaultCreativity: cfg.AI.DefaultCreativity,
		log:               log.With().Str("service", "caption").Logger(),
	}
}

// Save 保存文案
func (s *CaptionService) Save(ctx context.Context, userID int64, content string) (*model.Caption, error) {
	if strings.TrimSpace(content) == "" {
		return nil, ErrContentRequired
	}

	caption := &model.Caption{UserID: userID, Content: content}
	if err := s.captionRepo.Create(ctx, caption); err != nil {
		return nil, fmt.Errorf("failed to create caption: %w", err)
	}
	return caption, nil
}

// List 按插入顺序列出用户文案
func (s *CaptionService) List(ctx context.Context, userID int64) ([]*model.Caption, error) {
	return s.captionRepo.ListByUser(ctx, userID)
}

// Remove 删除自己的文案
func (s *CaptionService) Remove(ctx context.Context, userID, captionID int64) error {
	if _, err := requireOwner(ctx, s.captionRepo.GetByID, captionID, userID, ErrCaptionNotFound, ErrCaptionDenied); err != nil {
		return err
	}

	existed, err := s.captionRepo.Delete(ctx, captionID)
	if err != nil {
		return fmt.Errorf("failed to delete caption: %w", err)
	}
	if !existed {
		return ErrCaptionNotFound
	}
	return nil
}

func (s *CaptionService) buildParams(in GenerateInput) (ai.Params, error) {
	in.Prompt = strings.TrimSpace(in.Prompt)
	if in.Prompt == "" {
		return ai.Params{}, ErrPromptRequired
	}
	if err := validate.Struct(in); err != nil {
		return ai.Params{}, ErrInvalidLength
	}

	length := ai.Length(in.Length)
	if length == "" {
		length = ai.LengthMedium
	}

	creativity := s.defaultCreativity
	if in.Creativity != nil {
		creativity = *in.Creativity
	}
	if creativity < 0 {
		creativity = 0
	}
	if creativity > 1 {
		creativity = 1
	}

	return ai.Params{
		Prompt:        in.Prompt,
		Tone:          in.Tone,
		Length:        length,
		Keywords:      in.Keywords,
		Creativity:    creativity,
		LanguageStyle: in.LanguageStyle,
	}, nil
}

// Generate 调用 AI 生成文案，结果不会自动保存。
// 开启额度校验时先预占一次任务，生成失败则退还；否则成功后再计数。
func (s *CaptionService) Generate(ctx context.Context, userID int64, in GenerateInput) (string, error) {
	params, err := s.buildParams(in)
	if err != nil {
		return "", err
	}

	if s.enforce {
		if err := s.usage.ReserveTask(ctx, userID); err != nil {
			return "", err
		}
	}

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	caption, err := s.generator.GenerateCaption(genCtx, params)
	if err != nil {
		if s.enforce {
			if rerr := s.usage.RefundTask(context.WithoutCancel(ctx), userID); rerr != nil {
				s.log.Error().Err(rerr).Int64("user_id", userID).Msg("failed to refund task")
			}
		}
		s.log.Warn().Err(err).Int64("user_id", userID).Msg("caption generation failed")
		if errors.Is(err, context.DeadlineExceeded) {
			return "", errs.Generation("文案生成超时", err)
		}
		return "", errs.Generation("文案生成失败", err)
	}

	if !s.enforce {
		if _, err := s.usage.IncrementTasks(ctx, userID); err != nil && !errors.Is(err, ErrUsageNotFound) {
			s.log.Error().Err(err).Int64("user_id", userID).Msg("failed to record task usage")
		}
	}

	return caption, nil
}
