package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/model/dto"
	"github.com/qs3c/fbsched_server/internal/pkg/jwt"
	"github.com/qs3c/fbsched_server/internal/repository"
)

type AuthService struct {
	userRepo      repository.UserRepository
	subscriptions *SubscriptionService
	usage         *UsageService
	cfg           *config.Config
	log           zerolog.Logger
}

func NewAuthService(
	repos *repository.Repositories,
	subscriptions *SubscriptionService,
	usage *UsageService,
	cfg *config.Config,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:      repos.User,
		subscriptions: subscriptions,
		usage:         usage,
		cfg:           cfg,
		log:           log.With().Str("service", "auth").Logger(),
	}
}

// Register 用户注册，同时开通试用订阅并初始化用量
func (s *AuthService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username: strings.TrimSpace(req.Username),
		Password: string(hashedPassword),
		Name:     req.Name,
		Email:    req.Email,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if _, err := s.subscriptions.StartTrial(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to start trial")
		return nil, err
	}
	if err := s.usage.Init(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Int64("user_id", user.ID).Msg("failed to init usage metrics")
		return nil, err
	}

	s.log.Info().Int64("user_id", user.ID).Str("username", user.Username).Msg("user registered")
	return user, nil
}

// Login 用户登录
func (s *AuthService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := jwt.GenerateToken(user.ID, s.cfg.JWT.Secret, s.cfg.JWT.ExpireHours)
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &dto.LoginResponse{
		Token: token,
		User:  toUserInfo(user),
	}, nil
}
