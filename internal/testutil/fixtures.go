package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qs3c/fbsched_server/internal/model"
	"github.com/qs3c/fbsched_server/internal/repository"
)

var seq int64

func nextSeq() int64 {
	return atomic.AddInt64(&seq, 1)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, repos *repository.Repositories, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := nextSeq()
	user := &model.User{
		Username: fmt.Sprintf("testuser_%d", n),
		Password: "$2a$10$abcdefghijklmnopqrstuvwxyz123456", // bcrypt hash placeholder
		Name:     fmt.Sprintf("Test User %d", n),
		Email:    fmt.Sprintf("test_%d@example.com", n),
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := repos.User.Create(context.Background(), user); err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithUsername 设置用户名
func WithUsername(username string) func(*model.User) {
	return func(u *model.User) {
		u.Username = username
	}
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = email
	}
}

// WithPasswordHash 设置密码哈希
func WithPasswordHash(hash string) func(*model.User) {
	return func(u *model.User) {
		u.Password = hash
	}
}

// TestSubscription 创建测试订阅，默认 trial 套餐、一个月后过期
func TestSubscription(t *testing.T, repos *repository.Repositories, userID int64, opts ...func(*model.Subscription)) *model.Subscription {
	t.Helper()

	expires := time.Now().Add(30 * 24 * time.Hour)
	sub := &model.Subscription{
		UserID:    userID,
		Plan:      model.PlanTrial,
		Status:    model.SubscriptionActive,
		ExpiresAt: &expires,
		Storage:   512,
		Tasks:     100,
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := repos.Subscription.Create(context.Background(), sub); err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithLimits 设置存储（MB）与任务上限
func WithLimits(storageMB, tasks int) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Storage = storageMB
		s.Tasks = tasks
	}
}

// WithSubscriptionStatus 设置订阅状态
func WithSubscriptionStatus(status string) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.Status = status
	}
}

// WithExpiresAt 设置过期时间，nil 表示永不过期
func WithExpiresAt(expiresAt *time.Time) func(*model.Subscription) {
	return func(s *model.Subscription) {
		s.ExpiresAt = expiresAt
	}
}

// TestUsage 创建测试用量
func TestUsage(t *testing.T, repos *repository.Repositories, userID int64, storageUsed int64, tasksUsed int) *model.UsageMetrics {
	t.Helper()

	metrics := &model.UsageMetrics{
		UserID:      userID,
		StorageUsed: storageUsed,
		TasksUsed:   tasksUsed,
	}

	if err := repos.Usage.Create(context.Background(), metrics); err != nil {
		t.Fatalf("Failed to create test usage metrics: %v", err)
	}

	return metrics
}

// TestAccount 创建带订阅与零用量的用户
func TestAccount(t *testing.T, repos *repository.Repositories, opts ...func(*model.Subscription)) *model.User {
	t.Helper()

	user := TestUser(t, repos)
	TestSubscription(t, repos, user.ID, opts...)
	TestUsage(t, repos, user.ID, 0, 0)
	return user
}

// TestVideo 创建测试视频，默认 pending
func TestVideo(t *testing.T, repos *repository.Repositories, userID int64, opts ...func(*model.Video)) *model.Video {
	t.Helper()

	n := nextSeq()
	video := &model.Video{
		UserID:   userID,
		Title:    fmt.Sprintf("Test Video %d", n),
		Filename: fmt.Sprintf("video_%d.mp4", n),
		Filesize: 1024 * 1024,
		Status:   model.VideoStatusPending,
	}

	for _, opt := range opts {
		opt(video)
	}

	if err := repos.Video.Create(context.Background(), video); err != nil {
		t.Fatalf("Failed to create test video: %v", err)
	}

	return video
}

// WithTitle 设置视频标题
func WithTitle(title string) func(*model.Video) {
	return func(v *model.Video) {
		v.Title = title
	}
}

// WithFilesize 设置文件大小（字节）
func WithFilesize(size int64) func(*model.Video) {
	return func(v *model.Video) {
		v.Filesize = size
	}
}

// WithSchedule 设置为已排期
func WithSchedule(slot time.Time) func(*model.Video) {
	return func(v *model.Video) {
		v.Status = model.VideoStatusScheduled
		v.ScheduledFor = &slot
	}
}

// WithVideoStatus 设置视频状态
func WithVideoStatus(status model.VideoStatus) func(*model.Video) {
	return func(v *model.Video) {
		v.Status = status
	}
}

// TestCaption 创建测试文案
func TestCaption(t *testing.T, repos *repository.Repositories, userID int64, content string) *model.Caption {
	t.Helper()

	caption := &model.Caption{
		UserID:  userID,
		Content: content,
	}

	if err := repos.Caption.Create(context.Background(), caption); err != nil {
		t.Fatalf("Failed to create test caption: %v", err)
	}

	return caption
}
