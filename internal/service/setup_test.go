package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/qs3c/fbsched_server/config"
	"github.com/qs3c/fbsched_server/internal/pkg/ai"
	"github.com/qs3c/fbsched_server/internal/pkg/keylock"
	"github.com/qs3c/fbsched_server/internal/pkg/logger"
	"github.com/qs3c/fbsched_server/internal/pkg/queue"
	"github.com/qs3c/fbsched_server/internal/pkg/storage"
	"github.com/qs3c/fbsched_server/internal/repository"
	"github.com/qs3c/fbsched_server/internal/testutil"
)

const mb = 1024 * 1024

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{Secret: "test-secret", ExpireHours: 1},
		Upload: config.UploadConfig{
			MaxSize:          100 * mb,
			AllowedMimeTypes: []string{"video/mp4"},
		},
		AI:    config.AIConfig{TimeoutSeconds: 5, DefaultCreativity: 0.7},
		Quota: config.QuotaConfig{Enforce: true},
		Plans: config.DefaultPlans(),
	}
}

type fakeGenerator struct {
	mu      sync.Mutex
	caption string
	err     error
	calls   int
	last    ai.Params
	block   bool
}

func (f *fakeGenerator) GenerateCaption(ctx context.Context, p ai.Params) (string, error) {
	f.mu.Lock()
	f.calls++
	f.last = p
	caption, err, block := f.caption, f.err, f.block
	f.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return caption, err
}

func (f *fakeGenerator) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeQueue struct {
	mu   sync.Mutex
	jobs []*queue.PublishJob
	err  error
}

func (q *fakeQueue) Push(_ context.Context, job *queue.PublishJob) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

type testEnv struct {
	cfg           *config.Config
	repos         *repository.Repositories
	usage         *UsageService
	videos        *VideoService
	captions      *CaptionService
	settings      *SettingsService
	subscriptions *SubscriptionService
	auth          *AuthService
	users         *UserService
	generator     *fakeGenerator
	queue         *fakeQueue
	uploadDir     string
}

func setupServices(t *testing.T, opts ...func(*config.Config)) *testEnv {
	t.Helper()
	return setupServicesWith(t, testutil.MemoryRepositories(), opts...)
}

// forEachBackend 分别在 SQLite 与内存仓储上运行同一用例
func forEachBackend(t *testing.T, fn func(t *testing.T, env *testEnv), opts ...func(*config.Config)) {
	t.Run("gorm", func(t *testing.T) {
		fn(t, setupServicesWith(t, testutil.GormRepositories(t), opts...))
	})
	t.Run("memory", func(t *testing.T) {
		fn(t, setupServicesWith(t, testutil.MemoryRepositories(), opts...))
	})
}

func setupServicesWith(t *testing.T, repos *repository.Repositories, opts ...func(*config.Config)) *testEnv {
	t.Helper()

	cfg := testConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	locker := keylock.NewLocal()
	log := logger.Nop()

	dir := t.TempDir()
	files, err := storage.NewLocal(dir)
	require.NoError(t, err)

	env := &testEnv{
		cfg:       cfg,
		repos:     repos,
		generator: &fakeGenerator{caption: "Sunny days ahead"},
		queue:     &fakeQueue{},
		uploadDir: dir,
	}
	env.usage = NewUsageService(repos, locker, log)
	env.videos = NewVideoService(repos, env.usage, files, locker, cfg, log)
	env.videos.SetQueue(env.queue)
	env.captions = NewCaptionService(repos, env.usage, env.generator, cfg, log)
	env.settings = NewSettingsService(repos, locker)
	env.subscriptions = NewSubscriptionService(repos, cfg, log)
	env.auth = NewAuthService(repos, env.subscriptions, env.usage, cfg, log)
	env.users = NewUserService(repos)
	return env
}

func withoutEnforce(cfg *config.Config) {
	cfg.Quota.Enforce = false
}
