package cron

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Dispatcher 将到期的排期视频推入发布队列
type Dispatcher interface {
	DispatchDue(ctx context.Context) (int, error)
}

// Expirer 将过期订阅标记为 expired
type Expirer interface {
	ExpireDue(ctx context.Context) (int, error)
}

type Service struct {
	dispatcher       Dispatcher
	expirer          Expirer
	dispatchInterval time.Duration
	expireInterval   time.Duration
	log              zerolog.Logger
	stopChan         chan struct{}
	stopOnce         sync.Once
	wg               sync.WaitGroup
}

func NewService(
	dispatcher Dispatcher,
	expirer Expirer,
	dispatchInterval time.Duration,
	expireInterval time.Duration,
	log zerolog.Logger,
) *Service {
	if dispatchInterval <= 0 {
		dispatchInterval = time.Minute
	}
	if expireInterval <= 0 {
		expireInterval = time.Hour
	}
	return &Service{
		dispatcher:       dispatcher,
		expirer:          expirer,
		dispatchInterval: dispatchInterval,
		expireInterval:   expireInterval,
		log:              log.With().Str("component", "cron").Logger(),
		stopChan:         make(chan struct{}),
	}
}

// Start 启动定时任务
func (s *Service) Start() {
	if s.dispatcher != nil {
		s.wg.Add(1)
		go s.loop(s.dispatchInterval, s.dispatchDue)
	}
	if s.expirer != nil {
		s.wg.Add(1)
		go s.loop(s.expireInterval, s.expireSubscriptions)
	}
	s.log.Info().
		Dur("dispatch_interval", s.dispatchInterval).
		Dur("expire_interval", s.expireInterval).
		Msg("cron service started")
}

// Stop 停止定时任务并等待正在执行的任务结束
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	s.log.Info().Msg("cron service stopped")
}

func (s *Service) loop(interval time.Duration, task func(context.Context)) {
	defer s.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			task(ctx)
			cancel()
		}
	}
}

func (s *Service) dispatchDue(ctx context.Context) {
	n, err := s.dispatcher.DispatchDue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to dispatch due videos")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("due videos dispatched")
	}
}

func (s *Service) expireSubscriptions(ctx context.Context) {
	n, err := s.expirer.ExpireDue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to expire subscriptions")
		return
	}
	if n > 0 {
		s.log.Info().Int("count", n).Msg("subscriptions expired")
	}
}

// RunNow 立即执行一轮全部任务（用于测试或手动触发）
func (s *Service) RunNow(ctx context.Context) {
	if s.dispatcher != nil {
		s.dispatchDue(ctx)
	}
	if s.expirer != nil {
		s.expireSubscriptions(ctx)
	}
}
