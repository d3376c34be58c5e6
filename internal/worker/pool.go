package worker

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/qs3c/fbsched_server/internal/pkg/queue"
)

// JobSource 阻塞获取发布任务，超时返回 nil, nil
type JobSource interface {
	Pop(ctx context.Context, timeout time.Duration) (*queue.PublishJob, error)
}

// JobHandler 处理单个发布任务
type JobHandler interface {
	Process(ctx context.Context, job *queue.PublishJob) error
}

// Pool 固定数量的 worker 从队列消费发布任务
type Pool struct {
	source     JobSource
	handler    JobHandler
	workers    int
	popTimeout time.Duration
	log        zerolog.Logger
}

func NewPool(source JobSource, handler JobHandler, workers int, log zerolog.Logger) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{
		source:     source,
		handler:    handler,
		workers:    workers,
		popTimeout: 5 * time.Second,
		log:        log.With().Str("component", "worker_pool").Logger(),
	}
}

// Run 阻塞运行直到 ctx 取消，返回前等待所有 worker 退出
func (p *Pool) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			p.work(ctx, workerID)
		}(i)
	}

	p.log.Info().Int("workers", p.workers).Msg("worker pool started")
	wg.Wait()
	p.log.Info().Msg("worker pool stopped")
}

func (p *Pool) work(ctx context.Context, workerID int) {
	log := p.log.With().Int("worker", workerID).Logger()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Msg("worker shutting down")
			return
		default:
		}

		job, err := p.source.Pop(ctx, p.popTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error().Err(err).Msg("failed to pop job")
			// 避免 redis 不可用时空转
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if job == nil {
			continue
		}

		log.Info().Int64("video_id", job.VideoID).Msg("processing publish job")
		if err := p.handler.Process(ctx, job); err != nil {
			log.Warn().Err(err).Int64("video_id", job.VideoID).Msg("publish job failed")
		}
	}
}
