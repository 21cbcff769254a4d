package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"kaeva-factcheck/internal/service"
)

type JobProcessor interface {
	Process(ctx context.Context, jobID string) error
}

type Pool struct {
	queue      service.Queue
	processor  JobProcessor
	workers    int
	claimDelay time.Duration
}

func NewPool(queue service.Queue, processor JobProcessor, workers int, claimDelay time.Duration) *Pool {
	if workers <= 0 {
		workers = 4
	}
	if claimDelay <= 0 {
		claimDelay = 5 * time.Second
	}
	return &Pool{
		queue:      queue,
		processor:  processor,
		workers:    workers,
		claimDelay: claimDelay,
	}
}

// Run claims job ids and hands them to the workers until ctx is done, then
// waits for in-flight jobs to finish.
func (p *Pool) Run(ctx context.Context) {
	log := zap.L().With(zap.String("component", "worker.pool"))
	log.Info("worker pool started", zap.Int("workers", p.workers))

	jobCh := make(chan string)
	var wg sync.WaitGroup

	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			wlog := log.With(zap.Int("worker", n))
			// started jobs run to completion; shutdown waits for them
			jobCtx := context.WithoutCancel(ctx)
			for jobID := range jobCh {
				if err := p.processor.Process(jobCtx, jobID); err != nil {
					wlog.Error("process job", zap.String("job_id", jobID), zap.Error(err))
				}

				// Ack regardless: the job record already holds its terminal state.
				if err := p.queue.Ack(jobCtx, jobID); err != nil {
					wlog.Warn("ack job", zap.String("job_id", jobID), zap.Error(err))
				}
			}
		}(i + 1)
	}

	defer func() {
		close(jobCh)
		wg.Wait()
		log.Info("worker pool stopped")
	}()

	for {
		if ctx.Err() != nil {
			return
		}
		jobID, err := p.queue.ClaimBlocking(ctx, p.claimDelay)
		if err != nil {
			// timeout or ctx cancel; anything else is worth a line
			if ctx.Err() == nil && !errors.Is(err, service.ErrQueueEmpty) {
				log.Warn("claim job", zap.Error(err))
				time.Sleep(100 * time.Millisecond)
			}
			continue
		}
		select {
		case jobCh <- jobID:
		case <-ctx.Done():
			return
		}
	}
}
