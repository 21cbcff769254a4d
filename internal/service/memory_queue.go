package service

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
)

const DefaultMemoryQueueSize = 1024

// memoryQueue hands job ids to workers in the same process. Nothing survives
// a restart, so Ack and RequeueStale have nothing to do.
type memoryQueue struct {
	ch chan string
}

func NewMemoryQueue(size int) Queue {
	if size <= 0 {
		size = DefaultMemoryQueueSize
	}
	return &memoryQueue{ch: make(chan string, size)}
}

func (q *memoryQueue) Enqueue(ctx context.Context, jobID string) error {
	select {
	case q.ch <- jobID:
		return nil
	case <-ctx.Done():
		return eris.Wrap(ctx.Err(), "memory queue: enqueue")
	default:
		return eris.New("memory queue: full")
	}
}

func (q *memoryQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	var expired <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		expired = t.C
	}
	select {
	case id := <-q.ch:
		return id, nil
	case <-expired:
		return "", ErrQueueEmpty
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (q *memoryQueue) Ack(context.Context, string) error { return nil }

func (q *memoryQueue) RequeueStale(context.Context, int64) (int64, error) { return 0, nil }
