package service

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrQueueEmpty is returned by ClaimBlocking when nothing arrived before the timeout.
var ErrQueueEmpty = errors.New("queue empty")

type Queue interface {
	Enqueue(ctx context.Context, jobID string) error
	ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error)
	Ack(ctx context.Context, jobID string) error
	RequeueStale(ctx context.Context, limit int64) (int64, error)
}

const (
	DefaultQueueKey      = "factcheck:queue"
	DefaultProcessingKey = "factcheck:processing"
)

// redisQueue is a reliable queue on Redis lists.
// Claim: BRPOPLPUSH queue -> processing
// Ack:   LREM from processing
type redisQueue struct {
	rdb           redis.UniversalClient
	queueKey      string
	processingKey string
}

func NewRedisQueue(rdb redis.UniversalClient, queueKey, processingKey string) Queue {
	if queueKey == "" {
		queueKey = DefaultQueueKey
	}
	if processingKey == "" {
		processingKey = DefaultProcessingKey
	}
	return &redisQueue{rdb: rdb, queueKey: queueKey, processingKey: processingKey}
}

func (q *redisQueue) Enqueue(ctx context.Context, jobID string) error {
	return q.rdb.LPush(ctx, q.queueKey, jobID).Err()
}

// ClaimBlocking waits up to timeout for a job id. A timeout <= 0 waits in
// one-second slots until ctx is done.
func (q *redisQueue) ClaimBlocking(ctx context.Context, timeout time.Duration) (string, error) {
	forever := timeout <= 0
	deadline := time.Now().Add(timeout)

	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		wait := time.Second
		if !forever {
			remain := time.Until(deadline)
			if remain <= 0 {
				return "", ErrQueueEmpty
			}
			if remain < wait {
				wait = remain
			}
		}

		id, err := q.rdb.BRPopLPush(ctx, q.queueKey, q.processingKey, wait).Result()
		if err == nil {
			return id, nil
		}
		if errors.Is(err, redis.Nil) {
			continue
		}
		return "", err
	}
}

func (q *redisQueue) Ack(ctx context.Context, jobID string) error {
	return q.rdb.LRem(ctx, q.processingKey, 1, jobID).Err()
}

// RequeueStale moves up to limit ids from processing back to the queue. Only
// safe while no worker is running: ids in flight are moved too.
func (q *redisQueue) RequeueStale(ctx context.Context, limit int64) (int64, error) {
	var moved int64
	for i := int64(0); i < limit; i++ {
		id, err := q.rdb.RPopLPush(ctx, q.processingKey, q.queueKey).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				break
			}
			return moved, err
		}
		if id != "" {
			moved++
		}
	}
	return moved, nil
}
