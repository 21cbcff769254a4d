package worker

import (
	"context"
	"time"

	"go.uber.org/zap"
)

type ExpiredDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Reaper periodically removes expired job records.
type Reaper struct {
	store    ExpiredDeleter
	interval time.Duration
	now      func() time.Time
}

func NewReaper(store ExpiredDeleter, interval time.Duration) *Reaper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Reaper{store: store, interval: interval, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

func (r *Reaper) Sweep(ctx context.Context) int64 {
	n, err := r.store.DeleteExpired(ctx, r.now())
	if err != nil {
		zap.L().Warn("delete expired jobs", zap.Error(err))
		return 0
	}
	if n > 0 {
		zap.L().Info("deleted expired jobs", zap.Int64("count", n))
	}
	return n
}
