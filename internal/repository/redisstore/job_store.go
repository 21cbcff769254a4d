// Package redisstore keeps each job as a JSON value whose key expires with the job.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

const (
	DefaultKeyPrefix = "factcheck:job:"
	maxTxRetries     = 5
)

type JobStore struct {
	rdb    redis.UniversalClient
	prefix string
	now    func() time.Time
}

func NewJobStore(rdb redis.UniversalClient, prefix string) *JobStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &JobStore{
		rdb:    rdb,
		prefix: prefix,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *JobStore) key(id string) string { return s.prefix + id }

func (s *JobStore) Create(ctx context.Context, job *entity.Job) error {
	b, err := json.Marshal(job)
	if err != nil {
		return eris.Wrap(err, "redis store: marshal job")
	}
	ok, err := s.rdb.SetNX(ctx, s.key(job.ID), b, s.ttl(job)).Result()
	if err != nil {
		return eris.Wrap(err, "redis store: create")
	}
	if !ok {
		return repository.ErrConflict
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*entity.Job, error) {
	b, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "redis store: get")
	}
	var job entity.Job
	if err := json.Unmarshal(b, &job); err != nil {
		return nil, eris.Wrap(err, "redis store: decode job")
	}
	return &job, nil
}

func (s *JobStore) UpdateProgress(ctx context.Context, id string, progress int) error {
	return s.mutate(ctx, id, func(j *entity.Job) {
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

func (s *JobStore) Complete(ctx context.Context, id string, result *entity.VerdictResult) error {
	return s.mutate(ctx, id, func(j *entity.Job) {
		j.Status = entity.StatusComplete
		j.Progress = entity.ProgressComplete
		j.Result = result
		j.Error = nil
	})
}

func (s *JobStore) Fail(ctx context.Context, id string, msg string) error {
	return s.mutate(ctx, id, func(j *entity.Job) {
		j.Status = entity.StatusError
		j.Progress = entity.ProgressFailed
		j.Result = nil
		j.Error = &msg
	})
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (s *JobStore) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}

// mutate rewrites a processing job under WATCH so concurrent writers never
// lose an update. The key TTL is preserved.
func (s *JobStore) mutate(ctx context.Context, id string, fn func(*entity.Job)) error {
	key := s.key(id)
	txf := func(tx *redis.Tx) error {
		b, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return repository.ErrNotFound
			}
			return err
		}
		var job entity.Job
		if err := json.Unmarshal(b, &job); err != nil {
			return eris.Wrap(err, "redis store: decode job")
		}
		if job.IsTerminal() {
			return repository.ErrNotFound
		}
		fn(&job)
		job.UpdatedAt = s.now()

		out, err := json.Marshal(&job)
		if err != nil {
			return eris.Wrap(err, "redis store: marshal job")
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, redis.KeepTTL)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return eris.Wrapf(err, "redis store: update job %s", id)
		}
		return err
	}
	return eris.Errorf("redis store: update job %s: too much contention", id)
}

func (s *JobStore) ttl(job *entity.Job) time.Duration {
	if job.ExpiresAt.IsZero() {
		return 0
	}
	ttl := job.ExpiresAt.Sub(s.now())
	if ttl < time.Second {
		ttl = time.Second
	}
	return ttl
}
