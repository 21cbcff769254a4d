// Package memory is a single-process job store. Expired jobs are hidden from
// reads and removed by DeleteExpired.
package memory

import (
	"context"
	"sync"
	"time"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*entity.Job
	now  func() time.Time
}

func NewJobStore() *JobStore {
	return &JobStore{
		jobs: make(map[string]*entity.Job),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the store clock; used by tests.
func (s *JobStore) WithClock(now func() time.Time) *JobStore {
	s.now = now
	return s
}

func (s *JobStore) Create(_ context.Context, job *entity.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.jobs[job.ID]; ok && !s.expired(cur) {
		return repository.ErrConflict
	}
	s.jobs[job.ID] = clone(job)
	return nil
}

func (s *JobStore) Get(_ context.Context, id string) (*entity.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job) {
		return nil, repository.ErrNotFound
	}
	return clone(job), nil
}

func (s *JobStore) UpdateProgress(_ context.Context, id string, progress int) error {
	return s.mutate(id, func(j *entity.Job) {
		if progress > j.Progress {
			j.Progress = progress
		}
	})
}

func (s *JobStore) Complete(_ context.Context, id string, result *entity.VerdictResult) error {
	return s.mutate(id, func(j *entity.Job) {
		j.Status = entity.StatusComplete
		j.Progress = entity.ProgressComplete
		j.Result = result
		j.Error = nil
	})
}

func (s *JobStore) Fail(_ context.Context, id string, msg string) error {
	return s.mutate(id, func(j *entity.Job) {
		j.Status = entity.StatusError
		j.Progress = entity.ProgressFailed
		j.Result = nil
		j.Error = &msg
	})
}

func (s *JobStore) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for id, job := range s.jobs {
		if !job.ExpiresAt.IsZero() && !job.ExpiresAt.After(now) {
			delete(s.jobs, id)
			n++
		}
	}
	return n, nil
}

// mutate applies fn to a job that is still processing.
func (s *JobStore) mutate(id string, fn func(*entity.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok || s.expired(job) || job.IsTerminal() {
		return repository.ErrNotFound
	}
	fn(job)
	job.UpdatedAt = s.now()
	return nil
}

func (s *JobStore) expired(j *entity.Job) bool {
	return !j.ExpiresAt.IsZero() && !j.ExpiresAt.After(s.now())
}

func clone(j *entity.Job) *entity.Job {
	c := *j
	if j.Error != nil {
		msg := *j.Error
		c.Error = &msg
	}
	return &c
}
