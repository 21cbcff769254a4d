package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"kaeva-factcheck/internal/entity"
)

// ErrInvalidInput is returned when neither a claim nor a media URL was given.
var ErrInvalidInput = errors.New("claim or mediaUrl is required")

// DefaultTTL is how long a job record is kept after submission.
const DefaultTTL = 24 * time.Hour

// JobStore port (memory, redisstore, postgresql and sqlite implement it).
type JobStore interface {
	Create(ctx context.Context, job *entity.Job) error
	Get(ctx context.Context, id string) (*entity.Job, error)
	UpdateProgress(ctx context.Context, id string, progress int) error
	Complete(ctx context.Context, id string, result *entity.VerdictResult) error
	Fail(ctx context.Context, id string, msg string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// JobQueue is the enqueue side of Queue.
type JobQueue interface {
	Enqueue(ctx context.Context, jobID string) error
}

type AnalysisService struct {
	store JobStore
	queue JobQueue
	ttl   time.Duration
	now   func() time.Time
}

func NewAnalysisService(store JobStore, queue JobQueue, ttl time.Duration) *AnalysisService {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &AnalysisService{
		store: store,
		queue: queue,
		ttl:   ttl,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

type SubmitRequest struct {
	ID       string
	Claim    string
	MediaURL string
	Platform string
}

// Submit records a new job at progress 10 and queues it. A caller-supplied id
// is used as is; otherwise a random UUID is assigned.
func (s *AnalysisService) Submit(ctx context.Context, req SubmitRequest) (*entity.Job, error) {
	in := entity.AnalysisInput{
		Claim:    strings.TrimSpace(req.Claim),
		MediaURL: strings.TrimSpace(req.MediaURL),
		Platform: strings.TrimSpace(req.Platform),
	}
	if in.Claim == "" && in.MediaURL == "" {
		return nil, ErrInvalidInput
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}

	now := s.now()
	job := &entity.Job{
		ID:        id,
		Status:    entity.StatusProcessing,
		Progress:  entity.ProgressCreated,
		Input:     in,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(s.ttl),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, err
	}

	if err := s.queue.Enqueue(ctx, id); err != nil {
		msg := "enqueue failed: " + err.Error()
		_ = s.store.Fail(ctx, id, msg)
		return nil, eris.Wrap(err, "service: enqueue job")
	}
	return job, nil
}

func (s *AnalysisService) Status(ctx context.Context, id string) (*entity.Job, error) {
	return s.store.Get(ctx, id)
}

// Result returns the job; callers check Status to tell a finished result from
// one still in progress.
func (s *AnalysisService) Result(ctx context.Context, id string) (*entity.Job, error) {
	return s.store.Get(ctx, id)
}
