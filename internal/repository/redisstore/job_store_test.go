package redisstore

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

func newStore(t *testing.T) (*JobStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewJobStore(rdb, "test:job:"), mr
}

func newJob(id string) *entity.Job {
	now := time.Now().UTC()
	return &entity.Job{
		ID:        id,
		Status:    entity.StatusProcessing,
		Progress:  entity.ProgressCreated,
		Input:     entity.AnalysisInput{Claim: "The earth is flat", MediaURL: "https://x.test/a.jpg", Platform: "tiktok"},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestJobStore_CreateSetsTTL(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, newJob("a")))
	assert.True(t, mr.Exists("test:job:a"))
	ttl := mr.TTL("test:job:a")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	assert.ErrorIs(t, s.Create(ctx, newJob("a")), repository.ErrConflict)

	got, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "tiktok", got.Input.Platform)
	assert.Equal(t, entity.StatusProcessing, got.Status)
}

func TestJobStore_UpdatesKeepTTLAndAreMonotonic(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newJob("b")))

	require.NoError(t, s.UpdateProgress(ctx, "b", entity.ProgressVerified))
	require.NoError(t, s.UpdateProgress(ctx, "b", entity.ProgressMediaAnalyzed))
	got, err := s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, entity.ProgressVerified, got.Progress)
	assert.Greater(t, mr.TTL("test:job:b"), time.Duration(0))

	require.NoError(t, s.Complete(ctx, "b", &entity.VerdictResult{Verdict: entity.VerdictTrue, Confidence: 0.9}))
	got, err = s.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusComplete, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 0.9, got.Result.Confidence)
	assert.Greater(t, mr.TTL("test:job:b"), time.Duration(0))

	assert.ErrorIs(t, s.Fail(ctx, "b", "x"), repository.ErrNotFound)
}

func TestJobStore_Fail(t *testing.T) {
	s, _ := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newJob("c")))

	require.NoError(t, s.Fail(ctx, "c", "boom"))
	got, err := s.Get(ctx, "c")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusError, got.Status)
	assert.Equal(t, 0, got.Progress)
	require.NotNil(t, got.Error)
	assert.Equal(t, "boom", *got.Error)
}

func TestJobStore_ExpiredKeyIsNotFound(t *testing.T) {
	s, mr := newStore(t)
	ctx := context.Background()
	require.NoError(t, s.Create(ctx, newJob("d")))

	mr.FastForward(2 * time.Hour)
	_, err := s.Get(ctx, "d")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, s.UpdateProgress(ctx, "d", 20), repository.ErrNotFound)

	n, err := s.DeleteExpired(ctx, time.Now())
	require.NoError(t, err)
	assert.Zero(t, n)
}
