package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

func newTestStore(t *testing.T) *JobStore {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "jobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newJob(id string, now time.Time) *entity.Job {
	return &entity.Job{
		ID:        id,
		Status:    entity.StatusProcessing,
		Progress:  entity.ProgressCreated,
		Input:     entity.AnalysisInput{Claim: "Drinking bleach cures covid", Platform: "x"},
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(time.Hour),
	}
}

func TestSQLite_Lifecycle(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Create(ctx, newJob("a", now)))
	assert.ErrorIs(t, st.Create(ctx, newJob("a", now)), repository.ErrConflict)

	require.NoError(t, st.UpdateProgress(ctx, "a", entity.ProgressVerified))
	require.NoError(t, st.UpdateProgress(ctx, "a", entity.ProgressAuthenticated))

	got, err := st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.ProgressVerified, got.Progress)
	assert.Equal(t, "Drinking bleach cures covid", got.Input.Claim)
	assert.WithinDuration(t, now, got.CreatedAt, time.Millisecond)

	require.NoError(t, st.Complete(ctx, "a", &entity.VerdictResult{Verdict: entity.VerdictFalse, Confidence: 0.88}))
	got, err = st.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusComplete, got.Status)
	assert.Equal(t, 100, got.Progress)
	require.NotNil(t, got.Result)
	assert.Equal(t, 0.88, got.Result.Confidence)
	assert.Nil(t, got.Error)

	assert.ErrorIs(t, st.Fail(ctx, "a", "late"), repository.ErrNotFound)
}

func TestSQLite_Fail(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	require.NoError(t, st.Create(ctx, newJob("b", time.Now().UTC())))

	require.NoError(t, st.Fail(ctx, "b", "credentials not configured"))
	got, err := st.Get(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusError, got.Status)
	assert.Equal(t, 0, got.Progress)
	require.NotNil(t, got.Error)
	assert.Equal(t, "credentials not configured", *got.Error)
	assert.Nil(t, got.Result)
}

func TestSQLite_Expiry(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	require.NoError(t, st.Create(ctx, newJob("live", now)))
	old := newJob("old", now.Add(-3*time.Hour))
	require.NoError(t, st.Create(ctx, old))

	_, err := st.Get(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	n, err := st.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = st.Get(ctx, "live")
	assert.NoError(t, err)
}

func TestSQLite_Unknown(t *testing.T) {
	st := newTestStore(t)
	_, err := st.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.ErrorIs(t, st.UpdateProgress(context.Background(), "missing", 20), repository.ErrNotFound)
}
