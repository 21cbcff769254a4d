package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
	"kaeva-factcheck/internal/repository/memory"
	"kaeva-factcheck/internal/service"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeRunner struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRunner) Run(_ context.Context, jobID string, _ entity.AnalysisInput) (*entity.VerdictResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, jobID)
	return &entity.VerdictResult{}, f.err
}

func (f *fakeRunner) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func seed(t *testing.T, store *memory.JobStore, id string, status entity.JobStatus) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.Create(context.Background(), &entity.Job{
		ID: id, Status: status, Progress: 10, Input: entity.AnalysisInput{Claim: "c"},
		CreatedAt: now, UpdatedAt: now, ExpiresAt: now.Add(time.Hour),
	}))
}

func TestProcessor_RunsProcessingJob(t *testing.T) {
	store := memory.NewJobStore()
	seed(t, store, "a", entity.StatusProcessing)
	runner := &fakeRunner{}

	require.NoError(t, NewProcessor(store, runner).Process(context.Background(), "a"))
	assert.Equal(t, []string{"a"}, runner.called())
}

func TestProcessor_SkipsTerminalAndMissing(t *testing.T) {
	store := memory.NewJobStore()
	seed(t, store, "done", entity.StatusComplete)
	runner := &fakeRunner{}
	p := NewProcessor(store, runner)

	require.NoError(t, p.Process(context.Background(), "done"))
	require.NoError(t, p.Process(context.Background(), "missing"))
	assert.Empty(t, runner.called())
}

func TestProcessor_ReturnsRunError(t *testing.T) {
	store := memory.NewJobStore()
	seed(t, store, "a", entity.StatusProcessing)
	p := NewProcessor(store, &fakeRunner{err: errors.New("credentials not configured")})

	assert.EqualError(t, p.Process(context.Background(), "a"), "credentials not configured")
}

type brokenReader struct{}

func (brokenReader) Get(context.Context, string) (*entity.Job, error) {
	return nil, errors.New("connection reset")
}

func TestProcessor_StoreError(t *testing.T) {
	err := NewProcessor(brokenReader{}, &fakeRunner{}).Process(context.Background(), "a")
	require.Error(t, err)
	assert.False(t, errors.Is(err, repository.ErrNotFound))
}

func TestPool_ProcessesQueuedJobs(t *testing.T) {
	store := memory.NewJobStore()
	queue := service.NewMemoryQueue(10)
	runner := &fakeRunner{}
	for _, id := range []string{"a", "b", "c"} {
		seed(t, store, id, entity.StatusProcessing)
		require.NoError(t, queue.Enqueue(context.Background(), id))
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewPool(queue, NewProcessor(store, runner), 2, 20*time.Millisecond).Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool { return len(runner.called()) == 3 }, 2*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("pool did not stop")
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, runner.called())
}

func TestReaper_Sweep(t *testing.T) {
	store := memory.NewJobStore()
	now := time.Now().UTC()
	require.NoError(t, store.Create(context.Background(), &entity.Job{
		ID: "old", Status: entity.StatusComplete, CreatedAt: now, ExpiresAt: now.Add(-time.Minute),
	}))
	seed(t, store, "fresh", entity.StatusProcessing)

	r := NewReaper(store, time.Minute)
	assert.Equal(t, int64(1), r.Sweep(context.Background()))
	_, err := store.Get(context.Background(), "fresh")
	assert.NoError(t, err)
}
