package worker

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

type JobReader interface {
	Get(ctx context.Context, id string) (*entity.Job, error)
}

// Runner executes one job; pipeline.Orchestrator implements it.
type Runner interface {
	Run(ctx context.Context, jobID string, in entity.AnalysisInput) (*entity.VerdictResult, error)
}

type Processor struct {
	jobs   JobReader
	runner Runner
}

func NewProcessor(jobs JobReader, runner Runner) *Processor {
	return &Processor{jobs: jobs, runner: runner}
}

// Process runs the pipeline for a queued job. Jobs that expired or already
// reached a terminal state are skipped.
func (p *Processor) Process(ctx context.Context, jobID string) error {
	start := time.Now()
	log := zap.L().With(zap.String("job_id", jobID))

	job, err := p.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			log.Warn("job not found, skipping")
			return nil
		}
		return err
	}
	if job.IsTerminal() {
		log.Info("job already finished, skipping", zap.String("status", string(job.Status)))
		return nil
	}

	log.Info("job started",
		zap.Bool("has_claim", job.Input.Claim != ""),
		zap.Bool("has_media", job.Input.MediaURL != ""),
	)

	if _, err := p.runner.Run(ctx, job.ID, job.Input); err != nil {
		log.Info("job finished", zap.String("status", string(entity.StatusError)), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
		return err
	}
	log.Info("job finished", zap.String("status", string(entity.StatusComplete)), zap.Int64("duration_ms", time.Since(start).Milliseconds()))
	return nil
}
