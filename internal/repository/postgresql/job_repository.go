package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

// DB is the subset of *pgxpool.Pool the repository needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type JobRepository struct {
	db DB
}

func NewJobRepository(db DB) *JobRepository {
	return &JobRepository{db: db}
}

func (r *JobRepository) Create(ctx context.Context, job *entity.Job) error {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return eris.Wrap(err, "postgresql: marshal input")
	}

	const q = `
INSERT INTO fact_check_jobs (id, status, progress, input, created_at, updated_at, expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING;
`
	tag, err := r.db.Exec(ctx, q,
		job.ID, string(job.Status), job.Progress, input,
		job.CreatedAt, job.UpdatedAt, job.ExpiresAt,
	)
	if err != nil {
		return eris.Wrap(err, "postgresql: insert job")
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *JobRepository) Get(ctx context.Context, id string) (*entity.Job, error) {
	const q = `
SELECT id, status, progress, input, result, error, created_at, updated_at, expires_at
FROM fact_check_jobs
WHERE id = $1 AND expires_at > now();
`

	var (
		job         entity.Job
		statusText  string
		inputBytes  []byte
		resultBytes []byte
		errText     *string
	)

	if err := r.db.QueryRow(ctx, q, id).Scan(
		&job.ID,
		&statusText,
		&job.Progress,
		&inputBytes,
		&resultBytes, // NULL => nil
		&errText,     // NULL => nil
		&job.CreatedAt,
		&job.UpdatedAt,
		&job.ExpiresAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "postgresql: get job")
	}

	job.Status = entity.JobStatus(statusText)
	job.Error = errText
	if len(inputBytes) > 0 {
		if err := json.Unmarshal(inputBytes, &job.Input); err != nil {
			return nil, eris.Wrap(err, "postgresql: decode input")
		}
	}
	if resultBytes != nil {
		var res entity.VerdictResult
		if err := json.Unmarshal(resultBytes, &res); err != nil {
			return nil, eris.Wrap(err, "postgresql: decode result")
		}
		job.Result = &res
	}
	return &job, nil
}

func (r *JobRepository) UpdateProgress(ctx context.Context, id string, progress int) error {
	const q = `
UPDATE fact_check_jobs
SET progress = GREATEST(progress, $2), updated_at = now()
WHERE id = $1 AND status = 'processing';
`
	return r.exec(ctx, "update progress", q, id, progress)
}

func (r *JobRepository) Complete(ctx context.Context, id string, result *entity.VerdictResult) error {
	out, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgresql: marshal result")
	}
	const q = `
UPDATE fact_check_jobs
SET status = 'complete', progress = 100, result = $2, error = NULL, updated_at = now()
WHERE id = $1 AND status = 'processing';
`
	return r.exec(ctx, "complete job", q, id, out)
}

func (r *JobRepository) Fail(ctx context.Context, id string, msg string) error {
	const q = `
UPDATE fact_check_jobs
SET status = 'error', progress = 0, error = $2, result = NULL, updated_at = now()
WHERE id = $1 AND status = 'processing';
`
	return r.exec(ctx, "fail job", q, id, msg)
}

func (r *JobRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM fact_check_jobs WHERE expires_at <= $1;`, now)
	if err != nil {
		return 0, eris.Wrap(err, "postgresql: delete expired")
	}
	return tag.RowsAffected(), nil
}

func (r *JobRepository) exec(ctx context.Context, op, q string, args ...any) error {
	tag, err := r.db.Exec(ctx, q, args...)
	if err != nil {
		return eris.Wrapf(err, "postgresql: %s", op)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
