// Package sqlite is a durable single-node job store on modernc.org/sqlite.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"kaeva-factcheck/internal/entity"
	"kaeva-factcheck/internal/repository"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// Fixed width so timestamps compare correctly as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

type JobStore struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens the database at path and configures WAL mode.
func Open(path string) (*JobStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &JobStore{
		db:  db,
		now: func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *JobStore) Migrate(ctx context.Context) error {
	goose.SetBaseFS(migrationFiles)
	if err := goose.SetDialect("sqlite3"); err != nil {
		return eris.Wrap(err, "sqlite: goose dialect")
	}
	if err := goose.UpContext(ctx, s.db, "migrations"); err != nil {
		return eris.Wrap(err, "sqlite: migrate")
	}
	return nil
}

func (s *JobStore) Close() error {
	return s.db.Close()
}

func (s *JobStore) Create(ctx context.Context, job *entity.Job) error {
	input, err := json.Marshal(job.Input)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal input")
	}
	res, err := s.db.ExecContext(ctx, `
INSERT INTO fact_check_jobs (id, status, progress, input, created_at, updated_at, expires_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (id) DO NOTHING`,
		job.ID, string(job.Status), job.Progress, string(input),
		formatTime(job.CreatedAt), formatTime(job.UpdatedAt), formatTime(job.ExpiresAt),
	)
	if err != nil {
		return eris.Wrap(err, "sqlite: insert job")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (s *JobStore) Get(ctx context.Context, id string) (*entity.Job, error) {
	var (
		job                             entity.Job
		status, input                   string
		result, errText                 sql.NullString
		createdAt, updatedAt, expiresAt string
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, status, progress, input, result, error, created_at, updated_at, expires_at
FROM fact_check_jobs
WHERE id = ? AND expires_at > ?`, id, formatTime(s.now())).Scan(
		&job.ID, &status, &job.Progress, &input, &result, &errText, &createdAt, &updatedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, eris.Wrap(err, "sqlite: get job")
	}

	job.Status = entity.JobStatus(status)
	if err := json.Unmarshal([]byte(input), &job.Input); err != nil {
		return nil, eris.Wrap(err, "sqlite: decode input")
	}
	if result.Valid {
		var res entity.VerdictResult
		if err := json.Unmarshal([]byte(result.String), &res); err != nil {
			return nil, eris.Wrap(err, "sqlite: decode result")
		}
		job.Result = &res
	}
	if errText.Valid {
		msg := errText.String
		job.Error = &msg
	}
	job.CreatedAt = parseTime(createdAt)
	job.UpdatedAt = parseTime(updatedAt)
	job.ExpiresAt = parseTime(expiresAt)
	return &job, nil
}

func (s *JobStore) UpdateProgress(ctx context.Context, id string, progress int) error {
	return s.exec(ctx, "update progress", `
UPDATE fact_check_jobs SET progress = MAX(progress, ?), updated_at = ?
WHERE id = ? AND status = 'processing'`, progress, formatTime(s.now()), id)
}

func (s *JobStore) Complete(ctx context.Context, id string, result *entity.VerdictResult) error {
	out, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}
	return s.exec(ctx, "complete job", `
UPDATE fact_check_jobs SET status = 'complete', progress = 100, result = ?, error = NULL, updated_at = ?
WHERE id = ? AND status = 'processing'`, string(out), formatTime(s.now()), id)
}

func (s *JobStore) Fail(ctx context.Context, id string, msg string) error {
	return s.exec(ctx, "fail job", `
UPDATE fact_check_jobs SET status = 'error', progress = 0, error = ?, result = NULL, updated_at = ?
WHERE id = ? AND status = 'processing'`, msg, formatTime(s.now()), id)
}

func (s *JobStore) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM fact_check_jobs WHERE expires_at <= ?`, formatTime(now))
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete expired")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: rows affected")
	}
	return n, nil
}

func (s *JobStore) exec(ctx context.Context, op, q string, args ...any) error {
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return eris.Wrapf(err, "sqlite: %s", op)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(timeLayout, s)
	return t
}
