package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
)

var _ repository.JobRepository = (*jobRepo)(nil)

type jobRepo struct {
	pool *pgxpool.Pool
	tm   repository.TransactionManager
}

func NewJobRepo(pool *pgxpool.Pool, tm repository.TransactionManager) *jobRepo {
	return &jobRepo{pool: pool, tm: tm}
}

const jobColumns = `id, course_id, employee_id, enrollment_id, status, total_steps, current_step, progress_percent, step_description, options, error, created_at, updated_at`

func (r *jobRepo) Save(ctx context.Context, tx repository.Tx, job *model.Job) error {
	job.UpdatedAt = time.Now()
	opts, err := json.Marshal(job.Options)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO jobs (` + jobColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  current_step = EXCLUDED.current_step,
  progress_percent = EXCLUDED.progress_percent,
  step_description = EXCLUDED.step_description,
  error = EXCLUDED.error,
  updated_at = EXCLUDED.updated_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		job.ID, job.CourseID, job.EmployeeID, job.EnrollmentID, string(job.Status),
		job.TotalSteps, job.CurrentStep, job.ProgressPercent, job.StepDescription,
		opts, job.Error, job.CreatedAt, job.UpdatedAt)
	// 23505 on uq_jobs_active_pair: another active job exists for the pair.
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return domain.ErrConflict
	}
	return err
}

func (r *jobRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Job, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+jobColumns+` FROM jobs WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func (r *jobRepo) FindActiveByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.Job, error) {
	const q = `
SELECT ` + jobColumns + `
FROM jobs
WHERE course_id = $1 AND employee_id = $2 AND status IN ('pending', 'in_progress')
ORDER BY created_at DESC
LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, courseID, employeeID)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

// ClaimPending atomically grabs the oldest pending job and flips it to
// in_progress. FOR UPDATE SKIP LOCKED keeps concurrent workers off the same
// row; a crash before commit leaves the row pending for the next poll.
func (r *jobRepo) ClaimPending(ctx context.Context) (*model.Job, error) {
	var job *model.Job

	err := r.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		const q = `
SELECT ` + jobColumns + `
FROM jobs
WHERE status = 'pending'
ORDER BY created_at
LIMIT 1
FOR UPDATE SKIP LOCKED;`

		row, err := pickRow(ctx, r.pool, tx, q)
		if err != nil {
			return err
		}
		fetched, err := scanJob(row)
		if err != nil {
			return err
		}

		fetched.Status = model.JobStatusInProgress
		fetched.UpdatedAt = time.Now()
		if err := r.Save(ctx, tx, fetched); err != nil {
			return err
		}
		job = fetched
		return nil
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ClaimByID compare-and-swaps a single pending row to in_progress. The
// conditional UPDATE is atomic, so the in-process submit task and the claim
// poller cannot both win the same job.
func (r *jobRepo) ClaimByID(ctx context.Context, id string) (*model.Job, error) {
	const q = `
UPDATE jobs
SET status = 'in_progress', updated_at = now()
WHERE id = $1 AND status = 'pending'
RETURNING ` + jobColumns + `;`
	row, err := pickRow(ctx, r.pool, nil, q, id)
	if err != nil {
		return nil, err
	}
	return scanJob(row)
}

func scanJob(row pgx.Row) (*model.Job, error) {
	var (
		j       model.Job
		status  string
		optsRaw []byte
	)
	err := row.Scan(
		&j.ID, &j.CourseID, &j.EmployeeID, &j.EnrollmentID, &status,
		&j.TotalSteps, &j.CurrentStep, &j.ProgressPercent, &j.StepDescription,
		&optsRaw, &j.Error, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	j.Status = model.JobStatus(status)
	if len(optsRaw) > 0 {
		if err := json.Unmarshal(optsRaw, &j.Options); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	return &j, nil
}
