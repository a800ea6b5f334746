package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
)

var _ repository.EnrollmentRepository = (*enrollmentRepo)(nil)

type enrollmentRepo struct {
	pool *pgxpool.Pool
}

func NewEnrollmentRepo(pool *pgxpool.Pool) *enrollmentRepo {
	return &enrollmentRepo{pool: pool}
}

const enrollmentColumns = `id, course_id, employee_id, status, personalized_content_id, personalization_job_id, personalization_status, enrolled_at, updated_at`

func (r *enrollmentRepo) Save(ctx context.Context, tx repository.Tx, e *model.Enrollment) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.UpdatedAt = time.Now()

	const q = `
INSERT INTO enrollments (` + enrollmentColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id) DO UPDATE SET
  status = EXCLUDED.status,
  personalized_content_id = EXCLUDED.personalized_content_id,
  personalization_job_id = EXCLUDED.personalization_job_id,
  personalization_status = EXCLUDED.personalization_status,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		e.ID, e.CourseID, e.EmployeeID, e.Status,
		e.PersonalizedContentID, e.PersonalizationJobID, e.PersonalizationStatus,
		e.EnrolledAt, e.UpdatedAt)
	return err
}

func (r *enrollmentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Enrollment, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+enrollmentColumns+` FROM enrollments WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}

func (r *enrollmentRepo) FindByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.Enrollment, error) {
	const q = `
SELECT ` + enrollmentColumns + `
FROM enrollments
WHERE course_id = $1 AND employee_id = $2
ORDER BY enrolled_at DESC
LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, courseID, employeeID)
	if err != nil {
		return nil, err
	}
	return scanEnrollment(row)
}

// UpdatePersonalization writes only the pointer fields. An empty contentID
// leaves the existing pointer alone so an in_progress touch-up cannot clear a
// previously linked artifact.
func (r *enrollmentRepo) UpdatePersonalization(ctx context.Context, tx repository.Tx, enrollmentID, contentID, jobID, status string) error {
	const q = `
UPDATE enrollments SET
  personalized_content_id = COALESCE(NULLIF($2, ''), personalized_content_id),
  personalization_job_id = $3,
  personalization_status = $4,
  updated_at = $5
WHERE id = $1;`
	tag, err := execSQL(ctx, r.pool, tx, q, enrollmentID, contentID, jobID, status, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanEnrollment(row pgx.Row) (*model.Enrollment, error) {
	var e model.Enrollment
	err := row.Scan(&e.ID, &e.CourseID, &e.EmployeeID, &e.Status,
		&e.PersonalizedContentID, &e.PersonalizationJobID, &e.PersonalizationStatus,
		&e.EnrolledAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &e, nil
}
