package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
)

var _ repository.ArtifactRepository = (*artifactRepo)(nil)

type artifactRepo struct {
	pool *pgxpool.Pool
}

func NewArtifactRepo(pool *pgxpool.Pool) *artifactRepo {
	return &artifactRepo{pool: pool}
}

const artifactColumns = `id, job_id, course_id, employee_id, title, description, modules, quiz, metadata, created_at`

// Insert is insert-only on purpose: artifacts are immutable, regeneration
// writes a new row.
func (r *artifactRepo) Insert(ctx context.Context, tx repository.Tx, a *model.GeneratedCourse) error {
	modules, err := json.Marshal(a.Modules)
	if err != nil {
		return err
	}
	quiz, err := json.Marshal(a.Quiz)
	if err != nil {
		return err
	}
	meta, err := json.Marshal(a.Metadata)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO generated_courses (` + artifactColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10);`

	_, err = execSQL(ctx, r.pool, tx, q,
		a.ID, a.JobID, a.CourseID, a.EmployeeID, a.Title, a.Description,
		modules, quiz, meta, a.CreatedAt)
	return err
}

func (r *artifactRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.GeneratedCourse, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+artifactColumns+` FROM generated_courses WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanArtifact(row)
}

func (r *artifactRepo) FindLatestByPair(ctx context.Context, tx repository.Tx, courseID, employeeID string) (*model.GeneratedCourse, error) {
	const q = `
SELECT ` + artifactColumns + `
FROM generated_courses
WHERE course_id = $1 AND employee_id = $2
ORDER BY created_at DESC
LIMIT 1;`
	row, err := pickRow(ctx, r.pool, tx, q, courseID, employeeID)
	if err != nil {
		return nil, err
	}
	return scanArtifact(row)
}

func scanArtifact(row pgx.Row) (*model.GeneratedCourse, error) {
	var (
		a       model.GeneratedCourse
		modules []byte
		quiz    []byte
		meta    []byte
	)
	err := row.Scan(&a.ID, &a.JobID, &a.CourseID, &a.EmployeeID, &a.Title, &a.Description,
		&modules, &quiz, &meta, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if err := json.Unmarshal(modules, &a.Modules); err != nil {
		return nil, domain.ErrReadDatabaseRow
	}
	if len(quiz) > 0 {
		if err := json.Unmarshal(quiz, &a.Quiz); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
	}
	if len(meta) > 0 {
		_ = json.Unmarshal(meta, &a.Metadata)
	}
	return &a, nil
}
