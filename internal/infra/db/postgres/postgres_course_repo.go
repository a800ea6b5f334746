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

var _ repository.CourseRepository = (*courseRepo)(nil)

type courseRepo struct {
	pool *pgxpool.Pool
}

func NewCourseRepo(pool *pgxpool.Pool) *courseRepo {
	return &courseRepo{pool: pool}
}

func (r *courseRepo) Save(ctx context.Context, tx repository.Tx, course *model.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	course.UpdatedAt = time.Now()

	const q = `
INSERT INTO courses (id, title, description, category, level, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
  title = EXCLUDED.title,
  description = EXCLUDED.description,
  category = EXCLUDED.category,
  level = EXCLUDED.level,
  updated_at = EXCLUDED.updated_at;`

	_, err := execSQL(ctx, r.pool, tx, q,
		course.ID, course.Title, course.Description, course.Category, course.Level,
		course.CreatedAt, course.UpdatedAt)
	return err
}

func (r *courseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	const q = `SELECT id, title, description, category, level, created_at, updated_at FROM courses WHERE id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, id)
	if err != nil {
		return nil, err
	}
	var c model.Course
	if err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Level, &c.CreatedAt, &c.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &c, nil
}

func (r *courseRepo) List(ctx context.Context, tx repository.Tx) ([]*model.Course, error) {
	const q = `SELECT id, title, description, category, level, created_at, updated_at FROM courses ORDER BY title;`
	rows, err := pickRows(ctx, r.pool, tx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*model.Course
	for rows.Next() {
		var c model.Course
		if err := rows.Scan(&c.ID, &c.Title, &c.Description, &c.Category, &c.Level, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, domain.ErrReadDatabaseRow
		}
		out = append(out, &c)
	}
	return out, rows.Err()
}
