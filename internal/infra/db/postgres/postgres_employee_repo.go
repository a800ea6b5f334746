package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
)

var (
	_ repository.EmployeeRepository            = (*employeeRepo)(nil)
	_ repository.EmployeeUserMappingRepository = (*employeeUserMappingRepo)(nil)
)

type employeeRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeRepo(pool *pgxpool.Pool) *employeeRepo {
	return &employeeRepo{pool: pool}
}

const employeeColumns = `id, user_id, name, email, department, position, cv_url, cv_data, learning_prefs, created_at, updated_at`

func (r *employeeRepo) Save(ctx context.Context, tx repository.Tx, emp *model.Employee) error {
	if emp.ID == "" {
		emp.ID = uuid.NewString()
	}
	emp.UpdatedAt = time.Now()

	var cvData []byte
	if emp.CVData != nil {
		b, err := json.Marshal(emp.CVData)
		if err != nil {
			return err
		}
		cvData = b
	}
	prefs, err := json.Marshal(emp.LearningPref)
	if err != nil {
		return err
	}

	const q = `
INSERT INTO employees (` + employeeColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
ON CONFLICT (id) DO UPDATE SET
  user_id = EXCLUDED.user_id,
  name = EXCLUDED.name,
  email = EXCLUDED.email,
  department = EXCLUDED.department,
  position = EXCLUDED.position,
  cv_url = EXCLUDED.cv_url,
  cv_data = EXCLUDED.cv_data,
  learning_prefs = EXCLUDED.learning_prefs,
  updated_at = EXCLUDED.updated_at;`

	_, err = execSQL(ctx, r.pool, tx, q,
		emp.ID, emp.UserID, emp.Name, emp.Email, emp.Department, emp.Position,
		emp.CVURL, cvData, prefs, emp.CreatedAt, emp.UpdatedAt)
	return err
}

func (r *employeeRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Employee, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+employeeColumns+` FROM employees WHERE id = $1;`, id)
	if err != nil {
		return nil, err
	}
	return scanEmployee(row)
}

func (r *employeeRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.Employee, error) {
	row, err := pickRow(ctx, r.pool, tx, `SELECT `+employeeColumns+` FROM employees WHERE user_id = $1;`, userID)
	if err != nil {
		return nil, err
	}
	return scanEmployee(row)
}

func scanEmployee(row pgx.Row) (*model.Employee, error) {
	var (
		e        model.Employee
		cvData   []byte
		prefsRaw []byte
	)
	err := row.Scan(&e.ID, &e.UserID, &e.Name, &e.Email, &e.Department, &e.Position,
		&e.CVURL, &cvData, &prefsRaw, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	if len(cvData) > 0 {
		var cv model.CVExtraction
		if err := json.Unmarshal(cvData, &cv); err == nil {
			e.CVData = &cv
		}
	}
	if len(prefsRaw) > 0 {
		_ = json.Unmarshal(prefsRaw, &e.LearningPref)
	}
	return &e, nil
}

type employeeUserMappingRepo struct {
	pool *pgxpool.Pool
}

func NewEmployeeUserMappingRepo(pool *pgxpool.Pool) *employeeUserMappingRepo {
	return &employeeUserMappingRepo{pool: pool}
}

func (r *employeeUserMappingRepo) Save(ctx context.Context, tx repository.Tx, m *model.EmployeeUserMapping) error {
	const q = `
INSERT INTO employee_users (user_id, employee_id, created_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO UPDATE SET employee_id = EXCLUDED.employee_id;`
	_, err := execSQL(ctx, r.pool, tx, q, m.UserID, m.EmployeeID, m.CreatedAt)
	return err
}

func (r *employeeUserMappingRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.EmployeeUserMapping, error) {
	const q = `SELECT user_id, employee_id, created_at FROM employee_users WHERE user_id = $1;`
	row, err := pickRow(ctx, r.pool, tx, q, userID)
	if err != nil {
		return nil, err
	}
	var m model.EmployeeUserMapping
	if err := row.Scan(&m.UserID, &m.EmployeeID, &m.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrReadDatabaseRow
	}
	return &m, nil
}
