package repository

import (
	"context"

	"lms-personalization/internal/domain/model"
)

type EmployeeRepository interface {
	Save(ctx context.Context, tx Tx, emp *model.Employee) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Employee, error)
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.Employee, error)
}

// EmployeeUserMappingRepository stores the explicit user↔employee link used
// as the first profile-resolution strategy.
type EmployeeUserMappingRepository interface {
	Save(ctx context.Context, tx Tx, m *model.EmployeeUserMapping) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.EmployeeUserMapping, error)
}
