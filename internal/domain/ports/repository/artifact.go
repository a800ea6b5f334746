package repository

import (
	"context"

	"lms-personalization/internal/domain/model"
)

// ArtifactRepository stores generated course content. Rows are insert-only;
// regeneration writes a new row and repoints the enrollment.
type ArtifactRepository interface {
	Insert(ctx context.Context, tx Tx, a *model.GeneratedCourse) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.GeneratedCourse, error)
	FindLatestByPair(ctx context.Context, tx Tx, courseID, employeeID string) (*model.GeneratedCourse, error)
}
