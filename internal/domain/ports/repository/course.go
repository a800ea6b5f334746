package repository

import (
	"context"

	"lms-personalization/internal/domain/model"
)

type CourseRepository interface {
	Save(ctx context.Context, tx Tx, course *model.Course) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Course, error)
	List(ctx context.Context, tx Tx) ([]*model.Course, error)
}
