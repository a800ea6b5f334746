package repository

import (
	"context"

	"lms-personalization/internal/domain/model"
)

type EnrollmentRepository interface {
	Save(ctx context.Context, tx Tx, e *model.Enrollment) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Enrollment, error)
	FindByPair(ctx context.Context, tx Tx, courseID, employeeID string) (*model.Enrollment, error)

	// UpdatePersonalization touches only the personalized-content pointer
	// fields. Callers treat failures here as non-fatal.
	UpdatePersonalization(ctx context.Context, tx Tx, enrollmentID, contentID, jobID, status string) error
}
