package repository

import (
	"context"

	"lms-personalization/internal/domain/model"
)

type JobRepository interface {
	Save(ctx context.Context, tx Tx, job *model.Job) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Job, error)

	// ClaimPending atomically fetches the oldest pending job and marks it
	// in_progress so no other worker picks it up. Returns domain.ErrNotFound
	// when the queue is empty.
	ClaimPending(ctx context.Context) (*model.Job, error)

	// ClaimByID atomically marks the given job in_progress if and only if it
	// is still pending. Returns domain.ErrNotFound when the job is missing or
	// already claimed, so exactly one caller wins.
	ClaimByID(ctx context.Context, id string) (*model.Job, error)

	// FindActiveByPair returns a non-terminal job for the course/employee
	// pair, if one exists.
	FindActiveByPair(ctx context.Context, tx Tx, courseID, employeeID string) (*model.Job, error)
}
