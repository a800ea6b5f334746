package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/repository"
	"lms-personalization/internal/generation"
	"lms-personalization/internal/infra/logging"
	"lms-personalization/internal/infra/metrics"
)

// Compile-time check
var _ JobOrchestrator = (*jobUC)(nil)

// JobOrchestrator owns the personalization job state machine. Every endpoint
// façade delegates here so the semantics stay single-sourced.
type JobOrchestrator interface {
	// CreateJob validates identifiers, persists a pending job, best-effort
	// marks the enrollment in_progress, and enqueues the job for processing.
	// A second non-terminal job for the same (course, employee) pair is
	// rejected with domain.ErrConflict.
	CreateJob(ctx context.Context, courseID, employeeID, enrollmentID string, opts model.PersonalizationOptions) (*model.Job, error)

	// Advance moves a job's progress markers forward. Values must be
	// non-decreasing; the orchestrator does not re-derive them.
	Advance(ctx context.Context, jobID string, step int, description string, percent int) error

	// Complete transitions to completed and links the enrollment to the
	// artifact. Calling it again on a completed job is a no-op.
	Complete(ctx context.Context, jobID, artifactID string) error

	// Fail transitions to failed. It never returns an error; a terminal job
	// is logged and left untouched.
	Fail(ctx context.Context, jobID, errMsg string)

	GetStatus(ctx context.Context, jobID string) (*model.Job, error)

	// Process drives a claimed job through the generation pipeline to a
	// terminal state. Safe to redeliver: terminal jobs are skipped.
	Process(ctx context.Context, job *model.Job)
}

// TaskQueue is the enqueue half of the background processing contract. The
// worker pool satisfies it; tests swap in a recording stub.
type TaskQueue interface {
	Submit(task func(ctx context.Context) error) error
}

// PairLocker serializes job creation per (course, employee) pair.
type PairLocker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (token string, err error)
	Unlock(ctx context.Context, key, token string) error
}

// JobCache is a best-effort read cache for status polling. A nil-safe no-op
// implementation is acceptable.
type JobCache interface {
	Store(ctx context.Context, job *model.Job) error
	Get(ctx context.Context, jobID string) (*model.Job, error)
}

const createLockTTL = 10 * time.Second

// noopLocker and noopJobCache back dev setups without Redis.
type noopLocker struct{}

func (noopLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "noop", nil
}
func (noopLocker) Unlock(ctx context.Context, key, token string) error { return nil }

type noopJobCache struct{}

func (noopJobCache) Store(ctx context.Context, job *model.Job) error { return nil }
func (noopJobCache) Get(ctx context.Context, jobID string) (*model.Job, error) {
	return nil, domain.ErrNotFound
}

type jobUC struct {
	jobs        repository.JobRepository
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	artifacts   repository.ArtifactRepository
	profiles    ProfileResolver
	engine      *generation.Engine
	queue       TaskQueue
	locker      PairLocker
	cache       JobCache
	log         *zerolog.Logger
}

func NewJobOrchestrator(
	jobs repository.JobRepository,
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	artifacts repository.ArtifactRepository,
	profiles ProfileResolver,
	engine *generation.Engine,
	queue TaskQueue,
	locker PairLocker,
	cache JobCache,
	log *zerolog.Logger,
) *jobUC {
	if locker == nil {
		locker = noopLocker{}
	}
	if cache == nil {
		cache = noopJobCache{}
	}
	return &jobUC{
		jobs:        jobs,
		courses:     courses,
		enrollments: enrollments,
		artifacts:   artifacts,
		profiles:    profiles,
		engine:      engine,
		queue:       queue,
		locker:      locker,
		cache:       cache,
		log:         log,
	}
}

// Job ids are ULIDs so they sort by creation time and are safe to expose.
func newJobID() string {
	return ulid.Make().String()
}

func (u *jobUC) CreateJob(ctx context.Context, courseID, employeeID, enrollmentID string, opts model.PersonalizationOptions) (*model.Job, error) {
	if courseID == "" || employeeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if _, err := u.courses.FindByID(ctx, nil, courseID); err != nil {
		return nil, err
	}

	// Advisory lock closes the window where two concurrent requests could
	// both pass the active-job check; the check itself guards the long tail
	// after the lock expires.
	lockKey := "personalize:" + courseID + ":" + employeeID
	token, err := u.locker.TryLock(ctx, lockKey, createLockTTL)
	if err != nil {
		return nil, domain.ErrConflict
	}
	defer func() { _ = u.locker.Unlock(ctx, lockKey, token) }()

	if active, err := u.jobs.FindActiveByPair(ctx, nil, courseID, employeeID); err == nil && active != nil {
		return nil, domain.ErrConflict
	}

	job, err := model.NewJob(newJobID(), courseID, employeeID, enrollmentID, opts)
	if err != nil {
		return nil, err
	}
	if err := u.jobs.Save(ctx, nil, job); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	_ = u.cache.Store(ctx, job)

	// Best-effort enrollment touch-up; a failure here is logged, not
	// propagated, and the job continues.
	u.touchEnrollment(ctx, job, "", string(model.JobStatusInProgress))

	if err := u.queue.Submit(func(taskCtx context.Context) error {
		// The claim poller races this task for the pending row; the atomic
		// claim decides the winner so the pipeline runs once per job.
		claimed, err := u.jobs.ClaimByID(taskCtx, job.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				u.log.Debug().Str("job_id", job.ID).Msg("job already claimed, skipping submit task")
				return nil
			}
			return err
		}
		metrics.IncJobClaimed("submit")
		u.Process(taskCtx, claimed)
		return nil
	}); err != nil {
		// The poller will still claim the pending row.
		u.log.Warn().Err(err).Str("job_id", job.ID).Msg("submit failed, job left for the claim poller")
	}

	return job, nil
}

func (u *jobUC) Advance(ctx context.Context, jobID string, step int, description string, percent int) error {
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if err := job.Advance(step, description, percent); err != nil {
		return err
	}
	if err := u.jobs.Save(ctx, nil, job); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	_ = u.cache.Store(ctx, job)
	return nil
}

func (u *jobUC) Complete(ctx context.Context, jobID, artifactID string) error {
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		return err
	}
	if job.Status == model.JobStatusCompleted {
		return nil // fallback entry points may complete the same job twice
	}
	if err := job.Complete(); err != nil {
		return err
	}
	if err := u.jobs.Save(ctx, nil, job); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorage, err)
	}
	_ = u.cache.Store(ctx, job)
	metrics.IncJob(string(model.JobStatusCompleted))

	// Latest write wins: the enrollment always points at the newest artifact.
	u.touchEnrollment(ctx, job, artifactID, string(model.JobStatusCompleted))
	return nil
}

func (u *jobUC) Fail(ctx context.Context, jobID, errMsg string) {
	l := logging.With(ctx, u.log)
	job, err := u.jobs.FindByID(ctx, nil, jobID)
	if err != nil {
		l.Error().Err(err).Str("job_id", jobID).Msg("cannot mark missing job failed")
		return
	}
	if job.Terminal() {
		l.Debug().Str("job_id", jobID).Str("status", string(job.Status)).Msg("fail on terminal job ignored")
		return
	}
	job.Fail(errMsg)
	if err := u.jobs.Save(ctx, nil, job); err != nil {
		l.Error().Err(err).Str("job_id", jobID).Msg("failed to persist job failure")
		return
	}
	_ = u.cache.Store(ctx, job)
	metrics.IncJob(string(model.JobStatusFailed))
	u.touchEnrollment(ctx, job, "", string(model.JobStatusFailed))
}

func (u *jobUC) GetStatus(ctx context.Context, jobID string) (*model.Job, error) {
	if jobID == "" {
		return nil, domain.ErrInvalidArgument
	}
	if cached, err := u.cache.Get(ctx, jobID); err == nil && cached != nil {
		return cached, nil
	}
	return u.jobs.FindByID(ctx, nil, jobID)
}

// Process runs the full pipeline for one claimed job. Any stage error is
// converted to Fail at this boundary; no partial artifact is ever linked.
func (u *jobUC) Process(ctx context.Context, job *model.Job) {
	ctx = logging.WithJobID(ctx, job.ID)
	ctx = logging.WithCourseID(ctx, job.CourseID)
	ctx = logging.WithEmployeeID(ctx, job.EmployeeID)
	l := logging.With(ctx, u.log)

	if job.Terminal() {
		l.Debug().Msg("redelivered terminal job, skipping")
		return
	}
	start := time.Now()
	defer func() { metrics.ObserveJobDuration(time.Since(start).Seconds()) }()

	if err := u.Advance(ctx, job.ID, 1, "Resolving employee profile", 2); err != nil {
		l.Error().Err(err).Msg("advance failed before generation")
		return
	}

	profile, err := u.profiles.ResolveEmployee(ctx, job.EmployeeID)
	if err != nil {
		u.Fail(ctx, job.ID, fmt.Sprintf("profile resolution failed: %v", err))
		return
	}
	course, err := u.courses.FindByID(ctx, nil, job.CourseID)
	if err != nil {
		u.Fail(ctx, job.ID, fmt.Sprintf("course lookup failed: %v", err))
		return
	}

	artifact, err := u.engine.Generate(ctx, course, profile, job.Options, func(step int, description string, percent int) {
		if err := u.Advance(ctx, job.ID, step, description, percent); err != nil {
			l.Warn().Err(err).Msg("progress update dropped")
		}
	})
	if err != nil {
		u.Fail(ctx, job.ID, err.Error())
		return
	}

	artifact.JobID = job.ID
	if err := u.artifacts.Insert(ctx, nil, artifact); err != nil {
		u.Fail(ctx, job.ID, fmt.Sprintf("artifact persistence failed: %v", err))
		return
	}

	if err := u.Complete(ctx, job.ID, artifact.ID); err != nil {
		l.Error().Err(err).Msg("complete failed after artifact insert")
		return
	}
	l.Info().Str("artifact_id", artifact.ID).Dur("duration", time.Since(start)).Msg("personalization job completed")
}

// touchEnrollment updates the enrollment's personalization pointers,
// resolving the enrollment by id or by (course, employee) pair. Failures are
// logged and discarded.
func (u *jobUC) touchEnrollment(ctx context.Context, job *model.Job, contentID, status string) {
	l := logging.With(ctx, u.log)
	enrollmentID := job.EnrollmentID
	if enrollmentID == "" {
		e, err := u.enrollments.FindByPair(ctx, nil, job.CourseID, job.EmployeeID)
		if err != nil || e == nil {
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				l.Warn().Err(err).Msg("enrollment lookup failed, skipping status touch-up")
			}
			return
		}
		enrollmentID = e.ID
	}
	if err := u.enrollments.UpdatePersonalization(ctx, nil, enrollmentID, contentID, job.ID, status); err != nil {
		l.Warn().Err(err).Str("enrollment_id", enrollmentID).Msg("enrollment touch-up failed, continuing")
	}
}
