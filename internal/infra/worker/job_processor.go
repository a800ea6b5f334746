package worker

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/ports/repository"
	"lms-personalization/internal/infra/metrics"
	"lms-personalization/internal/usecase"
)

// JobProcessor polls for pending jobs and hands them to the pool. It is the
// recovery path: jobs enqueued at creation time normally run before the
// poller sees them, but rows left pending by a crash or a saturated pool get
// claimed here.
type JobProcessor struct {
	jobs         repository.JobRepository
	orchestrator usecase.JobOrchestrator
	interval     time.Duration
	log          *zerolog.Logger
}

func NewJobProcessor(jobs repository.JobRepository, orchestrator usecase.JobOrchestrator, interval time.Duration, log *zerolog.Logger) *JobProcessor {
	if interval <= 0 {
		interval = 2 * time.Second
	}
	return &JobProcessor{jobs: jobs, orchestrator: orchestrator, interval: interval, log: log}
}

// Start runs the poll loop until ctx is cancelled. Run it in a goroutine.
func (p *JobProcessor) Start(ctx context.Context, pool *Pool) {
	p.log.Info().Dur("interval", p.interval).Msg("job claim poller started")
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.log.Info().Msg("job claim poller stopping")
			return
		case <-ticker.C:
			p.claimOne(ctx, pool)
		}
	}
}

func (p *JobProcessor) claimOne(ctx context.Context, pool *Pool) {
	job, err := p.jobs.ClaimPending(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			p.log.Error().Err(err).Msg("claim pending job failed")
		}
		return
	}
	metrics.IncJobClaimed("poll")

	if err := pool.Submit(func(taskCtx context.Context) error {
		p.orchestrator.Process(taskCtx, job)
		return nil
	}); err != nil {
		// The row is already in_progress; run inline rather than strand it.
		p.log.Warn().Err(err).Str("job_id", job.ID).Msg("pool saturated, processing claimed job inline")
		p.orchestrator.Process(ctx, job)
	}
}
