package ai

import (
	"context"
	"time"

	"lms-personalization/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*LimitedAI)(nil)

// LimitedAI caps the number of in-flight Generate calls across the process.
// Acquisition respects ctx cancellation.
type LimitedAI struct {
	inner adapter.AIServiceAdapter
	sem   chan struct{}
}

func NewLimitedAI(inner adapter.AIServiceAdapter, limit int) *LimitedAI {
	if limit <= 0 {
		limit = 1
	}
	return &LimitedAI{inner: inner, sem: make(chan struct{}, limit)}
}

func (l *LimitedAI) acquire(ctx context.Context) error {
	select {
	case l.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l *LimitedAI) release() { <-l.sem }

func (l *LimitedAI) ListModels(ctx context.Context) ([]string, error) {
	return l.inner.ListModels(ctx)
}

func (l *LimitedAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return l.inner.GetModelInfo(model)
}

func (l *LimitedAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	return l.inner.CountTokens(ctx, model, messages)
}

func (l *LimitedAI) Generate(ctx context.Context, model string, messages []adapter.Message, params adapter.GenerateParams) (string, adapter.Usage, error) {
	if err := l.acquire(ctx); err != nil {
		return "", adapter.Usage{}, err
	}
	defer l.release()
	return l.inner.Generate(ctx, model, messages, params)
}

var _ adapter.AIServiceAdapter = (*TimeoutAI)(nil)

// TimeoutAI bounds each provider call with a deadline so one hung upstream
// request cannot pin a worker for the whole job.
type TimeoutAI struct {
	inner   adapter.AIServiceAdapter
	timeout time.Duration
}

func NewTimeoutAI(inner adapter.AIServiceAdapter, timeout time.Duration) *TimeoutAI {
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &TimeoutAI{inner: inner, timeout: timeout}
}

func (t *TimeoutAI) ListModels(ctx context.Context) ([]string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.ListModels(ctx)
}

func (t *TimeoutAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return t.inner.GetModelInfo(model)
}

func (t *TimeoutAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.CountTokens(ctx, model, messages)
}

func (t *TimeoutAI) Generate(ctx context.Context, model string, messages []adapter.Message, params adapter.GenerateParams) (string, adapter.Usage, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.inner.Generate(ctx, model, messages, params)
}
