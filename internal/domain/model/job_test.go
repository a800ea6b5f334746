package model

import (
	"errors"
	"testing"

	"lms-personalization/internal/domain"
)

func newTestJob(t *testing.T) *Job {
	t.Helper()
	j, err := NewJob("job-1", "course-1", "emp-1", "enr-1", DefaultOptions())
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	return j
}

func TestNewJob(t *testing.T) {
	t.Run("starts pending at step 1", func(t *testing.T) {
		j := newTestJob(t)
		if j.Status != JobStatusPending {
			t.Errorf("status = %q", j.Status)
		}
		if j.CurrentStep != 1 || j.ProgressPercent != 0 {
			t.Errorf("step=%d percent=%d", j.CurrentStep, j.ProgressPercent)
		}
		if j.TotalSteps != DefaultOptions().ModuleCount+2 {
			t.Errorf("totalSteps = %d", j.TotalSteps)
		}
	})

	t.Run("requires course and employee ids", func(t *testing.T) {
		if _, err := NewJob("id", "", "emp", "", DefaultOptions()); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing course: %v", err)
		}
		if _, err := NewJob("id", "course", "", "", DefaultOptions()); !errors.Is(err, domain.ErrInvalidArgument) {
			t.Errorf("missing employee: %v", err)
		}
	})

	t.Run("normalizes out-of-range options", func(t *testing.T) {
		j, err := NewJob("id", "c", "e", "", PersonalizationOptions{ModuleCount: 99, TonePreference: "sarcastic"})
		if err != nil {
			t.Fatalf("NewJob: %v", err)
		}
		if j.Options.ModuleCount != 5 {
			t.Errorf("moduleCount = %d", j.Options.ModuleCount)
		}
		if j.Options.TonePreference != "" {
			t.Errorf("tone = %q", j.Options.TonePreference)
		}
	})
}

func TestJob_Advance(t *testing.T) {
	t.Run("moves markers forward and into in_progress", func(t *testing.T) {
		j := newTestJob(t)
		if err := j.Advance(2, "Generating module 1", 30); err != nil {
			t.Fatalf("advance: %v", err)
		}
		if j.Status != JobStatusInProgress || j.CurrentStep != 2 || j.ProgressPercent != 30 {
			t.Errorf("job = %+v", j)
		}
	})

	t.Run("ignores regressions", func(t *testing.T) {
		j := newTestJob(t)
		_ = j.Advance(4, "later", 60)
		_ = j.Advance(2, "stale", 20)
		if j.CurrentStep != 4 || j.ProgressPercent != 60 {
			t.Errorf("regression applied: step=%d percent=%d", j.CurrentStep, j.ProgressPercent)
		}
	})

	t.Run("keeps the last description when given an empty one", func(t *testing.T) {
		j := newTestJob(t)
		_ = j.Advance(2, "doing work", 10)
		_ = j.Advance(3, "", 20)
		if j.StepDescription != "doing work" {
			t.Errorf("description = %q", j.StepDescription)
		}
	})

	t.Run("fails on a terminal job", func(t *testing.T) {
		j := newTestJob(t)
		_ = j.Complete()
		err := j.Advance(2, "late", 50)
		if !errors.Is(err, domain.ErrJobTerminal) {
			t.Errorf("expected ErrJobTerminal, got %v", err)
		}
		// A terminal job reports not-found to progress mutations.
		if !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrJobTerminal to satisfy ErrNotFound, got %v", err)
		}
	})
}

func TestJob_Terminal(t *testing.T) {
	t.Run("complete is idempotent", func(t *testing.T) {
		j := newTestJob(t)
		if err := j.Complete(); err != nil {
			t.Fatalf("complete: %v", err)
		}
		if j.ProgressPercent != 100 || j.CurrentStep != j.TotalSteps {
			t.Errorf("incomplete progress after complete: %+v", j)
		}
		if err := j.Complete(); err != nil {
			t.Errorf("second complete: %v", err)
		}
	})

	t.Run("complete on a failed job is rejected", func(t *testing.T) {
		j := newTestJob(t)
		j.Fail("boom")
		if err := j.Complete(); !errors.Is(err, domain.ErrJobTerminal) {
			t.Errorf("expected ErrJobTerminal, got %v", err)
		}
		if j.Status != JobStatusFailed {
			t.Errorf("status flipped to %q", j.Status)
		}
	})

	t.Run("fail records the message once", func(t *testing.T) {
		j := newTestJob(t)
		j.Fail("first")
		j.Fail("second")
		if j.Error != "first" {
			t.Errorf("error overwritten: %q", j.Error)
		}
	})

	t.Run("fail after complete changes nothing", func(t *testing.T) {
		j := newTestJob(t)
		_ = j.Complete()
		j.Fail("too late")
		if j.Status != JobStatusCompleted || j.Error != "" {
			t.Errorf("terminal outcome overwritten: %+v", j)
		}
	})
}
