package model

import (
	"time"

	"lms-personalization/internal/domain"
)

type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusInProgress JobStatus = "in_progress"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// PersonalizationOptions controls how course content is tailored to an
// employee. The zero value is usable; NewJob fills in defaults.
type PersonalizationOptions struct {
	ModuleCount           int    `json:"moduleCount"`
	SectionsPerModule     int    `json:"sectionsPerModule"`
	IncludeQuiz           bool   `json:"includeQuiz"`
	AdaptToLearningStyle  bool   `json:"adaptToLearningStyle"`
	IncludeExperience     bool   `json:"includeEmployeeExperience"`
	UseSimplifiedLanguage bool   `json:"useSimplifiedLanguage"`
	IncludeExtraChallenge bool   `json:"includeExtraChallenges"`
	TonePreference        string `json:"tonePreference"` // "formal" | "conversational" | "technical"
}

func DefaultOptions() PersonalizationOptions {
	return PersonalizationOptions{
		ModuleCount:       4,
		SectionsPerModule: 3,
		IncludeQuiz:       true,
	}
}

// Normalize clamps option values into the supported ranges.
func (o *PersonalizationOptions) Normalize() {
	if o.ModuleCount < 3 {
		o.ModuleCount = 3
	}
	if o.ModuleCount > 5 {
		o.ModuleCount = 5
	}
	if o.SectionsPerModule <= 0 {
		o.SectionsPerModule = 3
	}
	switch o.TonePreference {
	case "formal", "conversational", "technical":
	default:
		o.TonePreference = ""
	}
}

// Job tracks one course-personalization request through its lifecycle.
// CourseID and EmployeeID are immutable after creation; progress fields only
// ever move forward while the job is non-terminal.
type Job struct {
	ID              string
	CourseID        string
	EmployeeID      string
	EnrollmentID    string
	Status          JobStatus
	TotalSteps      int
	CurrentStep     int
	ProgressPercent int
	StepDescription string
	Options         PersonalizationOptions
	Error           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func NewJob(id, courseID, employeeID, enrollmentID string, opts PersonalizationOptions) (*Job, error) {
	if courseID == "" || employeeID == "" {
		return nil, domain.ErrInvalidArgument
	}
	opts.Normalize()
	now := time.Now()
	return &Job{
		ID:              id,
		CourseID:        courseID,
		EmployeeID:      employeeID,
		EnrollmentID:    enrollmentID,
		Status:          JobStatusPending,
		TotalSteps:      opts.ModuleCount + 2, // outline + each module + finalize
		CurrentStep:     1,
		ProgressPercent: 0,
		StepDescription: "Queued",
		Options:         opts,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

func (j *Job) Terminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}

// Advance moves the progress markers forward. Regressions are ignored rather
// than applied so redelivered stage updates cannot roll progress back.
func (j *Job) Advance(step int, description string, percent int) error {
	if j.Terminal() {
		return domain.ErrJobTerminal
	}
	j.Status = JobStatusInProgress
	if step > j.CurrentStep {
		j.CurrentStep = step
	}
	if percent > j.ProgressPercent {
		j.ProgressPercent = percent
	}
	if description != "" {
		j.StepDescription = description
	}
	j.UpdatedAt = time.Now()
	return nil
}

func (j *Job) Complete() error {
	if j.Status == JobStatusCompleted {
		return nil // idempotent
	}
	if j.Status == JobStatusFailed {
		return domain.ErrJobTerminal
	}
	j.Status = JobStatusCompleted
	j.CurrentStep = j.TotalSteps
	j.ProgressPercent = 100
	j.StepDescription = "Completed"
	j.UpdatedAt = time.Now()
	return nil
}

func (j *Job) Fail(msg string) {
	if j.Terminal() {
		return // never overwrite a terminal outcome
	}
	j.Status = JobStatusFailed
	j.Error = msg
	j.StepDescription = "Failed"
	j.UpdatedAt = time.Now()
}
