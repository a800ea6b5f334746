package model

import (
	"time"

	"lms-personalization/internal/domain"
)

// Employee is the canonical HR record.
type Employee struct {
	ID           string
	UserID       string // identity-provider user id, may be empty before linking
	Name         string
	Email        string
	Department   string
	Position     string
	CVURL        string        // uploaded CV document, extracted on demand
	CVData       *CVExtraction // optional structured CV payload
	LearningPref LearningPreferences
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func NewEmployee(id, name, email string) (*Employee, error) {
	if name == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Employee{ID: id, Name: name, Email: email, CreatedAt: now, UpdatedAt: now}, nil
}

// CVExtraction holds structured data pulled out of an uploaded CV.
type CVExtraction struct {
	Skills     []string `json:"skills,omitempty"`
	Experience []string `json:"experience,omitempty"`
	Education  []string `json:"education,omitempty"`
	RawText    string   `json:"rawText,omitempty"`
}

type LearningPreferences struct {
	Style           string `json:"style,omitempty"` // "visual" | "reading" | "hands-on"
	WeeklyHours     int    `json:"weeklyHours,omitempty"`
	PreferredFormat string `json:"preferredFormat,omitempty"`
}

// EmployeeUserMapping links an identity-provider user to an HR employee row.
type EmployeeUserMapping struct {
	UserID     string
	EmployeeID string
	CreatedAt  time.Time
}

// EmployeeProfile is the read-only projection fed into content generation.
// It is computed per job and never persisted as its own row.
type EmployeeProfile struct {
	EmployeeID   string
	UserID       string
	Name         string
	Email        string
	Department   string
	Position     string
	CVData       *CVExtraction
	LearningPref LearningPreferences

	// Source records which resolution strategy produced this profile:
	// "mapping", "direct", or "identity".
	Source string
}
