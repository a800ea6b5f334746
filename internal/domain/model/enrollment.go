package model

import "time"

// Enrollment joins an employee to a course. The personalization pipeline
// mutates only the Personalized* pointer fields, best-effort.
type Enrollment struct {
	ID         string
	CourseID   string
	EmployeeID string
	Status     string // "enrolled" | "in_progress" | "completed"

	PersonalizedContentID string
	PersonalizationJobID  string
	PersonalizationStatus string // mirrors the job status for quick listing

	EnrolledAt time.Time
	UpdatedAt  time.Time
}
