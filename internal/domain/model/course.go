package model

import (
	"time"

	"lms-personalization/internal/domain"
)

// Course is the catalog entry personalized content is generated from.
type Course struct {
	ID          string
	Title       string
	Description string
	Category    string
	Level       string // "beginner" | "intermediate" | "advanced"
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewCourse(id, title, description string) (*Course, error) {
	if title == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Course{
		ID:          id,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
