package model

import "time"

// GeneratedCourse is the immutable output of one completed personalization
// job. A new row is written per job; existing rows are never updated, and the
// enrollment pointer always moves to the newest one.
type GeneratedCourse struct {
	ID          string
	JobID       string
	CourseID    string
	EmployeeID  string
	Title       string
	Description string
	Modules     []CourseModule
	Quiz        []QuizQuestion
	Metadata    GenerationMetadata
	CreatedAt   time.Time
}

type CourseModule struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	OrderIndex  int             `json:"orderIndex"`
	Sections    []CourseSection `json:"sections"`
}

type CourseSection struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Content    string `json:"content"`
	OrderIndex int    `json:"orderIndex"`
}

type QuizQuestion struct {
	ModuleIndex   int      `json:"moduleIndex"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type GenerationMetadata struct {
	GeneratedAt      time.Time              `json:"generatedAt"`
	Model            string                 `json:"model"`
	PromptTokens     int                    `json:"promptTokens"`
	CompletionTokens int                    `json:"completionTokens"`
	TotalTokens      int                    `json:"totalTokens"`
	Options          PersonalizationOptions `json:"options"`
}
