package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"lms-personalization/internal/domain"
	"lms-personalization/internal/domain/model"
	"lms-personalization/internal/domain/ports/adapter"
	"lms-personalization/internal/infra/metrics"
)

// The original agent pipeline runs at low temperature with a bounded output
// so structure stays parseable.
const (
	genTemperature = 0.2
	genMaxTokens   = 3000
)

// ProgressFunc receives stage advancement while a course is being generated.
// step/percent must be non-decreasing across calls.
type ProgressFunc func(step int, description string, percent int)

// Engine turns (course, profile, options) into a GeneratedCourse by driving
// the text-generation port through the outline → sections → quiz stages. The
// engine performs no retries; provider failures propagate to the caller
// wrapped as domain.ErrGenerationProvider.
type Engine struct {
	ai    adapter.AIServiceAdapter
	model string
	log   *zerolog.Logger
}

func NewEngine(ai adapter.AIServiceAdapter, modelName string, log *zerolog.Logger) *Engine {
	return &Engine{ai: ai, model: modelName, log: log}
}

func (e *Engine) Generate(ctx context.Context, course *model.Course, profile *model.EmployeeProfile, opts model.PersonalizationOptions, progress ProgressFunc) (*model.GeneratedCourse, error) {
	if course == nil || profile == nil {
		return nil, domain.ErrInvalidArgument
	}
	opts.Normalize()
	if progress == nil {
		progress = func(int, string, int) {}
	}

	var usage adapter.Usage

	// Stage 1: outline.
	progress(1, "Generating course outline", 5)
	outlineText, u, err := e.call(ctx, outlinePrompt(course, profile, opts))
	if err != nil {
		return nil, err
	}
	addUsage(&usage, u)
	outline, err := parseOutline(outlineText)
	if err != nil {
		metrics.IncGenerationParseFailure("outline")
		return nil, err
	}
	if len(outline.Modules) > opts.ModuleCount {
		outline.Modules = outline.Modules[:opts.ModuleCount]
	}

	// Stage 2: one call per module. Smaller contexts keep each response well
	// inside the output cap, which matters more than the extra round trips.
	totalSteps := len(outline.Modules) + 2
	modules := make([]model.CourseModule, 0, len(outline.Modules))
	for i, om := range outline.Modules {
		percent := 10 + (80*(i+1))/(len(outline.Modules)+1)
		progress(i+2, fmt.Sprintf("Generating module %d of %d: %s", i+1, len(outline.Modules), om.Title), percent)

		sectionText, u, err := e.call(ctx, sectionsPrompt(course, profile, opts, om))
		if err != nil {
			return nil, err
		}
		addUsage(&usage, u)
		parsed, err := parseSections(sectionText)
		if err != nil {
			metrics.IncGenerationParseFailure("sections")
			return nil, err
		}

		sections := make([]model.CourseSection, 0, len(parsed.Sections))
		for j, s := range parsed.Sections {
			sections = append(sections, model.CourseSection{
				ID:         uuid.NewString(),
				Title:      s.Title,
				Content:    s.Content,
				OrderIndex: j,
			})
		}
		modules = append(modules, model.CourseModule{
			ID:          uuid.NewString(),
			Title:       om.Title,
			Description: om.Description,
			OrderIndex:  i,
			Sections:    sections,
		})
	}

	// Stage 3: quiz. Optional, and lenient: a module without usable quiz data
	// is simply absent from the list.
	var quiz []model.QuizQuestion
	if opts.IncludeQuiz {
		progress(totalSteps, "Generating quiz", 92)
		quizText, u, err := e.call(ctx, quizPrompt(course, outline))
		if err != nil {
			return nil, err
		}
		addUsage(&usage, u)
		parsed := parseQuiz(quizText, len(modules))
		quiz = make([]model.QuizQuestion, 0, len(parsed.Questions))
		for _, q := range parsed.Questions {
			quiz = append(quiz, model.QuizQuestion{
				ModuleIndex:   q.ModuleIndex,
				Question:      q.Question,
				Options:       q.Options,
				CorrectAnswer: q.CorrectAnswer,
				Explanation:   q.Explanation,
			})
		}
	}

	title := outline.Title
	if title == "" {
		title = course.Title
	}
	description := outline.Description
	if description == "" {
		description = course.Description
	}

	return &model.GeneratedCourse{
		ID:          uuid.NewString(),
		CourseID:    course.ID,
		EmployeeID:  profile.EmployeeID,
		Title:       title,
		Description: description,
		Modules:     modules,
		Quiz:        quiz,
		Metadata: model.GenerationMetadata{
			GeneratedAt:      time.Now(),
			Model:            e.model,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			TotalTokens:      usage.TotalTokens,
			Options:          opts,
		},
		CreatedAt: time.Now(),
	}, nil
}

func (e *Engine) call(ctx context.Context, prompt string) (string, adapter.Usage, error) {
	msgs := []adapter.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	}
	start := time.Now()
	text, usage, err := e.ai.Generate(ctx, e.model, msgs, adapter.GenerateParams{
		Temperature: genTemperature,
		MaxTokens:   genMaxTokens,
	})
	latency := time.Since(start)
	metrics.ObserveGenerationCall(e.model, usage.PromptTokens, usage.CompletionTokens, int(latency/time.Millisecond), err == nil)
	if err != nil {
		return "", usage, fmt.Errorf("%w: %v", domain.ErrGenerationProvider, err)
	}
	return text, usage, nil
}

func addUsage(total *adapter.Usage, u adapter.Usage) {
	total.PromptTokens += u.PromptTokens
	total.CompletionTokens += u.CompletionTokens
	total.TotalTokens += u.TotalTokens
}
