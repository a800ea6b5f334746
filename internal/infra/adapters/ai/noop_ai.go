package ai

import (
	"context"
	"fmt"
	"strings"

	"lms-personalization/internal/domain/ports/adapter"
)

var _ adapter.AIServiceAdapter = (*NoopAI)(nil)

// NoopAI is a development stand-in that returns canned, well-formed JSON for
// each pipeline stage. It lets the full job flow run locally with no provider
// key configured.
type NoopAI struct{}

func NewNoopAI() *NoopAI { return &NoopAI{} }

func (NoopAI) ListModels(ctx context.Context) ([]string, error) {
	return []string{"noop"}, nil
}

func (NoopAI) GetModelInfo(model string) (adapter.ModelInfo, error) {
	return adapter.ModelInfo{Name: "noop", Description: "canned responses for development", Supports: []string{"text"}}, nil
}

func (NoopAI) CountTokens(ctx context.Context, model string, messages []adapter.Message) (int, error) {
	total := 0
	for _, m := range messages {
		total += len(m.Content) / 4
	}
	return total, nil
}

func (NoopAI) Generate(ctx context.Context, model string, messages []adapter.Message, params adapter.GenerateParams) (string, adapter.Usage, error) {
	prompt := ""
	if len(messages) > 0 {
		prompt = messages[len(messages)-1].Content
	}
	usage := adapter.Usage{PromptTokens: len(prompt) / 4, CompletionTokens: 64, TotalTokens: len(prompt)/4 + 64}

	switch {
	case strings.Contains(prompt, "Create a quiz"):
		return `{"questions": [
  {"moduleIndex": 0, "question": "Which statement best summarizes the first module?", "options": ["A", "B", "C", "D"], "correctAnswer": 0, "explanation": "Covered in module 1."},
  {"moduleIndex": 1, "question": "Which statement best summarizes the second module?", "options": ["A", "B", "C", "D"], "correctAnswer": 1, "explanation": "Covered in module 2."}
]}`, usage, nil
	case strings.Contains(prompt, "Write the content for module"):
		return `{"sections": [
  {"title": "Overview", "content": "This section introduces the topic with a worked example.", "orderIndex": 0},
  {"title": "In Practice", "content": "This section applies the concept to a day-to-day scenario.", "orderIndex": 1},
  {"title": "Wrap-up", "content": "This section recaps the key points and suggests next steps.", "orderIndex": 2}
]}`, usage, nil
	default:
		var b strings.Builder
		b.WriteString(`{"title": "Personalized Course", "description": "A tailored rendition of the course.", "modules": [`)
		for i := 0; i < 3; i++ {
			if i > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, `{"title": "Module %d", "description": "Key ideas for part %d.", "orderIndex": %d}`, i+1, i+1, i)
		}
		b.WriteString(`]}`)
		return b.String(), usage, nil
	}
}
