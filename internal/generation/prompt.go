package generation

import (
	"fmt"
	"strings"

	"lms-personalization/internal/domain/model"
)

const systemPrompt = "You are an expert instructional designer who creates personalized corporate training content. Always respond with valid JSON and nothing else. Do not include code blocks or backticks in your response."

func outlinePrompt(course *model.Course, profile *model.EmployeeProfile, opts model.PersonalizationOptions) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a personalized outline for the course %q for the learner below.\n\n", course.Title)
	fmt.Fprintf(&b, "Course description: %s\n\n", course.Description)
	writeLearner(&b, profile, opts)
	fmt.Fprintf(&b, "\nThe outline must contain exactly %d modules, each with a title, a one-paragraph description, and an orderIndex starting at 0.\n", opts.ModuleCount)
	b.WriteString("\nReturn ONLY a JSON object of the form:\n")
	b.WriteString(`{"title": "...", "description": "...", "modules": [{"title": "...", "description": "...", "orderIndex": 0}]}`)
	return b.String()
}

func sectionsPrompt(course *model.Course, profile *model.EmployeeProfile, opts model.PersonalizationOptions, mod OutlineModule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the content for module %q of the course %q.\n", mod.Title, course.Title)
	fmt.Fprintf(&b, "Module description: %s\n\n", mod.Description)
	writeLearner(&b, profile, opts)
	fmt.Fprintf(&b, "\nProduce %d sections. Each section needs a title, 2-4 paragraphs of instructional content, and an orderIndex starting at 0.\n", opts.SectionsPerModule)
	if opts.IncludeExtraChallenge {
		b.WriteString("End the last section with a practical challenge exercise.\n")
	}
	b.WriteString("\nReturn ONLY a JSON object of the form:\n")
	b.WriteString(`{"sections": [{"title": "...", "content": "...", "orderIndex": 0}]}`)
	return b.String()
}

func quizPrompt(course *model.Course, outline *OutlineResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Create a quiz for the personalized course %q with these modules:\n", course.Title)
	for i, m := range outline.Modules {
		fmt.Fprintf(&b, "%d. %s — %s\n", i, m.Title, m.Description)
	}
	b.WriteString("\nWrite 2 multiple-choice questions per module. Tag each question with the moduleIndex it assesses (matching the numbering above), give 4 options, the zero-based index of the correct option, and a short explanation.\n")
	b.WriteString("\nReturn ONLY a JSON object of the form:\n")
	b.WriteString(`{"questions": [{"moduleIndex": 0, "question": "...", "options": ["...","...","...","..."], "correctAnswer": 0, "explanation": "..."}]}`)
	return b.String()
}

func writeLearner(b *strings.Builder, profile *model.EmployeeProfile, opts model.PersonalizationOptions) {
	fmt.Fprintf(b, "Learner: %s, %s in the %s department.\n", profile.Name, profile.Position, profile.Department)
	if opts.IncludeExperience && profile.CVData != nil {
		if len(profile.CVData.Skills) > 0 {
			fmt.Fprintf(b, "Existing skills: %s.\n", strings.Join(profile.CVData.Skills, ", "))
		}
		if len(profile.CVData.Experience) > 0 {
			fmt.Fprintf(b, "Prior experience: %s.\n", strings.Join(profile.CVData.Experience, "; "))
		}
		if profile.CVData.RawText != "" {
			fmt.Fprintf(b, "\nDocument extracts:\n%s\n", profile.CVData.RawText)
		}
	}
	if opts.AdaptToLearningStyle && profile.LearningPref.Style != "" {
		fmt.Fprintf(b, "Preferred learning style: %s.\n", profile.LearningPref.Style)
	}
	if opts.UseSimplifiedLanguage {
		b.WriteString("Use simple, jargon-free language suitable for a non-specialist.\n")
	}
	if opts.TonePreference != "" {
		fmt.Fprintf(b, "Write in a %s tone.\n", opts.TonePreference)
	}
}
