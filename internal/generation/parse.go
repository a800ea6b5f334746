package generation

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"lms-personalization/internal/domain"
)

var fencedJSON = regexp.MustCompile("(?s)```(?:json)?(.*?)```")

// extractJSON pulls a JSON object out of model output. Models frequently wrap
// JSON in markdown fences or prose despite being told not to, so we try the
// fenced blocks first and then the widest {...} span in the raw text.
func extractJSON(text string) ([]byte, error) {
	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		candidate := strings.TrimSpace(m[1])
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		candidate := text[start : end+1]
		if json.Valid([]byte(candidate)) {
			return []byte(candidate), nil
		}
	}
	return nil, domain.ErrGenerationFormat
}

func parseOutline(text string) (*OutlineResult, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("outline: %w", err)
	}
	var out OutlineResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("outline decode: %w", domain.ErrGenerationFormat)
	}
	// Keep only modules with a usable title.
	modules := out.Modules[:0]
	for _, m := range out.Modules {
		if strings.TrimSpace(m.Title) != "" {
			modules = append(modules, m)
		}
	}
	out.Modules = modules
	if len(out.Modules) == 0 {
		return nil, fmt.Errorf("outline has no modules: %w", domain.ErrGenerationFormat)
	}
	sortByOrder(out.Modules, func(m OutlineModule) int { return m.OrderIndex })
	return &out, nil
}

func parseSections(text string) (*SectionResult, error) {
	raw, err := extractJSON(text)
	if err != nil {
		return nil, fmt.Errorf("sections: %w", err)
	}
	var out SectionResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("sections decode: %w", domain.ErrGenerationFormat)
	}
	sections := out.Sections[:0]
	for _, s := range out.Sections {
		if strings.TrimSpace(s.Title) != "" || strings.TrimSpace(s.Content) != "" {
			sections = append(sections, s)
		}
	}
	out.Sections = sections
	if len(out.Sections) == 0 {
		return nil, fmt.Errorf("module has no sections: %w", domain.ErrGenerationFormat)
	}
	sortByOrder(out.Sections, func(s SectionItem) int { return s.OrderIndex })
	return &out, nil
}

// parseQuiz is lenient: quiz data is optional, so anything undecodable yields
// an empty result rather than an error, and invalid questions are dropped.
func parseQuiz(text string, moduleCount int) *QuizResult {
	raw, err := extractJSON(text)
	if err != nil {
		return &QuizResult{}
	}
	var out QuizResult
	if err := json.Unmarshal(raw, &out); err != nil {
		return &QuizResult{}
	}
	valid := out.Questions[:0]
	for _, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) < 2 {
			continue
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			continue
		}
		if q.ModuleIndex < 0 || q.ModuleIndex >= moduleCount {
			continue
		}
		valid = append(valid, q)
	}
	out.Questions = valid
	return &out
}

func sortByOrder[T any](items []T, key func(T) int) {
	sort.SliceStable(items, func(i, j int) bool { return key(items[i]) < key(items[j]) })
}
