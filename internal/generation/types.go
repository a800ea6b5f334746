package generation

// Tagged result types for each pipeline stage. Each is validated at the parse
// boundary so malformed model output surfaces as domain.ErrGenerationFormat
// instead of propagating downstream.

// OutlineResult is the decoded shape of the outline stage.
type OutlineResult struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Modules     []OutlineModule `json:"modules"`
}

type OutlineModule struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	OrderIndex  int    `json:"orderIndex"`
}

// SectionResult is the decoded shape of one module's section stage.
type SectionResult struct {
	Sections []SectionItem `json:"sections"`
}

type SectionItem struct {
	Title      string `json:"title"`
	Content    string `json:"content"`
	OrderIndex int    `json:"orderIndex"`
}

// QuizResult is the decoded shape of the quiz stage.
type QuizResult struct {
	Questions []QuizItem `json:"questions"`
}

type QuizItem struct {
	ModuleIndex   int      `json:"moduleIndex"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}
