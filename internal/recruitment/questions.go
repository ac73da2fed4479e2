package recruitment

import "strings"

// QuestionType is the answer format of a test question.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionOpen           QuestionType = "OPEN"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionCode           QuestionType = "CODE"
	QuestionTheory         QuestionType = "THEORY"
)

// ParseQuestionType accepts the canonical names and a few loose spellings.
func ParseQuestionType(s string) (QuestionType, bool) {
	normalized := strings.ToUpper(strings.TrimSpace(s))
	normalized = strings.NewReplacer("-", "_", " ", "_", "/", "_").Replace(normalized)

	switch normalized {
	case "MULTIPLE_CHOICE", "MULTIPLECHOICE", "CHOICE", "OPCION_MULTIPLE":
		return QuestionMultipleChoice, true
	case "OPEN", "ABIERTA":
		return QuestionOpen, true
	case "TRUE_FALSE", "TRUEFALSE", "BOOLEAN", "VERDADERO_FALSO":
		return QuestionTrueFalse, true
	case "CODE", "CODING", "CODIGO":
		return QuestionCode, true
	case "THEORY", "TEORIA", "THEORETICAL":
		return QuestionTheory, true
	}
	return "", false
}

// ClosedForm reports whether answers of this type can be checked by exact match.
func (t QuestionType) ClosedForm() bool {
	return t == QuestionMultipleChoice || t == QuestionTrueFalse
}

// Difficulty is the requested level of a generated test.
type Difficulty string

const (
	DifficultyBasic        Difficulty = "BASIC"
	DifficultyIntermediate Difficulty = "INTERMEDIATE"
	DifficultyAdvanced     Difficulty = "ADVANCED"
)

// ParseDifficulty returns the difficulty named by s, defaulting to intermediate.
func ParseDifficulty(s string) Difficulty {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "BASIC", "EASY", "BASICO", "FACIL":
		return DifficultyBasic
	case "ADVANCED", "HARD", "AVANZADO", "DIFICIL":
		return DifficultyAdvanced
	default:
		return DifficultyIntermediate
	}
}

// QuestionSpec is one question of a technical test.
type QuestionSpec struct {
	ID             string       `json:"id" validate:"required"`
	Text           string       `json:"text" validate:"required"`
	Type           QuestionType `json:"type" validate:"required,oneof=MULTIPLE_CHOICE OPEN TRUE_FALSE CODE THEORY"`
	Options        []string     `json:"options,omitempty"`
	ExpectedAnswer *string      `json:"expected_answer,omitempty"`
	MaxPoints      int          `json:"max_points" validate:"gte=0"`
	Order          int          `json:"order"`
}

// Expected returns the expected answer or an empty string.
func (q *QuestionSpec) Expected() string {
	if q == nil || q.ExpectedAnswer == nil {
		return ""
	}
	return *q.ExpectedAnswer
}

// TestBlueprint is an ordered set of generated questions.
type TestBlueprint struct {
	Title        string         `json:"title"`
	Technologies []string       `json:"technologies"`
	Difficulty   Difficulty     `json:"difficulty"`
	Questions    []QuestionSpec `json:"questions"`
	Source       Source         `json:"source"`
}

// AnswerEvaluation is the score of one submitted answer.
type AnswerEvaluation struct {
	QuestionID    string `json:"question_id"`
	AwardedPoints int    `json:"awarded_points"`
	MaxPoints     int    `json:"max_points"`
	Strengths     string `json:"strengths"`
	Improvements  string `json:"improvements"`
	Feedback      string `json:"feedback"`
	Source        Source `json:"source"`
}

// TestEvaluation aggregates the evaluations of one submitted test.
type TestEvaluation struct {
	Answers         []AnswerEvaluation `json:"answers"`
	TotalPoints     int                `json:"total_points"`
	TotalMaxPoints  int                `json:"total_max_points"`
	OverallFeedback string             `json:"overall_feedback"`
	Source          Source             `json:"source"`
}
