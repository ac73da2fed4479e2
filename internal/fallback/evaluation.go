package fallback

import (
	"math"

	"github.com/spigell/talent-match/internal/recruitment"
)

// UnavailableFeedback explains a neutral fallback score to the candidate.
const UnavailableFeedback = "La evaluación automática no estuvo disponible; se asignó una puntuación neutral pendiente de revisión manual."

// NeutralEvaluation awards half of the question's points, rounded.
func NeutralEvaluation(question *recruitment.QuestionSpec) *recruitment.AnswerEvaluation {
	maxPoints := 0
	id := ""
	if question != nil {
		maxPoints = max(question.MaxPoints, 0)
		id = question.ID
	}

	return &recruitment.AnswerEvaluation{
		QuestionID:    id,
		AwardedPoints: int(math.Round(float64(maxPoints) * 0.5)),
		MaxPoints:     maxPoints,
		Strengths:     "",
		Improvements:  "",
		Feedback:      UnavailableFeedback,
		Source:        recruitment.SourceFallback,
	}
}
