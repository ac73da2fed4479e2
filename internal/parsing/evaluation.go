package parsing

import (
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

// EvaluationFields are the parts of an AnswerEvaluation read from a model reply.
type EvaluationFields struct {
	AwardedPoints int
	Strengths     string
	Improvements  string
	Feedback      string
}

// ParseEvaluation reads a grading reply, clamping the awarded points to [0, maxPoints].
func ParseEvaluation(raw string, maxPoints int) (*EvaluationFields, error) {
	s := splitSections(raw)

	score, ok := s.integer(prompts.LabelScore)
	if !ok {
		return nil, &ParseError{Reason: "missing score"}
	}

	if maxPoints < 0 {
		maxPoints = 0
	}

	return &EvaluationFields{
		AwardedPoints: recruitment.Clamp(score, 0, maxPoints),
		Strengths:     s.text(prompts.LabelStrengths),
		Improvements:  s.text(prompts.LabelImprovements),
		Feedback:      s.text(prompts.LabelFeedback),
	}, nil
}
