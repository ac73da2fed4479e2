// Package parsing turns the labeled plain-text replies of the generative model
// into typed fields. Parsers never panic on malformed input; missing mandatory
// structure is reported as *ParseError.
package parsing

import (
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

// MatchFields are the parts of a MatchResult read from a model reply.
type MatchFields struct {
	Percentage       int
	Strengths        []string
	Weaknesses       []string
	Recommendations  []string
	CandidateMessage string
	RecruiterMessage string
}

// ParseMatch reads a compatibility reply. The score is mandatory.
func ParseMatch(raw string) (*MatchFields, error) {
	s := splitSections(raw)

	score, ok := s.integer(prompts.LabelScore)
	if !ok {
		return nil, &ParseError{Reason: "missing score"}
	}

	return &MatchFields{
		Percentage:       recruitment.ClampPercentage(score),
		Strengths:        s.list(prompts.LabelStrengths),
		Weaknesses:       s.list(prompts.LabelWeaknesses),
		Recommendations:  s.list(prompts.LabelRecommendations),
		CandidateMessage: s.text(prompts.LabelCandidateMessage),
		RecruiterMessage: s.text(prompts.LabelRecruiterMessage),
	}, nil
}
