package recruitment

import "time"

// Source tells whether a result came from the generative model or a deterministic path.
type Source string

const (
	SourceModel    Source = "MODEL"
	SourceFallback Source = "FALLBACK"
	// SourceRule marks answers scored by exact matching without calling the model.
	SourceRule Source = "RULE"
)

// MatchResult is the compatibility of one candidate with one vacancy.
type MatchResult struct {
	Percentage       int       `json:"percentage"`
	Strengths        []string  `json:"strengths"`
	Weaknesses       []string  `json:"weaknesses"`
	Recommendations  []string  `json:"recommendations"`
	CandidateMessage string    `json:"candidate_message"`
	RecruiterMessage string    `json:"recruiter_message"`
	ComputedAt       time.Time `json:"computed_at"`
	Source           Source    `json:"source"`
}

// RankingEntry is a single position in a ranking. Rank is 1-based.
type RankingEntry struct {
	SubjectID string       `json:"subject_id"`
	Result    *MatchResult `json:"result"`
	Rank      int          `json:"rank"`
}

// ClampPercentage bounds v to [0,100].
func ClampPercentage(v int) int {
	return Clamp(v, 0, 100)
}

// Clamp bounds v to [lo,hi].
func Clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// NonNil returns an empty slice for nil input.
func NonNil(items []string) []string {
	if items == nil {
		return []string{}
	}
	return items
}
