package recruitment

// ProfileSnapshot is a caller-supplied copy of a persisted candidate profile.
type ProfileSnapshot struct {
	ID                string   `json:"id" validate:"required"`
	Title             string   `json:"title"`
	Summary           string   `json:"summary"`
	Skills            []string `json:"skills"`
	YearsOfExperience int      `json:"years_of_experience" validate:"gte=0"`
	Location          string   `json:"location"`
}

// ExperienceTier classifies a profile by years of experience.
type ExperienceTier string

const (
	TierBeginner     ExperienceTier = "PRINCIPIANTE"
	TierIntermediate ExperienceTier = "INTERMEDIO"
	TierAdvanced     ExperienceTier = "AVANZADO"
	TierExpert       ExperienceTier = "EXPERTO"
)

// TierForYears maps years of experience onto a tier:
// 0-1 beginner, 2-4 intermediate, 5-8 advanced, 9+ expert.
func TierForYears(years int) ExperienceTier {
	switch {
	case years <= 1:
		return TierBeginner
	case years <= 4:
		return TierIntermediate
	case years <= 8:
		return TierAdvanced
	default:
		return TierExpert
	}
}

// ParseExperienceTier returns the tier named by s and whether it is known.
func ParseExperienceTier(s string) (ExperienceTier, bool) {
	switch ExperienceTier(s) {
	case TierBeginner, TierIntermediate, TierAdvanced, TierExpert:
		return ExperienceTier(s), true
	}
	return "", false
}

// SkillLevel is one row of a profile skill breakdown.
type SkillLevel struct {
	Name            string `json:"name"`
	Level           int    `json:"level"`
	MarketRelevance int    `json:"market_relevance"`
}

// ProfileAnalysis describes a single profile independent of any vacancy.
type ProfileAnalysis struct {
	OverallScore         int            `json:"overall_score"`
	Strengths            []string       `json:"strengths"`
	Weaknesses           []string       `json:"weaknesses"`
	Recommendations      []string       `json:"recommendations"`
	SkillBreakdown       []SkillLevel   `json:"skill_breakdown"`
	ExperienceTier       ExperienceTier `json:"experience_tier"`
	CompatibleCategories []string       `json:"compatible_categories"`
	Source               Source         `json:"source"`
}
