package parsing

import (
	"strings"

	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

// NeutralRelevance is used when the model omits a market relevance value.
const NeutralRelevance = 50

// AnalysisFields are the parts of a ProfileAnalysis read from a model reply.
type AnalysisFields struct {
	OverallScore         int
	Strengths            []string
	Weaknesses           []string
	Recommendations      []string
	SkillBreakdown       []recruitment.SkillLevel
	ExperienceTier       recruitment.ExperienceTier
	CompatibleCategories []string
}

// ParseAnalysis reads a profile analysis reply. The score is mandatory; an
// unknown experience level is left empty for the caller to derive.
func ParseAnalysis(raw string) (*AnalysisFields, error) {
	s := splitSections(raw)

	score, ok := s.integer(prompts.LabelScore)
	if !ok {
		return nil, &ParseError{Reason: "missing score"}
	}

	return &AnalysisFields{
		OverallScore:         recruitment.ClampPercentage(score),
		Strengths:            s.list(prompts.LabelStrengths),
		Weaknesses:           s.list(prompts.LabelWeaknesses),
		Recommendations:      s.list(prompts.LabelRecommendations),
		SkillBreakdown:       parseSkills(s.list(prompts.LabelSkills)),
		ExperienceTier:       parseTier(s.text(prompts.LabelExperienceLevel)),
		CompatibleCategories: s.inlineList(prompts.LabelCategories),
	}, nil
}

// parseSkills reads rows shaped as "name | level | relevance".
func parseSkills(rows []string) []recruitment.SkillLevel {
	skills := make([]recruitment.SkillLevel, 0, len(rows))
	seen := make(map[string]struct{}, len(rows))

	for _, row := range rows {
		parts := strings.Split(row, "|")
		name := strings.TrimSpace(parts[0])
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		skill := recruitment.SkillLevel{Name: name, Level: NeutralRelevance, MarketRelevance: NeutralRelevance}
		if len(parts) > 1 {
			if level, ok := coerceInt(parts[1]); ok {
				skill.Level = recruitment.ClampPercentage(level)
			}
		}
		if len(parts) > 2 {
			if relevance, ok := coerceInt(parts[2]); ok {
				skill.MarketRelevance = recruitment.ClampPercentage(relevance)
			}
		}
		skills = append(skills, skill)
	}

	return skills
}

func parseTier(text string) recruitment.ExperienceTier {
	for _, word := range strings.FieldsFunc(strings.ToUpper(text), func(r rune) bool {
		return !(r >= 'A' && r <= 'Z')
	}) {
		if tier, ok := recruitment.ParseExperienceTier(word); ok {
			return tier
		}
	}
	return ""
}
