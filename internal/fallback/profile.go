package fallback

import (
	"strings"

	"github.com/spigell/talent-match/internal/recruitment"
)

// NeutralRelevance is the market relevance reported for every fallback skill.
const NeutralRelevance = 50

var tierLevels = map[recruitment.ExperienceTier]int{
	recruitment.TierBeginner:     25,
	recruitment.TierIntermediate: 50,
	recruitment.TierAdvanced:     75,
	recruitment.TierExpert:       90,
}

// ScoreProfile derives an analysis from the years of experience and the raw skill list.
func ScoreProfile(profile *recruitment.ProfileSnapshot) *recruitment.ProfileAnalysis {
	if profile == nil {
		profile = &recruitment.ProfileSnapshot{}
	}

	tier := recruitment.TierForYears(profile.YearsOfExperience)
	skills := normalizeSkills(profile.Skills)

	strengths := make([]string, 0, len(skills))
	breakdown := make([]recruitment.SkillLevel, 0, len(skills))
	for _, s := range skills {
		strengths = append(strengths, s.display)
		breakdown = append(breakdown, recruitment.SkillLevel{
			Name:            s.display,
			Level:           tierLevels[tier],
			MarketRelevance: NeutralRelevance,
		})
	}

	weaknesses := []string{}
	recommendations := []string{}
	if len(skills) == 0 {
		weaknesses = append(weaknesses, "El perfil no registra habilidades técnicas.")
		recommendations = append(recommendations, "Agregar las habilidades técnicas que dominas.")
	}
	if strings.TrimSpace(profile.Summary) == "" {
		weaknesses = append(weaknesses, "El perfil no incluye un resumen profesional.")
		recommendations = append(recommendations, "Redactar un resumen profesional con tus logros principales.")
	}
	if profile.YearsOfExperience < 2 {
		weaknesses = append(weaknesses, "Experiencia profesional limitada.")
		recommendations = append(recommendations, "Sumar proyectos prácticos o prácticas profesionales.")
	}

	categories := []string{}
	if title := strings.TrimSpace(profile.Title); title != "" {
		categories = append(categories, title)
	}

	return &recruitment.ProfileAnalysis{
		OverallScore:         profileScore(len(skills), profile.YearsOfExperience),
		Strengths:            strengths,
		Weaknesses:           weaknesses,
		Recommendations:      recommendations,
		SkillBreakdown:       breakdown,
		ExperienceTier:       tier,
		CompatibleCategories: categories,
		Source:               recruitment.SourceFallback,
	}
}

// profileScore gives 30 base points, 5 per skill up to 8 skills and 3 per year up to 10 years.
func profileScore(skills, years int) int {
	score := 30 + 5*min(skills, 8) + 3*recruitment.Clamp(years, 0, 10)
	return recruitment.ClampPercentage(score)
}
