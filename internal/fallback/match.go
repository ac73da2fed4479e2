// Package fallback holds the deterministic scoring used when the generative
// model is unavailable or its reply cannot be parsed. Every function is pure
// and total over valid snapshots.
package fallback

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/talent-match/internal/recruitment"
)

// MaxRecommendations caps the templated recommendations of a fallback match.
const MaxRecommendations = 5

// ScoreMatch computes compatibility as the share of the vacancy's required
// skills present in the profile. ComputedAt is left zero; callers stamp it.
func ScoreMatch(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) *recruitment.MatchResult {
	if profile == nil {
		profile = &recruitment.ProfileSnapshot{}
	}
	if vacancy == nil {
		vacancy = &recruitment.VacancySnapshot{}
	}

	have := make(map[string]struct{})
	for _, s := range normalizeSkills(profile.Skills) {
		have[s.key] = struct{}{}
	}

	required := normalizeSkills(vacancy.RequiredSkills)
	strengths := make([]string, 0, len(required))
	weaknesses := make([]string, 0, len(required))
	for _, s := range required {
		if _, ok := have[s.key]; ok {
			strengths = append(strengths, s.display)
		} else {
			weaknesses = append(weaknesses, s.display)
		}
	}

	denominator := len(required)
	if denominator < 1 {
		denominator = 1
	}
	percentage := recruitment.ClampPercentage(int(math.Round(100 * float64(len(strengths)) / float64(denominator))))

	recommendations := make([]string, 0, MaxRecommendations)
	for _, missing := range weaknesses {
		if len(recommendations) == MaxRecommendations {
			break
		}
		recommendations = append(recommendations, fmt.Sprintf("Adquirir experiencia práctica en %s.", missing))
	}

	return &recruitment.MatchResult{
		Percentage:       percentage,
		Strengths:        strengths,
		Weaknesses:       weaknesses,
		Recommendations:  recommendations,
		CandidateMessage: candidateMessage(percentage, vacancy.Title, weaknesses),
		RecruiterMessage: recruiterMessage(percentage, len(strengths), len(required)),
		Source:           recruitment.SourceFallback,
	}
}

func candidateMessage(percentage int, title string, missing []string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		title = "la vacante"
	}

	msg := fmt.Sprintf("Tu perfil cubre el %d%% de las habilidades requeridas para %s.", percentage, title)
	if len(missing) > 0 {
		shown := missing
		if len(shown) > 3 {
			shown = shown[:3]
		}
		msg += fmt.Sprintf(" Reforzar %s mejoraría tu compatibilidad.", strings.Join(shown, ", "))
	}
	return msg
}

func recruiterMessage(percentage, matched, required int) string {
	if required == 0 {
		return "La vacante no especifica habilidades requeridas; la compatibilidad no pudo estimarse por habilidades."
	}
	return fmt.Sprintf("El candidato cumple %d de %d habilidades requeridas (%d%%).", matched, required, percentage)
}
