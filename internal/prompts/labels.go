package prompts

// Section labels the model is instructed to emit. The parsing package reads
// responses by the same labels.
const (
	LabelScore            = "SCORE"
	LabelStrengths        = "STRENGTHS"
	LabelWeaknesses       = "WEAKNESSES"
	LabelRecommendations  = "RECOMMENDATIONS"
	LabelCandidateMessage = "CANDIDATE_MESSAGE"
	LabelRecruiterMessage = "RECRUITER_MESSAGE"
	LabelSkills           = "SKILLS"
	LabelExperienceLevel  = "EXPERIENCE_LEVEL"
	LabelCategories       = "CATEGORIES"
	LabelQuestions        = "QUESTIONS"
	LabelImprovements     = "IMPROVEMENTS"
	LabelFeedback         = "FEEDBACK"
)

// Labels exposes the label set to templates.
type Labels struct {
	Score            string
	Strengths        string
	Weaknesses       string
	Recommendations  string
	CandidateMessage string
	RecruiterMessage string
	Skills           string
	ExperienceLevel  string
	Categories       string
	Questions        string
	Improvements     string
	Feedback         string
}

var labels = Labels{
	Score:            LabelScore,
	Strengths:        LabelStrengths,
	Weaknesses:       LabelWeaknesses,
	Recommendations:  LabelRecommendations,
	CandidateMessage: LabelCandidateMessage,
	RecruiterMessage: LabelRecruiterMessage,
	Skills:           LabelSkills,
	ExperienceLevel:  LabelExperienceLevel,
	Categories:       LabelCategories,
	Questions:        LabelQuestions,
	Improvements:     LabelImprovements,
	Feedback:         LabelFeedback,
}

// AllLabels lists every label in a stable order.
func AllLabels() []string {
	return []string{
		LabelScore,
		LabelStrengths,
		LabelWeaknesses,
		LabelRecommendations,
		LabelCandidateMessage,
		LabelRecruiterMessage,
		LabelSkills,
		LabelExperienceLevel,
		LabelCategories,
		LabelQuestions,
		LabelImprovements,
		LabelFeedback,
	}
}
