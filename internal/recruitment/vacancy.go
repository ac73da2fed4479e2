package recruitment

// VacancySnapshot is a caller-supplied copy of a persisted vacancy.
type VacancySnapshot struct {
	ID                string   `json:"id" validate:"required"`
	Title             string   `json:"title" validate:"required"`
	Description       string   `json:"description"`
	RequiredSkills    []string `json:"required_skills"`
	MinimumExperience int      `json:"minimum_experience" validate:"gte=0"`
	Location          string   `json:"location"`
	Modality          string   `json:"modality"`
}

// VacancyCompatibility is a vacancy annotated with its ranking against one candidate.
type VacancyCompatibility struct {
	Vacancy       *VacancySnapshot `json:"vacancy"`
	Compatibility int              `json:"compatibility"`
	Rank          int              `json:"rank"`
	Source        Source           `json:"source"`
}
