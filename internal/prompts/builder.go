// Package prompts renders the fixed prompt templates sent to the generative
// model. Every function here is pure: no I/O, no errors.
package prompts

import (
	"bytes"
	"embed"
	"strconv"
	"strings"
	"text/template"

	"github.com/spigell/talent-match/internal/recruitment"
)

const (
	// DefaultMaxFieldLength bounds every free-text field embedded in a prompt.
	DefaultMaxFieldLength = 4000
	// NoData replaces empty optional fields.
	NoData = "no data provided"

	defaultLanguage   = "Spanish"
	maxExcluded       = 50
	maxExcludedLength = 300
	truncationMarker  = " [truncated]"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

// Options configure a Builder.
type Options struct {
	MaxFieldLength int
	Language       string
}

// Builder renders prompts with bounded field sizes.
type Builder struct {
	maxFieldLen int
	language    string
}

// NewBuilder returns a Builder, applying defaults for unset options.
func NewBuilder(opts Options) *Builder {
	if opts.MaxFieldLength <= 0 {
		opts.MaxFieldLength = DefaultMaxFieldLength
	}
	if strings.TrimSpace(opts.Language) == "" {
		opts.Language = defaultLanguage
	}
	return &Builder{maxFieldLen: opts.MaxFieldLength, language: strings.TrimSpace(opts.Language)}
}

type profileData struct {
	Title    string
	Years    string
	Location string
	Skills   string
	Summary  string
}

type vacancyData struct {
	Title             string
	MinimumExperience string
	Location          string
	Modality          string
	Skills            string
	Description       string
}

// Match renders the candidate/vacancy compatibility prompt.
func (b *Builder) Match(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) string {
	return b.render("match.tmpl", struct {
		Language string
		Labels   Labels
		Profile  profileData
		Vacancy  vacancyData
	}{
		Language: b.language,
		Labels:   labels,
		Profile:  b.profile(profile),
		Vacancy:  b.vacancy(vacancy),
	})
}

// ProfileAnalysis renders the vacancy-independent profile analysis prompt.
func (b *Builder) ProfileAnalysis(profile *recruitment.ProfileSnapshot) string {
	tiers := []string{
		string(recruitment.TierBeginner),
		string(recruitment.TierIntermediate),
		string(recruitment.TierAdvanced),
		string(recruitment.TierExpert),
	}

	return b.render("analysis.tmpl", struct {
		Language string
		Labels   Labels
		Profile  profileData
		Tiers    string
	}{
		Language: b.language,
		Labels:   labels,
		Profile:  b.profile(profile),
		Tiers:    strings.Join(tiers, ", "),
	})
}

// QuestionRequest describes the questions to generate.
type QuestionRequest struct {
	Title        string
	Description  string
	Technologies []string
	Difficulty   recruitment.Difficulty
	Count        int
	// Exclude lists question texts that must not be produced again.
	Exclude []string
}

// Questions renders the test question generation prompt.
func (b *Builder) Questions(req QuestionRequest) string {
	exclude := make([]string, 0, len(req.Exclude))
	for _, text := range req.Exclude {
		if len(exclude) == maxExcluded {
			break
		}
		text = singleLine(text)
		if text == "" {
			continue
		}
		exclude = append(exclude, truncate(text, maxExcludedLength))
	}

	count := req.Count
	if count < 1 {
		count = 1
	}

	types := []string{
		string(recruitment.QuestionMultipleChoice),
		string(recruitment.QuestionOpen),
		string(recruitment.QuestionTrueFalse),
		string(recruitment.QuestionCode),
		string(recruitment.QuestionTheory),
	}

	return b.render("questions.tmpl", struct {
		Language     string
		Labels       Labels
		Title        string
		Description  string
		Technologies string
		Difficulty   string
		Count        int
		Exclude      []string
		Placeholder  string
		Types        string
	}{
		Language:     b.language,
		Labels:       labels,
		Title:        b.field(req.Title),
		Description:  b.field(req.Description),
		Technologies: b.list(req.Technologies),
		Difficulty:   string(recruitment.ParseDifficulty(string(req.Difficulty))),
		Count:        count,
		Exclude:      exclude,
		Placeholder:  NoData,
		Types:        strings.Join(types, ", "),
	})
}

// Evaluation renders the grading prompt for one submitted answer.
func (b *Builder) Evaluation(question *recruitment.QuestionSpec, expected *string, submitted string) string {
	var (
		text      string
		qType     string
		maxPoints int
	)
	if question != nil {
		text = question.Text
		qType = string(question.Type)
		maxPoints = question.MaxPoints
	}

	expectedText := ""
	if expected != nil {
		expectedText = *expected
	}

	return b.render("evaluation.tmpl", struct {
		Language  string
		Labels    Labels
		Type      string
		MaxPoints int
		Question  string
		Expected  string
		Answer    string
	}{
		Language:  b.language,
		Labels:    labels,
		Type:      b.field(qType),
		MaxPoints: maxPoints,
		Question:  b.field(text),
		Expected:  b.field(expectedText),
		Answer:    b.field(submitted),
	})
}

func (b *Builder) profile(p *recruitment.ProfileSnapshot) profileData {
	if p == nil {
		p = &recruitment.ProfileSnapshot{}
	}
	return profileData{
		Title:    b.field(p.Title),
		Years:    strconv.Itoa(p.YearsOfExperience),
		Location: b.field(p.Location),
		Skills:   b.list(p.Skills),
		Summary:  b.field(p.Summary),
	}
}

func (b *Builder) vacancy(v *recruitment.VacancySnapshot) vacancyData {
	if v == nil {
		v = &recruitment.VacancySnapshot{}
	}
	return vacancyData{
		Title:             b.field(v.Title),
		MinimumExperience: strconv.Itoa(v.MinimumExperience),
		Location:          b.field(v.Location),
		Modality:          b.field(v.Modality),
		Skills:            b.list(v.RequiredSkills),
		Description:       b.field(v.Description),
	}
}

func (b *Builder) field(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return NoData
	}
	return truncate(s, b.maxFieldLen)
}

func (b *Builder) list(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, item := range items {
		if item = singleLine(item); item != "" {
			cleaned = append(cleaned, item)
		}
	}
	return b.field(strings.Join(cleaned, ", "))
}

func (b *Builder) render(name string, data any) string {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		// An empty prompt is rejected by the generator, which sends callers to their fallback.
		return ""
	}
	return strings.TrimSpace(buf.String())
}

// truncate cuts s to at most limit runes including the marker.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	marker := []rune(truncationMarker)
	if limit <= len(marker) {
		return string(runes[:limit])
	}
	return strings.TrimSpace(string(runes[:limit-len(marker)])) + truncationMarker
}

func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
