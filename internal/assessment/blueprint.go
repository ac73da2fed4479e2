// Package assessment generates technical test blueprints and scores submitted answers.
package assessment

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/fallback"
	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/parsing"
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

const (
	// DefaultPoints is assigned when the model omits a question's points.
	DefaultPoints = 10
	// MaxQuestions bounds a single blueprint.
	MaxQuestions = 50

	operationBlueprint = "blueprint"
)

const (
	baseQuestionTokens int32 = 1024
	perQuestionTokens  int32 = 384
	maxQuestionTokens  int32 = 8192
)

var (
	errNoGenerator  = errors.New("text generator is not configured")
	errNoQuestions  = errors.New("no usable questions in reply")
	errMissingTopic = errors.New("a vacancy or a title is required")
	errInvalidCount = errors.New("count must be between 1 and 50")
	errNilBlueprint = errors.New("existing blueprint is required")
)

// BlueprintRequest names the subject of a test. When Vacancy is set its title,
// description and required skills are used for fields left empty.
type BlueprintRequest struct {
	Vacancy      *recruitment.VacancySnapshot
	Title        string
	Description  string
	Technologies []string
	Difficulty   recruitment.Difficulty
	Count        int
}

// Generator produces test blueprints.
type Generator struct {
	generator ai.TextGenerator
	prompts   *prompts.Builder
	logger    *zap.Logger
	newID     func() string
}

// NewGenerator returns a Generator. A nil generator makes every blueprint use the question bank.
func NewGenerator(generator ai.TextGenerator, builder *prompts.Builder, log *zap.Logger) *Generator {
	if builder == nil {
		builder = prompts.NewBuilder(prompts.Options{})
	}
	return &Generator{
		generator: generator,
		prompts:   builder,
		logger:    logger.OrNop(log),
		newID:     uuid.NewString,
	}
}

// GenerateBlueprint returns at most req.Count distinct questions.
func (g *Generator) GenerateBlueprint(ctx context.Context, req BlueprintRequest) (*recruitment.TestBlueprint, error) {
	req, err := normalizeRequest(req)
	if err != nil {
		return nil, err
	}
	return g.generate(ctx, req, nil), nil
}

// Regenerate returns a new blueprint on the same subject that repeats none of
// the question texts of existing.
func (g *Generator) Regenerate(ctx context.Context, existing *recruitment.TestBlueprint, count int) (*recruitment.TestBlueprint, error) {
	if existing == nil {
		return nil, &recruitment.ValidationError{Subject: "blueprint", Err: errNilBlueprint}
	}

	req, err := normalizeRequest(BlueprintRequest{
		Title:        existing.Title,
		Technologies: existing.Technologies,
		Difficulty:   existing.Difficulty,
		Count:        count,
	})
	if err != nil {
		return nil, err
	}

	exclude := make([]string, 0, len(existing.Questions))
	for _, q := range existing.Questions {
		exclude = append(exclude, q.Text)
	}
	return g.generate(ctx, req, exclude), nil
}

func normalizeRequest(req BlueprintRequest) (BlueprintRequest, error) {
	if req.Vacancy != nil {
		if err := recruitment.ValidateVacancy(req.Vacancy); err != nil {
			return req, err
		}
		if strings.TrimSpace(req.Title) == "" {
			req.Title = req.Vacancy.Title
		}
		if strings.TrimSpace(req.Description) == "" {
			req.Description = req.Vacancy.Description
		}
		if len(req.Technologies) == 0 {
			req.Technologies = req.Vacancy.RequiredSkills
		}
	}

	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" && len(req.Technologies) == 0 {
		return req, &recruitment.ValidationError{Subject: "blueprint request", Err: errMissingTopic}
	}
	if req.Count < 1 || req.Count > MaxQuestions {
		return req, &recruitment.ValidationError{Subject: "blueprint request", Fields: []string{"Count: " + errInvalidCount.Error()}, Err: errInvalidCount}
	}

	req.Technologies = fallback.NormalizedDisplay(req.Technologies)
	req.Difficulty = recruitment.ParseDifficulty(string(req.Difficulty))
	return req, nil
}

func (g *Generator) generate(ctx context.Context, req BlueprintRequest, exclude []string) *recruitment.TestBlueprint {
	log := g.logger.With(
		zap.String("title", req.Title),
		zap.String("difficulty", string(req.Difficulty)),
		zap.Int("count", req.Count),
	)

	blueprint := &recruitment.TestBlueprint{
		Title:        req.Title,
		Technologies: req.Technologies,
		Difficulty:   req.Difficulty,
		Source:       recruitment.SourceModel,
	}

	questions, err := g.questionsFromModel(ctx, req, exclude)
	if err != nil {
		log.Warn("blueprint generated by fallback", append(
			logger.OperationFields(operationBlueprint, string(recruitment.SourceFallback)),
			zap.Error(err),
		)...)
		questions = fallback.Questions(req.Title, req.Technologies, req.Difficulty, req.Count, exclude)
		blueprint.Source = recruitment.SourceFallback
	}

	for i := range questions {
		questions[i].ID = g.newID()
		questions[i].Order = i + 1
	}
	blueprint.Questions = questions

	log.Debug("blueprint generated", append(
		logger.OperationFields(operationBlueprint, string(blueprint.Source)),
		zap.Int("questions", len(questions)),
	)...)
	return blueprint
}

func (g *Generator) questionsFromModel(ctx context.Context, req BlueprintRequest, exclude []string) ([]recruitment.QuestionSpec, error) {
	if g.generator == nil {
		return nil, &ai.GenerationError{Kind: ai.KindPermanent, Err: errNoGenerator}
	}

	prompt := g.prompts.Questions(prompts.QuestionRequest{
		Title:        req.Title,
		Description:  req.Description,
		Technologies: req.Technologies,
		Difficulty:   req.Difficulty,
		Count:        req.Count,
		Exclude:      exclude,
	})

	raw, err := g.generator.Generate(ctx, prompt, questionTokens(req.Count))
	if err != nil {
		return nil, err
	}

	parsed, err := parsing.ParseQuestions(raw)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(exclude)+len(parsed))
	for _, text := range exclude {
		seen[fallback.TextKey(text)] = struct{}{}
	}

	questions := make([]recruitment.QuestionSpec, 0, req.Count)
	for _, fields := range parsed {
		if len(questions) == req.Count {
			break
		}

		q, ok := toQuestion(fields)
		if !ok {
			g.logger.Debug("dropping unusable question", zap.String("text", fields.Text), zap.String("type", fields.Type))
			continue
		}

		key := fallback.TextKey(q.Text)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, &parsing.ParseError{Reason: errNoQuestions.Error()}
	}
	return questions, nil
}

// toQuestion converts parsed fields, inferring a missing type from the options.
func toQuestion(fields parsing.QuestionFields) (recruitment.QuestionSpec, bool) {
	qType, ok := recruitment.ParseQuestionType(fields.Type)
	if !ok {
		qType = recruitment.QuestionOpen
		if len(fields.Options) >= 2 {
			qType = recruitment.QuestionMultipleChoice
		}
	}

	points := fields.Points
	if points <= 0 {
		points = DefaultPoints
	}

	q := recruitment.QuestionSpec{
		// placeholder so validation passes; replaced once the blueprint is assembled
		ID:             "pending",
		Text:           strings.TrimSpace(fields.Text),
		Type:           qType,
		ExpectedAnswer: fields.ExpectedAnswer,
		MaxPoints:      points,
	}
	if qType == recruitment.QuestionMultipleChoice {
		q.Options = fields.Options
	}

	if err := recruitment.ValidateQuestion(&q); err != nil {
		return q, false
	}
	return q, true
}

func questionTokens(count int) int32 {
	return min(baseQuestionTokens+perQuestionTokens*int32(count), maxQuestionTokens)
}
