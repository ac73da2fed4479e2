// Package matching computes candidate/vacancy compatibility and vacancy
// independent profile analyses. The model is asked first; any generation or
// parse failure is replaced by the deterministic fallback.
package matching

import (
	"context"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/fallback"
	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/parsing"
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
	"github.com/spigell/talent-match/internal/utils"
)

const (
	matchMaxTokens       int32 = 1024
	defaultMaxLogLength        = 200
	operationMatch             = "match"
	operationProfileScan       = "analyze_profile"
)

// Engine computes the compatibility of one profile with one vacancy.
type Engine struct {
	generator ai.TextGenerator
	prompts   *prompts.Builder
	logger    *zap.Logger
	maxLogLen int
	now       func() time.Time
}

// NewEngine returns an Engine. A nil generator makes every match use the fallback.
func NewEngine(generator ai.TextGenerator, builder *prompts.Builder, log *zap.Logger, maxLogLength int) *Engine {
	if builder == nil {
		builder = prompts.NewBuilder(prompts.Options{})
	}
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}

	return &Engine{
		generator: generator,
		prompts:   builder,
		logger:    logger.OrNop(log),
		maxLogLen: maxLogLength,
		now:       time.Now,
	}
}

// Match returns the compatibility of profile with vacancy. It fails only when a
// snapshot breaks the input contract.
func (e *Engine) Match(ctx context.Context, profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) (*recruitment.MatchResult, error) {
	if err := recruitment.ValidateProfile(profile); err != nil {
		return nil, err
	}
	if err := recruitment.ValidateVacancy(vacancy); err != nil {
		return nil, err
	}

	log := e.logger.With(
		zap.String("profile_id", profile.ID),
		zap.String("vacancy_id", vacancy.ID),
	)

	result, err := e.matchWithModel(ctx, log, profile, vacancy)
	if err != nil {
		log.Warn("compatibility computed by fallback", append(
			logger.OperationFields(operationMatch, string(recruitment.SourceFallback)),
			zap.Error(err),
		)...)
		result = fallback.ScoreMatch(profile, vacancy)
	}

	result.ComputedAt = e.now().UTC()
	log.Debug("compatibility computed", append(
		logger.OperationFields(operationMatch, string(result.Source)),
		zap.Int("percentage", result.Percentage),
	)...)

	return result, nil
}

// Fallback returns the deterministic result for a pair without calling the model.
func (e *Engine) Fallback(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) *recruitment.MatchResult {
	result := fallback.ScoreMatch(profile, vacancy)
	result.ComputedAt = e.now().UTC()
	return result
}

func (e *Engine) matchWithModel(ctx context.Context, log *zap.Logger, profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) (*recruitment.MatchResult, error) {
	raw, err := generate(ctx, e.generator, e.prompts.Match(profile, vacancy), matchMaxTokens)
	if err != nil {
		return nil, err
	}

	log.Debug("match response received",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, e.maxLogLen)),
	)

	fields, err := parsing.ParseMatch(raw)
	if err != nil {
		return nil, err
	}

	return &recruitment.MatchResult{
		Percentage:       recruitment.ClampPercentage(fields.Percentage),
		Strengths:        recruitment.NonNil(fields.Strengths),
		Weaknesses:       recruitment.NonNil(fields.Weaknesses),
		Recommendations:  recruitment.NonNil(fields.Recommendations),
		CandidateMessage: fields.CandidateMessage,
		RecruiterMessage: fields.RecruiterMessage,
		Source:           recruitment.SourceModel,
	}, nil
}

func generate(ctx context.Context, generator ai.TextGenerator, prompt string, maxTokens int32) (string, error) {
	if generator == nil {
		return "", &ai.GenerationError{Kind: ai.KindPermanent, Err: errNoGenerator}
	}
	return generator.Generate(ctx, prompt, maxTokens)
}
