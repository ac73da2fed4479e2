package matching

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/fallback"
	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/parsing"
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

const analysisMaxTokens int32 = 1536

var errNoGenerator = errors.New("text generator is not configured")

// Analyzer describes a single profile without vacancy context.
type Analyzer struct {
	generator ai.TextGenerator
	prompts   *prompts.Builder
	logger    *zap.Logger
}

// NewAnalyzer returns an Analyzer. A nil generator makes every analysis use the fallback.
func NewAnalyzer(generator ai.TextGenerator, builder *prompts.Builder, log *zap.Logger) *Analyzer {
	if builder == nil {
		builder = prompts.NewBuilder(prompts.Options{})
	}
	return &Analyzer{generator: generator, prompts: builder, logger: logger.OrNop(log)}
}

// Analyze returns the profile analysis, falling back to the deterministic
// scorer when the model cannot produce one.
func (a *Analyzer) Analyze(ctx context.Context, profile *recruitment.ProfileSnapshot) (*recruitment.ProfileAnalysis, error) {
	if err := recruitment.ValidateProfile(profile); err != nil {
		return nil, err
	}

	log := a.logger.With(zap.String("profile_id", profile.ID))

	analysis, err := a.analyzeWithModel(ctx, profile)
	if err != nil {
		log.Warn("profile analysis computed by fallback", append(
			logger.OperationFields(operationProfileScan, string(recruitment.SourceFallback)),
			zap.Error(err),
		)...)
		return fallback.ScoreProfile(profile), nil
	}

	log.Debug("profile analysis computed", append(
		logger.OperationFields(operationProfileScan, string(analysis.Source)),
		zap.Int("overall_score", analysis.OverallScore),
		zap.String("tier", string(analysis.ExperienceTier)),
	)...)
	return analysis, nil
}

func (a *Analyzer) analyzeWithModel(ctx context.Context, profile *recruitment.ProfileSnapshot) (*recruitment.ProfileAnalysis, error) {
	raw, err := generate(ctx, a.generator, a.prompts.ProfileAnalysis(profile), analysisMaxTokens)
	if err != nil {
		return nil, err
	}

	fields, err := parsing.ParseAnalysis(raw)
	if err != nil {
		return nil, err
	}

	tier := fields.ExperienceTier
	if tier == "" {
		tier = recruitment.TierForYears(profile.YearsOfExperience)
	}

	breakdown := fields.SkillBreakdown
	if breakdown == nil {
		breakdown = []recruitment.SkillLevel{}
	}

	return &recruitment.ProfileAnalysis{
		OverallScore:         recruitment.ClampPercentage(fields.OverallScore),
		Strengths:            recruitment.NonNil(fields.Strengths),
		Weaknesses:           recruitment.NonNil(fields.Weaknesses),
		Recommendations:      recruitment.NonNil(fields.Recommendations),
		SkillBreakdown:       breakdown,
		ExperienceTier:       tier,
		CompatibleCategories: recruitment.NonNil(fields.CompatibleCategories),
		Source:               recruitment.SourceModel,
	}, nil
}
