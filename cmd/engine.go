package cmd

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/talent-match/internal/ai/gemini"
	"github.com/spigell/talent-match/internal/assessment"
	"github.com/spigell/talent-match/internal/matching"
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/ranking"
	"github.com/spigell/talent-match/internal/secrets"
)

const defaultAPIKeyEnv = "GEMINI_API_KEY"

// engine bundles the components shared by every command.
type engine struct {
	matcher    *matching.Engine
	analyzer   *matching.Analyzer
	ranking    *ranking.Service
	blueprints *assessment.Generator
	evaluator  *assessment.Evaluator
}

func newGeminiConfig(cfg *GeminiConfig) (gemini.Config, error) {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		File:  cfg.APIKeyFile,
		Value: cfg.APIKey,
		Env:   defaultAPIKeyEnv,
	})
	if err != nil {
		return gemini.Config{}, fmt.Errorf("%w (set ai.gemini.api-key-file, ai.gemini.api-key or %s)", err, defaultAPIKeyEnv)
	}

	genCfg := gemini.Config{
		Endpoint:          cfg.Endpoint,
		APIKey:            apiKey,
		Model:             cfg.Model,
		Timeout:           cfg.Timeout,
		RetryBackoff:      cfg.RetryBackoff,
		Temperature:       cfg.Temperature,
		RequestsPerSecond: cfg.RequestsPerSecond,
		MaxLogLength:      cfg.MaxLogLength,
	}.WithDefaults()

	return genCfg, genCfg.Validate()
}

func newEngine(ctx context.Context, config *Config, logger *zap.Logger) (*engine, error) {
	provider := strings.TrimSpace(strings.ToLower(config.AI.Provider))
	if provider != "" && provider != "gemini" {
		return nil, fmt.Errorf("unsupported ai provider: %s", config.AI.Provider)
	}

	genCfg, err := newGeminiConfig(config.AI.Gemini)
	if err != nil {
		return nil, err
	}

	generator, err := gemini.NewGenerator(ctx, genCfg, logger)
	if err != nil {
		return nil, err
	}

	builder := prompts.NewBuilder(prompts.Options{
		MaxFieldLength: config.Engine.MaxFieldLength,
		Language:       config.Engine.Language,
	})

	matcher := matching.NewEngine(generator, builder, logger, genCfg.MaxLogLength)

	logger.Debug("engine initialized",
		zap.String("model", generator.Model()),
		zap.Int("concurrency", config.Engine.Concurrency),
		zap.Duration("batch_timeout", config.Engine.BatchTimeout),
	)

	return &engine{
		matcher:  matcher,
		analyzer: matching.NewAnalyzer(generator, builder, logger),
		ranking: ranking.NewService(matcher, ranking.Options{
			Concurrency:   config.Engine.Concurrency,
			Limit:         config.Engine.RankingLimit,
			MinPercentage: config.Engine.MinimumPercentage,
			BatchTimeout:  config.Engine.BatchTimeout,
		}, logger),
		blueprints: assessment.NewGenerator(generator, builder, logger),
		evaluator: assessment.NewEvaluator(generator, builder, assessment.EvaluatorOptions{
			Concurrency:  config.Engine.Concurrency,
			BatchTimeout: config.Engine.BatchTimeout,
		}, logger),
	}, nil
}
