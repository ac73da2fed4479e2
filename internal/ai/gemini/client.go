package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/utils"
)

const (
	provider = "gemini"

	defaultModel        = "gemini-2.5-flash"
	defaultTimeout      = 20 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
	defaultMaxLogLength = 200

	// One initial call plus a single retry.
	maxAttempts = 2
)

// Config is the immutable configuration of a Generator. It is built once at
// startup and never modified afterwards.
type Config struct {
	Endpoint          string
	APIKey            string
	Model             string
	Timeout           time.Duration
	RetryBackoff      time.Duration
	Temperature       float32
	RequestsPerSecond float64
	MaxLogLength      int
}

// Validate reports missing mandatory settings.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Endpoint) == "" {
		errs = append(errs, errors.New("gemini endpoint is required"))
	}
	if strings.TrimSpace(c.APIKey) == "" {
		errs = append(errs, errors.New("gemini api key is required"))
	}
	if c.Timeout <= 0 {
		errs = append(errs, errors.New("gemini request timeout must be positive"))
	}
	if c.RetryBackoff < 0 {
		errs = append(errs, errors.New("gemini retry backoff must not be negative"))
	}
	return errors.Join(errs...)
}

// WithDefaults fills optional settings that were left empty.
func (c Config) WithDefaults() Config {
	if strings.TrimSpace(c.Model) == "" {
		c.Model = defaultModel
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.RetryBackoff == 0 {
		c.RetryBackoff = defaultRetryBackoff
	}
	if c.MaxLogLength <= 0 {
		c.MaxLogLength = defaultMaxLogLength
	}
	return c
}

type contentModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Generator implements ai.TextGenerator on top of the Gemini API.
type Generator struct {
	models       contentModels
	model        string
	timeout      time.Duration
	retryBackoff time.Duration
	temperature  float32
	limiter      *rate.Limiter
	logger       *zap.Logger
	maxLogLen    int
}

var _ ai.TextGenerator = (*Generator)(nil)

// NewGenerator creates a Generator for the configured endpoint and key.
func NewGenerator(ctx context.Context, cfg Config, log *zap.Logger) (*Generator, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:     strings.TrimSpace(cfg.APIKey),
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{},
		HTTPOptions: genai.HTTPOptions{
			BaseURL: strings.TrimSpace(cfg.Endpoint),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	var limiter *rate.Limiter
	if cfg.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}

	return &Generator{
		models:       client.Models,
		model:        cfg.Model,
		timeout:      cfg.Timeout,
		retryBackoff: cfg.RetryBackoff,
		temperature:  cfg.Temperature,
		limiter:      limiter,
		logger:       logger.WithCommonFields(log, provider, cfg.Model),
		maxLogLen:    cfg.MaxLogLength,
	}, nil
}

// Generate sends the prompt and returns the text of the first candidate.
// Transient failures are retried once after the configured backoff.
func (g *Generator) Generate(ctx context.Context, prompt string, maxOutputTokens int32) (string, error) {
	if g == nil || g.models == nil {
		return "", &ai.GenerationError{Kind: ai.KindPermanent, Err: errors.New("gemini generator is not initialized")}
	}

	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &ai.GenerationError{Kind: ai.KindPermanent, Err: errors.New("prompt must not be empty")}
	}

	temperature := g.temperature
	config := &genai.GenerateContentConfig{
		Temperature:     &temperature,
		MaxOutputTokens: maxOutputTokens,
	}

	g.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, g.maxLogLen)),
		zap.Int32("max_output_tokens", maxOutputTokens),
	)

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		text, err := g.generateOnce(ctx, prompt, config)
		if err == nil {
			g.logger.Debug("gemini generate content response",
				zap.Int("attempt", attempt),
				zap.Int("response_length", utf8.RuneCountInString(text)),
				zap.String("response_preview", utils.TruncateForLog(text, g.maxLogLen)),
			)
			return text, nil
		}
		lastErr = err

		if !ai.IsTransient(err) || attempt == maxAttempts || ctx.Err() != nil {
			break
		}

		g.logger.Warn("gemini request failed; retrying",
			zap.Int("attempt", attempt),
			zap.Duration("backoff", g.retryBackoff),
			zap.Error(err),
		)

		if err := utils.WaitFor(ctx, g.retryBackoff); err != nil {
			return "", &ai.GenerationError{Kind: ai.KindTransient, Err: err}
		}
	}

	return "", lastErr
}

// Model returns the configured model name.
func (g *Generator) Model() string {
	if g == nil {
		return ""
	}
	return g.model
}

func (g *Generator) generateOnce(ctx context.Context, prompt string, config *genai.GenerateContentConfig) (string, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return "", &ai.GenerationError{Kind: ai.KindTransient, Err: fmt.Errorf("rate limiter: %w", err)}
		}
	}

	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.models.GenerateContent(callCtx, g.model, genai.Text(prompt), config)
	if err != nil {
		return "", classify(err)
	}

	text, err := firstCandidateText(resp)
	if err != nil {
		return "", &ai.GenerationError{Kind: ai.KindMalformedResponse, StatusCode: http.StatusOK, Err: err}
	}

	return text, nil
}

func classify(err error) *ai.GenerationError {
	code := 0

	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.Code
	case errors.As(err, &apiErrPtr) && apiErrPtr != nil:
		code = apiErrPtr.Code
	}

	switch {
	case code == 0:
		// Network failures and timeouts carry no status.
		return &ai.GenerationError{Kind: ai.KindTransient, Err: err}
	case code == http.StatusTooManyRequests || code >= http.StatusInternalServerError:
		return &ai.GenerationError{Kind: ai.KindTransient, StatusCode: code, Err: err}
	case code >= http.StatusBadRequest:
		return &ai.GenerationError{Kind: ai.KindPermanent, StatusCode: code, Err: err}
	default:
		return &ai.GenerationError{Kind: ai.KindTransient, StatusCode: code, Err: err}
	}
}

// firstCandidateText unwraps the provider envelope down to the text of the first candidate.
func firstCandidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", errors.New("gemini api returned no candidates")
	}

	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil {
		return "", errors.New("gemini api returned an empty candidate")
	}

	var builder strings.Builder
	for _, part := range candidate.Content.Parts {
		if part == nil || part.Thought {
			continue
		}
		text := strings.TrimSpace(part.Text)
		if text == "" {
			continue
		}
		if builder.Len() > 0 {
			builder.WriteString("\n")
		}
		builder.WriteString(text)
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", errors.New("gemini api returned empty response")
	}

	return output, nil
}
