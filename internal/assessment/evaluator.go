package assessment

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/fallback"
	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/parsing"
	"github.com/spigell/talent-match/internal/prompts"
	"github.com/spigell/talent-match/internal/recruitment"
)

const (
	// DefaultConcurrency bounds simultaneous answer evaluations when unset.
	DefaultConcurrency = 5

	evaluationMaxTokens int32 = 768
	operationEvaluate         = "evaluate_answer"
)

const (
	feedbackCorrect    = "Respuesta correcta."
	feedbackIncorrect  = "Respuesta incorrecta. La respuesta esperada era: %s."
	feedbackNoAnswer   = "No se recibió respuesta para esta pregunta."
	feedbackTotal      = "Puntuación total: %d de %d (%d%%)."
	feedbackNeutralled = " %d respuesta(s) recibieron una puntuación neutral porque la evaluación automática no estuvo disponible."
)

// EvaluatorOptions configure an Evaluator.
type EvaluatorOptions struct {
	Concurrency int
	// BatchTimeout bounds EvaluateTest. Answers not yet dispatched when it
	// expires are scored by rule when possible and get the neutral fallback
	// score otherwise.
	BatchTimeout time.Duration
}

// Evaluator scores submitted answers.
type Evaluator struct {
	generator    ai.TextGenerator
	prompts      *prompts.Builder
	concurrency  int
	batchTimeout time.Duration
	logger       *zap.Logger
}

// NewEvaluator returns an Evaluator, applying defaults for unset options.
func NewEvaluator(generator ai.TextGenerator, builder *prompts.Builder, opts EvaluatorOptions, log *zap.Logger) *Evaluator {
	if builder == nil {
		builder = prompts.NewBuilder(prompts.Options{})
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}

	return &Evaluator{
		generator:    generator,
		prompts:      builder,
		concurrency:  opts.Concurrency,
		batchTimeout: opts.BatchTimeout,
		logger:       logger.OrNop(log),
	}
}

// EvaluateAnswer scores one answer. Multiple-choice and true/false questions
// with an expected answer are decided by case-insensitive exact match without
// calling the model; an empty answer scores zero.
func (e *Evaluator) EvaluateAnswer(ctx context.Context, question *recruitment.QuestionSpec, submitted string) (*recruitment.AnswerEvaluation, error) {
	if err := recruitment.ValidateQuestion(question); err != nil {
		return nil, err
	}
	return e.evaluate(ctx, question, submitted), nil
}

// EvaluateTest scores every question independently and aggregates the result.
// A question without an entry in answers is scored as unanswered.
func (e *Evaluator) EvaluateTest(ctx context.Context, questions []recruitment.QuestionSpec, answers map[string]string) (*recruitment.TestEvaluation, error) {
	seen := make(map[string]struct{}, len(questions))
	for i := range questions {
		if err := recruitment.ValidateQuestion(&questions[i]); err != nil {
			return nil, err
		}
		if _, dup := seen[questions[i].ID]; dup {
			return nil, &recruitment.ValidationError{
				Subject: "test",
				Fields:  []string{"ID: duplicate question id " + questions[i].ID},
				Err:     fmt.Errorf("duplicate question id %q", questions[i].ID),
			}
		}
		seen[questions[i].ID] = struct{}{}
	}

	batchCtx, cancel := ctx, context.CancelFunc(func() {})
	if e.batchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, e.batchTimeout)
	}
	defer cancel()

	results := make([]*recruitment.AnswerEvaluation, len(questions))

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(e.concurrency)
	for i := range questions {
		question := &questions[i]
		if gctx.Err() != nil {
			if eval, ok := evaluateWithoutModel(question, answers[question.ID]); ok {
				results[i] = eval
			} else {
				results[i] = fallback.NeutralEvaluation(question)
			}
			continue
		}
		g.Go(func() error {
			results[i] = e.evaluate(gctx, question, answers[question.ID])
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return aggregate(results), nil
}

func (e *Evaluator) evaluate(ctx context.Context, question *recruitment.QuestionSpec, submitted string) *recruitment.AnswerEvaluation {
	if eval, ok := evaluateWithoutModel(question, submitted); ok {
		return eval
	}

	log := e.logger.With(zap.String("question_id", question.ID), zap.String("type", string(question.Type)))
	eval, err := e.evaluateWithModel(ctx, question, strings.TrimSpace(submitted))
	if err != nil {
		log.Warn("answer evaluated by fallback", append(
			logger.OperationFields(operationEvaluate, string(recruitment.SourceFallback)),
			zap.Error(err),
		)...)
		return fallback.NeutralEvaluation(question)
	}

	log.Debug("answer evaluated", append(
		logger.OperationFields(operationEvaluate, string(eval.Source)),
		zap.Int("awarded_points", eval.AwardedPoints),
	)...)
	return eval
}

// evaluateWithoutModel scores empty answers and closed-form questions with an
// expected answer. It reports false when the model is needed.
func evaluateWithoutModel(question *recruitment.QuestionSpec, submitted string) (*recruitment.AnswerEvaluation, bool) {
	answer := strings.TrimSpace(submitted)
	expected := strings.TrimSpace(question.Expected())

	if answer == "" {
		return &recruitment.AnswerEvaluation{
			QuestionID:    question.ID,
			AwardedPoints: 0,
			MaxPoints:     question.MaxPoints,
			Feedback:      feedbackNoAnswer,
			Source:        recruitment.SourceRule,
		}, true
	}

	if !question.Type.ClosedForm() || expected == "" {
		return nil, false
	}

	eval := &recruitment.AnswerEvaluation{
		QuestionID: question.ID,
		MaxPoints:  question.MaxPoints,
		Source:     recruitment.SourceRule,
	}
	if strings.EqualFold(answer, expected) {
		eval.AwardedPoints = question.MaxPoints
		eval.Feedback = feedbackCorrect
	} else {
		eval.Feedback = fmt.Sprintf(feedbackIncorrect, expected)
	}
	return eval, true
}

func (e *Evaluator) evaluateWithModel(ctx context.Context, question *recruitment.QuestionSpec, answer string) (*recruitment.AnswerEvaluation, error) {
	if e.generator == nil {
		return nil, &ai.GenerationError{Kind: ai.KindPermanent, Err: errNoGenerator}
	}

	raw, err := e.generator.Generate(ctx, e.prompts.Evaluation(question, question.ExpectedAnswer, answer), evaluationMaxTokens)
	if err != nil {
		return nil, err
	}

	fields, err := parsing.ParseEvaluation(raw, question.MaxPoints)
	if err != nil {
		return nil, err
	}

	return &recruitment.AnswerEvaluation{
		QuestionID:    question.ID,
		AwardedPoints: fields.AwardedPoints,
		MaxPoints:     question.MaxPoints,
		Strengths:     fields.Strengths,
		Improvements:  fields.Improvements,
		Feedback:      fields.Feedback,
		Source:        recruitment.SourceModel,
	}, nil
}

// aggregate sums the evaluations. One fallback answer makes the whole test FALLBACK.
func aggregate(results []*recruitment.AnswerEvaluation) *recruitment.TestEvaluation {
	test := &recruitment.TestEvaluation{
		Answers: make([]recruitment.AnswerEvaluation, 0, len(results)),
		Source:  recruitment.SourceModel,
	}

	neutral := 0
	for _, r := range results {
		test.Answers = append(test.Answers, *r)
		test.TotalPoints += r.AwardedPoints
		test.TotalMaxPoints += r.MaxPoints
		if r.Source == recruitment.SourceFallback {
			test.Source = recruitment.SourceFallback
			neutral++
		}
	}

	percentage := 0
	if test.TotalMaxPoints > 0 {
		percentage = int(math.Round(100 * float64(test.TotalPoints) / float64(test.TotalMaxPoints)))
	}

	test.OverallFeedback = fmt.Sprintf(feedbackTotal, test.TotalPoints, test.TotalMaxPoints, percentage)
	if neutral > 0 {
		test.OverallFeedback += fmt.Sprintf(feedbackNeutralled, neutral)
	}
	return test
}
