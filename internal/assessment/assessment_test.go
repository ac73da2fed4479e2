package assessment

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/recruitment"
)

type stubGenerator struct {
	mu      sync.Mutex
	reply   func(prompt string) (string, error)
	prompts []string
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string, _ int32) (string, error) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", &ai.GenerationError{Kind: ai.KindTransient, Err: err}
	}
	return s.reply(prompt)
}

func (s *stubGenerator) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.prompts)
}

func replyWith(text string) func(string) (string, error) {
	return func(string) (string, error) { return text, nil }
}

func failWith(err error) func(string) (string, error) {
	return func(string) (string, error) { return "", err }
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("q-%d", n)
	}
}

func newTestGenerator(gen ai.TextGenerator) *Generator {
	g := NewGenerator(gen, nil, nil)
	g.newID = sequentialIDs()
	return g
}

const questionsReply = `QUESTIONS:
[
  {"text": "¿Qué es una goroutine?", "type": "THEORY", "points": 10, "expected_answer": "Una función concurrente"},
  {"text": "¿Qué hace defer?", "type": "multiple-choice", "options": ["Pospone", "Cancela"], "expected_answer": "Pospone", "points": "5"},
  {"text": "¿Qué es una GOROUTINE?", "type": "OPEN"},
  {"text": "Go tiene recolector de basura", "type": "TRUE_FALSE", "expected_answer": true},
  {"text": "¿Qué hace defer?", "type": "OPEN"}
]`

func TestGenerateBlueprintDropsDuplicates(t *testing.T) {
	gen := &stubGenerator{reply: replyWith(questionsReply)}

	blueprint, err := newTestGenerator(gen).GenerateBlueprint(context.Background(), BlueprintRequest{
		Title:        "Go developer",
		Technologies: []string{"Go"},
		Difficulty:   recruitment.DifficultyBasic,
		Count:        5,
	})
	require.NoError(t, err)

	assert.Equal(t, recruitment.SourceModel, blueprint.Source)
	require.Len(t, blueprint.Questions, 3)

	seen := map[string]bool{}
	for i, q := range blueprint.Questions {
		key := strings.ToLower(q.Text)
		assert.False(t, seen[key])
		seen[key] = true
		assert.Equal(t, i+1, q.Order)
		assert.Equal(t, fmt.Sprintf("q-%d", i+1), q.ID)
	}

	assert.Equal(t, recruitment.QuestionMultipleChoice, blueprint.Questions[1].Type)
	assert.Equal(t, 5, blueprint.Questions[1].MaxPoints)
	assert.Equal(t, []string{"Pospone", "Cancela"}, blueprint.Questions[1].Options)
	assert.Equal(t, recruitment.QuestionTrueFalse, blueprint.Questions[2].Type)
	assert.Equal(t, "true", blueprint.Questions[2].Expected())
	assert.Equal(t, DefaultPoints, blueprint.Questions[2].MaxPoints)
}

func TestGenerateBlueprintCapsAtCount(t *testing.T) {
	gen := &stubGenerator{reply: replyWith(questionsReply)}

	blueprint, err := newTestGenerator(gen).GenerateBlueprint(context.Background(), BlueprintRequest{Title: "Go", Count: 2})
	require.NoError(t, err)
	assert.Len(t, blueprint.Questions, 2)
}

func TestGenerateBlueprintFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		reply func(string) (string, error)
	}{
		{name: "generation error", reply: failWith(&ai.GenerationError{Kind: ai.KindTransient, StatusCode: 500, Err: errors.New("boom")})},
		{name: "no array", reply: replyWith("QUESTIONS: none today")},
		{name: "only invalid questions", reply: replyWith(`[{"text": "Elige", "type": "MULTIPLE_CHOICE", "options": ["a"]}]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{reply: tt.reply}

			blueprint, err := newTestGenerator(gen).GenerateBlueprint(context.Background(), BlueprintRequest{
				Technologies: []string{"Go", "SQL"},
				Difficulty:   recruitment.DifficultyAdvanced,
				Count:        8,
			})
			require.NoError(t, err)
			assert.Equal(t, recruitment.SourceFallback, blueprint.Source)
			require.Len(t, blueprint.Questions, 8)
			assert.Equal(t, "q-1", blueprint.Questions[0].ID)
			assert.Equal(t, 15, blueprint.Questions[0].MaxPoints)
		})
	}
}

func TestGenerateBlueprintFromVacancy(t *testing.T) {
	gen := &stubGenerator{reply: replyWith(questionsReply)}
	vacancy := &recruitment.VacancySnapshot{ID: "v1", Title: "Data engineer", Description: "Pipelines", RequiredSkills: []string{"Python; Spark", "python"}}

	blueprint, err := newTestGenerator(gen).GenerateBlueprint(context.Background(), BlueprintRequest{Vacancy: vacancy, Count: 3})
	require.NoError(t, err)

	assert.Equal(t, "Data engineer", blueprint.Title)
	assert.Equal(t, []string{"Python", "Spark"}, blueprint.Technologies)
	assert.Equal(t, recruitment.DifficultyIntermediate, blueprint.Difficulty)
	require.Equal(t, 1, gen.calls())
	assert.Contains(t, gen.prompts[0], "Pipelines")
}

func TestGenerateBlueprintValidatesRequest(t *testing.T) {
	g := newTestGenerator(nil)
	var verr *recruitment.ValidationError

	_, err := g.GenerateBlueprint(context.Background(), BlueprintRequest{Count: 3})
	require.ErrorAs(t, err, &verr)

	_, err = g.GenerateBlueprint(context.Background(), BlueprintRequest{Title: "Go", Count: 0})
	require.ErrorAs(t, err, &verr)

	_, err = g.GenerateBlueprint(context.Background(), BlueprintRequest{Vacancy: &recruitment.VacancySnapshot{ID: "v1"}, Count: 1})
	require.ErrorAs(t, err, &verr)
}

func TestRegenerateAvoidsExistingTexts(t *testing.T) {
	existing := &recruitment.TestBlueprint{
		Title:        "Go developer",
		Technologies: []string{"Go"},
		Difficulty:   recruitment.DifficultyBasic,
		Questions: []recruitment.QuestionSpec{
			{ID: "a", Text: "¿Qué es una goroutine?", Type: recruitment.QuestionTheory},
		},
	}

	gen := &stubGenerator{reply: replyWith(questionsReply)}
	blueprint, err := newTestGenerator(gen).Regenerate(context.Background(), existing, 5)
	require.NoError(t, err)

	assert.Equal(t, recruitment.SourceModel, blueprint.Source)
	assert.Equal(t, existing.Title, blueprint.Title)
	assert.Equal(t, recruitment.DifficultyBasic, blueprint.Difficulty)
	for _, q := range blueprint.Questions {
		assert.NotEqual(t, "¿qué es una goroutine?", strings.ToLower(q.Text))
	}
	assert.Contains(t, gen.prompts[0], "¿Qué es una goroutine?")

	failing := &stubGenerator{reply: failWith(errors.New("down"))}
	existing.Questions = newTestGenerator(failing).generate(context.Background(), BlueprintRequest{
		Title: "Go developer", Technologies: []string{"Go"}, Difficulty: recruitment.DifficultyBasic, Count: 3,
	}, nil).Questions

	regenerated, err := newTestGenerator(failing).Regenerate(context.Background(), existing, 3)
	require.NoError(t, err)
	assert.Equal(t, recruitment.SourceFallback, regenerated.Source)
	for _, q := range regenerated.Questions {
		for _, old := range existing.Questions {
			assert.NotEqual(t, strings.ToLower(old.Text), strings.ToLower(q.Text))
		}
	}

	_, err = newTestGenerator(failing).Regenerate(context.Background(), nil, 3)
	require.Error(t, err)
}

func closedQuestion(id, expected string) recruitment.QuestionSpec {
	return recruitment.QuestionSpec{ID: id, Text: "Go es compilado", Type: recruitment.QuestionTrueFalse, ExpectedAnswer: &expected, MaxPoints: 5}
}

func openQuestion(id string, points int) recruitment.QuestionSpec {
	return recruitment.QuestionSpec{ID: id, Text: "Explica los canales", Type: recruitment.QuestionOpen, MaxPoints: points}
}

func TestEvaluateAnswerClosedFormSkipsModel(t *testing.T) {
	gen := &stubGenerator{reply: failWith(errors.New("must not be called"))}
	evaluator := NewEvaluator(gen, nil, EvaluatorOptions{}, nil)
	question := closedQuestion("q1", "true")

	eval, err := evaluator.EvaluateAnswer(context.Background(), &question, "True")
	require.NoError(t, err)
	assert.Equal(t, 5, eval.AwardedPoints)
	assert.Equal(t, recruitment.SourceRule, eval.Source)

	eval, err = evaluator.EvaluateAnswer(context.Background(), &question, "false")
	require.NoError(t, err)
	assert.Equal(t, 0, eval.AwardedPoints)
	assert.Contains(t, eval.Feedback, "true")

	assert.Zero(t, gen.calls())
}

func TestEvaluateAnswerOpen(t *testing.T) {
	tests := []struct {
		name    string
		reply   func(string) (string, error)
		answer  string
		points  int
		source  recruitment.Source
		callsAI bool
	}{
		{
			name:    "model score clamped",
			reply:   replyWith("SCORE: 14\nSTRENGTHS: claridad\nIMPROVEMENTS: ejemplos\nFEEDBACK: Bien"),
			answer:  "Los canales comunican goroutines",
			points:  10,
			source:  recruitment.SourceModel,
			callsAI: true,
		},
		{
			name:    "neutral on failure",
			reply:   failWith(&ai.GenerationError{Kind: ai.KindPermanent, StatusCode: 400, Err: errors.New("bad request")}),
			answer:  "Los canales comunican goroutines",
			points:  5,
			source:  recruitment.SourceFallback,
			callsAI: true,
		},
		{
			name:    "neutral on parse error",
			reply:   replyWith("no score here"),
			answer:  "algo",
			points:  5,
			source:  recruitment.SourceFallback,
			callsAI: true,
		},
		{
			name:   "empty answer",
			reply:  replyWith("SCORE: 10"),
			answer: "   ",
			points: 0,
			source: recruitment.SourceRule,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &stubGenerator{reply: tt.reply}
			question := openQuestion("q1", 10)

			eval, err := NewEvaluator(gen, nil, EvaluatorOptions{}, nil).EvaluateAnswer(context.Background(), &question, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.points, eval.AwardedPoints)
			assert.Equal(t, 10, eval.MaxPoints)
			assert.Equal(t, tt.source, eval.Source)
			assert.Equal(t, tt.callsAI, gen.calls() == 1)
		})
	}
}

func TestEvaluateAnswerRejectsInvalidQuestion(t *testing.T) {
	_, err := NewEvaluator(nil, nil, EvaluatorOptions{}, nil).EvaluateAnswer(context.Background(), &recruitment.QuestionSpec{Text: "x", Type: recruitment.QuestionOpen}, "y")
	var verr *recruitment.ValidationError
	require.ErrorAs(t, err, &verr)
}

func TestEvaluateTest(t *testing.T) {
	questions := []recruitment.QuestionSpec{
		closedQuestion("q1", "true"),
		openQuestion("q2", 10),
		openQuestion("q3", 10),
	}
	answers := map[string]string{"q1": "TRUE", "q2": "Respuesta"}

	gen := &stubGenerator{reply: replyWith("SCORE: 7\nFEEDBACK: Correcta en general")}
	eval, err := NewEvaluator(gen, nil, EvaluatorOptions{}, nil).EvaluateTest(context.Background(), questions, answers)
	require.NoError(t, err)

	require.Len(t, eval.Answers, 3)
	assert.Equal(t, "q1", eval.Answers[0].QuestionID)
	assert.Equal(t, 5+7+0, eval.TotalPoints)
	assert.Equal(t, 25, eval.TotalMaxPoints)
	assert.Equal(t, recruitment.SourceModel, eval.Source)
	assert.Equal(t, "Puntuación total: 12 de 25 (48%).", eval.OverallFeedback)
	assert.Equal(t, 1, gen.calls())
}

func TestEvaluateTestOneFallbackTaintsAggregate(t *testing.T) {
	questions := []recruitment.QuestionSpec{openQuestion("q1", 10), openQuestion("q2", 4)}
	answers := map[string]string{"q1": "respuesta-uno", "q2": "respuesta-dos"}

	gen := &stubGenerator{reply: func(prompt string) (string, error) {
		if strings.Contains(prompt, "respuesta-dos") {
			return "SCORE: 4", nil
		}
		return "", &ai.GenerationError{Kind: ai.KindTransient, Err: errors.New("timeout")}
	}}

	eval, err := NewEvaluator(gen, nil, EvaluatorOptions{Concurrency: 1}, nil).EvaluateTest(context.Background(), questions, answers)
	require.NoError(t, err)
	assert.Equal(t, recruitment.SourceFallback, eval.Source)
	assert.Contains(t, eval.OverallFeedback, "neutral")
}

func TestEvaluateTestDeadline(t *testing.T) {
	questions := []recruitment.QuestionSpec{openQuestion("q1", 10), openQuestion("q2", 10), openQuestion("q3", 10)}
	answers := map[string]string{"q1": "a", "q2": "b", "q3": "c"}

	gen := &stubGenerator{reply: func(string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "", &ai.GenerationError{Kind: ai.KindTransient, Err: context.DeadlineExceeded}
	}}

	eval, err := NewEvaluator(gen, nil, EvaluatorOptions{Concurrency: 1, BatchTimeout: 10 * time.Millisecond}, nil).
		EvaluateTest(context.Background(), questions, answers)
	require.NoError(t, err)
	require.Len(t, eval.Answers, 3)
	for _, a := range eval.Answers {
		assert.Equal(t, recruitment.SourceFallback, a.Source)
		assert.Equal(t, 5, a.AwardedPoints)
	}
}

func TestEvaluateTestDeadlineKeepsRuleScoring(t *testing.T) {
	questions := []recruitment.QuestionSpec{
		openQuestion("q1", 10),
		openQuestion("q2", 10),
		closedQuestion("q3", "true"),
		openQuestion("q4", 10),
	}
	answers := map[string]string{"q1": "a", "q2": "b", "q3": "TRUE"}

	gen := &stubGenerator{reply: func(string) (string, error) {
		time.Sleep(50 * time.Millisecond)
		return "", &ai.GenerationError{Kind: ai.KindTransient, Err: context.DeadlineExceeded}
	}}

	eval, err := NewEvaluator(gen, nil, EvaluatorOptions{Concurrency: 1, BatchTimeout: 10 * time.Millisecond}, nil).
		EvaluateTest(context.Background(), questions, answers)
	require.NoError(t, err)
	require.Len(t, eval.Answers, 4)

	assert.Equal(t, recruitment.SourceFallback, eval.Answers[0].Source)
	assert.Equal(t, recruitment.SourceFallback, eval.Answers[1].Source)

	assert.Equal(t, "q3", eval.Answers[2].QuestionID)
	assert.Equal(t, recruitment.SourceRule, eval.Answers[2].Source)
	assert.Equal(t, 5, eval.Answers[2].AwardedPoints)

	assert.Equal(t, "q4", eval.Answers[3].QuestionID)
	assert.Equal(t, recruitment.SourceRule, eval.Answers[3].Source)
	assert.Zero(t, eval.Answers[3].AwardedPoints)

	assert.Equal(t, recruitment.SourceFallback, eval.Source)
	assert.LessOrEqual(t, gen.calls(), 2)
}

func TestEvaluateTestCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEvaluator(nil, nil, EvaluatorOptions{}, nil).EvaluateTest(ctx, []recruitment.QuestionSpec{openQuestion("q1", 10)}, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestEvaluateTestRejectsDuplicateIDs(t *testing.T) {
	_, err := NewEvaluator(nil, nil, EvaluatorOptions{}, nil).EvaluateTest(context.Background(),
		[]recruitment.QuestionSpec{openQuestion("q1", 10), openQuestion("q1", 5)}, nil)
	var verr *recruitment.ValidationError
	require.ErrorAs(t, err, &verr)
}
