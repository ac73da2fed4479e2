package matching

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/talent-match/internal/ai"
	"github.com/spigell/talent-match/internal/recruitment"
)

type stubGenerator struct {
	mu      sync.Mutex
	reply   string
	err     error
	prompts []string
}

func (s *stubGenerator) Generate(_ context.Context, prompt string, _ int32) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prompts = append(s.prompts, prompt)
	return s.reply, s.err
}

var fixedNow = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(gen ai.TextGenerator, log *zap.Logger) *Engine {
	e := NewEngine(gen, nil, log, 0)
	e.now = func() time.Time { return fixedNow }
	return e
}

func testProfile() *recruitment.ProfileSnapshot {
	return &recruitment.ProfileSnapshot{ID: "c1", Title: "Backend", Skills: []string{"Go", "Docker", "SQL"}, YearsOfExperience: 3}
}

func testVacancy() *recruitment.VacancySnapshot {
	return &recruitment.VacancySnapshot{ID: "v1", Title: "Go developer", RequiredSkills: []string{"Go", "Kubernetes", "SQL"}}
}

func TestMatchUsesModelReply(t *testing.T) {
	gen := &stubGenerator{reply: "SCORE: 87\nSTRENGTHS:\n- Go\n- SQL\nCANDIDATE_MESSAGE: Buen perfil"}

	result, err := newTestEngine(gen, nil).Match(context.Background(), testProfile(), testVacancy())
	require.NoError(t, err)

	assert.Equal(t, 87, result.Percentage)
	assert.Equal(t, []string{"Go", "SQL"}, result.Strengths)
	assert.NotNil(t, result.Weaknesses)
	assert.NotNil(t, result.Recommendations)
	assert.Equal(t, "Buen perfil", result.CandidateMessage)
	assert.Equal(t, recruitment.SourceModel, result.Source)
	assert.Equal(t, fixedNow, result.ComputedAt)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Kubernetes")
}

func TestMatchFallsBackOnGenerationError(t *testing.T) {
	core, observed := observer.New(zapcore.WarnLevel)
	gen := &stubGenerator{err: &ai.GenerationError{Kind: ai.KindTransient, StatusCode: 503, Err: errors.New("unavailable")}}

	result, err := newTestEngine(gen, zap.New(core)).Match(context.Background(), testProfile(), testVacancy())
	require.NoError(t, err)

	assert.Equal(t, 67, result.Percentage)
	assert.Equal(t, []string{"Kubernetes"}, result.Weaknesses)
	assert.Equal(t, recruitment.SourceFallback, result.Source)
	assert.Equal(t, fixedNow, result.ComputedAt)

	entries := observed.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "FALLBACK", entries[0].ContextMap()["source"])
	assert.Equal(t, "v1", entries[0].ContextMap()["vacancy_id"])
}

func TestMatchFallsBackOnParseError(t *testing.T) {
	gen := &stubGenerator{reply: "I think the candidate is fine."}

	result, err := newTestEngine(gen, nil).Match(context.Background(), testProfile(), testVacancy())
	require.NoError(t, err)
	assert.Equal(t, recruitment.SourceFallback, result.Source)
}

func TestMatchWithoutGenerator(t *testing.T) {
	result, err := newTestEngine(nil, nil).Match(context.Background(), testProfile(), testVacancy())
	require.NoError(t, err)
	assert.Equal(t, recruitment.SourceFallback, result.Source)
}

func TestMatchClampsAndKeepsInvariants(t *testing.T) {
	gen := &stubGenerator{reply: "SCORE: 250"}

	result, err := newTestEngine(gen, nil).Match(context.Background(), testProfile(), testVacancy())
	require.NoError(t, err)
	assert.Equal(t, 100, result.Percentage)
	assert.NotNil(t, result.Strengths)
	assert.NotNil(t, result.Weaknesses)
	assert.NotNil(t, result.Recommendations)
}

func TestMatchRejectsInvalidInput(t *testing.T) {
	engine := newTestEngine(&stubGenerator{}, nil)

	_, err := engine.Match(context.Background(), nil, testVacancy())
	var verr *recruitment.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "profile", verr.Subject)

	_, err = engine.Match(context.Background(), testProfile(), &recruitment.VacancySnapshot{ID: "v2"})
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "vacancy", verr.Subject)
}

func TestEngineFallbackStampsTime(t *testing.T) {
	result := newTestEngine(nil, nil).Fallback(testProfile(), testVacancy())
	assert.Equal(t, fixedNow, result.ComputedAt)
	assert.Equal(t, 67, result.Percentage)
}

func TestAnalyze(t *testing.T) {
	tests := []struct {
		name   string
		reply  string
		err    error
		source recruitment.Source
		tier   recruitment.ExperienceTier
		score  int
	}{
		{
			name:   "model reply",
			reply:  "SCORE: 72\nSTRENGTHS:\n- Go\nSKILLS:\n- Go | 80 | 90\nEXPERIENCE_LEVEL: AVANZADO\nCATEGORIES: Backend, DevOps",
			source: recruitment.SourceModel,
			tier:   recruitment.TierAdvanced,
			score:  72,
		},
		{
			name:   "tier derived from years",
			reply:  "SCORE: 40",
			source: recruitment.SourceModel,
			tier:   recruitment.TierIntermediate,
			score:  40,
		},
		{
			name:   "fallback on failure",
			err:    &ai.GenerationError{Kind: ai.KindPermanent, StatusCode: 403, Err: errors.New("forbidden")},
			source: recruitment.SourceFallback,
			tier:   recruitment.TierIntermediate,
			score:  54,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewAnalyzer(&stubGenerator{reply: tt.reply, err: tt.err}, nil, nil)

			analysis, err := analyzer.Analyze(context.Background(), testProfile())
			require.NoError(t, err)
			assert.Equal(t, tt.source, analysis.Source)
			assert.Equal(t, tt.tier, analysis.ExperienceTier)
			assert.Equal(t, tt.score, analysis.OverallScore)
			assert.NotNil(t, analysis.Strengths)
			assert.NotNil(t, analysis.Weaknesses)
			assert.NotNil(t, analysis.Recommendations)
			assert.NotNil(t, analysis.SkillBreakdown)
			assert.NotNil(t, analysis.CompatibleCategories)
		})
	}
}

func TestAnalyzeRejectsMissingID(t *testing.T) {
	_, err := NewAnalyzer(nil, nil, nil).Analyze(context.Background(), &recruitment.ProfileSnapshot{})
	require.Error(t, err)
}
