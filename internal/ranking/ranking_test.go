package ranking

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/talent-match/internal/recruitment"
)

// stubMatcher scores pairs from a table keyed by the id of the ranked subject.
type stubMatcher struct {
	byVacancy bool
	scores    map[string]int
	delay     time.Duration

	calls     atomic.Int32
	inFlight  atomic.Int32
	maxFlight atomic.Int32
	mu        sync.Mutex
	fallbacks []string
}

func (m *stubMatcher) key(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) string {
	if m.byVacancy {
		return vacancy.ID
	}
	return profile.ID
}

func (m *stubMatcher) Match(ctx context.Context, profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) (*recruitment.MatchResult, error) {
	m.calls.Add(1)
	current := m.inFlight.Add(1)
	defer m.inFlight.Add(-1)
	for {
		seen := m.maxFlight.Load()
		if current <= seen || m.maxFlight.CompareAndSwap(seen, current) {
			break
		}
	}

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return m.Fallback(profile, vacancy), nil
		}
	}

	return &recruitment.MatchResult{
		Percentage:      m.scores[m.key(profile, vacancy)],
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		Source:          recruitment.SourceModel,
	}, nil
}

func (m *stubMatcher) Fallback(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) *recruitment.MatchResult {
	m.mu.Lock()
	m.fallbacks = append(m.fallbacks, m.key(profile, vacancy))
	m.mu.Unlock()
	return &recruitment.MatchResult{
		Percentage:      1,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
		Source:          recruitment.SourceFallback,
	}
}

func candidates(ids ...string) []*recruitment.ProfileSnapshot {
	out := make([]*recruitment.ProfileSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, &recruitment.ProfileSnapshot{ID: id})
	}
	return out
}

func vacancies(ids ...string) []*recruitment.VacancySnapshot {
	out := make([]*recruitment.VacancySnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, &recruitment.VacancySnapshot{ID: id, Title: "vacancy " + id})
	}
	return out
}

var testVacancy = &recruitment.VacancySnapshot{ID: "v1", Title: "Backend"}

func subjectIDs(entries []recruitment.RankingEntry) []string {
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SubjectID)
	}
	return ids
}

func TestRankCandidatesReturnsTrueTopOfFullSet(t *testing.T) {
	scores := map[string]int{}
	ids := make([]string, 0, 10)
	for i := 1; i <= 10; i++ {
		id := fmt.Sprintf("c%02d", i)
		ids = append(ids, id)
		scores[id] = (i * 37) % 100
	}
	// the best three sit at the end of the input
	scores["c08"], scores["c09"], scores["c10"] = 97, 98, 99

	matcher := &stubMatcher{scores: scores}
	service := NewService(matcher, Options{}, nil)

	entries, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, candidates(ids...), 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"c10", "c09", "c08"}, subjectIDs(entries))
	for i, e := range entries {
		assert.Equal(t, i+1, e.Rank)
	}
	assert.EqualValues(t, 10, matcher.calls.Load())
}

func TestRankingTieBreakIsStable(t *testing.T) {
	matcher := &stubMatcher{scores: map[string]int{"10": 80, "9": 80, "2": 80, "b": 50, "a": 50, "1": 20}}
	service := NewService(matcher, Options{}, nil)

	input := candidates("b", "10", "1", "a", "9", "2")
	first, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, input, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "9", "10", "a", "b", "1"}, subjectIDs(first))

	for range 5 {
		again, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, input, 0)
		require.NoError(t, err)
		assert.Equal(t, subjectIDs(first), subjectIDs(again))
	}
}

func TestRankingMixedIDsIgnoreInputOrder(t *testing.T) {
	matcher := &stubMatcher{scores: map[string]int{"2": 80, "10": 80, "1a": 80}}
	service := NewService(matcher, Options{Concurrency: 1}, nil)

	orders := [][]string{
		{"2", "10", "1a"},
		{"2", "1a", "10"},
		{"10", "2", "1a"},
		{"10", "1a", "2"},
		{"1a", "2", "10"},
		{"1a", "10", "2"},
	}
	for _, order := range orders {
		entries, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, candidates(order...), 0)
		require.NoError(t, err)
		assert.Equal(t, []string{"2", "10", "1a"}, subjectIDs(entries), "input order %v", order)
	}
}

func TestRankingEmptyInput(t *testing.T) {
	service := NewService(&stubMatcher{}, Options{}, nil)

	entries, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, nil, 5)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestRankingRejectsInvalidSnapshots(t *testing.T) {
	service := NewService(&stubMatcher{}, Options{}, nil)

	_, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, candidates("c1", ""), 5)
	var verr *recruitment.ValidationError
	require.ErrorAs(t, err, &verr)

	_, err = service.RankVacanciesForCandidate(context.Background(), nil, vacancies("v1"), 5)
	require.ErrorAs(t, err, &verr)
}

func TestRankingDefaultLimitAndMinimum(t *testing.T) {
	scores := map[string]int{}
	ids := make([]string, 0, 15)
	for i := 1; i <= 15; i++ {
		id := itoa(i)
		ids = append(ids, id)
		scores[id] = i * 5
	}

	matcher := &stubMatcher{scores: scores}

	entries, err := NewService(matcher, Options{}, nil).RankCandidatesForVacancy(context.Background(), testVacancy, candidates(ids...), 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLimit)
	assert.Equal(t, "15", entries[0].SubjectID)

	entries, err = NewService(matcher, Options{MinPercentage: 60}, nil).RankCandidatesForVacancy(context.Background(), testVacancy, candidates(ids...), 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"15", "14", "13", "12"}, subjectIDs(entries))
}

func itoa(i int) string { return fmt.Sprintf("%d", i) }

func TestRankingBoundsConcurrency(t *testing.T) {
	ids := make([]string, 0, 12)
	for i := range 12 {
		ids = append(ids, itoa(i))
	}
	matcher := &stubMatcher{scores: map[string]int{}, delay: 20 * time.Millisecond}

	_, err := NewService(matcher, Options{Concurrency: 2}, nil).RankCandidatesForVacancy(context.Background(), testVacancy, candidates(ids...), 0)
	require.NoError(t, err)
	assert.LessOrEqual(t, matcher.maxFlight.Load(), int32(2))
	assert.EqualValues(t, 12, matcher.calls.Load())
}

func TestRankingBatchDeadlineUsesFallback(t *testing.T) {
	ids := make([]string, 0, 6)
	for i := range 6 {
		ids = append(ids, itoa(i))
	}
	matcher := &stubMatcher{scores: map[string]int{}, delay: time.Second}
	service := NewService(matcher, Options{Concurrency: 1, BatchTimeout: 30 * time.Millisecond}, nil)

	entries, err := service.RankCandidatesForVacancy(context.Background(), testVacancy, candidates(ids...), 0)
	require.NoError(t, err)
	require.Len(t, entries, 6)
	for _, e := range entries {
		assert.Equal(t, recruitment.SourceFallback, e.Result.Source)
	}
	assert.Less(t, matcher.calls.Load(), int32(6))
}

func TestRankingCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewService(&stubMatcher{}, Options{}, nil).RankCandidatesForVacancy(ctx, testVacancy, candidates("c1", "c2"), 0)
	require.ErrorIs(t, err, context.Canceled)
}

func TestRankVacanciesForCandidate(t *testing.T) {
	matcher := &stubMatcher{byVacancy: true, scores: map[string]int{"v1": 40, "v2": 90, "v3": 65}}
	profile := &recruitment.ProfileSnapshot{ID: "c1"}

	entries, err := NewService(matcher, Options{}, nil).RankVacanciesForCandidate(context.Background(), profile, vacancies("v1", "v2", "v3"), 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"v2", "v3"}, subjectIDs(entries))
	assert.Equal(t, 90, entries[0].Result.Percentage)
}

func TestEnrichWithRanking(t *testing.T) {
	matcher := &stubMatcher{byVacancy: true, scores: map[string]int{"v1": 40, "v2": 90, "v3": 65}}
	profile := &recruitment.ProfileSnapshot{ID: "c1"}

	// limit and minimum never apply to enrichment
	service := NewService(matcher, Options{Limit: 1, MinPercentage: 50}, nil)
	enriched, err := service.EnrichWithRanking(context.Background(), profile, vacancies("v1", "v2", "v3"))
	require.NoError(t, err)
	require.Len(t, enriched, 3)

	assert.Equal(t, "v1", enriched[0].Vacancy.ID)
	assert.Equal(t, 40, enriched[0].Compatibility)
	assert.Equal(t, 3, enriched[0].Rank)
	assert.Equal(t, 1, enriched[1].Rank)
	assert.Equal(t, 2, enriched[2].Rank)
	assert.Equal(t, recruitment.SourceModel, enriched[2].Source)
}

func TestCompareIDs(t *testing.T) {
	assert.Negative(t, compareIDs("2", "10"))
	assert.Positive(t, compareIDs("b", "a"))
	assert.Negative(t, compareIDs("10", "a"))
	assert.Zero(t, compareIDs("7", "7"))
	assert.Negative(t, compareIDs("10", "1a"))
	assert.Positive(t, compareIDs("1a", "2"))
	assert.Negative(t, compareIDs("2", "1a"))
	assert.Negative(t, compareIDs("07", "7"))
}
