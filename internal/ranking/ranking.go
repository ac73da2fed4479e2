// Package ranking orders the compatibility of one subject against many
// counterparts, bounding the number of concurrent model calls.
package ranking

import (
	"cmp"
	"context"
	"slices"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/talent-match/internal/logger"
	"github.com/spigell/talent-match/internal/recruitment"
)

const (
	// DefaultConcurrency bounds simultaneous pairwise matches when unset.
	DefaultConcurrency = 5
	DefaultLimit       = 10
)

// Matcher computes the compatibility of a single pair.
type Matcher interface {
	Match(ctx context.Context, profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) (*recruitment.MatchResult, error)
	// Fallback scores a pair without calling the model.
	Fallback(profile *recruitment.ProfileSnapshot, vacancy *recruitment.VacancySnapshot) *recruitment.MatchResult
}

// Options configure a Service.
type Options struct {
	// Concurrency bounds simultaneous pairwise matches.
	Concurrency int
	// Limit is used when a call passes a non-positive limit.
	Limit int
	// MinPercentage drops entries below it after sorting, before truncation.
	MinPercentage int
	// BatchTimeout is the overall deadline of a ranking call. Pairs not yet
	// dispatched when it expires are scored by the fallback. Zero disables it.
	BatchTimeout time.Duration
}

// Service ranks one subject against many counterparts.
type Service struct {
	matcher       Matcher
	concurrency   int
	limit         int
	minPercentage int
	batchTimeout  time.Duration
	logger        *zap.Logger
}

// NewService returns a Service, applying defaults for unset options.
func NewService(matcher Matcher, opts Options, log *zap.Logger) *Service {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.Limit <= 0 {
		opts.Limit = DefaultLimit
	}

	return &Service{
		matcher:       matcher,
		concurrency:   opts.Concurrency,
		limit:         opts.Limit,
		minPercentage: recruitment.ClampPercentage(opts.MinPercentage),
		batchTimeout:  opts.BatchTimeout,
		logger:        logger.OrNop(log),
	}
}

type pair struct {
	subjectID string
	profile   *recruitment.ProfileSnapshot
	vacancy   *recruitment.VacancySnapshot
}

type scored struct {
	index     int
	subjectID string
	result    *recruitment.MatchResult
}

// RankCandidatesForVacancy returns the best candidates for vacancy, at most limit entries.
func (s *Service) RankCandidatesForVacancy(ctx context.Context, vacancy *recruitment.VacancySnapshot, candidates []*recruitment.ProfileSnapshot, limit int) ([]recruitment.RankingEntry, error) {
	if err := recruitment.ValidateVacancy(vacancy); err != nil {
		return nil, err
	}

	pairs := make([]pair, 0, len(candidates))
	for _, candidate := range candidates {
		if err := recruitment.ValidateProfile(candidate); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{subjectID: candidate.ID, profile: candidate, vacancy: vacancy})
	}

	all, err := s.rankAll(ctx, pairs, zap.String("vacancy_id", vacancy.ID))
	if err != nil {
		return nil, err
	}
	return s.entries(all, limit), nil
}

// RankVacanciesForCandidate returns the vacancies that suit profile best, at most limit entries.
func (s *Service) RankVacanciesForCandidate(ctx context.Context, profile *recruitment.ProfileSnapshot, vacancies []*recruitment.VacancySnapshot, limit int) ([]recruitment.RankingEntry, error) {
	pairs, err := vacancyPairs(profile, vacancies)
	if err != nil {
		return nil, err
	}

	all, err := s.rankAll(ctx, pairs, zap.String("profile_id", profile.ID))
	if err != nil {
		return nil, err
	}
	return s.entries(all, limit), nil
}

// EnrichWithRanking annotates every vacancy, in input order, with its
// compatibility and rank for profile. No vacancy is filtered or truncated.
func (s *Service) EnrichWithRanking(ctx context.Context, profile *recruitment.ProfileSnapshot, vacancies []*recruitment.VacancySnapshot) ([]recruitment.VacancyCompatibility, error) {
	pairs, err := vacancyPairs(profile, vacancies)
	if err != nil {
		return nil, err
	}

	all, err := s.rankAll(ctx, pairs, zap.String("profile_id", profile.ID))
	if err != nil {
		return nil, err
	}

	enriched := make([]recruitment.VacancyCompatibility, len(pairs))
	for rank, item := range all {
		enriched[item.index] = recruitment.VacancyCompatibility{
			Vacancy:       pairs[item.index].vacancy,
			Compatibility: item.result.Percentage,
			Rank:          rank + 1,
			Source:        item.result.Source,
		}
	}
	return enriched, nil
}

func vacancyPairs(profile *recruitment.ProfileSnapshot, vacancies []*recruitment.VacancySnapshot) ([]pair, error) {
	if err := recruitment.ValidateProfile(profile); err != nil {
		return nil, err
	}

	pairs := make([]pair, 0, len(vacancies))
	for _, vacancy := range vacancies {
		if err := recruitment.ValidateVacancy(vacancy); err != nil {
			return nil, err
		}
		pairs = append(pairs, pair{subjectID: vacancy.ID, profile: profile, vacancy: vacancy})
	}
	return pairs, nil
}

// rankAll matches every pair and returns them sorted. Results are only
// returned once every pair is resolved.
func (s *Service) rankAll(ctx context.Context, pairs []pair, subject zap.Field) ([]scored, error) {
	if len(pairs) == 0 {
		return []scored{}, nil
	}

	batchCtx, cancel := ctx, context.CancelFunc(func() {})
	if s.batchTimeout > 0 {
		batchCtx, cancel = context.WithTimeout(ctx, s.batchTimeout)
	}
	defer cancel()

	results := make([]scored, len(pairs))
	undispatched := 0

	g, gctx := errgroup.WithContext(batchCtx)
	g.SetLimit(s.concurrency)
	for i, p := range pairs {
		results[i] = scored{index: i, subjectID: p.subjectID}

		if gctx.Err() != nil {
			results[i].result = s.matcher.Fallback(p.profile, p.vacancy)
			undispatched++
			continue
		}

		g.Go(func() error {
			result, err := s.matcher.Match(gctx, p.profile, p.vacancy)
			if err != nil {
				return err
			}
			results[i].result = result
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fallbacks := 0
	for i := range results {
		if results[i].result == nil {
			results[i].result = s.matcher.Fallback(pairs[i].profile, pairs[i].vacancy)
		}
		if results[i].result.Source == recruitment.SourceFallback {
			fallbacks++
		}
	}

	slices.SortStableFunc(results, func(a, b scored) int {
		if c := cmp.Compare(b.result.Percentage, a.result.Percentage); c != 0 {
			return c
		}
		return compareIDs(a.subjectID, b.subjectID)
	})

	s.logger.Info("ranking computed",
		subject,
		zap.Int("pairs", len(pairs)),
		zap.Int("fallbacks", fallbacks),
		zap.Int("undispatched", undispatched),
	)

	return results, nil
}

// entries applies the minimum percentage and the limit to a sorted ranking.
func (s *Service) entries(all []scored, limit int) []recruitment.RankingEntry {
	if limit <= 0 {
		limit = s.limit
	}

	entries := make([]recruitment.RankingEntry, 0, min(limit, len(all)))
	for _, item := range all {
		if len(entries) == limit {
			break
		}
		if item.result.Percentage < s.minPercentage {
			// sorted descending, nothing below can qualify
			break
		}
		entries = append(entries, recruitment.RankingEntry{
			SubjectID: item.subjectID,
			Result:    item.result,
			Rank:      len(entries) + 1,
		})
	}
	return entries
}

// compareIDs puts integer ids first in numeric order, then every other id in
// lexicographic order. Integer ids of equal value compare lexicographically.
func compareIDs(a, b string) int {
	na, errA := strconv.ParseInt(a, 10, 64)
	nb, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return cmp.Compare(a, b)
}
