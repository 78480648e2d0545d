// Package filtersvc is the thin façade of spec.md §4.10: filter,
// matches, and execute over an evaluator, with its own LRU cache keyed
// on the whitespace-normalized pretty-printed form of the parsed
// expression (the normalized raw text when parsing fails, so a failed
// parse still counts as a miss) and hit/miss/average-time counters. It plays
// the same role the teacher's InferenceEngine plays over a Query: a
// small object wrapping a capability the caller would otherwise have
// to wire up by hand every time.
package filtersvc

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/cache"
	"github.com/snomedql/ecl/internal/eval"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/parser"
)

// Service wraps an *eval.Evaluator with a normalized-ECL result cache
// and running timing/hit-miss counters.
type Service struct {
	Evaluator *eval.Evaluator
	cache     *cache.Cache
	logger    *zap.Logger

	execCount int
	totalTime time.Duration
}

func New(evaluator *eval.Evaluator, cacheCfg cache.Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{Evaluator: evaluator, cache: cache.New(cacheCfg, logger), logger: logger}
}

// FilterResult is the outcome of Filter: which candidates matched, how
// many were offered, and how long evaluation took.
type FilterResult struct {
	Kept          []ident.ConceptID
	OriginalCount int
	Elapsed       time.Duration
}

// Filter evaluates ecl once and keeps only the candidates present in
// its result set.
func (s *Service) Filter(ctx context.Context, candidates []ident.ConceptID, ecl string) (FilterResult, error) {
	start := time.Now()
	result, err := s.execute(ctx, ecl)
	if err != nil {
		return FilterResult{}, err
	}
	var kept []ident.ConceptID
	for _, id := range candidates {
		if result.Contains(id) {
			kept = append(kept, id)
		}
	}
	return FilterResult{Kept: kept, OriginalCount: len(candidates), Elapsed: time.Since(start)}, nil
}

// Matches reports whether id is a member of ecl's result set.
func (s *Service) Matches(ctx context.Context, id ident.ConceptID, ecl string) (bool, error) {
	result, err := s.execute(ctx, ecl)
	if err != nil {
		return false, err
	}
	return result.Contains(id), nil
}

// Execute evaluates ecl and returns the full result set.
func (s *Service) Execute(ctx context.Context, ecl string) (eval.Set, error) {
	return s.execute(ctx, ecl)
}

func (s *Service) execute(ctx context.Context, ecl string) (eval.Set, error) {
	n, err := parser.Parse(ecl)
	key := cache.Normalize(ecl)
	if err == nil {
		key = cache.Normalize(ast.Print(n))
	}
	if cached, ok := s.cache.Get(key); ok {
		return cached, nil
	}
	if err != nil {
		return nil, err
	}

	start := time.Now()
	result, _, err := s.Evaluator.Evaluate(ctx, n)
	elapsed := time.Since(start)
	s.execCount++
	s.totalTime += elapsed
	if err != nil {
		// Per spec.md §7 the result cache never records errors.
		return nil, err
	}
	s.cache.Set(key, result)
	return result, nil
}

// WarmResult is the SUPPLEMENTED service/mod.rs warm_cache outcome for
// one expression: it is returned rather than silently swallowed.
type WarmResult struct {
	ECL     string
	Elapsed time.Duration
	Err     error
}

// WarmCache pre-executes every expression in list, populating the
// cache and logging a summary.
func (s *Service) WarmCache(ctx context.Context, list []string) []WarmResult {
	results := make([]WarmResult, 0, len(list))
	var failed int
	for _, ecl := range list {
		start := time.Now()
		_, err := s.execute(ctx, ecl)
		elapsed := time.Since(start)
		if err != nil {
			failed++
		}
		results = append(results, WarmResult{ECL: ecl, Elapsed: elapsed, Err: err})
	}
	s.logger.Info("cache warm-up complete",
		zap.Int("count", len(list)),
		zap.Int("failed", failed),
	)
	return results
}

// CacheStats exposes the underlying cache's hit/miss/eviction counters.
func (s *Service) CacheStats() cache.Stats { return s.cache.Stats() }

// Stats is the running average-time/execution-count snapshot.
type Stats struct {
	ExecCount   int
	TotalTime   time.Duration
	AverageTime time.Duration
}

func (s *Service) Stats() Stats {
	avg := time.Duration(0)
	if s.execCount > 0 {
		avg = s.totalTime / time.Duration(s.execCount)
	}
	return Stats{ExecCount: s.execCount, TotalTime: s.totalTime, AverageTime: avg}
}
