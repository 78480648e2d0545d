// Package ecl is the library surface of spec.md §6: parsing, the
// Executor and its convenience methods, and the error taxonomy callers
// see. It composes internal/parser, internal/eval, internal/cache, and
// internal/hierarchy the way the teacher's main.go composes
// internal/parser, internal/engine, and internal/query — a thin
// top-level binding over packages that do the actual work.
package ecl

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/cache"
	"github.com/snomedql/ecl/internal/eval"
	"github.com/snomedql/ecl/internal/hierarchy"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/parser"
	"github.com/snomedql/ecl/internal/planner"
	"github.com/snomedql/ecl/internal/store"
)

// ConceptID re-exports internal/ident.ConceptID so callers never need
// to import an internal package.
type ConceptID = ident.ConceptID

// CacheConfig mirrors spec.md §6.
type CacheConfig struct {
	MaxEntries         int
	TTL                time.Duration
	CacheIntermediates bool
}

// ExecutorConfig mirrors spec.md §6.
type ExecutorConfig struct {
	Cache      CacheConfig
	Parallel   bool
	MaxResults int
	Timeout    time.Duration
	Logger     *zap.Logger
}

// DefaultExecutorConfig is a reasonable, if conservative, default:
// caching on, no parallelism, no limits.
func DefaultExecutorConfig() ExecutorConfig {
	return ExecutorConfig{
		Cache: CacheConfig{MaxEntries: 1024, TTL: 10 * time.Minute},
	}
}

// Stats is the per-execution result metadata of spec.md §6:
// Executor.execute → {concept_ids, stats{elapsed, traversed, cache_hit}}.
type Stats struct {
	Elapsed   time.Duration
	Traversed int
	CacheHit  bool
}

// Executor binds one store.Queryable to parsing, evaluation, and
// caching for repeated query execution.
type Executor struct {
	store     store.Queryable
	trav      *hierarchy.Traverser
	evaluator *eval.Evaluator
	cache     *cache.Cache
	config    ExecutorConfig
	logger    *zap.Logger
}

// New constructs an Executor with DefaultExecutorConfig.
func New(s store.Queryable) *Executor {
	return NewWithConfig(s, DefaultExecutorConfig())
}

// NewWithConfig constructs an Executor against cfg.
func NewWithConfig(s store.Queryable, cfg ExecutorConfig) *Executor {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	evalCfg := eval.Config{Parallel: cfg.Parallel, MaxResults: cfg.MaxResults, Timeout: cfg.Timeout}
	evaluator := eval.New(s, evalCfg)
	evaluator.Logger = logger

	c := cache.New(cache.Config{
		MaxEntries:         cfg.Cache.MaxEntries,
		TTL:                cfg.Cache.TTL,
		CacheIntermediates: cfg.Cache.CacheIntermediates,
	}, logger)

	if cfg.Cache.CacheIntermediates {
		evaluator.Intermediate = c
	}

	return &Executor{
		store:     s,
		trav:      hierarchy.New(s),
		evaluator: evaluator,
		cache:     c,
		config:    cfg,
		logger:    logger,
	}
}

// Parse parses ECL source into an AST, per spec.md §6.
func Parse(text string) (ast.Node, error) {
	return parser.Parse(text)
}

// Execute parses ecl and evaluates it, consulting the result cache
// first. The cache key is the whitespace-normalized pretty-printed AST,
// so inputs that differ only in spacing share one entry.
func (ex *Executor) Execute(ctx context.Context, ecl string) ([]ident.ConceptID, Stats, error) {
	start := time.Now()
	n, err := parser.Parse(ecl)
	if err != nil {
		return nil, Stats{Elapsed: time.Since(start)}, err
	}
	key := cache.Normalize(ast.Print(n))
	if cached, ok := ex.cache.Get(key); ok {
		return cached.Sorted(), Stats{Elapsed: time.Since(start), CacheHit: true}, nil
	}

	result, evalStats, err := ex.evaluator.Evaluate(ctx, n)
	if err != nil {
		return nil, Stats{Elapsed: time.Since(start), Traversed: evalStats.Traversed}, err
	}
	ex.cache.Set(key, result)
	return result.Sorted(), Stats{Elapsed: time.Since(start), Traversed: evalStats.Traversed}, nil
}

// ExecuteAST evaluates an already-parsed AST without consulting or
// filling the result cache.
func (ex *Executor) ExecuteAST(ctx context.Context, n ast.Node) ([]ident.ConceptID, Stats, error) {
	start := time.Now()
	result, evalStats, err := ex.evaluator.Evaluate(ctx, n)
	if err != nil {
		return nil, Stats{Elapsed: time.Since(start), Traversed: evalStats.Traversed}, err
	}
	return result.Sorted(), Stats{Elapsed: time.Since(start), Traversed: evalStats.Traversed}, nil
}

// Matches reports whether id is in ecl's result set.
func (ex *Executor) Matches(ctx context.Context, id ident.ConceptID, ecl string) (bool, error) {
	ids, _, err := ex.Execute(ctx, ecl)
	if err != nil {
		return false, err
	}
	for _, x := range ids {
		if x == id {
			return true, nil
		}
	}
	return false, nil
}

// IsSubsumedBy is a direct IS-A closure test bypassing ECL parsing
// entirely: is parent a (possibly indirect, possibly self) ancestor of
// child.
func (ex *Executor) IsSubsumedBy(child, parent ident.ConceptID) bool {
	if child == parent {
		return true
	}
	return ex.trav.IsAncestor(parent, child)
}

// Explain produces a non-executing QueryPlan for ecl.
func (ex *Executor) Explain(ecl string) (planner.QueryPlan, error) {
	n, err := parser.Parse(ecl)
	if err != nil {
		return planner.QueryPlan{}, err
	}
	return planner.Plan(n, planner.DefaultStatistics()), nil
}

// GetAncestors returns id's ancestors as a sorted vector.
func (ex *Executor) GetAncestors(id ident.ConceptID) []ident.ConceptID {
	return sortedIDs(ex.trav.Ancestors(id))
}

// GetDescendants returns id's descendants as a sorted vector.
func (ex *Executor) GetDescendants(id ident.ConceptID) []ident.ConceptID {
	return sortedIDs(ex.trav.Descendants(id))
}

// GetDescendantsLimited returns at most n descendants of id, reached by
// breadth-first order truncated at the limit.
func (ex *Executor) GetDescendantsLimited(id ident.ConceptID, n int) []ident.ConceptID {
	visited := map[ident.ConceptID]bool{id: true}
	queue := []ident.ConceptID{id}
	var out []ident.ConceptID
	for len(queue) > 0 && len(out) < n {
		cur := queue[0]
		queue = queue[1:]
		for _, c := range ex.store.GetChildren(cur) {
			if visited[c] {
				continue
			}
			visited[c] = true
			out = append(out, c)
			if len(out) >= n {
				break
			}
			queue = append(queue, c)
		}
	}
	return sortedIDs(out)
}

// GetParents returns id's direct parents as a sorted vector.
func (ex *Executor) GetParents(id ident.ConceptID) []ident.ConceptID {
	return sortedIDs(ex.store.GetParents(id))
}

// GetChildren returns id's direct children as a sorted vector.
func (ex *Executor) GetChildren(id ident.ConceptID) []ident.ConceptID {
	return sortedIDs(ex.store.GetChildren(id))
}

// CacheStats exposes the executor's result-cache counters.
func (ex *Executor) CacheStats() cache.Stats { return ex.cache.Stats() }

func sortedIDs(ids []ident.ConceptID) []ident.ConceptID {
	out := make([]ident.ConceptID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
