// Package eval is the recursive AST interpreter (spec.md §4.5): given
// a store.Queryable and an internal/ast.Node it produces a Set of
// concept IDs. And/Or operand evaluation fans out through
// golang.org/x/sync/errgroup when Config.Parallel is set, generalizing
// the teacher's composite_queries.go executeConcurrent
// goroutine+channel+context-cancellation pattern onto errgroup's
// narrower, easier-to-audit API.
package eval

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/snomedql/ecl/internal/ast"
	"github.com/snomedql/ecl/internal/hierarchy"
	"github.com/snomedql/ecl/internal/ident"
	"github.com/snomedql/ecl/internal/store"
)

// IntermediateCache is satisfied by internal/cache.Cache; it is kept
// as a narrow interface here so eval never imports the cache package
// (which itself has no reason to import eval), avoiding a cycle.
type IntermediateCache interface {
	Get(key string) (Set, bool)
	Set(key string, value Set)
}

// Config mirrors the executor-facing subset of ExecutorConfig
// (spec.md §6) that actually changes evaluator behavior.
type Config struct {
	Parallel   bool
	MaxResults int // 0 means unlimited
	Timeout    time.Duration
}

// Stats is the advisory counter pair spec.md §4.5/§9 describes:
// "counter fields are advisory; exact equality is not an invariant."
type Stats struct {
	Traversed int
}

// Evaluator binds one store.Queryable and its hierarchy traverser to a
// Config for the duration of a single Evaluate call's recursion.
type Evaluator struct {
	Store        store.Queryable
	Trav         *hierarchy.Traverser
	Config       Config
	Logger       *zap.Logger
	Intermediate IntermediateCache // nil disables cache-intermediates mode
}

func New(s store.Queryable, cfg Config) *Evaluator {
	return &Evaluator{Store: s, Trav: hierarchy.New(s), Config: cfg, Logger: zap.NewNop()}
}

type ctxState struct {
	traversed atomic.Int64
	deadline  time.Time
}

// Evaluate runs n to completion against e.Store.
func (e *Evaluator) Evaluate(ctx context.Context, n ast.Node) (Set, Stats, error) {
	st := &ctxState{}
	if e.Config.Timeout > 0 {
		st.deadline = time.Now().Add(e.Config.Timeout)
	}
	result, err := e.eval(ctx, st, n)
	if err != nil {
		return nil, Stats{Traversed: int(st.traversed.Load())}, err
	}
	if e.Config.MaxResults > 0 && len(result) > e.Config.MaxResults {
		return nil, Stats{Traversed: int(st.traversed.Load())}, &ResultTooLarge{Count: len(result), Limit: e.Config.MaxResults}
	}
	return result, Stats{Traversed: int(st.traversed.Load())}, nil
}

func (e *Evaluator) checkBudget(ctx context.Context, st *ctxState) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if !st.deadline.IsZero() && time.Now().After(st.deadline) {
		return &Timeout{Duration: e.Config.Timeout}
	}
	return nil
}

// checkMaxResultsEarly implements the SUPPLEMENTED max_results
// short-circuit: checked after every union step (Or, MemberOf) rather
// than only once at the very end.
func (e *Evaluator) checkMaxResultsEarly(s Set) error {
	if e.Config.MaxResults > 0 && len(s) > e.Config.MaxResults {
		return &ResultTooLarge{Count: len(s), Limit: e.Config.MaxResults}
	}
	return nil
}

func (e *Evaluator) eval(ctx context.Context, st *ctxState, n ast.Node) (Set, error) {
	if e.Intermediate != nil {
		key := ast.Print(n)
		if cached, ok := e.Intermediate.Get(key); ok {
			return cached, nil
		}
		result, err := e.evalUncached(ctx, st, n)
		if err != nil {
			return nil, err
		}
		e.Intermediate.Set(key, result)
		return result, nil
	}
	return e.evalUncached(ctx, st, n)
}

func (e *Evaluator) evalUncached(ctx context.Context, st *ctxState, n ast.Node) (Set, error) {
	switch v := n.(type) {
	case ast.Nested:
		return e.eval(ctx, st, v.Inner)

	case ast.Any:
		st.traversed.Add(int64(len(e.Store.AllConcepts())))
		return NewSet(e.Store.AllConcepts()...), nil

	case ast.ConceptReference:
		if !e.Store.HasConcept(v.ID) {
			return nil, conceptNotFound(v.ID)
		}
		return NewSet(v.ID), nil

	case ast.AlternateIdentifier:
		id, ok := e.Store.ResolveAlternateIdentifier(v.Scheme, v.Identifier)
		if !ok {
			return NewSet(), nil
		}
		return NewSet(id), nil

	case ast.ConceptSet:
		out := NewSet()
		for _, id := range v.IDs {
			if e.Store.HasConcept(id) {
				out.Add(id)
			}
		}
		return out, nil

	case ast.Hierarchy:
		return e.evalHierarchy(st, v)

	case ast.MemberOf:
		return e.evalMemberOf(ctx, st, v)

	case ast.Binary:
		return e.evalBinary(ctx, st, v)

	case ast.Refined:
		return e.evalRefined(ctx, st, v)

	case ast.DotNotation:
		return e.evalDot(ctx, st, v)

	case ast.Concrete:
		// Top-level concrete value: only meaningful inside a
		// refinement; spec.md §4.5 defines this as the empty set.
		return NewSet(), nil

	case ast.Filtered:
		base, err := e.eval(ctx, st, v.Expr)
		if err != nil {
			return nil, err
		}
		for _, f := range v.Filters {
			base = e.applyFilter(base, f)
		}
		return base, nil

	case ast.TopOfSet:
		inner, err := e.eval(ctx, st, v.Inner)
		if err != nil {
			return nil, err
		}
		return e.topOfSet(inner), nil

	case ast.BottomOfSet:
		inner, err := e.eval(ctx, st, v.Inner)
		if err != nil {
			return nil, err
		}
		return e.bottomOfSet(inner), nil

	default:
		return nil, &UnsupportedFeature{Description: "unknown AST node"}
	}
}

func (e *Evaluator) evalHierarchy(st *ctxState, v ast.Hierarchy) (Set, error) {
	focus, ok := singleConcept(v.Inner)
	if !ok {
		return nil, &UnsupportedFeature{Description: "hierarchy operator requires a single concept reference operand"}
	}
	if !e.Store.HasConcept(focus) {
		return nil, conceptNotFound(focus)
	}
	var ids []ident.ConceptID
	switch v.Kind {
	case ast.DescendantOf:
		ids = e.Trav.Descendants(focus)
	case ast.DescendantOrSelfOf:
		ids = e.Trav.DescendantsOrSelf(focus)
	case ast.AncestorOf:
		ids = e.Trav.Ancestors(focus)
	case ast.AncestorOrSelfOf:
		ids = e.Trav.AncestorsOrSelf(focus)
	case ast.ChildOf:
		ids = e.Trav.Children(focus)
	case ast.ChildOrSelfOf:
		ids = e.Trav.ChildrenOrSelf(focus)
	case ast.ParentOf:
		ids = e.Trav.Parents(focus)
	case ast.ParentOrSelfOf:
		ids = e.Trav.ParentsOrSelf(focus)
	}
	st.traversed.Add(int64(len(ids)))
	return NewSet(ids...), nil
}

// singleConcept unwraps Nested and reports whether n is exactly one
// ConceptReference, per spec.md §4.5's requirement for hierarchy
// operator operands.
func singleConcept(n ast.Node) (ident.ConceptID, bool) {
	for {
		if nested, ok := n.(ast.Nested); ok {
			n = nested.Inner
			continue
		}
		break
	}
	if ref, ok := n.(ast.ConceptReference); ok {
		return ref.ID, true
	}
	return 0, false
}

func isAny(n ast.Node) bool {
	for {
		if nested, ok := n.(ast.Nested); ok {
			n = nested.Inner
			continue
		}
		break
	}
	_, ok := n.(ast.Any)
	return ok
}

func (e *Evaluator) evalMemberOf(ctx context.Context, st *ctxState, v ast.MemberOf) (Set, error) {
	refsets, err := e.eval(ctx, st, v.RefsetExpr)
	if err != nil {
		return nil, err
	}
	out := NewSet()
	for r := range refsets {
		members := e.Store.GetRefsetMembers(r)
		st.traversed.Add(int64(len(members)))
		if len(refsets) == 1 && len(members) == 0 {
			return nil, refsetNotFound(r)
		}
		for _, m := range members {
			out.Add(m)
		}
		if err := e.checkMaxResultsEarly(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (e *Evaluator) evalBinary(ctx context.Context, st *ctxState, v ast.Binary) (Set, error) {
	if err := e.checkBudget(ctx, st); err != nil {
		return nil, err
	}

	var left, right Set
	var err error
	if e.Config.Parallel {
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var gerr error
			left, gerr = e.eval(gctx, st, v.Left)
			return gerr
		})
		g.Go(func() error {
			var gerr error
			right, gerr = e.eval(gctx, st, v.Right)
			return gerr
		})
		err = g.Wait()
	} else {
		left, err = e.eval(ctx, st, v.Left)
		if err == nil {
			right, err = e.eval(ctx, st, v.Right)
		}
	}
	if err != nil {
		return nil, err
	}

	switch v.Kind {
	case ast.And:
		return left.Intersect(right), nil
	case ast.Or:
		out := left.Union(right)
		if err := e.checkMaxResultsEarly(out); err != nil {
			return nil, err
		}
		return out, nil
	case ast.Minus:
		return left.Minus(right), nil
	default:
		return nil, &UnsupportedFeature{Description: "unknown binary operator"}
	}
}

func (e *Evaluator) evalDot(ctx context.Context, st *ctxState, v ast.DotNotation) (Set, error) {
	source, err := e.eval(ctx, st, v.Source)
	if err != nil {
		return nil, err
	}
	typeSet, err := e.eval(ctx, st, v.Attribute)
	if err != nil {
		return nil, err
	}
	any := isAny(v.Attribute)
	out := NewSet()
	for s := range source {
		attrs := e.Store.GetAttributes(s)
		st.traversed.Add(int64(len(attrs)))
		for _, r := range attrs {
			if any || typeSet.Contains(r.TypeID) {
				out.Add(r.DestinationID)
			}
		}
	}
	return out, nil
}

func (e *Evaluator) topOfSet(s Set) Set {
	out := NewSet()
	for x := range s {
		hasAncestorInSet := false
		for _, a := range e.Trav.Ancestors(x) {
			if s.Contains(a) {
				hasAncestorInSet = true
				break
			}
		}
		if !hasAncestorInSet {
			out.Add(x)
		}
	}
	return out
}

func (e *Evaluator) bottomOfSet(s Set) Set {
	out := NewSet()
	for x := range s {
		hasDescendantInSet := false
		for _, d := range e.Trav.Descendants(x) {
			if s.Contains(d) {
				hasDescendantInSet = true
				break
			}
		}
		if !hasDescendantInSet {
			out.Add(x)
		}
	}
	return out
}
