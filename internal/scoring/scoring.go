// Package scoring fills the score caches of fragment terminations, so that
// traversal results can be aggregated into impact scores.
//
// Foreground terminations are scored from the characterization factors of
// their term flow, process terminations through a ProcessLCIA engine, and the
// process terminations of background fragments through a background.Solver
// whose aggregated inventory is characterized here. Subfragment terminations
// are never scored directly; their caches are written during traversal.
package scoring

import (
	"context"
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/background"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// ProcessLCIA computes the unit impact score of a process per unit of one of
// its reference flows.
type ProcessLCIA interface {
	ProcessLCIA(ctx context.Context, processID string, ref *flow.Flow, q *flow.Quantity) (*lcia.Result, error)
}

// Scorer walks fragment trees and caches unit scores on their terminations.
type Scorer struct {
	lookup    fragment.ChildLookup
	processes ProcessLCIA
	solver    background.Solver
	refresh   bool
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithProcessLCIA sets the engine for foreground process terminations.
func WithProcessLCIA(p ProcessLCIA) Option {
	return func(s *Scorer) { s.processes = p }
}

// WithSolver sets the solver for background fragments.
func WithSolver(bg background.Solver) Option {
	return func(s *Scorer) { s.solver = bg }
}

// WithRefresh recomputes scores that are already cached.
func WithRefresh() Option {
	return func(s *Scorer) { s.refresh = true }
}

// New returns a Scorer over the given fragments.
func New(lookup fragment.ChildLookup, opts ...Option) *Scorer {
	s := &Scorer{lookup: lookup}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score caches, for every quantity, a unit score on each termination of the
// fragment's tree and of every tree it reaches through subfragment or
// background terminations. It returns the number of scores written.
func (s *Scorer) Score(ctx context.Context, id fragid.ID, quantities ...*flow.Quantity) (int, error) {
	frag, ok := s.lookup.Get(id)
	if !ok {
		return 0, fmt.Errorf("score: %w: %s", fragment.ErrNotFound, id)
	}
	top, err := fragment.Top(s.lookup, frag)
	if err != nil {
		return 0, err
	}
	w := &walk{Scorer: s, seen: make(map[fragid.ID]struct{}), quantities: quantities}
	if err := w.tree(ctx, top); err != nil {
		return w.written, err
	}
	ctxlog.FromContext(ctx).Debug("Scores cached.",
		"fragment", id.Short(), "quantities", len(quantities), "written", w.written)
	return w.written, nil
}

type walk struct {
	*Scorer
	seen       map[fragid.ID]struct{}
	quantities []*flow.Quantity
	written    int
}

func (w *walk) tree(ctx context.Context, top *fragment.Fragment) error {
	if _, ok := w.seen[top.ID]; ok {
		return nil
	}
	w.seen[top.ID] = struct{}{}

	for _, f := range fragment.Tree(w.lookup, top) {
		for _, key := range append([]string{""}, f.TerminationKeys()...) {
			sc := scenario.None()
			if key != "" {
				sc = scenario.Named(key)
			}
			term, err := f.Termination(sc)
			if err != nil {
				return err
			}

			if term.Kind() == fragment.Subfragment || term.Kind() == fragment.Background {
				target, ok := w.lookup.Get(term.Target())
				if !ok {
					return fmt.Errorf("score %s: %w: %s", f, fragment.ErrNotFound, term.Target())
				}
				next, err := fragment.Top(w.lookup, target)
				if err != nil {
					return err
				}
				if err := w.tree(ctx, next); err != nil {
					return err
				}
				continue
			}

			for _, q := range w.quantities {
				if !w.refresh && term.HasScore(q.ID) {
					continue
				}
				res, err := w.unitScore(ctx, f, term, q)
				if err != nil {
					return fmt.Errorf("score %s for %s: %w", f, q, err)
				}
				if res == nil {
					continue
				}
				term.SetScore(res)
				w.written++
			}
		}
	}
	return nil
}

// unitScore computes the score of one unit of the termination's term flow.
// A nil result means the termination cannot be scored by this Scorer.
func (s *Scorer) unitScore(ctx context.Context, f *fragment.Fragment, term *fragment.Termination, q *flow.Quantity) (*lcia.Result, error) {
	switch term.Kind() {
	case fragment.Foreground:
		return foregroundScore(f, term, q)

	case fragment.Process:
		proc := term.Process()
		if f.IsBackground() && s.solver != nil {
			lci, err := s.solver.LCI(ctx, proc.ID, term.ProcessReference())
			if err != nil {
				return nil, err
			}
			return background.Characterize(proc, lci, q)
		}
		if s.processes == nil {
			ctxlog.FromContext(ctx).Debug("No process LCIA engine, leaving termination unscored.",
				"fragment", f.ID.Short(), "process", proc.ID)
			return nil, nil
		}
		return s.processes.ProcessLCIA(ctx, proc.ID, term.ProcessReference(), q)
	}
	return nil, nil
}

// foregroundScore scores a fragment that is its own termination: its flow
// is characterized directly. The flow's own reference quantity is not an
// impact.
func foregroundScore(f *fragment.Fragment, term *fragment.Termination, q *flow.Quantity) (*lcia.Result, error) {
	res := lcia.NewResult(q, "")
	tf := term.TermFlow()
	if tf.ReferenceQuantity != nil && tf.ReferenceQuantity.ID == q.ID {
		return res, nil
	}
	cf := tf.CF(q)
	if cf == 0 {
		return res, nil
	}
	key := f.ID.String()
	if err := res.AddScore(key, lcia.DetailedResult{
		Process:       key,
		Flow:          tf.ID,
		Direction:     term.Direction(),
		ExchangeValue: 1,
		Factor:        cf,
		Quantity:      q,
	}); err != nil {
		return nil, err
	}
	return res, nil
}
