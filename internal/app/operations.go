package app

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/report"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
	"github.com/specialistvlad/fragmentgo/internal/traversal"
)

// Request names a fragment and the scenario to evaluate it under.
type Request struct {
	Fragment string
	// Scenario lists the members of the scenario in effect; several
	// members form a tuple.
	Scenario []string
	Observed bool
}

// Spec is the scenario specifier of the request.
func (r Request) Spec() scenario.Spec {
	return scenario.Tuple(r.Scenario...)
}

// Traverse prints the fragment-flow records of a traversal.
func (a *App) Traverse(ctx context.Context, req Request) ([]traversal.FragmentFlow, error) {
	ctx = a.context(ctx)
	start := time.Now()
	f, err := a.Fragment(req.Fragment)
	if err != nil {
		return nil, err
	}
	records, err := a.traverser.Traverse(ctx, f.ID, req.Spec(), req.Observed)
	a.metrics.Observe("traverse", start, len(records), err)
	if err != nil {
		return nil, err
	}
	a.logger.Info("Traversal complete.", "fragment", f.Name, "scenario", req.Spec().String(), "records", len(records))
	return records, report.Traversal(a.outW, a.model.Store, records)
}

// Inventory prints the net boundary flows of a fragment.
func (a *App) Inventory(ctx context.Context, req Request) error {
	ctx = a.context(ctx)
	start := time.Now()
	f, err := a.Fragment(req.Fragment)
	if err != nil {
		return err
	}
	exchanges, err := a.traverser.Inventory(ctx, f.ID, req.Spec(), req.Observed)
	a.metrics.Observe("inventory", start, len(exchanges), err)
	if err != nil {
		return err
	}
	return report.Inventory(a.outW, exchanges)
}

// Tree prints a fragment tree.
func (a *App) Tree(ctx context.Context, req Request) error {
	start := time.Now()
	f, err := a.Fragment(req.Fragment)
	if err != nil {
		return err
	}
	err = report.Tree(a.outW, a.model.Store, f.ID, req.Spec(), req.Observed)
	a.metrics.Observe("tree", start, 0, err)
	return err
}

// Scenarios lists the scenario names known in a fragment's tree.
func (a *App) Scenarios(ctx context.Context, ref string) ([]string, error) {
	f, err := a.Fragment(ref)
	if err != nil {
		return nil, err
	}
	names, err := a.model.Store.Scenarios(f.ID)
	if err != nil {
		return nil, err
	}
	for _, n := range names {
		if _, err := fmt.Fprintln(a.outW, n); err != nil {
			return nil, err
		}
	}
	return names, nil
}

// quantities resolves quantity IDs, defaulting to every impact category.
func (a *App) quantities(ids []string) ([]*flow.Quantity, error) {
	if len(ids) == 0 {
		return a.model.Catalog.Methods(), nil
	}
	out := make([]*flow.Quantity, 0, len(ids))
	for _, id := range ids {
		q, ok := a.model.Catalog.Quantity(id)
		if !ok {
			return nil, fmt.Errorf("unknown quantity %q", id)
		}
		out = append(out, q)
	}
	return out, nil
}

// LCIA scores a fragment under one scenario and prints one result per
// quantity. With stages set, components are grouped by stage.
func (a *App) LCIA(ctx context.Context, req Request, quantityIDs []string, stages bool) (*lcia.Results, error) {
	all, err := a.LCIAScenarios(ctx, req.Fragment, []scenario.Spec{req.Spec()}, req.Observed, quantityIDs)
	if err != nil {
		return nil, err
	}
	results := all[0]

	printed := make([]*lcia.Result, 0, results.Len())
	for _, res := range results.List() {
		if stages {
			if res, err = res.Aggregate(traversal.StageKey); err != nil {
				return nil, err
			}
		}
		printed = append(printed, res)
	}
	return results, report.LCIA(a.outW, printed)
}

// LCIAScenarios scores a fragment under several scenarios at once, one
// traversal per scenario, and returns the results in scenario order.
func (a *App) LCIAScenarios(ctx context.Context, ref string, scenarios []scenario.Spec, observed bool, quantityIDs []string) ([]*lcia.Results, error) {
	ctx = a.context(ctx)
	f, err := a.Fragment(ref)
	if err != nil {
		return nil, err
	}
	qs, err := a.quantities(quantityIDs)
	if err != nil {
		return nil, err
	}
	if _, err := a.scorer.Score(ctx, f.ID, qs...); err != nil {
		return nil, err
	}
	serial := a.aggregates(f)

	out := make([]*lcia.Results, len(scenarios))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.config.Workers)
	for i, sc := range scenarios {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if serial {
				a.aggMu.Lock()
				defer a.aggMu.Unlock()
			}
			start := time.Now()
			res, err := a.traverser.FragmentLCIA(gctx, f.ID, sc, observed)
			a.metrics.Observe("lcia", start, res.Len(), err)
			if err != nil {
				return fmt.Errorf("scenario %s: %w", sc, err)
			}
			out[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	a.logger.Info("Impact assessment complete.", "fragment", f.Name, "scenarios", len(scenarios), "quantities", len(qs))
	return out, nil
}

// aggregates reports whether the fragment reaches an aggregated subfragment
// under any scenario.
func (a *App) aggregates(f *fragment.Fragment) bool {
	top, err := fragment.Top(a.model.Store, f)
	if err != nil {
		return true
	}
	seen := make(map[string]bool)
	var visit func(root *fragment.Fragment) bool
	visit = func(root *fragment.Fragment) bool {
		if seen[root.ID.String()] {
			return false
		}
		seen[root.ID.String()] = true
		for _, n := range fragment.Tree(a.model.Store, root) {
			for _, key := range append([]string{""}, n.TerminationKeys()...) {
				term, err := n.Termination(scenario.Named(key))
				if err != nil || term.Kind() != fragment.Subfragment {
					continue
				}
				if !term.Descend() {
					return true
				}
				if target, ok := a.model.Store.Get(term.Target()); ok {
					if next, err := fragment.Top(a.model.Store, target); err == nil && visit(next) {
						return true
					}
				}
			}
		}
		return false
	}
	return visit(top)
}
