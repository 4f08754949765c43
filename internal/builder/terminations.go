package builder

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// terminations resolves every termination block, then applies observed
// exchange values, which depend on how the parents are terminated.
func (b *build) terminations(ctx context.Context) error {
	var errs *multierror.Error
	for _, name := range b.order {
		for _, t := range b.decls[name].Terminations {
			errs = b.terminate(ctx, b.nodes[name], t, errs)
		}
	}

	for _, name := range b.order {
		d := b.decls[name]
		if d.Observed == nil {
			continue
		}
		if err := b.store.Observe(b.nodes[name].ID, *d.Observed); err != nil {
			errs = appendErr(errs, "fragment %q observed value: %w", name, err)
		}
	}
	return errs.ErrorOrNil()
}

func (b *build) terminate(ctx context.Context, f *fragment.Fragment, t *config.Termination, errs *multierror.Error) *multierror.Error {
	targets := 0
	for _, set := range []bool{t.Process != "", t.Fragment != "", t.Self} {
		if set {
			targets++
		}
	}
	if targets > 1 {
		return appendErr(errs, "fragment %q: %w: name one of process, fragment or self", f.Name, ErrInvalidTermination)
	}
	if t.ChildFlows && t.Process == "" {
		return appendErr(errs, "fragment %q: %w: child_flows needs a process", f.Name, ErrInvalidTermination)
	}

	sc := scenario.None()
	if t.Scenario != "" {
		sc = scenario.Named(t.Scenario)
	}

	var opts []fragment.TermOption
	if t.TermFlow != "" {
		fl, ok := b.cat.Flow(t.TermFlow)
		if !ok {
			return appendErr(errs, "fragment %q termination: %w: flow %q", f.Name, ErrUnknownReference, t.TermFlow)
		}
		opts = append(opts, fragment.WithTermFlow(fl))
	}
	if t.Direction != "" {
		dir, err := flow.ParseDirection(t.Direction)
		if err != nil {
			return appendErr(errs, "fragment %q termination: %w", f.Name, err)
		}
		opts = append(opts, fragment.WithDirection(dir))
	}
	if t.Descend != nil {
		opts = append(opts, fragment.WithDescend(*t.Descend))
	}
	if t.InboundEV != nil {
		opts = append(opts, fragment.WithInboundEV(*t.InboundEV))
	}

	target := fragment.ToNull()
	switch {
	case t.Self:
		target = fragment.ToFragment(f.ID)
	case t.Process != "":
		proc, err := b.cat.Process(ctx, t.Process)
		if err != nil {
			return appendErr(errs, "fragment %q termination: %w: process %q", f.Name, ErrUnknownReference, t.Process)
		}
		target = fragment.ToProcess(proc)
	case t.Fragment != "":
		node, ok := b.nodes[t.Fragment]
		if !ok {
			return appendErr(errs, "fragment %q termination: %w: fragment %q", f.Name, ErrUnknownReference, t.Fragment)
		}
		target = fragment.ToFragment(node.ID)
	}

	if _, err := b.store.Terminate(ctx, f.ID, sc, target, opts...); err != nil {
		return appendErr(errs, "fragment %q: %w", f.Name, err)
	}

	if t.ChildFlows {
		children, err := ChildFlowsFromProcess(ctx, b.store, b.cat, f.ID)
		if err != nil {
			return appendErr(errs, "fragment %q child flows: %w", f.Name, err)
		}
		for _, c := range children {
			b.nodes[c.Name] = c
		}
	}
	return errs
}

// ChildFlowsFromProcess creates one child of a process-terminated fragment
// per exchange of the process other than the termination's own flow. Child
// exchange values are per unit of the process reference. Children whose
// exchange names a provider are terminated to it; the rest are boundary
// flows.
func ChildFlowsFromProcess(ctx context.Context, store *fragment.Store, provider inventory.Provider, id fragid.ID) ([]*fragment.Fragment, error) {
	frag, err := store.Lookup(id)
	if err != nil {
		return nil, err
	}
	term := frag.DefaultTermination()
	if term.Kind() != fragment.Process {
		return nil, fmt.Errorf("%w: %s is terminated to %s, not a process", ErrInvalidTermination, frag, term.Kind())
	}
	proc := term.Process()
	exchanges, err := provider.Inventory(ctx, proc.ID, term.ProcessReference())
	if err != nil {
		return nil, err
	}

	logger := ctxlog.FromContext(ctx)
	var children []*fragment.Fragment
	for _, x := range exchanges {
		if x.Flow.Match(term.TermFlow()) {
			continue
		}
		name := frag.Name + ": " + x.Flow.Name
		child, err := store.NewChild(frag.ID, name, x.Flow, x.Direction,
			fragment.WithID(fragid.FromName(frag.ID.String()+"/"+x.Flow.ID)))
		if err != nil {
			return nil, err
		}
		if err := child.SetCachedEV(x.Value); err != nil {
			return nil, err
		}
		if x.Termination != "" {
			p, err := provider.Process(ctx, x.Termination)
			if err != nil {
				return nil, err
			}
			if _, err := store.Terminate(ctx, child.ID, scenario.None(), fragment.ToProcess(p)); err != nil {
				return nil, err
			}
		}
		children = append(children, child)
	}
	logger.Debug("Child flows created from process.", "fragment", frag.ID.Short(), "process", proc.ID, "children", len(children))
	return children, nil
}
