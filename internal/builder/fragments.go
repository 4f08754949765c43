package builder

import (
	"context"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/specialistvlad/fragmentgo/internal/config"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// fragments creates every fragment node with its exchange values, then
// flags balance flows.
func (b *build) fragments(ctx context.Context, decls []*config.Fragment) error {
	var errs *multierror.Error
	for _, d := range decls {
		errs = b.fragment(ctx, fragid.Nil, d, errs)
	}

	for _, name := range b.order {
		if !b.decls[name].Balance {
			continue
		}
		if err := b.store.SetBalanceFlow(b.nodes[name].ID); err != nil {
			errs = appendErr(errs, "fragment %q: %w", name, err)
		}
	}
	return errs.ErrorOrNil()
}

func (b *build) fragment(ctx context.Context, parent fragid.ID, d *config.Fragment, errs *multierror.Error) *multierror.Error {
	if _, dup := b.decls[d.Name]; dup {
		return appendErr(errs, "fragment %q: %w", d.Name, ErrDuplicateName)
	}
	fl, ok := b.cat.Flow(d.Flow)
	if !ok {
		return appendErr(errs, "fragment %q: %w: flow %q", d.Name, ErrUnknownReference, d.Flow)
	}
	dir := flow.Input
	if d.Direction != "" {
		var err error
		if dir, err = flow.ParseDirection(d.Direction); err != nil {
			return appendErr(errs, "fragment %q: %w", d.Name, err)
		}
	}

	opts := []fragment.NodeOption{fragment.WithID(FragmentID(d.Name))}
	if d.Stage != "" {
		opts = append(opts, fragment.WithStage(d.Stage))
	}

	var f *fragment.Fragment
	var err error
	switch {
	case !parent.IsNil():
		if d.Background {
			return appendErr(errs, "fragment %q: only reference fragments can be background", d.Name)
		}
		f, err = b.store.NewChild(parent, d.Name, fl, dir, opts...)
	case d.Background:
		f, err = b.store.NewBackground(d.Name, fl, dir, opts...)
	default:
		f, err = b.store.NewReference(d.Name, fl, dir, opts...)
	}
	if err != nil {
		return appendErr(errs, "fragment %q: %w", d.Name, err)
	}
	b.nodes[d.Name] = f
	b.decls[d.Name] = d
	b.order = append(b.order, d.Name)

	if d.ExchangeValue != nil {
		if err := f.SetCachedEV(*d.ExchangeValue); err != nil {
			errs = appendErr(errs, "fragment %q: %w", d.Name, err)
		}
	}
	keys := make([]string, 0, len(d.Scenarios))
	for k := range d.Scenarios {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := f.SetExchangeValue(scenario.Named(k), d.Scenarios[k]); err != nil {
			errs = appendErr(errs, "fragment %q scenario %q: %w", d.Name, k, err)
		}
	}
	ctxlog.FromContext(ctx).Debug("Fragment created.", "fragment", d.Name, "id", f.ID.Short(), "scenarios", len(keys))

	for _, c := range d.Children {
		errs = b.fragment(ctx, f.ID, c, errs)
	}
	return errs
}
