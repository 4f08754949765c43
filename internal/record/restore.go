package record

import (
	"context"
	"fmt"
	"sort"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// Resolver finds the entities a record refers to by ID.
type Resolver interface {
	inventory.Provider
	Flow(id string) (*flow.Flow, bool)
	Quantity(id string) (*flow.Quantity, bool)
}

// Restore recreates a set of records in the store. Every node is created
// before any termination is applied, so records may refer to each other in
// any order as long as parents come before their children.
func Restore(ctx context.Context, store *fragment.Store, res Resolver, records []*Fragment) ([]*fragment.Fragment, error) {
	out := make([]*fragment.Fragment, 0, len(records))
	for _, r := range records {
		f, err := ToFragment(store, res, r)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	for _, r := range records {
		if err := Apply(ctx, store, res, r); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ToFragment creates the node described by r, without exchange values or
// terminations. Use Apply to restore those.
func ToFragment(store *fragment.Store, res Resolver, r *Fragment) (*fragment.Fragment, error) {
	id, err := fragid.Parse(r.ID)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", r.Name, err)
	}
	fl, ok := res.Flow(r.Flow)
	if !ok {
		return nil, fmt.Errorf("record %q: %w: flow %q", r.Name, ErrUnresolved, r.Flow)
	}
	dir, err := flow.ParseDirection(r.Direction)
	if err != nil {
		return nil, fmt.Errorf("record %q: %w", r.Name, err)
	}

	opts := []fragment.NodeOption{fragment.WithID(id)}
	if r.Stage != "" {
		opts = append(opts, fragment.WithStage(r.Stage))
	}
	switch {
	case r.Parent != "":
		pid, err := fragid.Parse(r.Parent)
		if err != nil {
			return nil, fmt.Errorf("record %q parent: %w", r.Name, err)
		}
		return store.NewChild(pid, r.Name, fl, dir, opts...)
	case r.IsBackground:
		return store.NewBackground(r.Name, fl, dir, opts...)
	}
	return store.NewReference(r.Name, fl, dir, opts...)
}

// Apply restores the exchange values, balance flag and terminations of r
// onto the fragment with the same ID, replacing what it had.
func Apply(ctx context.Context, store *fragment.Store, res Resolver, r *Fragment) error {
	id, err := fragid.Parse(r.ID)
	if err != nil {
		return fmt.Errorf("record %q: %w", r.Name, err)
	}
	f, err := store.Lookup(id)
	if err != nil {
		return err
	}

	if err := applyExchangeValues(f, r.ExchangeValues); err != nil {
		return fmt.Errorf("record %q: %w", r.Name, err)
	}

	switch {
	case r.IsBalanceFlow && !f.IsBalanceFlow():
		err = store.SetBalanceFlow(f.ID)
	case !r.IsBalanceFlow && f.IsBalanceFlow():
		err = store.UnsetBalanceFlow(f.ID)
	}
	if err != nil {
		return fmt.Errorf("record %q: %w", r.Name, err)
	}

	keys := make([]string, 0, len(r.Terminations))
	for k := range r.Terminations {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := applyTermination(ctx, store, res, f, k, r.Terminations[k]); err != nil {
			return fmt.Errorf("record %q termination %q: %w", r.Name, k, err)
		}
	}
	return nil
}

func applyExchangeValues(f *fragment.Fragment, evs map[string]float64) error {
	for k := range evs {
		if err := ValidateKey(k); err != nil {
			return err
		}
	}
	f.ExchangeValues().Clear()
	for k, v := range evs {
		switch {
		case k == scenario.CachedSlot:
			if err := f.SetCachedEV(v); err != nil {
				return err
			}
		case k == scenario.ObservedSlot:
			if err := f.SetExchangeValue(scenario.Named(k), v); err != nil {
				return err
			}
		default:
			// tuple keys were memoized balances; store them under the same key
			s := scenario.Parse(k)
			if s.IsTuple() {
				f.CacheBalance(s, v)
				continue
			}
			if err := f.SetExchangeValue(s, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func applyTermination(ctx context.Context, store *fragment.Store, res Resolver, f *fragment.Fragment, key string, rt Termination) error {
	sc := scenario.None()
	if key != DefaultKey {
		if err := ValidateKey(key); err != nil {
			return err
		}
		sc = scenario.Named(key)
	}

	var opts []fragment.TermOption
	if rt.TermFlow != "" {
		fl, ok := res.Flow(rt.TermFlow)
		if !ok {
			return fmt.Errorf("%w: flow %q", ErrUnresolved, rt.TermFlow)
		}
		opts = append(opts, fragment.WithTermFlow(fl))
	}
	if rt.Direction != "" {
		dir, err := flow.ParseDirection(rt.Direction)
		if err != nil {
			return err
		}
		opts = append(opts, fragment.WithDirection(dir))
	}
	if rt.Descend != nil {
		opts = append(opts, fragment.WithDescend(*rt.Descend))
	}
	if rt.InboundEV != 0 {
		opts = append(opts, fragment.WithInboundEV(rt.InboundEV))
	}

	var target fragment.Target
	switch rt.Kind {
	case fragment.Null.String(), "":
		target = fragment.ToNull()
	case fragment.Foreground.String():
		target = fragment.ToFragment(f.ID)
	case fragment.Process.String():
		p, err := res.Process(ctx, rt.Process)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnresolved, err)
		}
		target = fragment.ToProcess(p)
	case fragment.Subfragment.String(), fragment.Background.String():
		tid, err := fragid.Parse(rt.Target)
		if err != nil {
			return err
		}
		target = fragment.ToFragment(tid)
	default:
		return fmt.Errorf("unknown termination kind %q", rt.Kind)
	}

	t, err := store.Terminate(ctx, f.ID, sc, target, opts...)
	if err != nil {
		return err
	}
	if len(rt.Scores) == 0 {
		return nil
	}

	scores := lcia.NewResults(f.ID.String())
	for _, s := range rt.Scores {
		q, ok := res.Quantity(s.Quantity)
		if !ok {
			return fmt.Errorf("%w: quantity %q", ErrUnresolved, s.Quantity)
		}
		r := lcia.NewResult(q, sc.Key())
		if err := r.AddSummary(f.ID.String(), f, f.ID.String(), 1, s.Score); err != nil {
			return err
		}
		scores.Set(r)
	}
	t.SetScores(scores)
	return nil
}
