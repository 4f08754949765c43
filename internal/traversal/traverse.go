package traversal

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// Traverser walks fragment trees held by a ChildLookup.
type Traverser struct {
	lookup fragment.ChildLookup
}

// New returns a Traverser over the given fragments.
func New(lookup fragment.ChildLookup) *Traverser {
	return &Traverser{lookup: lookup}
}

// request is what stays fixed for a whole traversal.
type request struct {
	sc       scenario.Spec
	observed bool
}

// frame carries what changes from node to node.
type frame struct {
	upstream float64
	seen     map[fragid.ID]struct{}
	// conserved is the quantity the parent balances, if any.
	conserved *flow.Quantity
	// forced replaces the stored exchange value, for balance flows and the
	// children of subfragment nodes.
	forced *float64
}

func copySeen(seen map[fragid.ID]struct{}) map[fragid.ID]struct{} {
	out := make(map[fragid.ID]struct{}, len(seen)+1)
	for k := range seen {
		out[k] = struct{}{}
	}
	return out
}

// validScenario rejects reserved slot names, which would otherwise receive
// memoized balance values.
func validScenario(sc scenario.Spec) error {
	for _, name := range sc.Members() {
		if err := scenario.ValidateName(name); err != nil {
			return err
		}
	}
	return nil
}

// Traverse walks the fragment under a scenario and returns one record per
// step, lead record first, normalized to one unit of the fragment's
// reference flow.
func (t *Traverser) Traverse(ctx context.Context, id fragid.ID, sc scenario.Spec, observed bool) ([]FragmentFlow, error) {
	if err := validScenario(sc); err != nil {
		return nil, fmt.Errorf("traverse: %w", err)
	}
	frag, ok := t.lookup.Get(id)
	if !ok {
		return nil, fmt.Errorf("traverse: %w: %s", fragment.ErrNotFound, id)
	}
	return t.traverse(ctx, frag, sc, observed)
}

func (t *Traverser) traverse(ctx context.Context, frag *fragment.Fragment, sc scenario.Spec, observed bool) ([]FragmentFlow, error) {
	ev, err := frag.ExchangeValue(sc, observed)
	if err != nil {
		return nil, err
	}
	entry := ev
	if !frag.IsRoot() {
		if ev == 0 {
			return nil, fmt.Errorf("traverse %s: %w", frag, ErrZeroExchangeValue)
		}
		entry = 1 / ev
	}

	ctxlog.FromContext(ctx).Debug("Traversal started.",
		"fragment", frag.ID.Short(), "scenario", sc.String(), "observed", observed)
	records, _, err := t.step(ctx, frag, request{sc: sc, observed: observed}, frame{upstream: entry})
	if err != nil {
		return nil, err
	}
	return records, nil
}

// step traverses one node and everything beneath it. It returns the node's
// records and its signed contribution to the conserved quantity of its
// parent (0 when the parent conserves nothing).
func (t *Traverser) step(ctx context.Context, frag *fragment.Fragment, req request, s frame) ([]FragmentFlow, float64, error) {
	logger := ctxlog.FromContext(ctx)

	var ev, rootEV float64
	if s.forced != nil {
		ev = *s.forced
		frag.CacheBalance(req.sc, ev)
		logger.Debug("Forced exchange value.", "fragment", frag.ID.Short(), "value", ev)
	} else {
		raw, err := frag.ExchangeValue(req.sc, req.observed)
		if err != nil {
			return nil, 0, err
		}
		ev = raw
		if frag.IsRoot() {
			if raw == 0 {
				return nil, 0, fmt.Errorf("reference %s: %w", frag, ErrZeroExchangeValue)
			}
			rootEV = raw
			ev = 1 / raw
		}
	}

	magnitude := s.upstream * ev

	var conservedVal float64
	conserved := false
	if s.conserved != nil {
		if frag.IsBalanceFlow() {
			return nil, 0, errBalanceEncountered
		}
		conservedVal = ev * frag.Flow.CF(s.conserved) * frag.Direction().InflowSign()
		conserved = conservedVal != 0
	}

	term, err := frag.Termination(req.sc)
	if err != nil {
		return nil, 0, err
	}
	mult, err := term.NodeWeightMultiplier()
	if err != nil {
		return nil, 0, fmt.Errorf("node weight of %s: %w", frag, err)
	}
	nodeWeight := magnitude * mult

	out := []FragmentFlow{{
		Fragment:   frag,
		Term:       term,
		Magnitude:  magnitude,
		NodeWeight: nodeWeight,
		Conserved:  conserved,
	}}

	children := t.lookup.Children(frag.ID)
	if term.IsNull() && len(children) > 0 {
		return nil, 0, fmt.Errorf("%w: null-terminated fragment %s has children", fragment.ErrInvalidParentChild, frag)
	}
	if term.IsNull() || frag.IsBackground() || magnitude == 0 {
		return out, conservedVal, nil
	}

	seen := s.seen
	if seen == nil {
		seen = make(map[fragid.ID]struct{})
	}
	if frag.IsRoot() {
		if _, ok := seen[frag.ID]; ok {
			return nil, 0, fmt.Errorf("%w: %s is already on the traversal path", ErrRecursion, frag)
		}
		seen[frag.ID] = struct{}{}
	}

	switch term.Kind() {
	case fragment.Foreground, fragment.Process:
		childWeight := nodeWeight
		if frag.IsRoot() {
			childWeight = nodeWeight / rootEV
		}
		recs, err := t.expand(ctx, frag, children, req, childWeight, rootEV, seen)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, recs...)

	case fragment.Background:
		target, err := t.target(term)
		if err != nil {
			return nil, 0, err
		}
		recs, _, err := t.step(ctx, target, req, frame{upstream: nodeWeight})
		if err != nil {
			return nil, 0, err
		}
		recs[0] = recs[0].withFragment(frag)
		return recs, conservedVal, nil

	case fragment.Subfragment:
		out, err = t.subfragment(ctx, frag, children, term, req, s, out, seen)
		if err != nil {
			return nil, 0, err
		}

	default:
		return nil, 0, fmt.Errorf("fragment %s: unhandled termination kind %s", frag, term.Kind())
	}

	return out, conservedVal, nil
}

// expand traverses the children of a foreground or process node. A balance
// child is deferred until the others have reported their conserved
// contributions, then traversed once with the deficit as its magnitude.
func (t *Traverser) expand(ctx context.Context, frag *fragment.Fragment, children []*fragment.Fragment, req request, childWeight, rootEV float64, seen map[fragid.ID]struct{}) ([]FragmentFlow, error) {
	logger := ctxlog.FromContext(ctx)
	q := frag.ConservedQuantity()

	var stock float64
	if q != nil {
		stock = frag.Flow.CF(q)
		if frag.IsRoot() {
			stock *= rootEV
		}
		stock *= frag.Direction().Complement().InflowSign()
	}

	var out []FragmentFlow
	var balance *fragment.Fragment
	for _, c := range children {
		recs, cons, err := t.step(ctx, c, req, frame{upstream: childWeight, seen: copySeen(seen), conserved: q})
		if errors.Is(err, errBalanceEncountered) {
			logger.Debug("Balance flow deferred.", "parent", frag.ID.Short(), "fragment", c.ID.Short())
			balance = c
			continue
		}
		if err != nil {
			return nil, err
		}
		stock += cons
		out = append(out, recs...)
	}

	if balance != nil {
		// stock is the net inflow of q; the balance flow must cancel it
		forced := -stock * balance.Direction().InflowSign()
		recs, _, err := t.step(ctx, balance, req, frame{upstream: childWeight, seen: copySeen(seen), forced: &forced})
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// ioEntry is a boundary flow of a subfragment traversal awaiting a match
// against the parent's termination or children.
type ioEntry struct {
	flow      *flow.Flow
	direction flow.Direction
	magnitude float64
	rec       FragmentFlow
	// ghost stands for the reference flow of a subfragment entered below
	// its root. It is matched but never emitted.
	ghost bool
}

func (t *Traverser) target(term *fragment.Termination) (*fragment.Fragment, error) {
	target, ok := t.lookup.Get(term.Target())
	if !ok {
		return nil, fmt.Errorf("termination target: %w: %s", fragment.ErrNotFound, term.Target())
	}
	return target, nil
}

// subfragment traverses the target of a subfragment termination, reconciles
// the target's reference flow against the parent's demand, then emits the
// target's records either inline or folded into the termination's score
// cache. The node's own children take their magnitudes from the matching
// boundary flows of the target.
func (t *Traverser) subfragment(ctx context.Context, frag *fragment.Fragment, children []*fragment.Fragment, term *fragment.Termination, req request, s frame, out []FragmentFlow, seen map[fragid.ID]struct{}) ([]FragmentFlow, error) {
	logger := ctxlog.FromContext(ctx)

	target, err := t.target(term)
	if err != nil {
		return nil, err
	}
	ref := target
	belowRoot := !target.IsRoot()
	if belowRoot {
		if ref, err = fragment.Top(t.lookup, target); err != nil {
			return nil, err
		}
	}

	refEV, err := ref.ExchangeValue(req.sc, req.observed)
	if err != nil {
		return nil, err
	}
	sign := 1.0
	if belowRoot == (target.Direction() == frag.Direction()) {
		sign = -1
		logger.Warn("Subfragment runs in reverse.", "fragment", frag.ID.Short(), "target", target.ID.Short())
	}

	subRecs, _, err := t.step(ctx, ref, req, frame{upstream: refEV * sign, seen: copySeen(seen)})
	if err != nil {
		return nil, err
	}

	inEx := sign
	var ios []ioEntry
	var subfrags []FragmentFlow
	for _, r := range subRecs {
		if !r.IsIO() {
			subfrags = append(subfrags, r)
			continue
		}
		if belowRoot && r.Fragment.ID == target.ID {
			inEx = r.Magnitude
			continue
		}
		ios = append(ios, ioEntry{flow: r.Fragment.Flow, direction: r.Fragment.Direction(), magnitude: r.Magnitude, rec: r})
	}
	if belowRoot {
		ios = append(ios, ioEntry{flow: ref.Flow, direction: ref.Direction().Complement(), magnitude: 1, ghost: true})
	}

	// autoconsumption: boundary flows of the term flow itself add to the
	// delivered reference when they leave the target the same way it does
	// and subtract from it otherwise, so the activity level matches the
	// netting in Inventory
	remaining := ios[:0:0]
	for _, io := range ios {
		if !io.flow.Match(term.TermFlow()) {
			remaining = append(remaining, io)
			continue
		}
		if io.direction == term.Direction() {
			inEx += io.magnitude
		} else {
			inEx -= io.magnitude
		}
	}
	ios = remaining
	if inEx == 0 {
		return nil, fmt.Errorf("%w: subfragment %s of %s has no net reference flow",
			fragment.ErrInvalidParentChild, target, frag)
	}

	downstream := out[0].NodeWeight / math.Abs(inEx)
	logger.Debug("Subfragment reconciled.",
		"fragment", frag.ID.Short(), "target", target.ID.Short(), "in_ex", inEx, "downstream_nw", downstream)

	if frag.IsBalanceFlow() && s.forced != nil {
		frag.CacheBalance(req.sc, *s.forced/inEx)
	}

	if term.Descend() {
		for _, sf := range subfrags {
			out = append(out, sf.Scaled(downstream))
		}
	} else {
		scores, err := ToLCIA(subfrags)
		if err != nil {
			return nil, err
		}
		term.SetScores(scores)
		out[0] = out[0].withNodeWeight(downstream)
	}

	for _, c := range children {
		var cev float64
		rest := ios[:0:0]
		for _, io := range ios {
			if !io.flow.Match(c.Flow) {
				rest = append(rest, io)
				continue
			}
			if io.direction == c.Direction() {
				cev += io.magnitude
			} else {
				cev -= io.magnitude
			}
		}
		ios = rest
		forced := cev
		recs, _, err := t.step(ctx, c, req, frame{upstream: downstream, seen: seen, forced: &forced})
		if err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}

	for _, io := range ios {
		if io.ghost {
			continue
		}
		out = append(out, io.rec.Scaled(downstream))
	}
	return out, nil
}

// FragmentLCIA traverses the fragment and aggregates the score caches of the
// terminations it meets. Scores must already be cached, see package scoring.
func (t *Traverser) FragmentLCIA(ctx context.Context, id fragid.ID, sc scenario.Spec, observed bool) (*lcia.Results, error) {
	records, err := t.Traverse(ctx, id, sc, observed)
	if err != nil {
		return nil, err
	}
	return ToLCIA(records)
}
