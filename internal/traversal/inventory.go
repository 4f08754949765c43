package traversal

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// squash drops inventory entries that are numerical noise.
const squash = 1e-16

// IOFlows returns the boundary records of a traversal.
func (t *Traverser) IOFlows(ctx context.Context, id fragid.ID, sc scenario.Spec, observed bool) ([]FragmentFlow, error) {
	records, err := t.Traverse(ctx, id, sc, observed)
	if err != nil {
		return nil, err
	}
	var ios []FragmentFlow
	for _, r := range records {
		if r.IsIO() {
			ios = append(ios, r)
		}
	}
	return ios, nil
}

// Inventory nets the boundary flows of a traversal into one exchange per
// flow, per unit of net reference flow. Boundary flows of the reference flow
// itself are netted against the reference.
func (t *Traverser) Inventory(ctx context.Context, id fragid.ID, sc scenario.Spec, observed bool) ([]inventory.Exchange, error) {
	frag, ok := t.lookup.Get(id)
	if !ok {
		return nil, fmt.Errorf("inventory: %w: %s", fragment.ErrNotFound, id)
	}
	ios, err := t.IOFlows(ctx, id, sc, observed)
	if err != nil {
		return nil, err
	}

	refSign := frag.Direction().Complement().InflowSign()
	accum := map[string]float64{frag.Flow.ID: refSign}
	flows := map[string]*flow.Flow{}
	var order []string
	for i, io := range ios {
		if i == 0 && io.Fragment.ID == frag.ID {
			continue
		}
		fid := io.Fragment.Flow.ID
		if _, seen := flows[fid]; !seen {
			flows[fid] = io.Fragment.Flow
			order = append(order, fid)
		}
		accum[fid] += io.Fragment.Direction().InflowSign() * io.Magnitude
	}

	inEx := accum[frag.Flow.ID]
	if inEx*refSign <= 0 {
		return nil, fmt.Errorf("inventory of %s: %w", frag, ErrReferenceDeficit)
	}

	var out []inventory.Exchange
	for _, fid := range order {
		if fid == frag.Flow.ID {
			continue
		}
		v := accum[fid]
		if v == 0 {
			continue
		}
		val := math.Abs(v) * refSign / inEx
		if val < squash {
			continue
		}
		dir := flow.Input
		if v < 0 {
			dir = flow.Output
		}
		out = append(out, inventory.Exchange{Flow: flows[fid], Direction: dir, Value: val})
	}
	inventory.Sort(out)
	return out, nil
}

// QuantityBalance is the net inflow of one quantity across a node. Positive
// means more comes in than goes out.
type QuantityBalance struct {
	Quantity *flow.Quantity
	Net      float64
}

// Balance sums, for every quantity the node's flows are characterized
// against, the node's reference flow and its children's flows, signed by
// direction. A balanced node nets to zero for its conserved quantity.
func (t *Traverser) Balance(id fragid.ID, sc scenario.Spec, observed bool) ([]QuantityBalance, error) {
	if err := validScenario(sc); err != nil {
		return nil, fmt.Errorf("balance: %w", err)
	}
	frag, ok := t.lookup.Get(id)
	if !ok {
		return nil, fmt.Errorf("balance: %w: %s", fragment.ErrNotFound, id)
	}

	inEx := 1.0
	if frag.IsRoot() {
		ev, err := frag.ExchangeValue(sc, observed)
		if err != nil {
			return nil, err
		}
		inEx = ev
	}

	net := map[string]*QuantityBalance{}
	add := func(f *flow.Flow, mag float64) {
		for _, c := range factorsOf(f) {
			b, ok := net[c.Quantity.ID]
			if !ok {
				b = &QuantityBalance{Quantity: c.Quantity}
				net[c.Quantity.ID] = b
			}
			b.Net += c.Value * mag
		}
	}

	add(frag.Flow, inEx*frag.Direction().Complement().InflowSign())
	for _, c := range t.lookup.Children(frag.ID) {
		ev, err := c.ExchangeValue(sc, observed)
		if err != nil {
			return nil, err
		}
		add(c.Flow, ev*c.Direction().InflowSign())
	}

	out := make([]QuantityBalance, 0, len(net))
	for _, b := range net {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity.ID < out[j].Quantity.ID })
	return out, nil
}

// factorsOf lists a flow's factors, including the implicit 1 for its
// reference quantity.
func factorsOf(f *flow.Flow) []flow.Characterization {
	out := f.Characterizations()
	if f.ReferenceQuantity != nil {
		out = append([]flow.Characterization{{Quantity: f.ReferenceQuantity, Value: 1}}, out...)
	}
	return out
}
