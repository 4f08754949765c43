package catalog

import (
	"context"
	"fmt"
	"math"

	"github.com/specialistvlad/fragmentgo/internal/background"
	"github.com/specialistvlad/fragmentgo/internal/ctxlog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
)

// LCI implements background.Solver. Terminated intermediate exchanges are
// replaced by the aggregated inventory of their provider; elementary and
// unterminated exchanges are exterior and accumulate. A provider that loops
// back on the chain being solved is rejected with background.ErrCycle.
func (c *Catalog) LCI(ctx context.Context, processID string, ref *flow.Flow) ([]inventory.Exchange, error) {
	key := processID
	if ref != nil {
		key += "\x00" + ref.ID
	}
	if v, ok := c.lci.Load(key); ok {
		return append([]inventory.Exchange(nil), v.([]inventory.Exchange)...), nil
	}

	acc := &accumulator{net: make(map[string]float64), flows: make(map[string]*flow.Flow)}
	if err := c.solve(ctx, processID, ref, 1, map[string]struct{}{}, acc); err != nil {
		return nil, err
	}
	out := acc.exchanges()
	c.lci.Store(key, out)
	ctxlog.FromContext(ctx).Debug("Background inventory solved.", "process", processID, "exterior_flows", len(out))
	return append([]inventory.Exchange(nil), out...), nil
}

type accumulator struct {
	net   map[string]float64
	flows map[string]*flow.Flow
	order []string
}

func (a *accumulator) add(f *flow.Flow, d flow.Direction, v float64) {
	if _, ok := a.flows[f.ID]; !ok {
		a.flows[f.ID] = f
		a.order = append(a.order, f.ID)
	}
	a.net[f.ID] += d.InflowSign() * v
}

func (a *accumulator) exchanges() []inventory.Exchange {
	out := make([]inventory.Exchange, 0, len(a.order))
	for _, id := range a.order {
		v := a.net[id]
		if v == 0 {
			continue
		}
		d := flow.Input
		if v < 0 {
			d = flow.Output
		}
		out = append(out, inventory.Exchange{Flow: a.flows[id], Direction: d, Value: math.Abs(v)})
	}
	inventory.Sort(out)
	return out
}

func (c *Catalog) solve(ctx context.Context, processID string, ref *flow.Flow, scale float64, path map[string]struct{}, acc *accumulator) error {
	if _, ok := path[processID]; ok {
		return fmt.Errorf("%w: %s", background.ErrCycle, processID)
	}
	path[processID] = struct{}{}
	defer delete(path, processID)

	exchanges, err := c.Inventory(ctx, processID, ref)
	if err != nil {
		return err
	}
	for _, x := range exchanges {
		if x.Termination == "" || x.Flow.Elementary {
			acc.add(x.Flow, x.Direction, x.Value*scale)
			continue
		}
		if err := c.solve(ctx, x.Termination, x.Flow, x.Value*scale, path, acc); err != nil {
			return fmt.Errorf("%s via %s: %w", processID, x.Flow.Name, err)
		}
	}
	return nil
}

// ProcessLCIA implements scoring.ProcessLCIA from the process's direct
// elementary exchanges. Upstream supply chains are the business of the
// fragments that terminate the process's intermediate flows.
func (c *Catalog) ProcessLCIA(ctx context.Context, processID string, ref *flow.Flow, q *flow.Quantity) (*lcia.Result, error) {
	proc, err := c.Process(ctx, processID)
	if err != nil {
		return nil, err
	}
	exchanges, err := c.Inventory(ctx, processID, ref)
	if err != nil {
		return nil, err
	}
	var elementary []inventory.Exchange
	for _, x := range exchanges {
		if x.Flow.Elementary {
			elementary = append(elementary, x)
		}
	}
	return background.Characterize(proc, elementary, q)
}
