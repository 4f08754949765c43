// Package catalog is an in-memory store of quantities, flows and processes.
// It serves process inventories, characterization factors, process impact
// scores and aggregated background inventories to the rest of the system.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
)

// ErrDuplicate is returned when an entity ID is registered twice.
var ErrDuplicate = errors.New("duplicate catalog entry")

type entry struct {
	process   *inventory.Process
	exchanges []inventory.Exchange
}

// Catalog holds the entities of a loaded model. It is safe for concurrent
// use.
type Catalog struct {
	mu         sync.RWMutex
	quantities map[string]*flow.Quantity
	flows      map[string]*flow.Flow
	processes  map[string]*entry
	// conversions are factors supplied outside any flow definition, by flow
	// ID then quantity ID.
	conversions map[string]map[string]float64

	// lci memoizes aggregated inventories by process and reference flow.
	lci sync.Map
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{
		quantities: make(map[string]*flow.Quantity),
		flows:      make(map[string]*flow.Flow),
		processes:  make(map[string]*entry),

		conversions: make(map[string]map[string]float64),
	}
}

// AddQuantity registers a quantity under its ID.
func (c *Catalog) AddQuantity(q *flow.Quantity) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.quantities[q.ID]; ok {
		return fmt.Errorf("%w: quantity %q", ErrDuplicate, q.ID)
	}
	c.quantities[q.ID] = q
	return nil
}

// AddFlow registers a flow under its ID.
func (c *Catalog) AddFlow(f *flow.Flow) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.flows[f.ID]; ok {
		return fmt.Errorf("%w: flow %q", ErrDuplicate, f.ID)
	}
	c.flows[f.ID] = f
	return nil
}

// AddProcess registers a process with its exchanges per unit activity.
func (c *Catalog) AddProcess(p *inventory.Process, exchanges []inventory.Exchange) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.processes[p.ID]; ok {
		return fmt.Errorf("%w: process %q", ErrDuplicate, p.ID)
	}
	c.processes[p.ID] = &entry{process: p, exchanges: append([]inventory.Exchange(nil), exchanges...)}
	c.lci.Clear()
	return nil
}

// Quantity looks up a quantity.
func (c *Catalog) Quantity(id string) (*flow.Quantity, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.quantities[id]
	return q, ok
}

// Flow looks up a flow.
func (c *Catalog) Flow(id string) (*flow.Flow, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	f, ok := c.flows[id]
	return f, ok
}

// Quantities lists every quantity by ID.
func (c *Catalog) Quantities() []*flow.Quantity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*flow.Quantity, 0, len(c.quantities))
	for _, q := range c.quantities {
		out = append(out, q)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Methods lists the quantities that are impact categories.
func (c *Catalog) Methods() []*flow.Quantity {
	var out []*flow.Quantity
	for _, q := range c.Quantities() {
		if q.Method {
			out = append(out, q)
		}
	}
	return out
}

// Flows lists every flow by ID.
func (c *Catalog) Flows() []*flow.Flow {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*flow.Flow, 0, len(c.flows))
	for _, f := range c.flows {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Processes lists every process by ID.
func (c *Catalog) Processes() []*inventory.Process {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*inventory.Process, 0, len(c.processes))
	for _, e := range c.processes {
		out = append(out, e.process)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (c *Catalog) entry(id string) (*entry, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.processes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", inventory.ErrUnknownProcess, id)
	}
	return e, nil
}

// Process implements inventory.Provider.
func (c *Catalog) Process(_ context.Context, id string) (*inventory.Process, error) {
	e, err := c.entry(id)
	if err != nil {
		return nil, err
	}
	return e.process, nil
}

// Exchanges implements inventory.Provider.
func (c *Catalog) Exchanges(_ context.Context, processID string) ([]inventory.Exchange, error) {
	e, err := c.entry(processID)
	if err != nil {
		return nil, err
	}
	return append([]inventory.Exchange(nil), e.exchanges...), nil
}

// Inventory implements inventory.Provider. A nil ref selects the process's
// first reference exchange.
func (c *Catalog) Inventory(_ context.Context, processID string, ref *flow.Flow) ([]inventory.Exchange, error) {
	e, err := c.entry(processID)
	if err != nil {
		return nil, err
	}
	refIdx := -1
	for i, x := range e.exchanges {
		if x.Reference && (ref == nil || x.Flow.Match(ref)) {
			refIdx = i
			break
		}
	}
	if refIdx < 0 {
		return nil, fmt.Errorf("%w: %s has no reference %s", inventory.ErrNoReference, processID, ref)
	}
	refValue := e.exchanges[refIdx].Value
	if refValue == 0 {
		return nil, fmt.Errorf("%w: %s reference %s is zero", inventory.ErrNoReference, processID, ref)
	}

	out := make([]inventory.Exchange, 0, len(e.exchanges)-1)
	for i, x := range e.exchanges {
		if i == refIdx {
			continue
		}
		x.Value /= refValue
		out = append(out, x)
	}
	return out, nil
}

// AddConversion supplies a factor from a flow to a quantity, for flows that
// do not carry one.
func (c *Catalog) AddConversion(flowID string, q *flow.Quantity, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	byQ, ok := c.conversions[flowID]
	if !ok {
		byQ = make(map[string]float64)
		c.conversions[flowID] = byQ
	}
	byQ[q.ID] = value
}

// Factor implements flow.FactorSource: explicit conversions first, then the
// catalog's own copy of the flow.
func (c *Catalog) Factor(f *flow.Flow, q *flow.Quantity) (float64, bool) {
	c.mu.RLock()
	v, ok := c.conversions[f.ID][q.ID]
	c.mu.RUnlock()
	if ok && v != 0 {
		return v, true
	}

	known, ok := c.Flow(f.ID)
	if !ok || known == f {
		return 0, false
	}
	v = known.CF(q)
	return v, v != 0
}
