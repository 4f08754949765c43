// Package background describes the life-cycle inventory solver that stands
// behind background fragments, and characterizes the exterior flows it
// returns.
package background

import (
	"context"
	"errors"
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
)

// ErrCycle is returned when a supply chain loops back on a process that is
// still being solved.
var ErrCycle = errors.New("background supply chain is cyclic")

// Solver computes aggregated inventories: the exterior flows (elementary or
// cut off) caused by one unit of a process's reference flow, with every
// intermediate exchange followed upstream.
type Solver interface {
	LCI(ctx context.Context, processID string, ref *flow.Flow) ([]inventory.Exchange, error)
}

// Characterize scores an aggregated inventory against a quantity. Flows
// without a factor for q contribute nothing. Outputs and inputs are both
// counted positive; the sign belongs to the factor.
func Characterize(process *inventory.Process, exterior []inventory.Exchange, q *flow.Quantity) (*lcia.Result, error) {
	res := lcia.NewResult(q, "")
	res.AddComponent(process.ID, process)
	location := process.SpatialScope
	for _, x := range exterior {
		cf := x.Flow.LocatedCF(q, location)
		if cf == 0 {
			continue
		}
		if err := res.AddScore(process.ID, lcia.DetailedResult{
			Process:       process.ID,
			Flow:          x.Flow.ID,
			Direction:     x.Direction,
			ExchangeValue: x.Value,
			Factor:        cf,
			Location:      location,
			Quantity:      q,
		}); err != nil {
			return nil, fmt.Errorf("characterize %s: %w", process.ID, err)
		}
	}
	return res, nil
}
