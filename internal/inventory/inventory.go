// Package inventory describes modeled processes and the provider that lists
// their exchanges. Providers are consulted while terminations are built, never
// on the traversal hot path.
package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/specialistvlad/fragmentgo/internal/flow"
)

var (
	// ErrUnknownProcess is returned by providers for process IDs they do not
	// hold.
	ErrUnknownProcess = errors.New("unknown process")
	// ErrNoReference is returned when a process has no reference exchange of
	// the requested flow.
	ErrNoReference = errors.New("process has no such reference exchange")
)

// Process is a reference to a modeled process.
type Process struct {
	ID              string
	Name            string
	SpatialScope    string
	Classifications []string
}

// Stage is the display stage a process suggests for the fragment it
// terminates: its most specific classification, else its name.
func (p *Process) Stage() string {
	if n := len(p.Classifications); n > 0 {
		return p.Classifications[n-1]
	}
	return p.Name
}

// Exchange is one flow into or out of a process, per unit activity.
type Exchange struct {
	Flow      *flow.Flow
	Direction flow.Direction
	Value     float64
	// Termination optionally names the process that supplies or receives
	// the exchange.
	Termination string
	Reference   bool
}

// Provider lists the exchanges of a process.
type Provider interface {
	// Process resolves a process ID.
	Process(ctx context.Context, id string) (*Process, error)

	// Exchanges returns every exchange of the process, reference exchanges
	// flagged, per unit activity.
	Exchanges(ctx context.Context, processID string) ([]Exchange, error)

	// Inventory returns the non-reference exchanges of the process
	// normalized to one unit of ref.
	Inventory(ctx context.Context, processID string, ref *flow.Flow) ([]Exchange, error)
}

// Find returns the first exchange of f in direction d.
func Find(exchanges []Exchange, f *flow.Flow, d flow.Direction) (Exchange, bool) {
	for _, x := range exchanges {
		if x.Flow.Match(f) && x.Direction == d {
			return x, true
		}
	}
	return Exchange{}, false
}

// References filters the reference exchanges.
func References(exchanges []Exchange) []Exchange {
	var refs []Exchange
	for _, x := range exchanges {
		if x.Reference {
			refs = append(refs, x)
		}
	}
	return refs
}

// Sort orders exchanges inputs first, then by flow name.
func Sort(exchanges []Exchange) {
	sort.SliceStable(exchanges, func(i, j int) bool {
		if exchanges[i].Direction != exchanges[j].Direction {
			return exchanges[i].Direction == flow.Input
		}
		return exchanges[i].Flow.Name < exchanges[j].Flow.Name
	})
}
