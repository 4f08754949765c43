package flow

import (
	"fmt"
	"sort"
	"sync"
)

// Flow is a commodity or substance. Its reference quantity always has an
// implicit factor of 1; every other quantity is reached through an explicit
// characterization factor.
type Flow struct {
	ID                string
	Name              string
	ReferenceQuantity *Quantity
	// Elementary marks an exchange with the environment rather than with
	// another process.
	Elementary  bool
	Compartment []string

	mu      sync.RWMutex
	factors map[string]Characterization
}

// Characterization is a factor converting one unit of a flow's reference
// quantity into the given quantity.
type Characterization struct {
	Quantity *Quantity
	Value    float64
	Location string
}

// New creates a flow measured in the given reference quantity.
func New(id, name string, ref *Quantity) *Flow {
	return &Flow{
		ID:                id,
		Name:              name,
		ReferenceQuantity: ref,
		factors:           make(map[string]Characterization),
	}
}

// Unit is the reference unit of the flow.
func (f *Flow) Unit() string {
	if f.ReferenceQuantity == nil {
		return ""
	}
	return f.ReferenceQuantity.Unit
}

// SetCF records a characterization factor against q.
func (f *Flow) SetCF(q *Quantity, value float64) {
	f.SetLocatedCF(q, value, "")
}

// SetLocatedCF records a characterization factor valid at a location.
func (f *Flow) SetLocatedCF(q *Quantity, value float64, location string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.factors == nil {
		f.factors = make(map[string]Characterization)
	}
	f.factors[q.ID] = Characterization{Quantity: q, Value: value, Location: location}
}

// CF returns the factor of the flow against q. The reference quantity is 1;
// an unknown quantity is 0, never an error.
func (f *Flow) CF(q *Quantity) float64 {
	if q == nil {
		return 0
	}
	if f.ReferenceQuantity != nil && f.ReferenceQuantity.ID == q.ID {
		return 1
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.factors[q.ID].Value
}

// LocatedCF is CF restricted to a location. A factor recorded for another
// location does not apply; one recorded without a location applies
// everywhere.
func (f *Flow) LocatedCF(q *Quantity, location string) float64 {
	if q == nil {
		return 0
	}
	if f.ReferenceQuantity != nil && f.ReferenceQuantity.ID == q.ID {
		return 1
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	c := f.factors[q.ID]
	if c.Location != "" && location != "" && c.Location != location {
		return 0
	}
	return c.Value
}

// HasCF reports whether a nonzero factor is known for q.
func (f *Flow) HasCF(q *Quantity) bool {
	return f.CF(q) != 0
}

// Convert returns how many units of q one reference unit of the flow is.
func (f *Flow) Convert(q *Quantity) (float64, error) {
	cf := f.CF(q)
	if cf == 0 {
		return 0, fmt.Errorf("%w: flow %s has no factor for %s", ErrMissingFactor, f.Name, q)
	}
	return cf, nil
}

// Characterizations lists the explicit factors ordered by quantity ID.
func (f *Flow) Characterizations() []Characterization {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Characterization, 0, len(f.factors))
	for _, c := range f.factors {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Quantity.ID < out[j].Quantity.ID })
	return out
}

// Match reports whether two flow references denote the same flow.
func (f *Flow) Match(other *Flow) bool {
	if f == nil || other == nil {
		return f == other
	}
	return f == other || f.ID == other.ID
}

// String returns the flow name with its compartment.
func (f *Flow) String() string {
	if len(f.Compartment) == 0 {
		return f.Name
	}
	return fmt.Sprintf("%s %v", f.Name, f.Compartment)
}

// FactorSource supplies characterization factors the flow itself does not
// carry. Termination construction consults it before giving up with
// ErrMissingFactor.
type FactorSource interface {
	Factor(f *Flow, q *Quantity) (float64, bool)
}
