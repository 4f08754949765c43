package config

// Model is the unified, format-agnostic representation of a fragment model.
type Model struct {
	Quantities  []*Quantity
	Flows       []*Flow
	Conversions []*Conversion
	Processes   []*Process
	Fragments   []*Fragment
}

// Merge appends the entities of another model.
func (m *Model) Merge(other *Model) {
	m.Quantities = append(m.Quantities, other.Quantities...)
	m.Flows = append(m.Flows, other.Flows...)
	m.Conversions = append(m.Conversions, other.Conversions...)
	m.Processes = append(m.Processes, other.Processes...)
	m.Fragments = append(m.Fragments, other.Fragments...)
}

// Quantity is a unit of measure or an impact category.
type Quantity struct {
	Name string
	Unit string
	// Method marks an impact category, scored by default.
	Method bool
}

// Flow is a commodity or substance measured in one reference quantity.
type Flow struct {
	Name        string
	Quantity    string
	Elementary  bool
	Compartment []string
	Factors     []*Factor
}

// Factor characterizes one reference unit of a flow in another quantity.
type Factor struct {
	Quantity string
	Value    float64
	Location string
}

// Conversion supplies a factor for a flow that does not carry it.
type Conversion struct {
	Flow     string
	Quantity string
	Value    float64
}

// Process is a modeled activity with its exchanges per unit activity.
type Process struct {
	Name            string
	Location        string
	Classifications []string
	Exchanges       []*Exchange
}

// Exchange is one flow into or out of a process.
type Exchange struct {
	Flow      string
	Direction string
	Value     float64
	Reference bool
	// Provider names the process on the other side of the exchange.
	Provider string
}

// Fragment is one node of a fragment tree. Top-level fragments are
// reference fragments; nested ones are children.
type Fragment struct {
	Name       string
	Flow       string
	Direction  string
	Background bool
	Balance    bool
	Stage      string

	// ExchangeValue is the cached value; nil leaves the default of 1.
	ExchangeValue *float64
	Observed      *float64
	// Scenarios maps scenario names to exchange values.
	Scenarios map[string]float64

	Terminations []*Termination
	Children     []*Fragment
}

// Termination says where a fragment's flow goes, optionally under one
// scenario. Exactly one of Process, Fragment or Self is set; none of them
// leaves the flow as a boundary flow.
type Termination struct {
	Scenario  string
	Process   string
	Fragment  string
	Self      bool
	TermFlow  string
	Direction string
	Descend   *bool
	InboundEV *float64
	// ChildFlows creates one child per non-reference exchange of the
	// process.
	ChildFlows bool
}
