package fragment

import (
	"fmt"
	"sync"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragid"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
)

// Kind classifies a termination.
type Kind int

const (
	Null Kind = iota
	Foreground
	Process
	Subfragment
	Background
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Foreground:
		return "foreground"
	case Process:
		return "process"
	case Subfragment:
		return "subfragment"
	case Background:
		return "background"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Termination is what a fragment resolves to under one scenario.
//
// Everything except descend and the score cache is fixed at construction.
// Changing the target, flow or direction means building a new Termination,
// which starts with an empty score cache.
type Termination struct {
	kind      Kind
	owner     fragid.ID
	ownerFlow *flow.Flow
	process   *inventory.Process
	target    fragid.ID
	termFlow  *flow.Flow
	// refFlow is the process reference exchange the inbound value is
	// relative to.
	refFlow   *flow.Flow
	direction flow.Direction
	inboundEV float64

	mu      sync.Mutex
	descend bool
	scores  *lcia.Results
}

func newNullTermination(f *Fragment) *Termination {
	return &Termination{
		kind:      Null,
		owner:     f.ID,
		ownerFlow: f.Flow,
		termFlow:  f.Flow,
		direction: f.Direction().Complement(),
		inboundEV: 1,
		descend:   true,
		scores:    lcia.NewResults(f.ID.String()),
	}
}

// Kind is the termination class.
func (t *Termination) Kind() Kind { return t.kind }

// IsNull reports a boundary flow.
func (t *Termination) IsNull() bool { return t.kind == Null }

// IsFragment reports a foreground, subfragment or background termination.
func (t *Termination) IsFragment() bool {
	return t.kind == Foreground || t.kind == Subfragment || t.kind == Background
}

// Owner is the fragment the termination belongs to.
func (t *Termination) Owner() fragid.ID { return t.owner }

// Process is the terminating process for Process terminations.
func (t *Termination) Process() *inventory.Process { return t.process }

// Target is the terminating fragment for fragment terminations.
func (t *Termination) Target() fragid.ID { return t.target }

// TermFlow is the flow as understood at the target.
func (t *Termination) TermFlow() *flow.Flow { return t.termFlow }

// Direction is the direction of the match at the target.
func (t *Termination) Direction() flow.Direction { return t.direction }

// InboundEV is the target's per-unit reference exchange value.
func (t *Termination) InboundEV() float64 { return t.inboundEV }

// ProcessReference is the process reference flow the inbound exchange value
// is measured against. It is the term flow unless the termination sits on a
// non-reference exchange.
func (t *Termination) ProcessReference() *flow.Flow {
	if t.refFlow != nil {
		return t.refFlow
	}
	return t.termFlow
}

// SpatialScope is the location of the terminating process, if any.
func (t *Termination) SpatialScope() string {
	if t.process == nil {
		return ""
	}
	return t.process.SpatialScope
}

// TargetID is a printable identifier of whatever the termination points at.
func (t *Termination) TargetID() string {
	switch t.kind {
	case Null:
		return ""
	case Process:
		return t.process.ID
	}
	return t.target.String()
}

// Descend reports whether subfragment detail is expanded inline.
func (t *Termination) Descend() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.descend
}

// SetDescend switches between inline and aggregated subfragments. Turning
// descend on clears the score cache, since detail is then reported inline.
func (t *Termination) SetDescend(v bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.descend = v
	if v {
		t.scores = lcia.NewResults(t.owner.String())
	}
}

// FlowConversion is how many units of the term flow's reference quantity one
// unit of the fragment's flow is.
func (t *Termination) FlowConversion() (float64, error) {
	q := t.termFlow.ReferenceQuantity
	cf := t.ownerFlow.CF(q)
	if cf == 0 {
		return 0, fmt.Errorf("%w: flow %s has no factor for %s", ErrFlowConversion, t.ownerFlow, q)
	}
	return cf, nil
}

// NodeWeightMultiplier converts a fragment magnitude into a node weight.
func (t *Termination) NodeWeightMultiplier() (float64, error) {
	if t.kind == Null {
		return 1, nil
	}
	cf, err := t.FlowConversion()
	if err != nil {
		return 0, err
	}
	return cf / t.inboundEV, nil
}

// Scores returns a copy of the score cache.
func (t *Termination) Scores() *lcia.Results {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores.Clone()
}

// Score returns the cached result for a quantity.
func (t *Termination) Score(quantityID string) (*lcia.Result, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scores.Get(quantityID)
}

// HasScore reports whether a result for the quantity is cached.
func (t *Termination) HasScore(quantityID string) bool {
	_, ok := t.Score(quantityID)
	return ok
}

// SetScore caches a result under its quantity.
func (t *Termination) SetScore(r *lcia.Result) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.scores.Set(r)
}

// SetScores replaces the score cache.
func (t *Termination) SetScores(rs *lcia.Results) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if rs == nil {
		rs = lcia.NewResults(t.owner.String())
	}
	t.scores = rs
}

// ClearScores empties the score cache.
func (t *Termination) ClearScores() {
	t.SetScores(nil)
}

// Equal reports whether two terminations point at the same target with the
// same flow and direction.
func (t *Termination) Equal(other *Termination) bool {
	if t == other {
		return true
	}
	if t == nil || other == nil {
		return false
	}
	if t.kind == Null || other.kind == Null {
		return t.kind == other.kind
	}
	return t.kind == other.kind &&
		t.TargetID() == other.TargetID() &&
		t.termFlow.Match(other.termFlow) &&
		t.direction == other.direction
}
