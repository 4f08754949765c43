package traversal

import (
	"fmt"

	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
)

// FragmentFlow is one step of a traversal: a fragment, the termination in
// effect, its magnitude per reference unit of the traversed fragment, and its
// node weight after the termination's unit conversion.
//
// Records are values. Scaling one returns a copy.
type FragmentFlow struct {
	Fragment   *fragment.Fragment
	Term       *fragment.Termination
	Magnitude  float64
	NodeWeight float64
	// Conserved marks a nonzero contribution to the parent's balance.
	Conserved bool
}

// IsIO reports a boundary flow.
func (ff FragmentFlow) IsIO() bool { return ff.Term.IsNull() }

// Scaled multiplies magnitude and node weight by x.
func (ff FragmentFlow) Scaled(x float64) FragmentFlow {
	ff.Magnitude *= x
	ff.NodeWeight *= x
	return ff
}

func (ff FragmentFlow) withFragment(f *fragment.Fragment) FragmentFlow {
	ff.Fragment = f
	return ff
}

func (ff FragmentFlow) withNodeWeight(nw float64) FragmentFlow {
	ff.NodeWeight = nw
	return ff
}

// Augment absorbs a duplicate merged during aggregation. A duplicate record
// adds its magnitude and node weight; a bare result entry carries only a
// node weight, which stands for both.
func (ff FragmentFlow) Augment(dup any) any {
	var mag, nw float64
	switch d := dup.(type) {
	case FragmentFlow:
		mag, nw = d.Magnitude, d.NodeWeight
	case lcia.DetailedResult:
		mag, nw = d.ExchangeValue, d.ExchangeValue
	case lcia.SummaryResult:
		mag, nw = d.NodeWeight, d.NodeWeight
	default:
		return ff
	}
	ff.Magnitude += mag
	ff.NodeWeight += nw
	return ff
}

// Same reports whether two records describe the same step with the same
// values.
func (ff FragmentFlow) Same(other FragmentFlow) bool {
	return ff.Fragment.ID == other.Fragment.ID &&
		ff.Term.Equal(other.Term) &&
		ff.Magnitude == other.Magnitude &&
		ff.NodeWeight == other.NodeWeight
}

func (ff FragmentFlow) String() string {
	term := "-# "
	if ff.IsIO() {
		term = "--:"
	}
	return fmt.Sprintf("%s  %10.3g [%6s] %s %s",
		ff.Fragment.ID.Short(), ff.NodeWeight, ff.Fragment.Direction(), term, ff.Fragment.Name)
}
