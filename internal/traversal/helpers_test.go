package traversal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/lcia"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

var (
	mass   = &flow.Quantity{ID: "mass", Name: "Mass", Unit: "kg"}
	energy = &flow.Quantity{ID: "energy", Name: "Energy", Unit: "MJ"}
	gwp    = &flow.Quantity{ID: "gwp", Name: "Climate change", Unit: "kg CO2 eq", Method: true}
)

// model wraps a store with terse helpers for building test trees.
type model struct {
	t     *testing.T
	ctx   context.Context
	store *fragment.Store
	flows map[string]*flow.Flow
}

func newModel(t *testing.T) *model {
	t.Helper()
	return &model{
		t:     t,
		ctx:   context.Background(),
		store: fragment.NewStore(),
		flows: make(map[string]*flow.Flow),
	}
}

func (m *model) flow(name string, q *flow.Quantity) *flow.Flow {
	if f, ok := m.flows[name]; ok {
		return f
	}
	f := flow.New(name, name, q)
	m.flows[name] = f
	return f
}

func (m *model) root(name, flowName string, dir flow.Direction, ev float64) *fragment.Fragment {
	m.t.Helper()
	f, err := m.store.NewReference(name, m.flow(flowName, mass), dir)
	require.NoError(m.t, err)
	if ev != 1 {
		require.NoError(m.t, f.SetCachedEV(ev))
	}
	return f
}

func (m *model) background(name, flowName string, dir flow.Direction) *fragment.Fragment {
	m.t.Helper()
	f, err := m.store.NewBackground(name, m.flow(flowName, mass), dir)
	require.NoError(m.t, err)
	return f
}

func (m *model) child(parent *fragment.Fragment, name, flowName string, dir flow.Direction, ev float64) *fragment.Fragment {
	m.t.Helper()
	f, err := m.store.NewChild(parent.ID, name, m.flow(flowName, mass), dir)
	require.NoError(m.t, err)
	require.NoError(m.t, f.SetCachedEV(ev))
	return f
}

func (m *model) foreground(f *fragment.Fragment) *fragment.Termination {
	m.t.Helper()
	term, err := m.store.TerminateForeground(m.ctx, f.ID, scenario.None())
	require.NoError(m.t, err)
	return term
}

func (m *model) process(f *fragment.Fragment, id string, opts ...fragment.TermOption) *fragment.Termination {
	m.t.Helper()
	term, err := m.store.Terminate(m.ctx, f.ID, scenario.None(),
		fragment.ToProcess(&inventory.Process{ID: id, Name: id, SpatialScope: "GLO"}), opts...)
	require.NoError(m.t, err)
	return term
}

func (m *model) sub(f, target *fragment.Fragment, descend bool) *fragment.Termination {
	m.t.Helper()
	term, err := m.store.Terminate(m.ctx, f.ID, scenario.None(), fragment.ToFragment(target.ID), fragment.WithDescend(descend))
	require.NoError(m.t, err)
	return term
}

func (m *model) traverse(f *fragment.Fragment, sc scenario.Spec) []FragmentFlow {
	m.t.Helper()
	records, err := New(m.store).Traverse(m.ctx, f.ID, sc, false)
	require.NoError(m.t, err)
	return records
}

// unitScore is a cached result whose total is v.
func unitScore(q *flow.Quantity, v float64) *lcia.Result {
	r := lcia.NewResult(q, "")
	_ = r.AddSummary("unit", nil, "unit", 1, v)
	return r
}

// find returns the records of a fragment, in order.
func find(records []FragmentFlow, f *fragment.Fragment) []FragmentFlow {
	var out []FragmentFlow
	for _, r := range records {
		if r.Fragment.ID == f.ID {
			out = append(out, r)
		}
	}
	return out
}
