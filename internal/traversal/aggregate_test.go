package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

func TestToLCIASkipsBoundaryFlows(t *testing.T) {
	m := newModel(t)
	r := m.root("r", "x", flow.Input, 1)
	m.foreground(r)
	m.child(r, "waste", "waste", flow.Output, 2)

	results, err := ToLCIA(m.traverse(r, scenario.None()))
	require.NoError(t, err)
	assert.Equal(t, 0, results.Len())
}

func TestToLCIASameDirectionIsCredit(t *testing.T) {
	m := newModel(t)
	r := m.root("r", "x", flow.Input, 1)
	m.foreground(r)
	c := m.child(r, "avoided", "elec", flow.Output, 2)
	m.process(c, "grid", fragment.WithDirection(flow.Output)).SetScore(unitScore(gwp, 0.3))

	results, err := ToLCIA(m.traverse(r, scenario.None()))
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, -0.6, res.Total(), 1e-12)
}

func TestStageAggregation(t *testing.T) {
	m := newModel(t)
	r := m.root("r", "x", flow.Input, 1)
	m.foreground(r)

	a := m.child(r, "a", "a", flow.Input, 1)
	m.process(a, "pa").SetScore(unitScore(gwp, 1))
	a.SetStage("production")
	b := m.child(r, "b", "b", flow.Input, 2)
	m.process(b, "pb").SetScore(unitScore(gwp, 1))
	b.SetStage("production")
	c := m.child(r, "c", "c", flow.Input, 4)
	m.process(c, "pc").SetScore(unitScore(gwp, 1))
	c.SetStage("transport")

	results, err := ToLCIA(m.traverse(r, scenario.None()))
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)

	byStage, err := res.Aggregate(StageKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"production", "transport"}, byStage.Keys())
	prod, ok := byStage.Component("production")
	require.True(t, ok)
	assert.InDelta(t, 3.0, prod.Cumulative(1), 1e-12)
	assert.InDelta(t, res.Total(), byStage.Total(), 1e-12)

	byName, err := res.Aggregate(FragmentKey)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, byName.Keys())
}

func TestGroupingKeysRejectOtherEntities(t *testing.T) {
	_, ok := StageKey("not a record")
	assert.False(t, ok)
	_, ok = FragmentKey(FragmentFlow{})
	assert.False(t, ok)
}
