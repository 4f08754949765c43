package traversal

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
)

// powerModel is a generation fragment (4 units of electricity per reference,
// burning coal) used as a subfragment by a consumer taking 3 units.
type powerModel struct {
	*model
	gen, coal, consumer, use *fragment.Fragment
	useTerm                  *fragment.Termination
}

func newPowerModel(t *testing.T, descend bool) *powerModel {
	m := newModel(t)
	gen := m.root("generation", "elec", flow.Input, 4)
	m.process(gen, "plant").SetScore(unitScore(gwp, 0.5))
	coal := m.child(gen, "coal", "coal", flow.Input, 2)
	m.process(coal, "mine").SetScore(unitScore(gwp, 0.1))

	consumer := m.root("consumer", "widget", flow.Input, 1)
	m.foreground(consumer)
	use := m.child(consumer, "power", "elec", flow.Input, 3)
	term := m.sub(use, gen, descend)
	return &powerModel{model: m, gen: gen, coal: coal, consumer: consumer, use: use, useTerm: term}
}

func TestSubfragmentDescend(t *testing.T) {
	m := newPowerModel(t, true)
	records := m.traverse(m.consumer, scenario.None())

	want := []magnitudes{
		{Name: "consumer", Magnitude: 1, NodeWeight: 1},
		{Name: "power", Magnitude: 3, NodeWeight: 3},
		{Name: "generation", Magnitude: 3, NodeWeight: 3},
		{Name: "coal", Magnitude: 1.5, NodeWeight: 1.5},
	}
	if diff := cmp.Diff(want, summarize(records), cmpopts.EquateApprox(0, tol)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}

	results, err := ToLCIA(records)
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, 1.65, res.Total(), 1e-9)
}

func TestSubfragmentAggregated(t *testing.T) {
	m := newPowerModel(t, false)
	records := m.traverse(m.consumer, scenario.None())

	require.Len(t, records, 2, "aggregated subfragment detail stays in the score cache")
	assert.InDelta(t, 3.0, records[1].NodeWeight, tol)

	cached, ok := m.useTerm.Score("gwp")
	require.True(t, ok)
	assert.InDelta(t, 0.55, cached.Total(), 1e-9)

	results, err := ToLCIA(records)
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, 1.65, res.Total(), 1e-9)
}

func TestDescendAndAggregateAgree(t *testing.T) {
	for _, ev := range []float64{0.5, 3, 12} {
		totals := map[bool]float64{}
		for _, descend := range []bool{true, false} {
			m := newModel(t)
			gen := m.root("generation", "elec", flow.Input, 2)
			m.process(gen, "plant").SetScore(unitScore(gwp, 0.4))
			consumer := m.root("consumer", "widget", flow.Input, 1)
			m.foreground(consumer)
			use := m.child(consumer, "power", "elec", flow.Input, ev)
			m.sub(use, gen, descend)

			results, err := New(m.store).FragmentLCIA(m.ctx, consumer.ID, scenario.None(), false)
			require.NoError(t, err)
			res, ok := results.Get("gwp")
			require.True(t, ok)
			totals[descend] = res.Total()
		}
		assert.InDelta(t, totals[true], totals[false], 1e-9, "demand %g", ev)
		assert.InDelta(t, 0.4*ev, totals[true], 1e-9, "demand %g", ev)
	}
}

func TestDuplicateSubfragmentMerge(t *testing.T) {
	m := newModel(t)
	gen := m.root("generation", "elec", flow.Input, 1)
	m.process(gen, "plant").SetScore(unitScore(gwp, 0.5))

	consumer := m.root("consumer", "widget", flow.Input, 1)
	m.foreground(consumer)
	m.sub(m.child(consumer, "day", "elec", flow.Input, 3), gen, true)
	m.sub(m.child(consumer, "night", "elec", flow.Input, 1), gen, true)

	results, err := ToLCIA(m.traverse(consumer, scenario.None()))
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, 2.0, res.Total(), 1e-9)

	c, ok := res.Component(gen.ID.String())
	require.True(t, ok)
	assert.Empty(t, c.Details())
	require.Len(t, c.Summaries(), 1)
	assert.InDelta(t, 4.0, c.Summaries()[0].NodeWeight, tol)

	merged, ok := c.Entity.(FragmentFlow)
	require.True(t, ok)
	assert.InDelta(t, 4.0, merged.NodeWeight, tol)
}

func TestDuplicateMergeKeepsMagnitude(t *testing.T) {
	m := newModel(t)
	gen := m.root("generation", "elec", flow.Input, 1)
	m.process(gen, "plant", fragment.WithInboundEV(2)).SetScore(unitScore(gwp, 0.5))

	consumer := m.root("consumer", "widget", flow.Input, 1)
	m.foreground(consumer)
	m.sub(m.child(consumer, "day", "elec", flow.Input, 3), gen, true)
	m.sub(m.child(consumer, "night", "elec", flow.Input, 1), gen, true)

	results, err := ToLCIA(m.traverse(consumer, scenario.None()))
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, 1.0, res.Total(), 1e-9)

	c, ok := res.Component(gen.ID.String())
	require.True(t, ok)
	merged, ok := c.Entity.(FragmentFlow)
	require.True(t, ok)
	assert.InDelta(t, 4.0, merged.Magnitude, tol)
	assert.InDelta(t, 2.0, merged.NodeWeight, tol)
}

// heatModel delivers heat while consuming some of it, burning gas and
// emitting co2. The consumer's own child takes the gas.
func heatModel(t *testing.T) (*model, *fragment.Fragment, *fragment.Fragment) {
	m := newModel(t)
	boiler := m.root("boiler", "heat", flow.Input, 1)
	m.foreground(boiler)
	m.child(boiler, "gas", "gas", flow.Input, 2)
	m.child(boiler, "pump heat", "heat", flow.Input, 0.2)
	m.child(boiler, "stack", "co2", flow.Output, 1.5)

	plant := m.root("plant", "product", flow.Input, 1)
	m.foreground(plant)
	heat := m.child(plant, "heat", "heat", flow.Input, 1)
	m.sub(heat, boiler, true)
	gas := m.child(heat, "gas supply", "gas", flow.Input, 1)
	return m, plant, gas
}

func TestAutoconsumption(t *testing.T) {
	m, plant, gas := heatModel(t)
	records := m.traverse(plant, scenario.None())

	want := []magnitudes{
		{Name: "plant", Magnitude: 1, NodeWeight: 1},
		{Name: "heat", Magnitude: 1, NodeWeight: 1},
		{Name: "boiler", Magnitude: 1.25, NodeWeight: 1.25},
		{Name: "gas supply", Magnitude: 2.5, NodeWeight: 2.5},
		{Name: "stack", Magnitude: 1.875, NodeWeight: 1.875},
	}
	if diff := cmp.Diff(want, summarize(records), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("records mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 2.0, gas.ExchangeValues().Observed(), tol, "matched exchange value is memoized")
}

func TestFragmentInventory(t *testing.T) {
	m, plant, _ := heatModel(t)

	inv, err := New(m.store).Inventory(m.ctx, plant.ID, scenario.None(), false)
	require.NoError(t, err)

	type row struct {
		Flow      string
		Direction flow.Direction
		Value     float64
	}
	var got []row
	for _, x := range inv {
		got = append(got, row{Flow: x.Flow.Name, Direction: x.Direction, Value: x.Value})
	}
	want := []row{
		{Flow: "gas", Direction: flow.Input, Value: 2.5},
		{Flow: "co2", Direction: flow.Output, Value: 1.875},
	}
	if diff := cmp.Diff(want, got, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("inventory mismatch (-want +got):\n%s", diff)
	}
}

func TestInventoryReferenceDeficit(t *testing.T) {
	m := newModel(t)
	r := m.root("loop", "product", flow.Input, 1)
	m.foreground(r)
	m.child(r, "self use", "product", flow.Input, 2)

	_, err := New(m.store).Inventory(m.ctx, r.ID, scenario.None(), false)
	assert.ErrorIs(t, err, ErrReferenceDeficit)
}

func TestInventoryNetsReferenceFlow(t *testing.T) {
	m := newModel(t)
	r := m.root("refinery", "fuel", flow.Input, 1)
	m.foreground(r)
	m.child(r, "crude", "crude", flow.Input, 4)
	m.child(r, "own fuel", "fuel", flow.Input, 0.5)

	inv, err := New(m.store).Inventory(m.ctx, r.ID, scenario.None(), false)
	require.NoError(t, err)
	require.Len(t, inv, 1)
	assert.Equal(t, "crude", inv[0].Flow.Name)
	assert.InDelta(t, 8.0, inv[0].Value, 1e-12, "per unit of net output")
}

func TestSubfragmentBelowRoot(t *testing.T) {
	m := newModel(t)
	chp := m.root("chp", "heat", flow.Input, 1)
	m.foreground(chp)
	steam := m.child(chp, "steam", "steam", flow.Output, 1)
	m.child(chp, "coal", "coal", flow.Input, 0.5)

	plant := m.root("plant", "product", flow.Input, 1)
	m.foreground(plant)
	use := m.child(plant, "steam use", "steam", flow.Input, 2)
	m.sub(use, steam, true)
	coheat := m.child(use, "co-heat", "heat", flow.Output, 0)

	records := m.traverse(plant, scenario.None())
	assert.Empty(t, find(records, steam), "entry point is absorbed into the reconciliation")

	got := find(records, coheat)
	require.Len(t, got, 1)
	assert.InDelta(t, 2.0, got[0].Magnitude, tol, "reference flow of the host fragment is taken by the matching child")

	coal := records[len(records)-1]
	assert.Equal(t, "coal", coal.Fragment.Name)
	assert.InDelta(t, 1.0, coal.Magnitude, tol)

	for _, r := range records[1:] {
		if r.IsIO() {
			assert.NotEqual(t, "chp", r.Fragment.Name, "host reference flow is never emitted")
		}
	}
}

func TestSubfragmentZeroNetReference(t *testing.T) {
	m := newModel(t)
	pass := m.root("passthrough", "heat", flow.Input, 1)
	m.foreground(pass)
	m.child(pass, "heat back", "heat", flow.Input, 1)

	r := m.root("r", "x", flow.Input, 1)
	m.foreground(r)
	m.sub(m.child(r, "heat", "heat", flow.Input, 1), pass, true)

	_, err := New(m.store).Traverse(m.ctx, r.ID, scenario.None(), false)
	assert.ErrorIs(t, err, fragment.ErrInvalidParentChild)
}

func TestAutoconsumptionCoproduct(t *testing.T) {
	m := newModel(t)
	boiler := m.root("boiler", "heat", flow.Input, 1)
	m.foreground(boiler)
	m.child(boiler, "extra heat", "heat", flow.Output, 0.2)
	m.child(boiler, "pump heat", "heat", flow.Input, 0.1)
	stack := m.child(boiler, "stack", "co2", flow.Output, 1)

	plant := m.root("plant", "product", flow.Input, 1)
	m.foreground(plant)
	m.sub(m.child(plant, "heat", "heat", flow.Input, 1), boiler, true)

	records := m.traverse(plant, scenario.None())

	// each boiler run delivers 1 + 0.2 - 0.1 heat
	recs := find(records, boiler)
	require.Len(t, recs, 1)
	assert.InDelta(t, 1/1.1, recs[0].Magnitude, 1e-12)
	assert.InDelta(t, 1/1.1, recs[0].NodeWeight, 1e-12)
	for _, r := range records {
		assert.NotContains(t, []string{"extra heat", "pump heat"}, r.Fragment.Name, "heat exchanges are netted into the activity level")
	}
	emitted := find(records, stack)
	require.Len(t, emitted, 1)
	assert.InDelta(t, 1/1.1, emitted[0].Magnitude, 1e-12)
}
