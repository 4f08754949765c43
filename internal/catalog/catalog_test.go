package catalog

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/background"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
)

type fixture struct {
	cat                   *Catalog
	mass, energy, gwp     *flow.Quantity
	steel, elec, co2, ch4 *flow.Flow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		cat:    New(),
		mass:   &flow.Quantity{ID: "mass", Unit: "kg"},
		energy: &flow.Quantity{ID: "energy", Unit: "MJ"},
		gwp:    &flow.Quantity{ID: "gwp", Unit: "kg CO2 eq", Method: true},
	}
	fx.steel = flow.New("steel", "steel", fx.mass)
	fx.elec = flow.New("elec", "electricity", fx.energy)
	fx.co2 = flow.New("co2", "carbon dioxide", fx.mass)
	fx.co2.Elementary = true
	fx.co2.SetCF(fx.gwp, 1)
	fx.ch4 = flow.New("ch4", "methane", fx.mass)
	fx.ch4.Elementary = true
	fx.ch4.SetCF(fx.gwp, 28)

	for _, q := range []*flow.Quantity{fx.mass, fx.energy, fx.gwp} {
		require.NoError(t, fx.cat.AddQuantity(q))
	}
	for _, f := range []*flow.Flow{fx.steel, fx.elec, fx.co2, fx.ch4} {
		require.NoError(t, fx.cat.AddFlow(f))
	}
	require.NoError(t, fx.cat.AddProcess(&inventory.Process{ID: "steelmaking", Name: "steelmaking"}, []inventory.Exchange{
		{Flow: fx.steel, Direction: flow.Output, Value: 2, Reference: true},
		{Flow: fx.elec, Direction: flow.Input, Value: 4, Termination: "grid"},
		{Flow: fx.co2, Direction: flow.Output, Value: 3},
	}))
	require.NoError(t, fx.cat.AddProcess(&inventory.Process{ID: "grid", Name: "grid"}, []inventory.Exchange{
		{Flow: fx.elec, Direction: flow.Output, Value: 1, Reference: true},
		{Flow: fx.co2, Direction: flow.Output, Value: 0.5},
		{Flow: fx.ch4, Direction: flow.Output, Value: 0.01},
	}))
	return fx
}

type row struct {
	Flow      string
	Direction flow.Direction
	Value     float64
}

func rows(xs []inventory.Exchange) []row {
	out := make([]row, 0, len(xs))
	for _, x := range xs {
		out = append(out, row{Flow: x.Flow.ID, Direction: x.Direction, Value: x.Value})
	}
	return out
}

func TestCatalogEntities(t *testing.T) {
	fx := newFixture(t)

	assert.ErrorIs(t, fx.cat.AddQuantity(fx.mass), ErrDuplicate)
	assert.ErrorIs(t, fx.cat.AddFlow(fx.co2), ErrDuplicate)
	assert.ErrorIs(t, fx.cat.AddProcess(&inventory.Process{ID: "grid"}, nil), ErrDuplicate)

	q, ok := fx.cat.Quantity("gwp")
	require.True(t, ok)
	assert.Same(t, fx.gwp, q)
	assert.Equal(t, []*flow.Quantity{fx.gwp}, fx.cat.Methods())
	assert.Len(t, fx.cat.Flows(), 4)
	assert.Len(t, fx.cat.Processes(), 2)

	_, err := fx.cat.Process(context.Background(), "nope")
	assert.ErrorIs(t, err, inventory.ErrUnknownProcess)
}

func TestCatalogInventory(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	got, err := fx.cat.Inventory(ctx, "steelmaking", fx.steel)
	require.NoError(t, err)
	want := []row{
		{Flow: "elec", Direction: flow.Input, Value: 2},
		{Flow: "co2", Direction: flow.Output, Value: 1.5},
	}
	assert.Equal(t, want, rows(got))

	byDefault, err := fx.cat.Inventory(ctx, "steelmaking", nil)
	require.NoError(t, err)
	assert.Equal(t, want, rows(byDefault))

	_, err = fx.cat.Inventory(ctx, "steelmaking", fx.co2)
	assert.ErrorIs(t, err, inventory.ErrNoReference)

	all, err := fx.cat.Exchanges(ctx, "steelmaking")
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Len(t, inventory.References(all), 1)
}

func TestCatalogLCI(t *testing.T) {
	fx := newFixture(t)
	ctx := context.Background()

	lci, err := fx.cat.LCI(ctx, "steelmaking", fx.steel)
	require.NoError(t, err)
	want := []row{
		{Flow: "co2", Direction: flow.Output, Value: 2.5},
		{Flow: "ch4", Direction: flow.Output, Value: 0.02},
	}
	if diff := cmp.Diff(want, rows(lci), cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("LCI mismatch (-want +got):\n%s", diff)
	}

	again, err := fx.cat.LCI(ctx, "steelmaking", fx.steel)
	require.NoError(t, err)
	assert.Equal(t, rows(lci), rows(again))

	res, err := background.Characterize(&inventory.Process{ID: "steelmaking"}, lci, fx.gwp)
	require.NoError(t, err)
	assert.InDelta(t, 3.06, res.Total(), 1e-12)
}

func TestCatalogLCICycle(t *testing.T) {
	fx := newFixture(t)
	require.NoError(t, fx.cat.AddProcess(&inventory.Process{ID: "mill"}, []inventory.Exchange{
		{Flow: fx.elec, Direction: flow.Output, Value: 1, Reference: true},
		{Flow: fx.steel, Direction: flow.Input, Value: 0.1, Termination: "smelter"},
	}))
	require.NoError(t, fx.cat.AddProcess(&inventory.Process{ID: "smelter"}, []inventory.Exchange{
		{Flow: fx.steel, Direction: flow.Output, Value: 1, Reference: true},
		{Flow: fx.elec, Direction: flow.Input, Value: 3, Termination: "mill"},
	}))

	_, err := fx.cat.LCI(context.Background(), "mill", fx.elec)
	assert.ErrorIs(t, err, background.ErrCycle)
}

func TestCatalogProcessLCIA(t *testing.T) {
	fx := newFixture(t)

	res, err := fx.cat.ProcessLCIA(context.Background(), "steelmaking", fx.steel, fx.gwp)
	require.NoError(t, err)
	assert.InDelta(t, 1.5, res.Total(), 1e-12, "only direct elementary exchanges count")

	comp, ok := res.Component("steelmaking")
	require.True(t, ok)
	require.Len(t, comp.Details(), 1)
	assert.Equal(t, "co2", comp.Details()[0].Flow)
}

func TestCatalogFactor(t *testing.T) {
	fx := newFixture(t)

	_, ok := fx.cat.Factor(fx.steel, fx.energy)
	assert.False(t, ok)

	fx.cat.AddConversion("steel", fx.energy, 20)
	v, ok := fx.cat.Factor(fx.steel, fx.energy)
	require.True(t, ok)
	assert.Equal(t, 20.0, v)

	imported := flow.New("co2", "carbon dioxide", fx.mass)
	v, ok = fx.cat.Factor(imported, fx.gwp)
	require.True(t, ok, "factor taken from the catalog's copy of the flow")
	assert.Equal(t, 1.0, v)
}
