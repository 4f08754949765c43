package scoring

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/catalog"
	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/fragment"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
	"github.com/specialistvlad/fragmentgo/internal/scenario"
	"github.com/specialistvlad/fragmentgo/internal/traversal"
)

var (
	mass   = &flow.Quantity{ID: "mass", Unit: "kg"}
	energy = &flow.Quantity{ID: "energy", Unit: "MJ"}
	gwp    = &flow.Quantity{ID: "gwp", Unit: "kg CO2 eq", Method: true}
)

type fixture struct {
	ctx        context.Context
	cat        *catalog.Catalog
	store      *fragment.Store
	root, grid *fragment.Fragment
	emission   *fragment.Fragment
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	steel := flow.New("steel", "steel", mass)
	elec := flow.New("elec", "electricity", energy)
	co2 := flow.New("co2", "carbon dioxide", mass)
	co2.Elementary = true
	co2.SetCF(gwp, 1)
	ch4 := flow.New("ch4", "methane", mass)
	ch4.Elementary = true
	ch4.SetCF(gwp, 28)

	cat := catalog.New()
	require.NoError(t, cat.AddProcess(&inventory.Process{ID: "steelmaking"}, []inventory.Exchange{
		{Flow: steel, Direction: flow.Output, Value: 2, Reference: true},
		{Flow: co2, Direction: flow.Output, Value: 3},
	}))
	require.NoError(t, cat.AddProcess(&inventory.Process{ID: "grid"}, []inventory.Exchange{
		{Flow: elec, Direction: flow.Output, Value: 1, Reference: true},
		{Flow: co2, Direction: flow.Output, Value: 0.5},
		{Flow: ch4, Direction: flow.Output, Value: 0.01},
	}))

	store := fragment.NewStore(fragment.WithInventory(cat), fragment.WithFactorSource(cat))
	grid, err := store.NewBackground("grid", elec, flow.Input)
	require.NoError(t, err)
	_, err = store.Terminate(ctx, grid.ID, scenario.None(), fragment.ToProcess(&inventory.Process{ID: "grid", Name: "grid"}))
	require.NoError(t, err)

	root, err := store.NewReference("steel", steel, flow.Input)
	require.NoError(t, err)
	_, err = store.Terminate(ctx, root.ID, scenario.None(), fragment.ToProcess(&inventory.Process{ID: "steelmaking", Name: "steelmaking"}))
	require.NoError(t, err)

	power, err := store.NewChild(root.ID, "power", elec, flow.Input)
	require.NoError(t, err)
	require.NoError(t, power.SetCachedEV(2))
	_, err = store.Terminate(ctx, power.ID, scenario.None(), fragment.ToFragment(grid.ID))
	require.NoError(t, err)

	leak, err := store.NewChild(root.ID, "leak", ch4, flow.Output)
	require.NoError(t, err)
	require.NoError(t, leak.SetCachedEV(0.1))
	_, err = store.TerminateForeground(ctx, leak.ID, scenario.None())
	require.NoError(t, err)

	return &fixture{ctx: ctx, cat: cat, store: store, root: root, grid: grid, emission: leak}
}

func TestScoreAndAggregate(t *testing.T) {
	fx := newFixture(t)
	s := New(fx.store, WithProcessLCIA(fx.cat), WithSolver(fx.cat))

	n, err := s.Score(fx.ctx, fx.root.ID, gwp)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bg, ok := fx.grid.DefaultTermination().Score("gwp")
	require.True(t, ok)
	assert.InDelta(t, 0.78, bg.Total(), 1e-12)

	fg, ok := fx.emission.DefaultTermination().Score("gwp")
	require.True(t, ok)
	assert.InDelta(t, 28.0, fg.Total(), 1e-12)

	results, err := traversal.New(fx.store).FragmentLCIA(fx.ctx, fx.root.ID, scenario.None(), false)
	require.NoError(t, err)
	res, ok := results.Get("gwp")
	require.True(t, ok)
	assert.InDelta(t, 1.5+2*0.78+0.1*28, res.Total(), 1e-9)
}

func TestScoreIsCached(t *testing.T) {
	fx := newFixture(t)

	n, err := New(fx.store, WithProcessLCIA(fx.cat), WithSolver(fx.cat)).Score(fx.ctx, fx.root.ID, gwp)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	n, err = New(fx.store, WithProcessLCIA(fx.cat), WithSolver(fx.cat)).Score(fx.ctx, fx.root.ID, gwp)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	n, err = New(fx.store, WithProcessLCIA(fx.cat), WithSolver(fx.cat), WithRefresh()).Score(fx.ctx, fx.root.ID, gwp)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestScoreWithoutEngines(t *testing.T) {
	fx := newFixture(t)

	n, err := New(fx.store).Score(fx.ctx, fx.root.ID, gwp)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "only the foreground emission can be scored")
	assert.False(t, fx.root.DefaultTermination().HasScore("gwp"))
}

func TestForegroundReferenceQuantityIsNotAnImpact(t *testing.T) {
	fx := newFixture(t)

	_, err := New(fx.store).Score(fx.ctx, fx.root.ID, mass)
	require.NoError(t, err)
	res, ok := fx.emission.DefaultTermination().Score("mass")
	require.True(t, ok)
	assert.Equal(t, 0.0, res.Total())
}

func TestScoreUnknownFragment(t *testing.T) {
	fx := newFixture(t)
	other := fragment.NewStore()
	_, err := New(other).Score(fx.ctx, fx.root.ID, gwp)
	assert.ErrorIs(t, err, fragment.ErrNotFound)
}
