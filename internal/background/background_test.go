package background

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specialistvlad/fragmentgo/internal/flow"
	"github.com/specialistvlad/fragmentgo/internal/inventory"
)

func TestCharacterize(t *testing.T) {
	mass := &flow.Quantity{ID: "mass", Unit: "kg"}
	water := &flow.Quantity{ID: "water", Unit: "m3 eq", Method: true}

	abstraction := flow.New("h2o", "water, river", mass)
	abstraction.SetLocatedCF(water, 0.9, "ES")
	steam := flow.New("steam", "steam", mass)

	exterior := []inventory.Exchange{
		{Flow: abstraction, Direction: flow.Input, Value: 10},
		{Flow: steam, Direction: flow.Output, Value: 3},
	}

	tests := []struct {
		name     string
		location string
		want     float64
	}{
		{name: "factor applies at its location", location: "ES", want: 9},
		{name: "factor does not apply elsewhere", location: "SE", want: 0},
		{name: "unlocated process takes any factor", location: "", want: 9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &inventory.Process{ID: "irrigation", SpatialScope: tt.location}
			res, err := Characterize(p, exterior, water)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, res.Total(), 1e-12)
			assert.Equal(t, []string{"irrigation"}, res.Keys())
		})
	}
}
