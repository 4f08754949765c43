package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDirection(t *testing.T) {
	t.Run("complement", func(t *testing.T) {
		assert.Equal(t, Output, Input.Complement())
		assert.Equal(t, Input, Output.Complement())
	})

	t.Run("inflow sign", func(t *testing.T) {
		assert.Equal(t, 1.0, Input.InflowSign())
		assert.Equal(t, -1.0, Output.InflowSign())
	})

	t.Run("parse", func(t *testing.T) {
		d, err := ParseDirection("output")
		require.NoError(t, err)
		assert.Equal(t, Output, d)

		_, err = ParseDirection("sideways")
		assert.ErrorIs(t, err, ErrInvalidDirection)
	})

	t.Run("text round trip", func(t *testing.T) {
		b, err := Output.MarshalText()
		require.NoError(t, err)
		var d Direction
		require.NoError(t, d.UnmarshalText(b))
		assert.Equal(t, Output, d)
	})
}

func TestFlowCF(t *testing.T) {
	mass := &Quantity{ID: "mass", Unit: "kg"}
	energy := &Quantity{ID: "energy", Unit: "MJ"}
	gwp := &Quantity{ID: "gwp", Unit: "kg CO2 eq", Method: true}

	f := New("diesel", "Diesel", mass)
	f.SetCF(energy, 42.8)

	assert.Equal(t, 1.0, f.CF(mass))
	assert.Equal(t, 42.8, f.CF(energy))
	assert.Equal(t, 0.0, f.CF(gwp), "unknown quantity contributes zero")
	assert.Equal(t, 0.0, f.CF(nil))

	v, err := f.Convert(energy)
	require.NoError(t, err)
	assert.Equal(t, 42.8, v)

	_, err = f.Convert(gwp)
	assert.ErrorIs(t, err, ErrMissingFactor)

	cfs := f.Characterizations()
	require.Len(t, cfs, 1)
	assert.Equal(t, "energy", cfs[0].Quantity.ID)
}

func TestFlowMatch(t *testing.T) {
	mass := &Quantity{ID: "mass", Unit: "kg"}
	a := New("x", "X", mass)
	b := New("x", "X copy", mass)
	c := New("y", "Y", mass)

	assert.True(t, a.Match(b))
	assert.False(t, a.Match(c))
	assert.False(t, a.Match(nil))
}

func TestFlowLocatedCF(t *testing.T) {
	mass := &Quantity{ID: "mass", Unit: "kg"}
	water := &Quantity{ID: "water", Unit: "m3"}
	land := &Quantity{ID: "land", Unit: "m2a"}

	f := New("irrigation", "Irrigation", mass)
	f.SetLocatedCF(water, 0.7, "ES")
	f.SetCF(land, 2)

	assert.Equal(t, 0.7, f.LocatedCF(water, "ES"))
	assert.Equal(t, 0.0, f.LocatedCF(water, "DE"))
	assert.Equal(t, 0.7, f.LocatedCF(water, ""), "no location asks for any factor")
	assert.Equal(t, 2.0, f.LocatedCF(land, "DE"))
	assert.Equal(t, 1.0, f.LocatedCF(mass, "DE"))
}
