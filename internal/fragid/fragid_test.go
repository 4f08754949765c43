package fragid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNameIsStable(t *testing.T) {
	a := FromName("truck/diesel")
	b := FromName("truck/diesel")
	c := FromName("truck/tyres")

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.False(t, a.IsNil())
}

func TestRoundTrip(t *testing.T) {
	id := New()

	parsed, err := Parse(id.String())
	require.NoError(t, err)
	assert.Equal(t, id, parsed)

	text, err := id.MarshalText()
	require.NoError(t, err)
	var back ID
	require.NoError(t, back.UnmarshalText(text))
	assert.Equal(t, id, back)

	assert.Len(t, id.Short(), 5)
}

func TestParseInvalid(t *testing.T) {
	_, err := Parse("not-a-uuid")
	assert.Error(t, err)
	assert.True(t, Nil.IsNil())
}
