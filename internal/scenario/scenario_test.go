package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func set(keys ...string) func(string) bool {
	m := make(map[string]bool, len(keys))
	for _, k := range keys {
		m[k] = true
	}
	return func(k string) bool { return m[k] }
}

func TestSpecKey(t *testing.T) {
	testCases := []struct {
		name     string
		spec     Spec
		key      string
		isNone   bool
		isTuple  bool
		rendered string
	}{
		{name: "none", spec: None(), key: "", isNone: true, rendered: "<none>"},
		{name: "named", spec: Named("high"), key: "high", rendered: "high"},
		{name: "empty named is none", spec: Named(""), key: "", isNone: true, rendered: "<none>"},
		{name: "tuple", spec: Tuple("a", "b"), key: "a____b", isTuple: true, rendered: "(a, b)"},
		{name: "tuple of one", spec: Tuple("a"), key: "a", rendered: "a"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.key, tc.spec.Key())
			assert.Equal(t, tc.isNone, tc.spec.IsNone())
			assert.Equal(t, tc.isTuple, tc.spec.IsTuple())
			assert.Equal(t, tc.rendered, tc.spec.String())
			assert.Equal(t, tc.spec, Parse(tc.spec.Key()))
		})
	}
}

func TestSpecMatch(t *testing.T) {
	t.Run("tuple with two hits conflicts", func(t *testing.T) {
		_, _, err := Tuple("a", "b").Match(set("a", "b"))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("tuple with one hit resolves", func(t *testing.T) {
		key, ok, err := Tuple("a", "c").Match(set("a", "b"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a", key)
	})

	t.Run("joined key wins over members", func(t *testing.T) {
		key, ok, err := Tuple("a", "b").Match(set("a", "b", "a____b"))
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "a____b", key)
	})

	t.Run("named miss", func(t *testing.T) {
		_, ok, err := Named("z").Match(set("a"))
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("none never matches", func(t *testing.T) {
		_, ok, err := None().Match(set(""))
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("high-recycling"))
	assert.ErrorIs(t, ValidateName(""), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("0"), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("1"), ErrInvalidName)
	assert.ErrorIs(t, ValidateName("a____b"), ErrInvalidName)
}

func TestSingle(t *testing.T) {
	name, err := Named("x").Single()
	require.NoError(t, err)
	assert.Equal(t, "x", name)

	_, err = Tuple("x", "y").Single()
	assert.ErrorIs(t, err, ErrTupleNotAllowed)
}
