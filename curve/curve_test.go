package curve

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEaseInOutEndpoints(t *testing.T) {
	c := EaseInOut{From: 0.2, To: 1.0}

	assert.InDelta(t, 0.2, c.Evaluate(0), 1e-12)
	assert.InDelta(t, 1.0, c.Evaluate(1), 1e-12)
	assert.InDelta(t, 0.6, c.Evaluate(0.5), 1e-12)

	// clamped outside [0,1]
	assert.InDelta(t, 0.2, c.Evaluate(-3), 1e-12)
	assert.InDelta(t, 1.0, c.Evaluate(4), 1e-12)
}

func TestEaseInOutMonotonic(t *testing.T) {
	c := EaseInOut{From: 1.0, To: 0.2}
	prev := c.Evaluate(0)
	for i := 1; i <= 100; i++ {
		v := c.Evaluate(float64(i) / 100)
		require.LessOrEqual(t, v, prev, "not monotonic at step %d", i)
		prev = v
	}
}

func TestKeyframesLinear(t *testing.T) {
	k, err := NewKeyframes([]Key{{0, 0}, {0.5, 1}, {1, 0.5}}, ModeLinear)
	require.NoError(t, err)

	tests := []struct {
		t, want float64
	}{
		{-1, 0},
		{0, 0},
		{0.25, 0.5},
		{0.5, 1},
		{0.75, 0.75},
		{1, 0.5},
		{2, 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, k.Evaluate(tt.t), 1e-9, "Evaluate(%v)", tt.t)
	}
}

func TestKeyframesMonotoneStaysInRange(t *testing.T) {
	k, err := NewKeyframes([]Key{{0, 0.1}, {0.3, 0.4}, {0.7, 0.9}, {1, 1}}, ModeMonotone)
	require.NoError(t, err)

	prev := k.Evaluate(0)
	for i := 1; i <= 50; i++ {
		v := k.Evaluate(float64(i) / 50)
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 1.0+1e-12)
		prev = v
	}
}

func TestKeyframesErrors(t *testing.T) {
	_, err := NewKeyframes(nil, ModeLinear)
	assert.ErrorIs(t, err, ErrNoKeys)

	_, err = NewKeyframes([]Key{{0, 0}, {0, 1}}, ModeLinear)
	assert.Error(t, err)
}

func TestSingleKeyIsFlat(t *testing.T) {
	k, err := NewKeyframes([]Key{{0.5, 0.7}}, ModeMonotone)
	require.NoError(t, err)
	assert.Equal(t, 0.7, k.Evaluate(0))
	assert.Equal(t, 0.7, k.Evaluate(1))
}

func TestSpecBuild(t *testing.T) {
	c, err := Spec{Kind: "ease_in_out", From: 0.2, To: 1}.Build()
	require.NoError(t, err)
	assert.Equal(t, EaseInOut{From: 0.2, To: 1}, c)

	c, err = Spec{Kind: "constant", Value: 3}.Build()
	require.NoError(t, err)
	assert.Equal(t, 3.0, c.Evaluate(0.4))

	c, err = Spec{Kind: "linear", Keys: []Key{{0, 1}, {1, 3}}}.Build()
	require.NoError(t, err)
	assert.InDelta(t, 2.0, c.Evaluate(0.5), 1e-9)

	_, err = Spec{Kind: "sawtooth"}.Build()
	assert.Error(t, err)
}
