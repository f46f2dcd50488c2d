package rng

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSameSeedSameSequence(t *testing.T) {
	a := New(42)
	b := New(42)
	for i := 0; i < 100; i++ {
		require.Equal(t, a.Range(3), b.Range(3))
		require.Equal(t, a.Intn(17), b.Intn(17))
	}
}

func TestRangeAndUnderBounds(t *testing.T) {
	s := New(7)
	for i := 0; i < 10000; i++ {
		v := s.Range(2)
		assert.GreaterOrEqual(t, v, float32(-2))
		assert.Less(t, v, float32(2))

		u := s.Under(5)
		assert.GreaterOrEqual(t, u, float32(0))
		assert.Less(t, u, float32(5))
	}
}

func TestPassExtremes(t *testing.T) {
	s := New(1)
	for i := 0; i < 1000; i++ {
		assert.False(t, s.Pass(0))
		assert.True(t, s.Pass(1))
	}
}

func TestForkIsDeterministic(t *testing.T) {
	a := New(99).Fork()
	b := New(99).Fork()
	assert.Equal(t, a.Float64(), b.Float64())
}
