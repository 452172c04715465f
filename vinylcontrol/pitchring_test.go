package vinylcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// B3: PitchRingSize matches floor(60000 / (rpm * latencyMs * 4)), with a
// floor of 1 for extreme inputs.
func TestPitchRingSize_MatchesFormula(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		rpm := rapid.Float64Range(33.0, 45.0).Draw(t, "rpm")
		latencyMs := rapid.Float64Range(1.0, 100.0).Draw(t, "latencyMs")

		want := int(60000.0 / (rpm * latencyMs * 4.0))
		if want < 1 {
			want = 1
		}
		assert.Equal(t, want, PitchRingSize(rpm, latencyMs))
	})
}

func TestPitchRing_PushAndMean(t *testing.T) {
	r := NewPitchRing(33.333, 20.0)

	_, ok := r.Mean()
	assert.False(t, ok, "empty ring has no mean")

	r.Push(1.0)
	r.Push(1.02)
	mean, ok := r.Mean()
	require.True(t, ok)
	assert.InDelta(t, 1.01, mean, 1e-9)
}

func TestPitchRing_PushOverwritesOldestOnceFull(t *testing.T) {
	r := NewPitchRing(45.0, 50.0) // small ring: 60000/(45*50*4) = 6
	n := PitchRingSize(45.0, 50.0)
	require.GreaterOrEqual(t, n, 1)

	for i := 0; i < n; i++ {
		r.Push(0.0)
	}
	assert.Equal(t, n, r.Fill())

	r.Push(10.0) // overwrites the oldest 0.0
	assert.Equal(t, n, r.Fill(), "fill does not grow past capacity")

	mean, ok := r.Mean()
	require.True(t, ok)
	assert.InDelta(t, 10.0/float64(n), mean, 1e-9)
}

func TestPitchRing_ClearEmptiesWithoutRealloc(t *testing.T) {
	r := NewPitchRing(33.333, 20.0)
	r.Push(1.0)
	r.Push(1.0)
	r.Clear()

	assert.Equal(t, 0, r.Fill())
	_, ok := r.Mean()
	assert.False(t, ok)
}

func TestPitchRing_ResizeGrowsAndNeverShrinksCapacity(t *testing.T) {
	r := NewPitchRing(33.333, 20.0) // generous size
	small := PitchRingSize(33.333, 20.0)

	r.Resize(45.0, 5.0) // a much larger capacity
	large := PitchRingSize(45.0, 5.0)
	require.Greater(t, large, small)
	assert.Equal(t, 0, r.Fill())

	for i := 0; i < large; i++ {
		r.Push(2.0)
	}
	mean, ok := r.Mean()
	require.True(t, ok)
	assert.InDelta(t, 2.0, mean, 1e-9)

	// Shrinking back must not lose the larger backing array's capacity.
	r.Resize(33.333, 20.0)
	assert.Equal(t, 0, r.Fill())
	assert.GreaterOrEqual(t, cap(r.buf), large)
}
