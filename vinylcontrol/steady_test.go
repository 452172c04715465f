package vinylcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSteadyPitch_ScoreRampsToOneWhileWithinTolerance(t *testing.T) {
	s := NewSteadyPitch(0.12, false)
	s.Reset(1.0, 0.0)

	assert.Equal(t, 0.0, s.Check(1.0, 0.0))
	assert.InDelta(t, 0.5, s.Check(1.0, 0.5), 1e-9)
	assert.Equal(t, 1.0, s.Check(1.0, 1.0))
	assert.Equal(t, 1.0, s.Check(1.0, 5.0), "score saturates at 1.0, never exceeds it")
}

func TestSteadyPitch_OutOfToleranceReanchorsAndCollapses(t *testing.T) {
	s := NewSteadyPitch(0.12, false)
	s.Reset(1.0, 0.0)
	s.Check(1.0, 1.0) // fully ramped

	got := s.Check(1.5, 1.0) // far outside tolerance
	assert.Equal(t, 0.0, got)

	// The reference re-anchored to (1.5, 1.0); holding steady from here
	// ramps again from zero.
	assert.InDelta(t, 0.5, s.Check(1.5, 1.5), 1e-9)
}

func TestSteadyPitch_NegativeElapsedClampsToZero(t *testing.T) {
	s := NewSteadyPitch(0.12, false)
	s.Reset(1.0, 10.0)

	// A timestamp before the reference (e.g. a re-synced clock) must not
	// produce a negative score.
	got := s.Check(1.0, 5.0)
	assert.Equal(t, 0.0, got)
}

func TestSteadyPitch_IsCDReflectsConstructor(t *testing.T) {
	assert.True(t, NewSteadyPitch(0.06, true).IsCD())
	assert.False(t, NewSteadyPitch(0.12, false).IsCD())
}
