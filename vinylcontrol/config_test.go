package vinylcontrol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_RPMNominal(t *testing.T) {
	assert.Equal(t, 45.0, Config{VinylSpeed: 45}.RPMNominal())
	assert.InDelta(t, 100.0/3.0, Config{VinylSpeed: 33}.RPMNominal(), 1e-9)
	assert.InDelta(t, 100.0/3.0, Config{VinylSpeed: 0}.RPMNominal(), 1e-9, "unrecognized speed falls back to 33 1/3")
}

func TestResolveLatencyMs_WithinRangePassesThrough(t *testing.T) {
	assert.Equal(t, 20.0, resolveLatencyMs(20.0, discardLogger()))
	assert.Equal(t, 1.0, resolveLatencyMs(1.0, discardLogger()))
	assert.Equal(t, 200.0, resolveLatencyMs(200.0, discardLogger()))
}

func TestResolveLatencyMs_OutOfRangeDefaults(t *testing.T) {
	assert.Equal(t, defaultLatencyMs, resolveLatencyMs(0.5, discardLogger()))
	assert.Equal(t, defaultLatencyMs, resolveLatencyMs(201.0, discardLogger()))
	assert.Equal(t, defaultLatencyMs, resolveLatencyMs(-5.0, discardLogger()))
}

func TestResolveProfile_KnownIDPassesThrough(t *testing.T) {
	resolvedID, profile := resolveProfile(ProfileTraktorA, discardLogger())
	require.Equal(t, ProfileTraktorA, resolvedID)
	assert.EqualValues(t, 2000, profile.ToneFreqHz)
}

func TestResolveProfile_UnknownIDFallsBackToDefault(t *testing.T) {
	resolvedID, profile := resolveProfile(ProfileID("garbage"), discardLogger())
	assert.Equal(t, ProfileID(DefaultProfileID), resolvedID)

	want, err := LookupProfile(DefaultProfileID)
	require.NoError(t, err)
	assert.Equal(t, want, profile)
}
