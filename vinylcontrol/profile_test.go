package vinylcontrol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookupProfile_AllNineBuiltinsResolve(t *testing.T) {
	ids := []ProfileID{
		ProfileSeratoA, ProfileSeratoB, ProfileSeratoCD,
		ProfileTraktorA, ProfileTraktorB,
		ProfileTraktorMk2A, ProfileTraktorMk2B,
		ProfileMixVibesV2, ProfileMixVibes7Inch,
	}
	for _, id := range ids {
		_, err := LookupProfile(id)
		assert.NoErrorf(t, err, "profile %q should be a recognized built-in", id)
	}
}

func TestLookupProfile_UnknownIDReturnsErrUnknownProfile(t *testing.T) {
	_, err := LookupProfile(ProfileID("nonexistent_format"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownProfile))
}

func TestLookupProfile_SeratoCDIsFlaggedCD(t *testing.T) {
	p, err := LookupProfile(ProfileSeratoCD)
	require.NoError(t, err)
	assert.True(t, p.IsCD)
}

func TestRegisterProfile_OverridesExistingEntry(t *testing.T) {
	const id ProfileID = "test_override_profile"
	RegisterProfile(id, Profile{ToneFreqHz: 1234})

	p, err := LookupProfile(id)
	require.NoError(t, err)
	assert.EqualValues(t, 1234, p.ToneFreqHz)

	RegisterProfile(id, Profile{ToneFreqHz: 5678})
	p, err = LookupProfile(id)
	require.NoError(t, err)
	assert.EqualValues(t, 5678, p.ToneFreqHz)
}
