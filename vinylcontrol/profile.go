package vinylcontrol

import "fmt"

// ProfileID names one of the supported timecode vinyl/CD pressings.
type ProfileID string

const (
	ProfileSeratoA       ProfileID = "serato_2a"
	ProfileSeratoB       ProfileID = "serato_2b"
	ProfileSeratoCD      ProfileID = "serato_cd"
	ProfileTraktorA      ProfileID = "traktor_a"
	ProfileTraktorB      ProfileID = "traktor_b"
	ProfileTraktorMk2A   ProfileID = "traktor_mk2_a"
	ProfileTraktorMk2B   ProfileID = "traktor_mk2_b"
	ProfileMixVibesV2    ProfileID = "mixvibes_v2"
	ProfileMixVibes7Inch ProfileID = "mixvibes_7inch"

	// DefaultProfileID is the documented fallback for an unknown
	// vinyl_type, per spec.md section 4.1.
	DefaultProfileID = ProfileSeratoA
)

// Profile is the static, per-format parameter set (spec.md C1 / section 3).
// It never changes after construction.
type Profile struct {
	ToneFreqHz     uint
	SwitchPrimary  bool // swap L/R: use left channel as primary
	SwitchPolarity bool // read bit values in negative (not positive)
	SwitchPhase    bool // 270 degrees (not 90) between channels
	IsCD           bool // serato_cd: disables track-selection, tighter steady tolerances
}

// ErrUnknownProfile is returned by LookupProfile for an unrecognized
// ProfileID. Callers may fall back to DefaultProfileID, as the host
// configuration loader does.
var ErrUnknownProfile = fmt.Errorf("vinylcontrol: unknown vinyl profile")

// profiles mirrors the allVinylSettings table from Mixxx's ywax.h: tone
// frequency and channel/polarity/phase switches per pressing.
var profiles = map[ProfileID]Profile{
	ProfileSeratoA: {ToneFreqHz: 1000},
	ProfileSeratoB: {ToneFreqHz: 1000},
	ProfileSeratoCD: {
		ToneFreqHz: 1000,
		IsCD:       true,
	},
	ProfileTraktorA: {
		ToneFreqHz:     2000,
		SwitchPrimary:  true,
		SwitchPolarity: true,
		SwitchPhase:    true,
	},
	ProfileTraktorB: {
		ToneFreqHz:     2000,
		SwitchPrimary:  true,
		SwitchPolarity: true,
		SwitchPhase:    true,
	},
	ProfileTraktorMk2A: {
		ToneFreqHz:     2500,
		SwitchPolarity: true,
		SwitchPhase:    true,
	},
	ProfileTraktorMk2B: {
		ToneFreqHz:     2500,
		SwitchPolarity: true,
		SwitchPhase:    true,
	},
	ProfileMixVibesV2: {
		ToneFreqHz:  1300,
		SwitchPhase: true,
	},
	ProfileMixVibes7Inch: {
		ToneFreqHz:  1300,
		SwitchPhase: true,
	},
}

// LookupProfile returns the static parameters for id, or ErrUnknownProfile
// if id is neither one of the nine built-in identifiers nor an id added
// through RegisterProfile.
func LookupProfile(id ProfileID) (Profile, error) {
	p, ok := profiles[id]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, id)
	}
	return p, nil
}

// RegisterProfile adds or overrides an entry in the profile table. It is
// used by the optional profiles.yaml loader (see LoadProfileOverrides) to
// extend the built-in set without touching this file. Not safe to call
// concurrently with LookupProfile from the audio thread; intended for use
// only during host startup.
func RegisterProfile(id ProfileID, p Profile) {
	profiles[id] = p
}
