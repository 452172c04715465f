package vinylcontrol

import "gopkg.in/yaml.v3"

// profileOverrideFile is the shape of an optional profiles.yaml file a
// host may load at startup to add or override VinylProfile entries
// beyond the nine built-in identifiers (spec.md section 4.1). Mirrors
// the teacher's tocalls.yaml device-id table (src/deviceid.go) — a flat
// YAML document naming a set of records by key.
type profileOverrideFile struct {
	Profiles map[string]yamlProfile `yaml:"profiles"`
}

type yamlProfile struct {
	ToneFreqHz     uint `yaml:"tone_freq_hz"`
	SwitchPrimary  bool `yaml:"switch_primary"`
	SwitchPolarity bool `yaml:"switch_polarity"`
	SwitchPhase    bool `yaml:"switch_phase"`
	IsCD           bool `yaml:"is_cd"`
}

// LoadProfileOverrides parses a profiles.yaml document and registers
// each entry via RegisterProfile, returning how many were loaded. It is
// meant to run once at host startup, never from the audio callback.
func LoadProfileOverrides(data []byte) (int, error) {
	var f profileOverrideFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return 0, err
	}

	for id, p := range f.Profiles {
		RegisterProfile(ProfileID(id), Profile{
			ToneFreqHz:     p.ToneFreqHz,
			SwitchPrimary:  p.SwitchPrimary,
			SwitchPolarity: p.SwitchPolarity,
			SwitchPhase:    p.SwitchPhase,
			IsCD:           p.IsCD,
		})
	}
	return len(f.Profiles), nil
}
