package vinylcontrol

import (
	"github.com/charmbracelet/log"
)

// defaultLatencyMs is substituted whenever a configured latency is
// outside the documented 1-200ms range (spec.md section 6.2).
const defaultLatencyMs = 20.0

// Config is the set of recognized configuration keys from spec.md
// section 6.2, expressed as an explicit struct passed in at Deck
// construction (and re-passed on preference updates) rather than read
// from any global/singleton, per spec.md section 9's redesign note.
type Config struct {
	VinylType         ProfileID
	VinylSpeed        float64 // 33 (=> 100/3 rpm) or 45
	SampleRateHz      int
	LatencyMs         float64
	LeadInS           float64
	SafeZoneMs        float64
	ShowSignalQuality bool
}

// RPMNominal resolves VinylSpeed to the actual nominal rotation speed.
func (c Config) RPMNominal() float64 {
	if c.VinylSpeed == 45 {
		return 45.0
	}
	return 100.0 / 3.0
}

// resolveProfile looks up c.VinylType, logging a warning and falling
// back to DefaultProfileID when it is not recognized. This is the only
// place ErrUnknownProfile is ever allowed to surface locally rather than
// reach the audio path (spec.md section 7, ConfigInvalid).
func resolveProfile(id ProfileID, logger *log.Logger) (ProfileID, Profile) {
	p, err := LookupProfile(id)
	if err != nil {
		logger.Warn("unrecognized vinyl_type, defaulting", "vinyl_type", id, "fallback", DefaultProfileID)
		p, _ = LookupProfile(DefaultProfileID)
		return DefaultProfileID, p
	}
	return id, p
}

// resolveLatencyMs clamps an out-of-range latency to defaultLatencyMs,
// logging a warning (spec.md section 6.2).
func resolveLatencyMs(latencyMs float64, logger *log.Logger) float64 {
	if latencyMs < 1 || latencyMs > 200 {
		logger.Warn("latency_ms out of range, defaulting", "latency_ms", latencyMs, "default", defaultLatencyMs)
		return defaultLatencyMs
	}
	return latencyMs
}
