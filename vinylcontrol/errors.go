package vinylcontrol

import "errors"

// Error kinds from spec.md section 7. None of these is fatal: the audio
// callback (Deck.Process) always returns, recovering locally from every
// one of them. They exist so a host or test can distinguish *why*
// tracking is degraded via errors.Is, even though Process itself never
// returns an error.
var (
	// ErrConfigInvalid marks a configuration value that was out of range
	// or unrecognized (unknown vinyl type, bad sample rate, latency
	// outside 1-200ms). Recovered by substituting a documented default.
	ErrConfigInvalid = errors.New("vinylcontrol: invalid configuration")

	// ErrSignalLost marks input level below MinSignalSquared. Normal
	// during needle-lift or a dropout; surfaced only via reduced
	// timecode_quality and vinyl_status changes.
	ErrSignalLost = errors.New("vinylcontrol: signal level too low")

	// ErrPhaseUnlocked marks phase_error_avg above the 5 degree gate.
	// Handled identically to ErrSignalLost by downstream queries.
	ErrPhaseUnlocked = errors.New("vinylcontrol: PLL phase not locked")

	// ErrPositionUnavailable marks a decoder that cannot currently report
	// position (always true until absolute-mode bit-decoding is
	// implemented; see Decoder.Position).
	ErrPositionUnavailable = errors.New("vinylcontrol: position unavailable")

	// ErrTransientInconsistency marks a momentary contradiction (e.g. an
	// implausible position jump during track-select) that is handled by
	// re-anchoring a local reference and continuing, never by failing
	// the callback.
	ErrTransientInconsistency = errors.New("vinylcontrol: transient inconsistency")
)
