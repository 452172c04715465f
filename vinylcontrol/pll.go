package vinylcontrol

import (
	"math"
	"math/cmplx"
)

// MinSignalSquared is the minimum squared-norm of a stereo timecode
// sample (both channels already normalized to [-1,1]) required to
// consider the signal present. Below this, the PLL is reset and every
// query returns "unavailable" (spec.md section 4.2).
const MinSignalSquared = 1e-3

// levelWindowCycles is the averaging window for the input-level EMA,
// counted in tone cycles (spec.md section 4.2 step 3, "W = 10").
const levelWindowCycles = 10.0

// phaseErrorAvgSteps sets the phase-error EMA time constant: kappaP =
// 1/(phaseErrorAvgSteps+1) = 1/101.
const phaseErrorAvgSteps = 100

// pitchAvgSteps sets the pitch-average EMA time constant used to
// schedule the adaptive loop gain. Not pinned to a specific value by
// spec.md (which names it only as "N_pitch"); matched to
// phaseErrorAvgSteps so both trackers share one time constant, recorded
// as an open-question decision in DESIGN.md.
const pitchAvgSteps = 100

// phaseErrorGateRad is the 5 degree lock gate (spec.md section 4.2): a
// PLL within this average phase error is considered locked, and only
// then do ToneFreqHz/Pitch/RevPerSecond report a value.
const phaseErrorGateRad = math.Pi / 36

// Decoder is the software PLL (spec.md C2). It demodulates an
// interleaved stereo PCM stream into phase-locked tone-frequency, pitch
// and rotation-speed estimates. One Decoder is owned exclusively by one
// Deck; it performs no allocation and no I/O in Submit.
type Decoder struct {
	sampleRateHz int
	rpmNominal   float64
	profile      Profile

	kappaL float64 // level EMA coefficient, derived from profile tone frequency
	kappaP float64 // phase-error EMA coefficient
	kappaR float64 // pitch-average EMA coefficient

	phaseEst      float64 // radians, wrapped to (-pi, pi]
	freqEst       float64 // radians/sample
	phaseError    float64 // latest instantaneous error
	phaseErrorAvg float64 // EMA of phase error
	levelSqAvg    float64 // EMA of |sample|^2
	pitchAvg      float64 // EMA used to schedule adaptive loop gain
}

// NewDecoder constructs a PLL decoder for one deck. sampleRateHz and
// rpmNominal are fixed for the decoder's lifetime; recreate it if either
// changes (e.g. the host's sound card is reconfigured).
func NewDecoder(profile Profile, sampleRateHz int, rpmNominal float64) *Decoder {
	d := &Decoder{
		sampleRateHz: sampleRateHz,
		rpmNominal:   rpmNominal,
		profile:      profile,
		kappaP:       1.0 / (phaseErrorAvgSteps + 1),
		kappaR:       1.0 / (pitchAvgSteps + 1),
	}
	d.kappaL = 1.0 / (levelWindowCycles*float64(sampleRateHz)/float64(profile.ToneFreqHz) + 1)
	d.resetPLL()
	return d
}

// resetPLL restores the PLL to its initial, unlocked state. Per
// spec.md section 4.2: phase_est=0, freq_est=0, err_avg=pi, pitch_avg=0.
// levelSqAvg is left alone; it is allowed to decay on its own EMA terms
// across the reset so a brief dropout does not itself look like total
// silence to the next buffer's level check.
func (d *Decoder) resetPLL() {
	d.phaseEst = 0
	d.freqEst = 0
	d.phaseError = math.Pi
	d.phaseErrorAvg = math.Pi
	d.pitchAvg = 0
}

// Submit demodulates nFrames stereo frames from pcm (interleaved,
// normalized to [-1,1], length >= 2*nFrames) and advances the PLL one
// sample at a time. It returns true while the running input level is
// above MinSignalSquared; after any buffer that leaves it at or below
// the threshold it resets the PLL and returns false. n_frames=0 is a no-op that reports
// the decoder's current signal state without touching it (spec.md
// boundary B1).
func (d *Decoder) Submit(pcm []float32, nFrames int) bool {
	if nFrames == 0 {
		return d.levelSqAvg > MinSignalSquared
	}

	for i := 0; i < nFrames; i++ {
		left := float64(pcm[2*i])
		right := float64(pcm[2*i+1])

		var primary, secondary float64
		if d.profile.SwitchPrimary {
			primary, secondary = left, right
		} else {
			primary, secondary = right, left
		}
		// SWITCH_PHASE selects a 270 degree (rather than 90 degree)
		// quadrature relationship between primary and secondary; that is
		// the mirror image of the canonical 90 degree case, expressed by
		// conjugating the secondary channel before forming the complex
		// baseband sample.
		if d.profile.SwitchPhase {
			secondary = -secondary
		}

		sample := complex(primary, secondary)
		d.stepLevel(sample)
		d.stepPLL(sample)
	}

	haveSignal := d.levelSqAvg > MinSignalSquared
	if !haveSignal {
		d.resetPLL()
	}
	return haveSignal
}

func (d *Decoder) stepLevel(sample complex128) {
	levelSq := real(sample)*real(sample) + imag(sample)*imag(sample)
	d.levelSqAvg = levelSq*d.kappaL + d.levelSqAvg*(1-d.kappaL)
}

func (d *Decoder) stepPLL(sample complex128) {
	ref := cmplx.Exp(complex(0, d.phaseEst))
	errv := cmplx.Phase(sample * cmplx.Conj(ref))
	d.phaseError = errv
	d.phaseErrorAvg = errv*d.kappaP + d.phaseErrorAvg*(1-d.kappaP)

	// Adaptive loop gain: slow lock-in near standstill so the PLL does
	// not chase noise when the vinyl (or the DJ's hand) isn't really
	// moving.
	var alpha float64
	if math.Abs(d.pitchAvg) >= 1.0 {
		alpha = 0.02
	} else {
		alpha = -0.03*math.Abs(d.pitchAvg) + 0.05
	}

	correction := alpha * errv
	d.phaseEst += correction
	d.freqEst += 0.5 * alpha * correction
	d.phaseEst += d.freqEst
	d.phaseEst = wrapPhase(d.phaseEst)

	instPitch := d.instantaneousPitch()
	d.pitchAvg += d.kappaR * (instPitch - d.pitchAvg)
}

// wrapPhase wraps x into (-pi, pi], the invariant P1 from spec.md
// section 8.
func wrapPhase(x float64) float64 {
	x = math.Mod(x+math.Pi, 2*math.Pi)
	if x <= 0 {
		x += 2 * math.Pi
	}
	return x - math.Pi
}

func (d *Decoder) instantaneousPitch() float64 {
	toneFreq := d.freqEst * float64(d.sampleRateHz) / (2 * math.Pi)
	return toneFreq / float64(d.profile.ToneFreqHz)
}

// ToneFreqHz returns the currently demodulated carrier frequency in Hz,
// and whether the PLL is locked closely enough (average phase error
// within phaseErrorGateRad) to trust it.
func (d *Decoder) ToneFreqHz() (float64, bool) {
	if math.Abs(d.phaseErrorAvg) > phaseErrorGateRad {
		return 0, false
	}
	return d.freqEst * float64(d.sampleRateHz) / (2 * math.Pi), true
}

// Pitch returns the ratio of the observed tone frequency to the
// profile's nominal tone frequency: 1.0 means the vinyl is spinning at
// nominal RPM.
func (d *Decoder) Pitch() (float64, bool) {
	toneFreq, ok := d.ToneFreqHz()
	if !ok {
		return 0, false
	}
	return toneFreq / float64(d.profile.ToneFreqHz), true
}

// RevPerSecond returns the estimated vinyl rotation speed.
func (d *Decoder) RevPerSecond() (float64, bool) {
	pitch, ok := d.Pitch()
	if !ok {
		return 0, false
	}
	return d.rpmNominal * pitch / 60.0, true
}

// Position returns the decoded absolute position within the timecode,
// in milliseconds. Absolute-mode bit-decoding (LFSR correlation against
// the format's pseudorandom sequence) is not implemented — per spec.md
// section 9, that polynomial is format-specific and absent from the
// source this was distilled from, and must not be guessed. This always
// reports unavailable; downstream FSM logic (Deck) is nonetheless
// written as though positions can appear, so plugging in a real decoder
// later requires no change outside this function.
func (d *Decoder) Position() (int32, bool) {
	return 0, false
}

// PhaseErrorAverage exposes the EMA phase error, mostly useful for
// diagnostics and tests.
func (d *Decoder) PhaseErrorAverage() float64 {
	return d.phaseErrorAvg
}

// PhaseEstimate exposes the current wrapped phase estimate (radians),
// used by tests asserting invariant P1.
func (d *Decoder) PhaseEstimate() float64 {
	return d.phaseEst
}
