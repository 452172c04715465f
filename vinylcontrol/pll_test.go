package vinylcontrol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// genSineBuffer synthesizes nFrames of an interleaved stereo quadrature
// tone at freqHz against a profile's expected 90/270 degree channel
// relationship, scaled to amplitude k, sampled at sampleRateHz starting
// at phase0 radians. It returns the buffer and the ending phase so
// callers can synthesize a signal across several Submit calls without a
// phase discontinuity at the buffer boundary.
func genSineBuffer(profile Profile, sampleRateHz int, freqHz float64, amplitude, phase0 float64, nFrames int) ([]float32, float64) {
	buf := make([]float32, nFrames*2)
	phase := phase0
	step := 2 * math.Pi * freqHz / float64(sampleRateHz)
	for i := 0; i < nFrames; i++ {
		primary := amplitude * math.Cos(phase)
		secondary := amplitude * math.Sin(phase)
		if profile.SwitchPhase {
			secondary = -secondary
		}
		var left, right float64
		if profile.SwitchPrimary {
			left, right = primary, secondary
		} else {
			right, left = primary, secondary
		}
		buf[2*i] = float32(left)
		buf[2*i+1] = float32(right)
		phase += step
	}
	return buf, phase
}

// P1: the PLL's phase estimate always stays wrapped to (-pi, pi].
func TestDecoder_PhaseEstimateStaysWrapped(t *testing.T) {
	profile, err := LookupProfile(ProfileSeratoA)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		d := NewDecoder(profile, 44100, 33.333)
		nBuffers := rapid.IntRange(1, 20).Draw(t, "nBuffers")
		phase := 0.0
		for i := 0; i < nBuffers; i++ {
			nFrames := rapid.IntRange(1, 512).Draw(t, "nFrames")
			var buf []float32
			buf, phase = genSineBuffer(profile, 44100, 1000, 0.7, phase, nFrames)
			d.Submit(buf, nFrames)

			got := d.PhaseEstimate()
			assert.GreaterOrEqualf(t, got, -math.Pi, "phase estimate %v below -pi", got)
			assert.LessOrEqualf(t, got, math.Pi, "phase estimate %v above pi", got)
		}
	})
}

// R1: fed a pure nominal-frequency sinusoidal timecode continuously for
// over a second, the PLL locks: average phase error settles within the
// lock gate and the reported pitch converges to 1.0.
func TestDecoder_LocksOntoNominalTone(t *testing.T) {
	profile, err := LookupProfile(ProfileSeratoA)
	require.NoError(t, err)

	const sampleRateHz = 44100
	d := NewDecoder(profile, sampleRateHz, 33.333)

	const bufFrames = 512
	totalFrames := 0
	phase := 0.0
	for totalFrames < sampleRateHz*2 {
		var buf []float32
		buf, phase = genSineBuffer(profile, sampleRateHz, float64(profile.ToneFreqHz), 0.7, phase, bufFrames)
		haveSignal := d.Submit(buf, bufFrames)
		require.True(t, haveSignal)
		totalFrames += bufFrames
	}

	pitch, ok := d.Pitch()
	require.True(t, ok, "PLL should be locked after two seconds of a steady nominal tone")
	assert.InDelta(t, 1.0, pitch, 0.003)
	assert.LessOrEqual(t, math.Abs(d.PhaseErrorAverage()), math.Pi/36)
}

// R2: lock-in is independent of input amplitude, for any amplitude that
// still clears MinSignalSquared.
func TestDecoder_LocksRegardlessOfAmplitude(t *testing.T) {
	profile, err := LookupProfile(ProfileSeratoA)
	require.NoError(t, err)

	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 10).Draw(t, "k")
		amplitude := 0.1 * float64(k)

		const sampleRateHz = 44100
		d := NewDecoder(profile, sampleRateHz, 33.333)

		const bufFrames = 512
		totalFrames := 0
		phase := 0.0
		for totalFrames < sampleRateHz*2 {
			var buf []float32
			buf, phase = genSineBuffer(profile, sampleRateHz, float64(profile.ToneFreqHz), amplitude, phase, bufFrames)
			d.Submit(buf, bufFrames)
			totalFrames += bufFrames
		}

		pitch, ok := d.Pitch()
		require.True(t, ok)
		assert.InDelta(t, 1.0, pitch, 0.01)
	})
}

// B1: n_frames=0 is a no-op that reports current signal state without
// touching the PLL.
func TestDecoder_ZeroFramesIsNoOp(t *testing.T) {
	profile, err := LookupProfile(ProfileSeratoA)
	require.NoError(t, err)

	d := NewDecoder(profile, 44100, 33.333)
	before := d.PhaseEstimate()

	got := d.Submit(nil, 0)
	assert.False(t, got, "decoder starts with no signal")
	assert.Equal(t, before, d.PhaseEstimate())
}

// B2: a single buffer that brings the running input level below
// MinSignalSquared resets the PLL immediately. The level average has a
// time constant of about 442 samples at 44.1kHz/1000Hz, so the silent
// buffer is long enough (4096 frames) to decay the locked level of ~0.49
// past the threshold within that one buffer.
func TestDecoder_SubThresholdBufferResetsPLL(t *testing.T) {
	profile, err := LookupProfile(ProfileSeratoA)
	require.NoError(t, err)

	const sampleRateHz = 44100
	d := NewDecoder(profile, sampleRateHz, 33.333)

	const bufFrames = 512
	phase := 0.0
	for i := 0; i < 4; i++ {
		var buf []float32
		buf, phase = genSineBuffer(profile, sampleRateHz, float64(profile.ToneFreqHz), 0.7, phase, bufFrames)
		d.Submit(buf, bufFrames)
	}

	const silenceFrames = 4096
	silence := make([]float32, silenceFrames*2)
	haveSignal := d.Submit(silence, silenceFrames)

	assert.False(t, haveSignal)
	assert.Equal(t, 0.0, d.PhaseEstimate())
	assert.Equal(t, math.Pi, d.PhaseErrorAverage())
	_, ok := d.Pitch()
	assert.False(t, ok)
}
