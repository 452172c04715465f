package vinylcontrol

import (
	"math"

	"github.com/charmbracelet/log"
)

// uiTickIntervalS is the minimum spacing, in file-position seconds,
// between display-pitch/rate-ratio publications (spec.md section 4.6,
// "gated to once per 50ms of file time").
const uiTickIntervalS = 0.05

// recordEndSteadyScore is the threshold the subtle SteadyPitch monitor
// must clear before record-end mode will exit on its own (spec.md
// section 4.8 step 8).
const recordEndSteadyScore = 0.5

// Deck is the per-turntable Deck Control FSM (spec.md C8), the
// component that ties the PLL decoder, signal-quality ring, steady-pitch
// monitors, pitch-smoothing ring, display-pitch filter and
// track-selection sub-FSM together into the single per-buffer decision
// procedure described in spec.md section 4.8. One Deck owns exactly one
// Decoder and is driven by one audio callback; nothing about it is
// goroutine-safe, matching the real-time, single-threaded contract of
// spec.md section 5.
type Deck struct {
	bus     HostBus
	logger  *log.Logger
	cfg     Config
	profile Profile

	decoder      *Decoder
	quality      QualityRing
	steadySubtle *SteadyPitch
	steadyGross  *SteadyPitch
	pitchRing    *PitchRing
	display      *DisplayPitchFilter
	trackSel     TrackSelector

	workBuf []float32

	mode     Mode
	prevMode Mode
	enabled  bool

	atRecordEnd   bool
	inTrackSelect bool
	wasReversed   bool
	forceResync   bool

	vinylPosS     float64
	vinylPosPrevS float64
	filePosPrevS  float64
	driftS        float64
	lastPitch     float64
	lastScratchRate float64

	uiUpdateLastS float64

	oldDurationS           float64
	oldDurationInaccurateS float64
}

// NewDeck constructs a Deck bound to the given HostBus, resolving cfg's
// vinyl_type/latency_ms against the profile table and publishing the
// one-time signal_enabled scalar (spec.md section 6.3). A fresh
// Decoder, quality ring, steady-pitch pair, pitch ring and display
// filter are allocated; none of that happens again until Reconfigure is
// called.
func NewDeck(cfg Config, bus HostBus, logger *log.Logger) *Deck {
	if logger == nil {
		logger = discardLogger()
	}

	vinylType, profile := resolveProfile(cfg.VinylType, logger)
	cfg.VinylType = vinylType
	cfg.LatencyMs = resolveLatencyMs(cfg.LatencyMs, logger)

	tolerance := 0.12
	grossTolerance := 0.5
	if profile.IsCD {
		tolerance = 0.06
		grossTolerance = 0.25
	}

	d := &Deck{
		bus:          bus,
		logger:       logger,
		cfg:          cfg,
		profile:      profile,
		decoder:      NewDecoder(profile, cfg.SampleRateHz, cfg.RPMNominal()),
		steadySubtle: NewSteadyPitch(tolerance, profile.IsCD),
		steadyGross:  NewSteadyPitch(grossTolerance, profile.IsCD),
		pitchRing:    NewPitchRing(cfg.RPMNominal(), cfg.LatencyMs),
		display:      NewDisplayPitchFilter(),
		mode:         Mode(int(bus.Read(ScalarMode))),
	}
	d.prevMode = d.mode

	bus.Write(ScalarSignalEnabled, boolToF64(cfg.ShowSignalQuality))
	return d
}

// Reconfigure rebuilds the parts of a Deck that are sized by
// vinyl_type/latency_ms (the decoder, steady-pitch tolerances, pitch
// ring), without disturbing FSM state (mode, enabled, track-select
// baselines). It is meant to run from the host's preferences-changed
// path, never from the audio callback.
func (d *Deck) Reconfigure(cfg Config) {
	vinylType, profile := resolveProfile(cfg.VinylType, d.logger)
	cfg.VinylType = vinylType
	cfg.LatencyMs = resolveLatencyMs(cfg.LatencyMs, d.logger)

	tolerance := 0.12
	grossTolerance := 0.5
	if profile.IsCD {
		tolerance = 0.06
		grossTolerance = 0.25
	}

	d.cfg = cfg
	d.profile = profile
	d.decoder = NewDecoder(profile, cfg.SampleRateHz, cfg.RPMNominal())
	d.steadySubtle = NewSteadyPitch(tolerance, profile.IsCD)
	d.steadyGross = NewSteadyPitch(grossTolerance, profile.IsCD)
	d.pitchRing.Resize(cfg.RPMNominal(), cfg.LatencyMs)
	d.bus.Write(ScalarSignalEnabled, boolToF64(cfg.ShowSignalQuality))
}

// QualityReport is the pull-model snapshot described by spec.md section
// 6.4, for a host UI that polls rather than subscribes.
type QualityReport struct {
	TimecodeQuality float32
	AngleDeg        float32 // -1 when position or rotation speed is unavailable
}

// QualityReport returns the current signal-quality fraction and needle
// angle (spec.md section 6.4's getAngle formula: the needle sweeps
// backwards through 360 degrees once per revolution).
func (d *Deck) QualityReport() QualityReport {
	r := QualityReport{TimecodeQuality: d.quality.Fraction(), AngleDeg: -1}

	posMs, hasPos := d.decoder.Position()
	rps, rpsOK := d.decoder.RevPerSecond()
	if !hasPos || !rpsOK {
		return r
	}

	raw := int64(float64(posMs) / 1000.0 * 360.0 * rps)
	r.AngleDeg = float32(360 - raw%360)
	return r
}

// ensureWorkBuf grows the reusable gain/clamp scratch buffer to fit
// nFrames stereo samples. Per spec.md section 5, buffer growth is the
// one allocation Deck is allowed to perform, and only on a buffer-size
// change — in steady state this is a no-op.
func (d *Deck) ensureWorkBuf(nFrames int) {
	needed := nFrames * 2
	if cap(d.workBuf) < needed {
		d.workBuf = make([]float32, needed)
	}
	d.workBuf = d.workBuf[:needed]
}

// Process runs one audio-callback's worth of the Deck Control FSM
// (spec.md section 4.8, steps 1-12) against nFrames interleaved stereo
// frames in pcm. It performs no allocation once ensureWorkBuf has
// stabilized at the host's buffer size, and never blocks.
func (d *Deck) Process(pcm []float32, nFrames int) {
	// Step 1: enable gate.
	d.enabled = d.checkEnabled()

	if !d.enabled {
		d.writeScratchRate(0)
		return
	}

	// Step 2: gain & decode.
	d.ensureWorkBuf(nFrames)
	gain := d.bus.Read(ScalarVCInputGain)
	if gain < 1 {
		gain = 1
	}
	for i := 0; i < nFrames*2; i++ {
		v := float32(gain) * pcm[i]
		switch {
		case v > 1:
			v = 1
		case v < -1:
			v = -1
		}
		d.workBuf[i] = v
	}
	d.decoder.Submit(d.workBuf, nFrames)

	posMs, hasPos := d.decoder.Position()
	d.quality.Push(hasPos)

	pitchVal, pitchOK := d.decoder.Pitch()
	if pitchOK {
		d.lastPitch = pitchVal
	}
	pitch := d.lastPitch

	// Step 3: track-change detect.
	durationInaccurate := d.bus.Read(ScalarDuration)
	if durationInaccurate != d.oldDurationInaccurateS {
		d.forceResync = true
		d.inTrackSelect = false
		d.oldDurationInaccurateS = durationInaccurate

		sampleRate := d.bus.Read(ScalarTrackSampleRate)
		if sampleRate != 0 {
			d.oldDurationS = d.bus.Read(ScalarTrackSamples) / 2 / sampleRate
		}

		if d.atRecordEnd {
			d.disableRecordEnd()
			if d.prevMode == ModeConstant {
				d.mode = ModeRelative
			} else {
				d.mode = d.prevMode
			}
			d.bus.Write(ScalarMode, float64(d.mode))
		}
	}

	// Step 4: position mapping.
	if hasPos {
		d.vinylPosS = float64(posMs)/1000.0 - d.cfg.LeadInS
	}

	// Step 5: file position.
	var filePosS float64
	if d.oldDurationS > 0 {
		filePosS = d.bus.Read(ScalarPlayPos) * d.oldDurationS
	}

	// Step 6: mode transition.
	reportedMode := Mode(int(d.bus.Read(ScalarMode)))
	reportedPlayButton := d.bus.Read(ScalarPlayButton) != 0
	if d.mode != reportedMode {
		if reportedPlayButton && reportedMode == ModeAbsolute {
			d.mode = ModeRelative
			d.bus.Write(ScalarMode, float64(d.mode))
		} else {
			d.mode = reportedMode
			if reportedMode == ModeAbsolute {
				d.forceResync = true
			}
		}
		if VinylStatus(int(d.bus.Read(ScalarVinylStatus))) == VinylStatusError && d.mode == ModeRelative {
			d.bus.Write(ScalarVinylStatus, float64(VinylStatusOK))
		}
	}
	if d.bus.Read(ScalarLoopEnabled) != 0 && d.mode == ModeAbsolute {
		d.mode = ModeRelative
		d.bus.Write(ScalarMode, float64(d.mode))
	}
	if d.mode == ModeAbsolute && d.bus.Read(ScalarCueing) != 0 {
		d.bus.Write(ScalarCueing, 0)
	}

	// Step 7: record-end detection.
	if reportedPlayButton && !d.atRecordEnd {
		switch {
		case d.mode == ModeAbsolute && !d.forceResync && (filePosS+d.cfg.LeadInS)*1000.0 > d.cfg.SafeZoneMs:
			d.enableRecordEnd()
		case d.mode != ModeAbsolute && hasPos && float64(posMs) > d.cfg.SafeZoneMs:
			d.enableRecordEnd()
		}
	}

	// Step 8: record-end exit.
	if d.atRecordEnd {
		reportedPlayButton = d.bus.Read(ScalarPlayButton) != 0
		switch {
		case !reportedPlayButton:
			d.disableRecordEnd()
		case hasPos && float64(posMs) <= d.cfg.SafeZoneMs && d.vinylPosS > 0 &&
			d.steadySubtle.Check(pitch, filePosS) > recordEndSteadyScore:
			d.disableRecordEnd()
		}

		if d.atRecordEnd {
			var blinking bool
			if reportedPlayButton {
				blinking = int64(filePosS*2.0)%2 != 0
			} else {
				blinking = hasPos && int64(posMs)/500%2 != 0
			}
			if blinking {
				d.bus.Write(ScalarVinylStatus, float64(VinylStatusWarning))
			} else {
				d.bus.Write(ScalarVinylStatus, float64(VinylStatusDisabled))
			}
		}
	}

	// Step 9: track-select gate.
	if !d.atRecordEnd {
		switch {
		case hasPos && float64(posMs) > d.cfg.SafeZoneMs:
			if d.inTrackSelect || d.checkSteadyPitch(pitch, filePosS) > 0.1 {
				if !d.profile.IsCD {
					if !d.inTrackSelect {
						d.inTrackSelect = true
						d.togglePlayButton(false)
						d.resetSteady(0, 0)
						d.writeScratchRate(0)
					}
					d.doTrackSelection(true, pitch, float64(posMs))
				}
				return
			}
			// Not steady yet: fall through and process as normal.
		case !hasPos && d.inTrackSelect:
			d.doTrackSelection(false, pitch, 0)
			return
		case d.inTrackSelect:
			d.bus.Write(ScalarLoadSelectedTrack, 1)
			d.bus.Write(ScalarLoadSelectedTrack, 0)
			d.inTrackSelect = false
		}
	}

	// Step 10: CONSTANT mode.
	if d.mode == ModeConstant {
		rate := 0.0
		if reportedPlayButton {
			rate = d.bus.Read(ScalarRateRatio)
		}
		d.writeScratchRate(rate)
		return
	}

	// Steps 11/12: pitch path.
	var driftControl float64
	if pitchOK {
		if hasPos {
			reversed := d.bus.Read(ScalarReverseButton) != 0
			if !reversed && d.wasReversed {
				d.resetSteady(pitch, d.vinylPosS)
			}
			d.wasReversed = reversed

			drift := d.vinylPosS - filePosS
			d.driftS = drift

			switch {
			case d.forceResync && (d.mode == ModeAbsolute || (d.mode == ModeRelative && d.bus.Read(ScalarCueing) != 0)):
				d.syncPosition()
				d.resetSteady(pitch, d.vinylPosS)
				d.forceResync = false
			case math.Abs(drift) > 0.1 && d.vinylPosS < -2.0:
				d.syncPosition()
				d.resetSteady(pitch, d.vinylPosS)
				if d.uiTick(filePosS) {
					d.bus.Write(ScalarRateRatio, math.Abs(pitch))
				}
			case d.mode == ModeAbsolute && !d.profile.IsCD && math.Abs(d.vinylPosS-d.vinylPosPrevS) >= 5.0:
				d.syncPosition()
				d.resetSteady(pitch, d.vinylPosS)
			case d.mode == ModeAbsolute && d.profile.IsCD && math.Abs(d.vinylPosS-d.vinylPosPrevS) >= 0.1:
				d.syncPosition()
				d.resetSteady(pitch, d.vinylPosS)
			case d.bus.Read(ScalarPlayPos) >= 1.0 && pitch > 0:
				d.togglePlayButton(false)
				d.resetSteady(0, 0)
				d.writeScratchRate(0)
				d.pitchRing.Clear()
				return
			default:
				d.togglePlayButton(d.checkSteadyPitch(pitch, filePosS) > recordEndSteadyScore)
			}

			if d.mode == ModeAbsolute && math.Abs(drift) > 0.1 && math.Abs(drift) < 5.0 {
				driftControl = drift * 0.01
			}
			d.vinylPosPrevS = d.vinylPosS
		} else {
			if d.bus.Read(ScalarPlayPos) >= 1.0 && pitch > 0 {
				d.togglePlayButton(false)
				d.resetSteady(0, 0)
				d.writeScratchRate(0)
				d.pitchRing.Clear()
				return
			}
			if d.mode == ModeAbsolute && math.Abs(pitch) < 0.05 && math.Abs(d.driftS) >= 0.3 {
				d.syncPosition()
			}
			d.vinylPosPrevS = filePosS + d.driftS
			if pitch > 0.2 {
				d.togglePlayButton(d.checkSteadyPitch(pitch, filePosS) > recordEndSteadyScore)
			}
		}

		reportedPlayButton = d.bus.Read(ScalarPlayButton) != 0
		if reportedPlayButton {
			d.pitchRing.Push(pitch)
		} else {
			d.pitchRing.Clear()
		}

		smoothed := pitch
		if hasPos && reportedPlayButton {
			if m, ok := d.pitchRing.Mean(); ok {
				smoothed = m
			}
		}

		d.writeScratchRate(smoothed + driftControl)

		if d.uiTick(filePosS) {
			truePitch := smoothed + driftControl
			d.display.Update(truePitch)
			scratching := d.bus.Read(ScalarScratching) != 0
			d.bus.Write(ScalarRateRatio, d.display.Publish(reportedPlayButton, scratching))
		}

		d.filePosPrevS = filePosS
	} else {
		// Step 12: pitch path without signal.
		d.bus.Write(ScalarRateRatio, 1.0)
		if d.mode == ModeAbsolute && math.Abs(d.vinylPosS-filePosS) >= 0.1 {
			d.syncPosition()
		}
		if math.Abs(filePosS-d.filePosPrevS) >= 0.1 || filePosS == d.filePosPrevS {
			d.togglePlayButton(false)
			d.resetSteady(0, 0)
			d.writeScratchRate(0)
			d.pitchRing.Clear()
			d.quality.Reset()
			d.forceResync = true
			d.bus.Write(ScalarVinylStatus, float64(VinylStatusOK))
		}
	}
}

// checkEnabled resolves the enabled/want_enabled handshake and, on a
// genuine was/is transition of the host's own "enabled" scalar, runs the
// hand-off behavior: the scratch rate seeds from the current rate_ratio
// rather than snapping to 0 (so a still-spinning deck can be handed
// between vinyl control and manual play without a stutter), state resets
// as though freshly constructed, and vinyl_status is republished.
//
// Directly grounded on checkEnabled in vinylcontrolxwax.cpp, including
// its one sharp edge: when want_enabled fires the "optimism" path, the
// hand-off block and the vinyl_status publish below are skipped for
// that enable. They do not run on a later callback either: Process
// latches d.enabled from the returned true, so the next callback sees
// enabled both before and after and finds no transition.
func (d *Deck) checkEnabled() bool {
	was := d.enabled
	is := d.bus.Read(ScalarEnabled) != 0

	if !is && d.bus.Read(ScalarWantEnabled) != 0 {
		d.bus.Write(ScalarEnabled, 1)
		d.bus.Write(ScalarWantEnabled, 0)
		return true
	}

	if was != is {
		playing := d.bus.Read(ScalarPlayButton) != 0
		d.togglePlayButton(playing || math.Abs(d.lastScratchRate) > 0.05)
		d.writeScratchRate(d.bus.Read(ScalarRateRatio))
		d.resetSteady(0, 0)
		d.forceResync = true
		if !was {
			d.filePosPrevS = 0
		}
		d.mode = Mode(int(d.bus.Read(ScalarMode)))
		d.prevMode = d.mode
		d.atRecordEnd = false
	}

	switch {
	case is && !was:
		d.bus.Write(ScalarVinylStatus, float64(VinylStatusOK))
	case !is:
		d.bus.Write(ScalarVinylStatus, float64(VinylStatusDisabled))
	}

	return is
}

// enableConstantMode forces CONSTANT mode and play-on, publishing the
// current absolute scratch rate as rate_ratio (spec.md section 4.8 step
// 7/10, grounded on enableConstantMode in vinylcontrolxwax.cpp).
func (d *Deck) enableConstantMode() {
	d.prevMode = d.mode
	d.mode = ModeConstant
	d.bus.Write(ScalarMode, float64(d.mode))
	d.togglePlayButton(true)
	d.bus.Write(ScalarRateRatio, math.Abs(d.lastScratchRate))
	d.writeScratchRate(d.lastScratchRate)
}

// enableRecordEnd arms the record-end ("groove ran out") state.
func (d *Deck) enableRecordEnd() {
	d.bus.Write(ScalarVinylStatus, float64(VinylStatusWarning))
	d.enableConstantMode()
	d.atRecordEnd = true
}

// disableRecordEnd clears record-end back to RELATIVE mode, collapsing
// any CONSTANT-mode excursion (spec.md section 4.8 step 3/8).
func (d *Deck) disableRecordEnd() {
	d.bus.Write(ScalarVinylStatus, float64(VinylStatusOK))
	d.atRecordEnd = false
	d.mode = ModeRelative
	d.bus.Write(ScalarMode, float64(d.mode))
}

// togglePlayButton writes play_button only when it actually needs to
// change and the deck is enabled, avoiding redundant host churn.
func (d *Deck) togglePlayButton(on bool) {
	cur := d.bus.Read(ScalarPlayButton) != 0
	if d.enabled && cur != on {
		d.bus.Write(ScalarPlayButton, boolToF64(on))
	}
}

// checkSteadyPitch feeds both steady-pitch monitors and publishes the
// scratching flag from the gross one, returning the subtle monitor's
// score. The reversed-to-forward edge reset lives in Process; while
// wasReversed is set, this feeds neither monitor, leaves the scratching
// flag unchanged and returns 0.
func (d *Deck) checkSteadyPitch(pitch, time float64) float64 {
	if d.wasReversed {
		return 0
	}
	if d.steadyGross.Check(pitch, time) < recordEndSteadyScore {
		d.bus.Write(ScalarScratching, 1)
	} else {
		d.bus.Write(ScalarScratching, 0)
	}
	return d.steadySubtle.Check(pitch, time)
}

// resetSteady re-anchors both steady-pitch monitors. vinylcontrolxwax.cpp
// resets both monitors together everywhere it resets either one; spec.md
// section 9 flags whether the gross monitor should be included as an
// open question, resolved here in favor of matching source behavior.
func (d *Deck) resetSteady(pitch, time float64) {
	d.steadySubtle.Reset(pitch, time)
	d.steadyGross.Reset(pitch, time)
}

// syncPosition seeks the host's playback position to match the decoded
// vinyl position, expressed as the fraction of the track's duration
// (spec.md section 4.8, vinyl_seek output).
func (d *Deck) syncPosition() {
	if d.oldDurationS <= 0 {
		return
	}
	d.bus.Write(ScalarVinylSeek, d.vinylPosS/d.oldDurationS)
}

// uiTick reports whether more than uiTickIntervalS of file time has
// elapsed since the last tick (or file time has gone backwards, e.g. a
// seek), latching "now" as the new baseline when it returns true
// (spec.md section 4.6, grounded on uiUpdateTime).
func (d *Deck) uiTick(now float64) bool {
	if now < d.uiUpdateLastS || now-d.uiUpdateLastS > uiTickIntervalS {
		d.uiUpdateLastS = now
		return true
	}
	return false
}

// doTrackSelection advances the track-selection sub-FSM and publishes a
// selector step to the host when one occurs.
func (d *Deck) doTrackSelection(hasPos bool, pitch, posMs float64) {
	step, moved := d.trackSel.Step(hasPos, posMs, pitch)
	if moved {
		d.bus.Write(ScalarSelectTrackKnob, float64(step))
	}
}

// writeScratchRate publishes scratch_rate and remembers it locally, so
// the enable/disable handoff path (step 1) can recover the last rate
// without re-reading a host-owned scalar that may have since been
// overwritten by something else.
func (d *Deck) writeScratchRate(rate float64) {
	d.lastScratchRate = rate
	d.bus.Write(ScalarScratchRate, rate)
}

func boolToF64(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
