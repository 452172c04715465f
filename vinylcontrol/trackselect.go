package vinylcontrol

import "math"

// Named per spec.md section 9's open question: these two magic numbers
// (the jump-reanchor threshold and the step interval) are kept as named
// constants specifically so they can be tuned later, matching the
// original's SELECT_INTERVAL/NOPOS_SPEED constants.
const (
	trackSelectJumpReanchorMs = 10000.0
	trackSelectIntervalMs     = 150.0
	trackSelectNoPosSpeed     = 0.50
)

// TrackSelector is the track-selection sub-FSM (spec.md C7), reached
// from Deck when the vinyl position runs past the safe zone on a
// non-CD profile. While active, the owning Deck forces play off and
// scratch rate to 0; TrackSelector only tracks simulated needle motion
// and decides when to emit a playlist-navigation step.
type TrackSelector struct {
	lastPosMs float64
	curPosMs  float64
}

// Step advances the selector's estimate of needle position by one
// callback and reports a selector step (+1/-1) when the estimated
// motion has crossed trackSelectIntervalMs since the last step. hasPos
// indicates whether a real decoded position is available this
// callback; when it isn't, motion is emulated from pitch alone
// (spec.md section 4.7: "cur += pitch * 0.5").
//
// moved is false, and step is 0, in three cases: no position and too
// little pitch (|pitch| <= 0.1) to emulate motion, insufficient motion
// to cross the interval yet, and an implausible jump (> 10s) that
// re-anchors the reference instead of stepping.
func (t *TrackSelector) Step(hasPos bool, posMs float64, pitch float64) (step int, moved bool) {
	switch {
	case hasPos:
		t.curPosMs = posMs
	case math.Abs(pitch) > 0.1:
		t.curPosMs += pitch * trackSelectNoPosSpeed
	default:
		return 0, false
	}

	diff := t.curPosMs - t.lastPosMs
	switch {
	case math.Abs(diff) > trackSelectJumpReanchorMs:
		t.lastPosMs = t.curPosMs
		return 0, false
	case math.Abs(diff) > trackSelectIntervalMs:
		t.lastPosMs = t.curPosMs
		if diff < 0 {
			return -1, true
		}
		return 1, true
	default:
		return 0, false
	}
}
