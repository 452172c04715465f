package vinylcontrol

import "math"

// PitchRingSize computes the pitch-smoothing ring's capacity: a
// quarter-revolution window at the given nominal RPM and host audio
// latency (spec.md section 3/boundary B3). A full revolution's worth of
// averaging was found to add too much stickiness to the pitch reading;
// a quarter does not.
func PitchRingSize(rpmNominal, latencyMs float64) int {
	n := int(60000.0 / (rpmNominal * latencyMs * 4.0))
	if n < 1 {
		n = 1
	}
	return n
}

// PitchRing is the moving-average buffer of recent pitch samples,
// populated while position is valid and play is on (spec.md C5). Its
// capacity only grows, never shrinks, so Deck can recreate it when
// latency or RPM preferences change without allocating mid-callback.
type PitchRing struct {
	buf   []float64
	write int
	fill  int
}

// NewPitchRing constructs a ring sized for the given RPM/latency pair.
func NewPitchRing(rpmNominal, latencyMs float64) *PitchRing {
	return &PitchRing{buf: make([]float64, PitchRingSize(rpmNominal, latencyMs))}
}

// Resize grows the ring to match a new RPM/latency pair and clears it.
// It never shrinks the backing array; per spec.md section 5, buffers
// may allocate exactly once per growth, and only outside the hard
// real-time path (i.e. never from within Deck.Process).
func (r *PitchRing) Resize(rpmNominal, latencyMs float64) {
	n := PitchRingSize(rpmNominal, latencyMs)
	if n > cap(r.buf) {
		r.buf = make([]float64, n)
	} else {
		r.buf = r.buf[:n]
	}
	r.Clear()
}

// Push appends a pitch sample, overwriting the oldest once the ring is
// full.
func (r *PitchRing) Push(pitch float64) {
	r.buf[r.write] = pitch
	r.write = (r.write + 1) % len(r.buf)
	if r.fill < len(r.buf) {
		r.fill++
	}
}

// Clear empties the ring without releasing its backing array.
func (r *PitchRing) Clear() {
	r.write = 0
	r.fill = 0
}

// Mean returns the arithmetic mean of filled entries, quantized to 1e-4
// to round out per-buffer jitter (spec.md section 4.5). Returns (0,
// false) when empty.
func (r *PitchRing) Mean() (float64, bool) {
	if r.fill == 0 {
		return 0, false
	}
	var sum float64
	for i := 0; i < r.fill; i++ {
		sum += r.buf[i]
	}
	mean := sum / float64(r.fill)
	return math.Round(mean*10000) / 10000, true
}

// Fill reports how many entries are currently populated.
func (r *PitchRing) Fill() int {
	return r.fill
}
