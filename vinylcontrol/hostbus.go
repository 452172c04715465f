package vinylcontrol

import "sync"

// Host scalar names (spec.md section 6.3). The bus itself knows nothing
// about these strings; they are just the contract Deck reads and writes
// against.
const (
	ScalarEnabled         = "enabled"
	ScalarWantEnabled     = "want_enabled"
	ScalarMode            = "mode" // 0=ABSOLUTE, 1=RELATIVE, 2=CONSTANT
	ScalarPlayButton      = "play_button"
	ScalarReverseButton   = "reverse_button"
	ScalarPlayPos         = "play_pos" // in [0,1]
	ScalarLoopEnabled     = "loop_enabled"
	ScalarCueing          = "cueing"
	ScalarScratching      = "scratching"
	ScalarTrackSamples    = "track_samples"
	ScalarTrackSampleRate = "track_sample_rate"
	ScalarDuration        = "duration"
	ScalarRateRatio       = "rate_ratio"
	ScalarVCInputGain     = "vc_input_gain"

	ScalarScratchRate       = "scratch_rate"
	ScalarVinylSeek         = "vinyl_seek" // in [0,1]
	ScalarVinylStatus       = "vinyl_status"
	ScalarSignalEnabled     = "signal_enabled"
	ScalarSelectTrackKnob   = "select_track_knob"
	ScalarLoadSelectedTrack = "load_selected_track"
)

// VinylStatus is the discrete health/state indicator published on
// ScalarVinylStatus (spec.md section 6.3/7). The host is assumed to map
// these onto whatever UI affordance it uses (text, LED color, etc.).
type VinylStatus int

const (
	VinylStatusOK VinylStatus = iota
	VinylStatusWarning
	VinylStatusDisabled
	VinylStatusError
)

// Mode is the vinyl-control mode (spec.md section 3).
type Mode int

const (
	ModeAbsolute Mode = iota
	ModeRelative
	ModeConstant
)

// HostBus is the abstract capability set a Deck is constructed with: a
// way to read and write named scalars on the host's control-value bus,
// and to subscribe to changes. No host-specific data types appear in
// this contract (spec.md section 4.9/9) — Deck never reaches into a
// global registry, only into the HostBus it was given.
type HostBus interface {
	Read(name string) float64
	Write(name string, value float64)
	Subscribe(name string, handler func(value float64))
}

// MapBus is a minimal, concurrency-safe in-memory HostBus, suitable for
// tests and for a standalone demo host that has no richer control-value
// system of its own. Subscriptions fire synchronously from Write, on
// the caller's goroutine.
type MapBus struct {
	mu      sync.Mutex
	values  map[string]float64
	handlers map[string][]func(float64)
}

// NewMapBus constructs an empty bus; every scalar reads as 0 until
// written.
func NewMapBus() *MapBus {
	return &MapBus{
		values:   make(map[string]float64),
		handlers: make(map[string][]func(float64)),
	}
}

func (b *MapBus) Read(name string) float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.values[name]
}

func (b *MapBus) Write(name string, value float64) {
	b.mu.Lock()
	b.values[name] = value
	handlers := append([]func(float64){}, b.handlers[name]...)
	b.mu.Unlock()

	for _, h := range handlers {
		h(value)
	}
}

func (b *MapBus) Subscribe(name string, handler func(value float64)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = append(b.handlers[name], handler)
}
