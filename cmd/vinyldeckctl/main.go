// Command vinyldeckctl is a minimal standalone host for vinylcontrol:
// it opens one stereo input device with PortAudio, feeds every captured
// buffer through a Deck, and logs the Deck's quality report
// (timecode_quality and needle angle) once a second. It exists to exercise the package end to end
// outside of a DAW/DJ application; it is not itself a DJ application.
package main

import (
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gordonklaus/portaudio"
	flag "github.com/spf13/pflag"

	"github.com/doismellburning/vinylcontrol/vinylcontrol"
)

func main() {
	var (
		vinylType    = flag.String("vinyl-type", string(vinylcontrol.DefaultProfileID), "vinyl_type profile id")
		vinylSpeed   = flag.Float64("vinyl-speed", 33.0, "vinyl_speed: 33 or 45")
		sampleRate   = flag.Int("sample-rate", 44100, "sample_rate_hz")
		latencyMs    = flag.Float64("latency-ms", 20.0, "latency_ms")
		leadInS      = flag.Float64("lead-in", 4.9, "lead_in_s")
		safeZoneMs   = flag.Float64("safe-zone-ms", 5000.0, "safe_zone_ms")
		showQuality  = flag.Bool("show-signal-quality", true, "publish signal_enabled to the host bus")
		profilesFile = flag.String("profiles-file", "", "optional profiles.yaml overriding/extending the built-in profile table")
		qualityLog   = flag.String("quality-log", "", "optional strftime pattern for a CSV quality-report log, e.g. vinylcontrol-%Y%m%d-%H%M%S.csv")
	)
	flag.Parse()

	logger := vinylcontrol.NewLogger()

	if *profilesFile != "" {
		data, err := os.ReadFile(*profilesFile)
		if err != nil {
			logger.Fatal("reading profiles file", "err", err)
		}
		n, err := vinylcontrol.LoadProfileOverrides(data)
		if err != nil {
			logger.Fatal("parsing profiles file", "err", err)
		}
		logger.Info("loaded profile overrides", "count", n, "path", *profilesFile)
	}

	cfg := vinylcontrol.Config{
		VinylType:         vinylcontrol.ProfileID(*vinylType),
		VinylSpeed:        *vinylSpeed,
		SampleRateHz:      *sampleRate,
		LatencyMs:         *latencyMs,
		LeadInS:           *leadInS,
		SafeZoneMs:        *safeZoneMs,
		ShowSignalQuality: *showQuality,
	}

	bus := vinylcontrol.NewMapBus()
	bus.Write(vinylcontrol.ScalarMode, float64(vinylcontrol.ModeAbsolute))
	deck := vinylcontrol.NewDeck(cfg, bus, logger)

	var qualityLogger *vinylcontrol.QualityLogger
	if *qualityLog != "" {
		var err error
		qualityLogger, err = vinylcontrol.NewQualityLogger(*qualityLog)
		if err != nil {
			logger.Fatal("opening quality log", "err", err)
		}
		defer qualityLogger.Close()
	}

	if err := portaudio.Initialize(); err != nil {
		logger.Fatal("initializing portaudio", "err", err)
	}
	defer portaudio.Terminate()

	framesPerBuffer := int(float64(*sampleRate) * *latencyMs / 1000.0)
	if framesPerBuffer < 1 {
		framesPerBuffer = 1
	}
	buf := make([]float32, framesPerBuffer*2)

	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   mustDefaultInputDevice(logger),
			Channels: 2,
			Latency:  time.Duration(*latencyMs) * time.Millisecond,
		},
		SampleRate:      float64(*sampleRate),
		FramesPerBuffer: framesPerBuffer,
	}

	stream, err := portaudio.OpenStream(params, buf)
	if err != nil {
		logger.Fatal("opening input stream", "err", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		logger.Fatal("starting input stream", "err", err)
	}
	defer stream.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)

	logger.Info("vinyldeckctl running", "vinyl_type", cfg.VinylType, "sample_rate_hz", cfg.SampleRateHz, "frames_per_buffer", framesPerBuffer)

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-sigCh:
			logger.Info("shutting down")
			return
		case <-ticker.C:
			report := deck.QualityReport()
			logger.Info("quality", "timecode_quality", report.TimecodeQuality, "angle_deg", report.AngleDeg)
			if qualityLogger != nil {
				if err := qualityLogger.Write(report); err != nil {
					logger.Warn("writing quality log", "err", err)
				}
			}
		default:
			if err := stream.Read(); err != nil {
				logger.Warn("reading input stream", "err", err)
				continue
			}
			deck.Process(buf, framesPerBuffer)
		}
	}
}

func mustDefaultInputDevice(logger *log.Logger) *portaudio.DeviceInfo {
	dev, err := portaudio.DefaultInputDevice()
	if err != nil {
		logger.Fatal("no default input device", "err", err)
	}
	return dev
}
