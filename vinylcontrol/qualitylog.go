package vinylcontrol

import (
	"encoding/csv"
	"fmt"
	"os"
	"time"

	"github.com/lestrrat-go/strftime"
)

// QualityLogger appends CSV rows of QualityReport samples to a file
// whose name is expanded from a strftime pattern, mirroring the
// teacher's daily-log-file naming concern in log.go (there, one file per
// day; here, one file per process, since vinylcontrol has no
// equivalent "daily" concept — the pattern is still useful for e.g.
// timestamping a file per DJ set).
type QualityLogger struct {
	f *os.File
	w *csv.Writer
}

// NewQualityLogger expands pattern via strftime against the current
// time and opens (creating if needed) the resulting path for appending,
// writing a header row if the file is new.
func NewQualityLogger(pattern string) (*QualityLogger, error) {
	name, err := strftime.Format(pattern, time.Now())
	if err != nil {
		return nil, fmt.Errorf("vinylcontrol: expanding quality log pattern %q: %w", pattern, err)
	}

	_, statErr := os.Stat(name)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("vinylcontrol: opening quality log %q: %w", name, err)
	}

	w := csv.NewWriter(f)
	l := &QualityLogger{f: f, w: w}

	if isNew {
		if err := w.Write([]string{"timestamp", "timecode_quality", "angle_deg"}); err != nil {
			f.Close()
			return nil, err
		}
		w.Flush()
	}

	return l, nil
}

// Write appends one sample, flushing immediately: quality-report samples
// arrive roughly once a second, never from the audio callback, so
// per-row flush cost is not a real-time concern.
func (l *QualityLogger) Write(r QualityReport) error {
	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		fmt.Sprintf("%.4f", r.TimecodeQuality),
		fmt.Sprintf("%.1f", r.AngleDeg),
	}
	if err := l.w.Write(row); err != nil {
		return err
	}
	l.w.Flush()
	return l.w.Error()
}

// Close flushes and closes the underlying file.
func (l *QualityLogger) Close() error {
	l.w.Flush()
	return l.f.Close()
}
