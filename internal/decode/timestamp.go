package decode

import (
	"path/filepath"
	"strings"
	"time"
)

// Frame-stream files carry a coarse UTC timestamp prefix in the base name,
// e.g. 20230115_0600_gill_nir-01_full.pgm.gz covers one minute of data.
const coarseLayout = "20060102_1504"

// CoarseTimestamp parses the minute-resolution timestamp prefix from a file
// name. ok is false when the name does not follow the convention.
func CoarseTimestamp(path string) (time.Time, bool) {
	base := filepath.Base(path)
	if len(base) < len(coarseLayout) {
		return time.Time{}, false
	}
	ts, err := time.Parse(coarseLayout, base[:len(coarseLayout)])
	if err != nil {
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// OutsideFilter reports whether the file named by path can be skipped
// without opening it: its one-minute coverage window cannot intersect the
// job's time filter. Files without a parseable prefix are never skipped.
func (j Job) OutsideFilter(path string) bool {
	if !j.TimeFilterActive() {
		return false
	}
	ts, ok := CoarseTimestamp(path)
	if !ok {
		return false
	}
	cover := time.Minute
	if !j.End.IsZero() && !ts.Before(j.End) {
		return true
	}
	if !j.Start.IsZero() && !ts.Add(cover).After(j.Start) {
		return true
	}
	return false
}

// Per-frame timestamp layouts, most specific first. The trailing "UTC" is
// literal in the instrument metadata.
var frameTimeLayouts = []string{
	"2006-01-02 15:04:05.000000 UTC",
	"2006-01-02 15:04:05 UTC",
	time.RFC3339Nano,
	time.RFC3339,
}

// ParseFrameTime parses a per-frame timestamp string as written by the
// instrument pipelines.
func ParseFrameTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var lastErr error
	for _, layout := range frameTimeLayouts {
		ts, err := time.Parse(layout, s)
		if err == nil {
			return ts.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
