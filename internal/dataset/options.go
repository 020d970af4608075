package dataset

import (
	"fmt"
	"log/slog"
	"time"
)

// ReadOptions tunes one read call. The zero value is valid: sequential
// decode, full metadata, no time filter.
type ReadOptions struct {
	// Workers bounds the decode pool. Values below 1 mean sequential.
	Workers int
	// MergeWorkers bounds the copy pool used during assembly. Defaults to
	// Workers when unset.
	MergeWorkers int
	Flags        Flags
	// Start and End bound frame timestamps to [Start, End). Zero values
	// leave the corresponding side unbounded.
	Start time.Time
	End   time.Time
	// TempDir is scratch space for formats that extract bundles.
	TempDir string
	// Logger receives advisory diagnostics. Nil falls back to
	// slog.Default.
	Logger *slog.Logger
}

func (o ReadOptions) timeFilterActive() bool {
	return !o.Start.IsZero() || !o.End.IsZero()
}

func (o ReadOptions) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// normalize validates option values and resolves the metadata/filter
// conflict: time filtering needs metadata, so a filtered no-metadata read
// proceeds unfiltered with a warning.
func (o ReadOptions) normalize() (ReadOptions, error) {
	if o.Workers < 1 {
		o.Workers = 1
	}
	if o.MergeWorkers < 1 {
		o.MergeWorkers = o.Workers
	}
	if !o.Start.IsZero() && !o.End.IsZero() && !o.Start.Before(o.End) {
		return o, fmt.Errorf("start %s is not before end %s", o.Start, o.End)
	}
	if o.Flags.Has(NoMetadata) && o.timeFilterActive() {
		if !o.Flags.Has(Quiet) {
			o.logger().Warn("time filter requires metadata; reading all frames",
				"component", "dataset")
		}
		o.Start = time.Time{}
		o.End = time.Time{}
	}
	return o, nil
}
