package decode

import (
	"fmt"
	"time"

	"asiread/internal/frame"
)

// Job describes one file to decode. Built once per input file before
// dispatch and never mutated afterwards.
type Job struct {
	Path       string
	Workers    int // parallelism hint for formats that fan out internally
	FirstFrame bool
	NoMetadata bool
	Start      time.Time // zero means unbounded
	End        time.Time // zero means unbounded
	Quiet      bool
	TempDir    string // scratch space for formats that extract bundles
}

// TimeFilterActive reports whether the job carries a [Start, End) filter.
func (j Job) TimeFilterActive() bool {
	return !j.Start.IsZero() || !j.End.IsZero()
}

// InFilter reports whether ts, truncated to whole seconds, falls inside the
// job's [Start, End) window. An unbounded side always matches.
func (j Job) InFilter(ts time.Time) bool {
	ts = ts.Truncate(time.Second)
	if !j.Start.IsZero() && ts.Before(j.Start) {
		return false
	}
	if !j.End.IsZero() && !ts.Before(j.End) {
		return false
	}
	return true
}

// Unit is the outcome of decoding one file.
//
// A problematic unit carries the failure message and contributes no frames.
// An empty non-problematic unit means the file was legitimately skipped
// (outside a time filter) or matched zero frames. Geometry holds whatever
// shape information the decoder established, even on failure or emptiness,
// so the assembly engine can infer the batch shape from any file.
type Unit struct {
	Tensor      *frame.Tensor
	Metadata    []frame.Metadata
	Problematic bool
	Err         string
	Geometry    frame.Geometry
}

// FrameCount returns the number of frames this unit contributes.
func (u Unit) FrameCount() int {
	if u.Tensor == nil {
		return 0
	}
	return u.Tensor.Frames
}

// Failed builds a problematic unit carrying msg and any known geometry.
func Failed(msg string, geom frame.Geometry) Unit {
	return Unit{Problematic: true, Err: msg, Geometry: geom}
}

// Skipped builds an empty, non-problematic unit with no geometry. Used for
// the cheap filename-based skip that never opens the file.
func Skipped() Unit {
	return Unit{}
}

// Severity classifies a problematic file.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Problem records one input file that failed to decode. It never
// contributes frames.
type Problem struct {
	Path     string
	Message  string
	Severity Severity
}

func (p Problem) String() string {
	return fmt.Sprintf("%s: %s: %s", p.Severity, p.Path, p.Message)
}

// Decoder maps one Job to one Unit. Implementations report failures through
// the Unit rather than panicking; Safe backstops the ones that slip.
type Decoder interface {
	Decode(job Job) Unit
}

// Func adapts a plain function to the Decoder interface.
type Func func(Job) Unit

func (f Func) Decode(job Job) Unit { return f(job) }

// Safe invokes d and converts an escaping panic into a problematic unit, so
// a fault in one file's decode can never take down the batch.
func Safe(d Decoder, job Job) (unit Unit) {
	defer func() {
		if r := recover(); r != nil {
			unit = Failed(fmt.Sprintf("decode panicked: %v", r), unit.Geometry)
		}
	}()
	return d.Decode(job)
}
