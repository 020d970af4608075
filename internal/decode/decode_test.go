package decode

import (
	"strings"
	"testing"
	"time"

	"asiread/internal/frame"
)

func TestSafe_CapturesPanic(t *testing.T) {
	panicking := Func(func(Job) Unit {
		panic("native fault")
	})
	unit := Safe(panicking, Job{Path: "x.pgm"})
	if !unit.Problematic {
		t.Fatal("expected problematic unit from panicking decoder")
	}
	if !strings.Contains(unit.Err, "native fault") {
		t.Fatalf("unexpected message: %q", unit.Err)
	}
}

func TestJobInFilter_TruncatesToSeconds(t *testing.T) {
	job := Job{
		Start: time.Date(2023, 1, 15, 6, 0, 10, 0, time.UTC),
		End:   time.Date(2023, 1, 15, 6, 0, 20, 0, time.UTC),
	}
	// 06:00:10.9 truncates to 06:00:10, inside [start, end).
	if !job.InFilter(time.Date(2023, 1, 15, 6, 0, 10, 900000000, time.UTC)) {
		t.Fatal("expected fractional timestamp inside window")
	}
	// End is exclusive.
	if job.InFilter(time.Date(2023, 1, 15, 6, 0, 20, 0, time.UTC)) {
		t.Fatal("expected end bound to be exclusive")
	}
}

func TestCoarseTimestamp(t *testing.T) {
	ts, ok := CoarseTimestamp("/data/20230115_0600_gill_themis01_full.pgm.gz")
	if !ok {
		t.Fatal("expected parseable prefix")
	}
	want := time.Date(2023, 1, 15, 6, 0, 0, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("timestamp = %s, want %s", ts, want)
	}

	if _, ok := CoarseTimestamp("notes.txt"); ok {
		t.Fatal("expected failure for unconventional name")
	}
}

func TestJobOutsideFilter(t *testing.T) {
	job := Job{
		Start: time.Date(2023, 1, 15, 7, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 1, 15, 8, 0, 0, 0, time.UTC),
	}
	if !job.OutsideFilter("20230115_0600_gill_themis01_full.pgm.gz") {
		t.Fatal("file an hour before the window should be skippable")
	}
	if job.OutsideFilter("20230115_0730_gill_themis01_full.pgm.gz") {
		t.Fatal("file inside the window must not be skipped")
	}
	// A file covering the minute right before the window holds no frame
	// at or after Start, so the cheap skip applies.
	if !job.OutsideFilter("20230115_0659_gill_themis01_full.pgm.gz") {
		t.Fatal("file ending exactly at the window start should be skippable")
	}
	if job.OutsideFilter("notes.txt") {
		t.Fatal("unparseable names must never be skipped")
	}
}

func TestParseFrameTime(t *testing.T) {
	ts, err := ParseFrameTime("2023-01-15 06:00:30.035385 UTC")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ts.Second() != 30 || ts.Nanosecond() != 35385000 {
		t.Fatalf("parsed %s", ts)
	}

	if _, err := ParseFrameTime("yesterday-ish"); err == nil {
		t.Fatal("expected error for junk timestamp")
	}
}

func TestFailedKeepsGeometry(t *testing.T) {
	geom := frame.Geometry{Height: 256, Width: 256, Channels: 1, DType: frame.DTypeUint16}
	unit := Failed("truncated", geom)
	if !unit.Problematic || unit.Geometry != geom {
		t.Fatalf("unexpected unit: %+v", unit)
	}
	if unit.FrameCount() != 0 {
		t.Fatal("problematic unit must contribute no frames")
	}
}
