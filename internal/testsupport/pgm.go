// Package testsupport builds synthetic instrument files for tests:
// stream-of-frames PGM files and single-record save archives with known
// contents.
package testsupport

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// PGMStream describes a synthetic stream-of-frames PGM file.
type PGMStream struct {
	Width   int
	Height  int
	MaxVal  int
	Frames  int
	Start   time.Time
	Cadence time.Duration
	Seed    int
	Gzip    bool
	Site    string
}

func (s PGMStream) withDefaults() PGMStream {
	if s.Width == 0 {
		s.Width = 8
	}
	if s.Height == 0 {
		s.Height = 8
	}
	if s.MaxVal == 0 {
		s.MaxVal = 65535
	}
	if s.Frames == 0 {
		s.Frames = 4
	}
	if s.Start.IsZero() {
		s.Start = time.Date(2023, 1, 15, 6, 0, 0, 0, time.UTC)
	}
	if s.Cadence == 0 {
		s.Cadence = 3 * time.Second
	}
	if s.Site == "" {
		s.Site = "gill"
	}
	return s
}

// PixelValue returns the deterministic value written at (frame, element).
func (s PGMStream) PixelValue(frameIdx, elem int) int {
	v := (s.Seed*1000 + frameIdx*100 + elem) % (s.MaxVal + 1)
	return v
}

// FrameTime returns the timestamp written into frame frameIdx's comments.
func (s PGMStream) FrameTime(frameIdx int) time.Time {
	return s.withDefaults().Start.Add(time.Duration(frameIdx) * s.withDefaults().Cadence)
}

// WritePGMStream renders the stream to path.
func WritePGMStream(t testing.TB, path string, spec PGMStream) PGMStream {
	t.Helper()
	spec = spec.withDefaults()

	var buf bytes.Buffer
	for f := 0; f < spec.Frames; f++ {
		ts := spec.Start.Add(time.Duration(f) * spec.Cadence)
		fmt.Fprintf(&buf, "P5\n")
		fmt.Fprintf(&buf, "# Image request start: %s UTC\n", ts.UTC().Format("2006-01-02 15:04:05.000000"))
		fmt.Fprintf(&buf, "# Site unique ID: %s\n", spec.Site)
		fmt.Fprintf(&buf, "# Frame sequence: %d\n", f)
		fmt.Fprintf(&buf, "%d %d\n%d\n", spec.Width, spec.Height, spec.MaxVal)
		for e := 0; e < spec.Width*spec.Height; e++ {
			v := spec.PixelValue(f, e)
			if spec.MaxVal > 255 {
				var be [2]byte
				binary.BigEndian.PutUint16(be[:], uint16(v))
				buf.Write(be[:])
			} else {
				buf.WriteByte(byte(v))
			}
		}
	}

	raw := buf.Bytes()
	if spec.Gzip {
		var zbuf bytes.Buffer
		zw := gzip.NewWriter(&zbuf)
		if _, err := zw.Write(raw); err != nil {
			t.Fatalf("gzip stream: %v", err)
		}
		if err := zw.Close(); err != nil {
			t.Fatalf("close gzip stream: %v", err)
		}
		raw = zbuf.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("create stream dir: %v", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write stream: %v", err)
	}
	return spec
}

// StreamPath builds a file name following the coarse-timestamp convention
// for the given minute.
func StreamPath(dir string, ts time.Time, site, suffix string) string {
	return filepath.Join(dir, fmt.Sprintf("%s_%s_themis01_%s", ts.UTC().Format("20060102_1504"), site, suffix))
}
