package pgmstream

import (
	"bufio"
	"compress/bzip2"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"asiread/internal/decode"
	"asiread/internal/frame"
)

// Decoder reads one stream-of-frames PGM file per Decode call.
type Decoder struct {
	// TimeKeys lists the metadata keys, in preference order, holding the
	// per-frame timestamp used by time filtering.
	TimeKeys []string
}

// New builds a stream decoder filtering on the given timestamp keys.
func New(timeKeys ...string) *Decoder {
	return &Decoder{TimeKeys: timeKeys}
}

// Decode reads job.Path and returns every selected frame as one unit. All
// failures are reported through the unit, never raised.
func (d *Decoder) Decode(job decode.Job) decode.Unit {
	if job.OutsideFilter(job.Path) {
		return decode.Skipped()
	}

	f, err := os.Open(job.Path)
	if err != nil {
		return decode.Failed(err.Error(), frame.Geometry{})
	}
	defer f.Close()

	r, err := wrapCompression(f, job.Path)
	if err != nil {
		return decode.Failed(err.Error(), frame.Geometry{})
	}

	return d.DecodeStream(bufio.NewReader(r), job)
}

// DecodeStream decodes frames from an already opened stream. Split out so
// bundle formats can feed extracted members through the same path.
func (d *Decoder) DecodeStream(br *bufio.Reader, job decode.Job) decode.Unit {
	var (
		geom   frame.Geometry
		pixels []byte
		meta   []frame.Metadata
		count  int
	)

	for {
		raw, err := ReadFrame(br)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Report geometry established before the corruption point so
			// the batch can still infer its shape from this file.
			return decode.Failed(err.Error(), geom)
		}

		fg := frame.Geometry{Height: raw.Height, Width: raw.Width, Channels: 1, DType: raw.DType()}
		if count == 0 {
			geom = fg
		} else if fg != geom {
			return decode.Failed(fmt.Sprintf("frame %d geometry %s differs from %s", count, fg, geom), geom)
		}

		if !d.selected(raw, job, count) {
			count++
			if job.FirstFrame {
				break
			}
			continue
		}

		pixels = append(pixels, raw.Pixels...)
		if !job.NoMetadata {
			meta = append(meta, raw.Comment)
		}
		count++
		if job.FirstFrame {
			break
		}
	}

	kept := 0
	if geom.Complete() {
		kept = len(pixels) / geom.FrameBytes()
	}
	if kept == 0 {
		// Zero matching frames is a valid outcome, not an error.
		return decode.Unit{Geometry: geom}
	}

	tensor := &frame.Tensor{Geom: geom, Frames: kept, Data: pixels}
	return decode.Unit{Tensor: tensor, Metadata: meta, Geometry: geom}
}

// selected applies first-frame and time-filter selection to one raw frame.
func (d *Decoder) selected(raw *RawFrame, job decode.Job, index int) bool {
	if job.FirstFrame {
		return index == 0
	}
	if !job.TimeFilterActive() {
		return true
	}
	for _, key := range d.TimeKeys {
		s, ok := raw.Comment.String(key)
		if !ok {
			continue
		}
		ts, err := decode.ParseFrameTime(s)
		if err != nil {
			return false
		}
		return job.InFilter(ts)
	}
	return false
}

func wrapCompression(f *os.File, path string) (io.Reader, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip open: %w", err)
		}
		return zr, nil
	case ".bz2":
		return bzip2.NewReader(f), nil
	default:
		return f, nil
	}
}
