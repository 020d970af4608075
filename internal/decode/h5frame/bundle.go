package h5frame

import (
	"archive/tar"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"asiread/internal/decode"
	"asiread/internal/frame"
)

// decodeBundle extracts a burst tar into scratch space and decodes every
// member PGM in name order, concatenating the results into one unit.
// Extraction is serialized per bundle with a cross-process file lock so two
// readers of the same bundle never trample each other's scratch dir.
func (d *Decoder) decodeBundle(job decode.Job) decode.Unit {
	scratch := job.TempDir
	if scratch == "" {
		scratch = os.TempDir()
	}
	dir := filepath.Join(scratch, strings.TrimSuffix(filepath.Base(job.Path), ".tar"))

	lock := flock.New(dir + ".lock")
	if err := lock.Lock(); err != nil {
		return decode.Failed(fmt.Sprintf("lock scratch dir: %v", err), frame.Geometry{})
	}
	defer lock.Unlock()
	defer os.RemoveAll(dir)

	members, err := extractBundle(job.Path, dir)
	if err != nil {
		return decode.Failed(err.Error(), frame.Geometry{})
	}
	if len(members) == 0 {
		return decode.Failed("bundle contains no frame files", frame.Geometry{})
	}
	sort.Strings(members)

	var (
		geom   frame.Geometry
		pixels []byte
		meta   []frame.Metadata
		frames int
	)
	for _, member := range members {
		if job.OutsideFilter(member) {
			continue
		}
		unit := d.decodeMember(member, job)
		if unit.Problematic {
			// One bad member spoils the bundle; the bundle is the unit of
			// failure isolation, not its members.
			return decode.Failed(fmt.Sprintf("%s: %s", filepath.Base(member), unit.Err), geom)
		}
		geom.MergeFrom(unit.Geometry)
		if unit.FrameCount() == 0 {
			continue
		}
		if frames == 0 {
			geom = unit.Geometry
		} else if unit.Geometry != geom {
			return decode.Failed(fmt.Sprintf("%s: geometry %s differs from %s", filepath.Base(member), unit.Geometry, geom), geom)
		}
		pixels = append(pixels, unit.Tensor.Data...)
		meta = append(meta, unit.Metadata...)
		frames += unit.FrameCount()

		if job.FirstFrame && frames > 0 {
			break
		}
	}

	if frames == 0 {
		return decode.Unit{Geometry: geom}
	}
	tensor := &frame.Tensor{Geom: geom, Frames: frames, Data: pixels}
	if job.NoMetadata {
		meta = nil
	}
	return decode.Unit{Tensor: tensor, Metadata: meta, Geometry: geom}
}

func (d *Decoder) decodeMember(path string, job decode.Job) decode.Unit {
	// Members may themselves be compressed; the stream decoder handles
	// that from the extension.
	return d.pgm.Decode(decode.Job{
		Path:       path,
		FirstFrame: job.FirstFrame,
		NoMetadata: job.NoMetadata,
		Start:      job.Start,
		End:        job.End,
		Quiet:      job.Quiet,
	})
}

// extractBundle writes the tar's PGM members under dir and returns their
// paths. Member names are flattened; bundles are flat by convention.
func extractBundle(path, dir string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("scratch dir: %w", err)
	}

	var members []string
	tr := tar.NewReader(f)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read bundle: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		name := filepath.Base(hdr.Name)
		if !strings.Contains(strings.ToLower(name), ".pgm") {
			continue
		}
		dst := filepath.Join(dir, name)
		out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
		if err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		if _, err := io.Copy(out, tr); err != nil {
			out.Close()
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		if err := out.Close(); err != nil {
			return nil, fmt.Errorf("extract %s: %w", name, err)
		}
		members = append(members, dst)
	}
	return members, nil
}
