package h5frame

import (
	"fmt"
	"path/filepath"
	"strings"

	"asiread/internal/decode"
	"asiread/internal/decode/pgmstream"
	"asiread/internal/frame"
)

// frameContainer is the read surface decodeContainer needs from one open
// container file.
type frameContainer interface {
	imageDims() ([]int, error)
	imageBytes() ([]byte, error)
	timestamps() ([]string, error)
	fileAttributes() map[string]any
	close()
}

// Decoder reads HDF5 frame containers and burst tar bundles.
type Decoder struct {
	// TimeKey names the metadata key each frame's timestamp is published
	// under, matching the container's attribute convention.
	TimeKey string
	// Channels is the expected channel count of the container's image
	// stack (3 for color imagers).
	Channels int

	pgm  *pgmstream.Decoder
	open func(path string) (frameContainer, error)
}

// New builds a container decoder. The PGM time keys apply to burst-bundle
// members, which carry their timestamps in comment blocks.
func New(timeKey string, channels int, pgmTimeKeys ...string) *Decoder {
	return &Decoder{
		TimeKey:  timeKey,
		Channels: channels,
		pgm:      pgmstream.New(pgmTimeKeys...),
		open:     openContainer,
	}
}

// Decode reads job.Path as either a container or a bundle based on its
// extension. All failures come back as problematic units.
func (d *Decoder) Decode(job decode.Job) decode.Unit {
	if job.OutsideFilter(job.Path) {
		return decode.Skipped()
	}
	switch strings.ToLower(filepath.Ext(job.Path)) {
	case ".h5":
		return d.decodeContainer(job)
	case ".tar":
		return d.decodeBundle(job)
	default:
		return decode.Failed(fmt.Sprintf("unrecognized file extension %q", filepath.Ext(job.Path)), frame.Geometry{})
	}
}

func (d *Decoder) decodeContainer(job decode.Job) decode.Unit {
	c, err := d.open(job.Path)
	if err != nil {
		return decode.Failed(err.Error(), frame.Geometry{})
	}
	defer c.close()

	dims, err := c.imageDims()
	if err != nil {
		return decode.Failed(err.Error(), frame.Geometry{})
	}
	if len(dims) != 4 {
		return decode.Failed(fmt.Sprintf("image dataset has rank %d, want 4", len(dims)), frame.Geometry{})
	}
	total, height, width, channels := dims[0], dims[1], dims[2], dims[3]
	geom := frame.Geometry{Height: height, Width: width, Channels: channels, DType: frame.DTypeUint8}
	if d.Channels > 0 && channels != d.Channels {
		return decode.Failed(fmt.Sprintf("container has %d channels, want %d", channels, d.Channels), geom)
	}

	stamps, err := c.timestamps()
	if err != nil {
		return decode.Failed(err.Error(), geom)
	}
	if len(stamps) != total {
		return decode.Failed(fmt.Sprintf("%d timestamps for %d frames", len(stamps), total), geom)
	}

	selected, err := d.selectFrames(job, stamps)
	if err != nil {
		return decode.Failed(err.Error(), geom)
	}
	if len(selected) == 0 {
		return decode.Unit{Geometry: geom}
	}

	raw, err := c.imageBytes()
	if err != nil {
		return decode.Failed(err.Error(), geom)
	}
	frameBytes := geom.FrameBytes()
	if len(raw) != total*frameBytes {
		return decode.Failed(fmt.Sprintf("image dataset holds %d bytes, want %d", len(raw), total*frameBytes), geom)
	}

	tensor, err := frame.NewTensor(geom, len(selected))
	if err != nil {
		return decode.Failed(err.Error(), geom)
	}
	var meta []frame.Metadata
	var fileAttrs map[string]any
	if !job.NoMetadata {
		fileAttrs = c.fileAttributes()
		meta = make([]frame.Metadata, 0, len(selected))
	}

	for i, src := range selected {
		copy(tensor.Frame(i), raw[src*frameBytes:(src+1)*frameBytes])
		if !job.NoMetadata {
			rec := frame.Metadata(fileAttrs).Clone()
			rec[d.TimeKey] = stamps[src]
			meta = append(meta, rec)
		}
	}

	// Containers store images bottom-up.
	tensor.FlipVertical()

	return decode.Unit{Tensor: tensor, Metadata: meta, Geometry: geom}
}

// selectFrames resolves the frame index set: everything, the first frame,
// or the timestamp-filtered subset.
func (d *Decoder) selectFrames(job decode.Job, stamps []string) ([]int, error) {
	if job.FirstFrame {
		if len(stamps) == 0 {
			return nil, nil
		}
		return []int{0}, nil
	}
	if !job.TimeFilterActive() {
		out := make([]int, len(stamps))
		for i := range out {
			out[i] = i
		}
		return out, nil
	}
	var out []int
	for i, s := range stamps {
		ts, err := decode.ParseFrameTime(s)
		if err != nil {
			return nil, fmt.Errorf("frame %d timestamp %q: %w", i, s, err)
		}
		if job.InFilter(ts) {
			out = append(out, i)
		}
	}
	return out, nil
}
