package dataset

import (
	"sort"

	"asiread/internal/decode"
	"asiread/internal/decode/h5frame"
	"asiread/internal/decode/pgmstream"
	"asiread/internal/frame"
)

// Kind distinguishes frame-stream datasets from single-record ones.
type Kind int

const (
	// KindFrameStream datasets merge many frames per file into a tensor.
	KindFrameStream Kind = iota
	// KindSingleRecord datasets yield one structured record per file.
	KindSingleRecord
)

func (k Kind) String() string {
	if k == KindSingleRecord {
		return "single-record"
	}
	return "frame-stream"
}

// Descriptor is one registry entry: a dataset name bound to its decoder
// and canonical output shape.
type Descriptor struct {
	Name     string
	Kind     Kind
	Format   string
	Geometry frame.Geometry // canonical shape; zero for single-record sets
	TimeKeys []string       // metadata keys holding per-frame timestamps

	decoder decode.Decoder
}

// The per-frame timestamp lives under one of two keys depending on the
// pipeline generation; both stay accepted for older files.
var streamTimeKeys = []string{"image_request_start_timestamp", "Image request start"}

// registry is the static dataset table, built once at process start.
var registry = buildRegistry()

func buildRegistry() map[string]Descriptor {
	entries := []Descriptor{
		{
			Name:     "themis_asi",
			Kind:     KindFrameStream,
			Format:   "pgm-stream",
			Geometry: frame.Geometry{Height: 256, Width: 256, Channels: 1, DType: frame.DTypeUint16},
			TimeKeys: streamTimeKeys,
			decoder:  pgmstream.New(streamTimeKeys...),
		},
		{
			Name:     "rego",
			Kind:     KindFrameStream,
			Format:   "pgm-stream",
			Geometry: frame.Geometry{Height: 512, Width: 512, Channels: 1, DType: frame.DTypeUint16},
			TimeKeys: streamTimeKeys,
			decoder:  pgmstream.New(streamTimeKeys...),
		},
		{
			Name:     "trex_nir",
			Kind:     KindFrameStream,
			Format:   "pgm-stream",
			Geometry: frame.Geometry{Height: 256, Width: 256, Channels: 1, DType: frame.DTypeUint16},
			TimeKeys: streamTimeKeys,
			decoder:  pgmstream.New(streamTimeKeys...),
		},
		{
			Name:     "trex_blue",
			Kind:     KindFrameStream,
			Format:   "pgm-stream",
			Geometry: frame.Geometry{Height: 256, Width: 256, Channels: 1, DType: frame.DTypeUint16},
			TimeKeys: streamTimeKeys,
			decoder:  pgmstream.New(streamTimeKeys...),
		},
		{
			Name:     "trex_rgb",
			Kind:     KindFrameStream,
			Format:   "hdf5",
			Geometry: frame.Geometry{Height: 480, Width: 553, Channels: 3, DType: frame.DTypeUint8},
			TimeKeys: streamTimeKeys[:1],
			decoder:  h5frame.New(streamTimeKeys[0], 3, streamTimeKeys...),
		},
		{
			Name:   "skymap",
			Kind:   KindSingleRecord,
			Format: "save",
		},
		{
			Name:   "calibration",
			Kind:   KindSingleRecord,
			Format: "save",
		},
	}

	out := make(map[string]Descriptor, len(entries))
	for _, e := range entries {
		out[e.Name] = e
	}
	return out
}

// Lookup returns the descriptor registered under name.
func Lookup(name string) (Descriptor, bool) {
	d, ok := registry[name]
	return d, ok
}

// Names lists every registered dataset in sorted order.
func Names() []string {
	out := make([]string, 0, len(registry))
	for name := range registry {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
