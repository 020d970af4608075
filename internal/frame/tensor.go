package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Tensor is a rank-4 (height, width, channel, frame) image stack. The
// backing buffer is frame-major with little-endian multi-byte elements, so
// two reads of the same files always produce byte-identical buffers.
type Tensor struct {
	Geom   Geometry
	Frames int
	Data   []byte
}

// NewTensor allocates a zeroed tensor for frames frames of geometry g.
func NewTensor(g Geometry, frames int) (*Tensor, error) {
	if !g.Complete() {
		return nil, fmt.Errorf("tensor geometry incomplete: %s", g)
	}
	if frames < 0 {
		return nil, fmt.Errorf("negative frame count %d", frames)
	}
	return &Tensor{
		Geom:   g,
		Frames: frames,
		Data:   make([]byte, frames*g.FrameBytes()),
	}, nil
}

// FrameBytes returns the byte size of one frame.
func (t *Tensor) FrameBytes() int {
	return t.Geom.FrameBytes()
}

// Frame returns the backing bytes of frame i.
func (t *Tensor) Frame(i int) []byte {
	size := t.FrameBytes()
	return t.Data[i*size : (i+1)*size]
}

// CopyFramesAt copies src's frames into this tensor starting at frame index
// start. The destination range must already exist; ranges assigned by the
// placement plan never overlap, so concurrent calls are safe.
func (t *Tensor) CopyFramesAt(start int, src *Tensor) error {
	if src.FrameBytes() != t.FrameBytes() {
		return fmt.Errorf("frame geometry mismatch: %s vs %s", src.Geom, t.Geom)
	}
	if start < 0 || start+src.Frames > t.Frames {
		return fmt.Errorf("frame range [%d,%d) outside tensor of %d frames", start, start+src.Frames, t.Frames)
	}
	copy(t.Data[start*t.FrameBytes():], src.Data)
	return nil
}

// At returns the element at (h, w, c) of frame n as a float64, whatever the
// underlying dtype. Intended for tests and spot checks, not bulk access.
func (t *Tensor) At(h, w, c, n int) float64 {
	idx := ((n*t.Geom.Height+h)*t.Geom.Width + w) * t.Geom.Channels
	idx += c
	switch t.Geom.DType {
	case DTypeUint8:
		return float64(t.Data[idx])
	case DTypeUint16:
		return float64(binary.LittleEndian.Uint16(t.Data[idx*2:]))
	case DTypeUint32:
		return float64(binary.LittleEndian.Uint32(t.Data[idx*4:]))
	case DTypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(t.Data[idx*4:])))
	case DTypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(t.Data[idx*8:]))
	default:
		return 0
	}
}

func (t *Tensor) setAt(elem int, v float64) {
	switch t.Geom.DType {
	case DTypeUint8:
		t.Data[elem] = uint8(clamp(v, 0, math.MaxUint8))
	case DTypeUint16:
		binary.LittleEndian.PutUint16(t.Data[elem*2:], uint16(clamp(v, 0, math.MaxUint16)))
	case DTypeUint32:
		binary.LittleEndian.PutUint32(t.Data[elem*4:], uint32(clamp(v, 0, math.MaxUint32)))
	case DTypeFloat32:
		binary.LittleEndian.PutUint32(t.Data[elem*4:], math.Float32bits(float32(v)))
	case DTypeFloat64:
		binary.LittleEndian.PutUint64(t.Data[elem*8:], math.Float64bits(v))
	}
}

func (t *Tensor) atElem(elem int) float64 {
	switch t.Geom.DType {
	case DTypeUint8:
		return float64(t.Data[elem])
	case DTypeUint16:
		return float64(binary.LittleEndian.Uint16(t.Data[elem*2:]))
	case DTypeUint32:
		return float64(binary.LittleEndian.Uint32(t.Data[elem*4:]))
	case DTypeFloat32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(t.Data[elem*4:])))
	case DTypeFloat64:
		return math.Float64frombits(binary.LittleEndian.Uint64(t.Data[elem*8:]))
	default:
		return 0
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ConvertTo returns a tensor with the same values in dtype d. The receiver
// is returned unchanged when it already matches.
func (t *Tensor) ConvertTo(d DType) (*Tensor, error) {
	if d == DTypeUnknown {
		return nil, fmt.Errorf("cannot convert to unknown dtype")
	}
	if t.Geom.DType == d {
		return t, nil
	}
	g := t.Geom
	g.DType = d
	out, err := NewTensor(g, t.Frames)
	if err != nil {
		return nil, err
	}
	elems := t.Frames * t.Geom.FrameElems()
	for i := 0; i < elems; i++ {
		out.setAt(i, t.atElem(i))
	}
	return out, nil
}

// FlipVertical reverses the row order of every frame in place. Used by
// formats that store images bottom-up.
func (t *Tensor) FlipVertical() {
	rowBytes := t.Geom.Width * t.Geom.Channels * t.Geom.DType.Size()
	if rowBytes == 0 {
		return
	}
	tmp := make([]byte, rowBytes)
	for n := 0; n < t.Frames; n++ {
		f := t.Frame(n)
		for top, bot := 0, t.Geom.Height-1; top < bot; top, bot = top+1, bot-1 {
			a := f[top*rowBytes : (top+1)*rowBytes]
			b := f[bot*rowBytes : (bot+1)*rowBytes]
			copy(tmp, a)
			copy(a, b)
			copy(b, tmp)
		}
	}
}
