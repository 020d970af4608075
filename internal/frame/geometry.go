package frame

import "fmt"

// Geometry fixes the shape every frame in a batch must share. Zero-valued
// fields mean "not yet known"; decoders report whatever they managed to
// establish so the assembly engine can resolve the global shape from any
// file that got far enough.
type Geometry struct {
	Height   int
	Width    int
	Channels int
	DType    DType
}

// Complete reports whether every field has been established.
func (g Geometry) Complete() bool {
	return g.Height > 0 && g.Width > 0 && g.Channels > 0 && g.DType != DTypeUnknown
}

// FrameElems returns the element count of a single frame.
func (g Geometry) FrameElems() int {
	return g.Height * g.Width * g.Channels
}

// FrameBytes returns the byte size of a single frame.
func (g Geometry) FrameBytes() int {
	return g.FrameElems() * g.DType.Size()
}

func (g Geometry) String() string {
	return fmt.Sprintf("%dx%dx%d %s", g.Height, g.Width, g.Channels, g.DType)
}

// MergeFrom fills any unset field of g from other, leaving set fields alone.
func (g *Geometry) MergeFrom(other Geometry) {
	if g.Height == 0 {
		g.Height = other.Height
	}
	if g.Width == 0 {
		g.Width = other.Width
	}
	if g.Channels == 0 {
		g.Channels = other.Channels
	}
	if g.DType == DTypeUnknown {
		g.DType = other.DType
	}
}
