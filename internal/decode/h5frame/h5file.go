package h5frame

import (
	"fmt"

	"github.com/robert-malhotra/go-hdf5/hdf5"
)

// hdf5Container adapts the HDF5 reader to the narrow frameContainer
// surface the decoder needs: image dims, the raw image bytes, the
// timestamp vector, and the shared file-level attributes. Keeping every
// library call here keeps the decoder itself free of HDF5 details.
type hdf5Container struct {
	f *hdf5.File
}

const (
	imageDataset     = "data"
	timestampDataset = "timestamps"
)

// Root-level attributes shared by every frame of a container, as written
// by the color-imager acquisition pipeline. Absent attributes are simply
// left out of the metadata.
var containerAttrKeys = []string{
	"Project unique ID",
	"Site unique ID",
	"Imager unique ID",
	"Device mode",
	"Firmware version",
}

func openContainer(path string) (frameContainer, error) {
	f, err := hdf5.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open container: %w", err)
	}
	return &hdf5Container{f: f}, nil
}

func (c *hdf5Container) close() {
	c.f.Close()
}

// imageDims returns the image dataset's dimensions (frame, height, width,
// channel order).
func (c *hdf5Container) imageDims() ([]int, error) {
	ds, err := c.f.OpenDataset(imageDataset)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", imageDataset, err)
	}
	shape := ds.Shape()
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	return dims, nil
}

// imageBytes reads the full image stack as uint8 bytes in storage order.
func (c *hdf5Container) imageBytes() ([]byte, error) {
	ds, err := c.f.OpenDataset(imageDataset)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", imageDataset, err)
	}
	raw, err := ds.ReadRaw()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", imageDataset, err)
	}
	return raw, nil
}

// timestamps reads the per-frame timestamp strings.
func (c *hdf5Container) timestamps() ([]string, error) {
	ds, err := c.f.OpenDataset(timestampDataset)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", timestampDataset, err)
	}
	ts, err := ds.ReadString()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", timestampDataset, err)
	}
	return ts, nil
}

// fileAttributes collects the known root-level attributes present in the
// file. A missing attribute is not an error; older containers carry fewer.
func (c *hdf5Container) fileAttributes() map[string]any {
	attrs := make(map[string]any)
	for _, key := range containerAttrKeys {
		v, err := c.f.ReadAttr(key)
		if err != nil {
			continue
		}
		attrs[key] = v
	}
	return attrs
}
