// Package h5frame decodes HDF5 frame containers (nominal cadence) and tar
// bundles of per-frame PGM images (burst cadence). Containers hold one
// uint8 image stack stored bottom-up plus a per-frame timestamp vector and
// file-level attributes; bundles are extracted into scratch space and fed
// through the PGM stream reader one member at a time.
package h5frame
