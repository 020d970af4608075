// Package frame defines the in-memory representation shared by every
// decoder: a frame-major image tensor, the geometry descriptor that fixes
// the per-frame shape of a batch, and the per-frame metadata record.
//
// Tensors are rank-4 (height, width, channel, frame). The backing buffer is
// frame-major: frame i occupies one contiguous byte range, with pixels laid
// out row-major and channels interleaved. That layout lets the assembly
// engine merge per-file results with plain disjoint byte copies.
package frame
