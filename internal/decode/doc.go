// Package decode defines the per-file decode contract shared by every
// on-disk format: the immutable Job describing one input file, the Unit a
// decoder produces for it, and the problematic-file record used when a file
// cannot be decoded cleanly.
//
// Decoders never fail the batch. Every per-file failure, including a panic
// escaping a decoder, is captured at the Safe boundary and reported as a
// problematic Unit so sibling files keep decoding.
package decode
