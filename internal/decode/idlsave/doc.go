// Package idlsave reads the structured-archive (.sav) files that carry
// single-record products: skymaps and optical calibrations. The on-disk
// layout is a big-endian record stream in the IDL save-file tradition: a
// two-byte "SR" signature, then self-delimiting records (timestamp,
// version, named variables, end marker), restricted to the record and
// type codes the calibration pipeline actually emits.
//
// Each file yields exactly one product record. There is no frame
// dimension; the frame-stream machinery in sibling packages does not apply
// here beyond the shared problematic-file contract.
package idlsave
