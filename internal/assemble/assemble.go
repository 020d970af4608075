// Package assemble reduces per-file decode results into one contiguous,
// file-ordered tensor plus an aligned metadata list. The placement plan is
// computed strictly in input order, so output frame order never depends on
// which worker finished a file first.
package assemble

import (
	"errors"
	"fmt"
	"sync"

	"asiread/internal/decode"
	"asiread/internal/frame"
)

// ErrNoGeometry is the internal invariant violation raised when no file in
// a batch ever reported geometry, leaving the output shape unknowable.
// This signals a decoder bug, not a bad input file.
var ErrNoGeometry = errors.New("no file in batch reported geometry")

// Result is the merged outcome of one decode batch.
type Result struct {
	Tensor   *frame.Tensor
	Metadata []frame.Metadata
	Problems []decode.Problem
}

// FrameCount returns the merged tensor's frame count.
func (r *Result) FrameCount() int {
	if r.Tensor == nil {
		return 0
	}
	return r.Tensor.Frames
}

// placement assigns one contributing unit a disjoint frame range.
type placement struct {
	unit  int
	start int
}

// Merge assembles units (index-aligned with paths) into one Result.
//
// canonical, when known, is the dataset's canonical dtype; the finished
// tensor is coerced to it as a final step. workers bounds the copy pool;
// copies touch disjoint regions so no locking is needed.
func Merge(units []decode.Unit, paths []string, wantMetadata bool, canonical frame.DType, workers int) (*Result, error) {
	out := &Result{}

	// Resolve the global geometry field-by-field, preferring earlier
	// files but accepting any later file's knowledge of a missing field.
	var geom frame.Geometry
	for _, u := range units {
		geom.MergeFrom(u.Geometry)
		if geom.Complete() {
			break
		}
	}

	var plan []placement
	total := 0
	cleanSkips := 0
	for i, u := range units {
		switch {
		case u.Problematic:
			out.Problems = append(out.Problems, decode.Problem{
				Path:     paths[i],
				Message:  u.Err,
				Severity: decode.SeverityError,
			})
		case u.FrameCount() == 0:
			cleanSkips++
		case u.Tensor.Geom != geom:
			out.Problems = append(out.Problems, decode.Problem{
				Path:     paths[i],
				Message:  fmt.Sprintf("frame geometry %s differs from batch geometry %s", u.Tensor.Geom, geom),
				Severity: decode.SeverityError,
			})
		default:
			plan = append(plan, placement{unit: i, start: total})
			total += u.FrameCount()
		}
	}

	if !geom.Complete() {
		if cleanSkips == len(units) {
			// Every file was legitimately skipped; an empty result with
			// unknown shape is the correct answer, not a defect.
			return out, nil
		}
		return nil, ErrNoGeometry
	}

	tensor, err := frame.NewTensor(geom, total)
	if err != nil {
		return nil, err
	}
	if wantMetadata {
		out.Metadata = make([]frame.Metadata, total)
	}

	copyPlacements(tensor, out.Metadata, units, plan, workers)

	if canonical != frame.DTypeUnknown {
		if tensor, err = tensor.ConvertTo(canonical); err != nil {
			return nil, err
		}
	}
	out.Tensor = tensor
	return out, nil
}

// copyPlacements copies each planned unit into its disjoint output range,
// fanning out across a bounded pool. The output is only read after every
// copy completes.
func copyPlacements(tensor *frame.Tensor, meta []frame.Metadata, units []decode.Unit, plan []placement, workers int) {
	if len(plan) == 0 {
		return
	}
	if workers <= 1 || len(plan) == 1 {
		for _, p := range plan {
			applyPlacement(tensor, meta, units[p.unit], p.start)
		}
		return
	}
	if workers > len(plan) {
		workers = len(plan)
	}

	tasks := make(chan placement)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for p := range tasks {
				applyPlacement(tensor, meta, units[p.unit], p.start)
			}
		}()
	}
	for _, p := range plan {
		tasks <- p
	}
	close(tasks)
	wg.Wait()
}

func applyPlacement(tensor *frame.Tensor, meta []frame.Metadata, u decode.Unit, start int) {
	// Geometry was checked during planning; the copy cannot fail.
	_ = tensor.CopyFramesAt(start, u.Tensor)
	if meta != nil {
		copy(meta[start:start+len(u.Metadata)], u.Metadata)
	}
}
