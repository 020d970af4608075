package assemble

import (
	"errors"
	"testing"

	"asiread/internal/decode"
	"asiread/internal/frame"
)

var testGeom = frame.Geometry{Height: 2, Width: 2, Channels: 1, DType: frame.DTypeUint8}

// unitWithFrames builds a contributing unit whose frame bytes all carry the
// given fill value, one frame per fill entry.
func unitWithFrames(fills ...byte) decode.Unit {
	tensor, _ := frame.NewTensor(testGeom, len(fills))
	meta := make([]frame.Metadata, len(fills))
	for i, fill := range fills {
		f := tensor.Frame(i)
		for j := range f {
			f[j] = fill
		}
		meta[i] = frame.Metadata{"fill": string(rune('a' + fill))}
	}
	return decode.Unit{Tensor: tensor, Metadata: meta, Geometry: testGeom}
}

func TestMerge_FileOrderPreserved(t *testing.T) {
	units := []decode.Unit{
		unitWithFrames(1, 2),
		unitWithFrames(3),
		unitWithFrames(4, 5, 6),
	}
	paths := []string{"a", "b", "c"}

	for _, workers := range []int{1, 4} {
		res, err := Merge(units, paths, true, frame.DTypeUint8, workers)
		if err != nil {
			t.Fatalf("workers=%d: unexpected error: %v", workers, err)
		}
		if res.FrameCount() != 6 {
			t.Fatalf("workers=%d: frames = %d, want 6", workers, res.FrameCount())
		}
		for i, want := range []byte{1, 2, 3, 4, 5, 6} {
			if got := res.Tensor.Frame(i)[0]; got != want {
				t.Fatalf("workers=%d: frame %d fill = %d, want %d", workers, i, got, want)
			}
		}
		if len(res.Metadata) != 6 {
			t.Fatalf("workers=%d: metadata length = %d, want 6", workers, len(res.Metadata))
		}
		if len(res.Problems) != 0 {
			t.Fatalf("workers=%d: unexpected problems: %v", workers, res.Problems)
		}
	}
}

func TestMerge_ProblematicFilesExcluded(t *testing.T) {
	units := []decode.Unit{
		unitWithFrames(1),
		decode.Failed("permission denied", frame.Geometry{}),
		unitWithFrames(2),
	}
	res, err := Merge(units, []string{"good1", "denied", "good2"}, true, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FrameCount() != 2 {
		t.Fatalf("frames = %d, want 2", res.FrameCount())
	}
	if len(res.Problems) != 1 || res.Problems[0].Path != "denied" {
		t.Fatalf("problems = %v", res.Problems)
	}
	if res.Problems[0].Severity != decode.SeverityError {
		t.Fatalf("severity = %s", res.Problems[0].Severity)
	}
}

func TestMerge_AllProblematicStillTyped(t *testing.T) {
	// One sibling reported geometry before failing; shape is inferable.
	units := []decode.Unit{
		decode.Failed("truncated", testGeom),
		decode.Failed("unreadable", frame.Geometry{}),
	}
	res, err := Merge(units, []string{"a", "b"}, true, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FrameCount() != 0 {
		t.Fatalf("frames = %d, want 0", res.FrameCount())
	}
	if res.Tensor == nil || res.Tensor.Geom != testGeom {
		t.Fatal("zero-frame tensor should carry the inferred geometry")
	}
	if len(res.Problems) != 2 {
		t.Fatalf("problems = %v", res.Problems)
	}
}

func TestMerge_NoGeometryAnywhereIsInvariantError(t *testing.T) {
	units := []decode.Unit{
		decode.Failed("unreadable", frame.Geometry{}),
		decode.Failed("unreadable", frame.Geometry{}),
	}
	_, err := Merge(units, []string{"a", "b"}, true, frame.DTypeUint8, 1)
	if !errors.Is(err, ErrNoGeometry) {
		t.Fatalf("expected ErrNoGeometry, got %v", err)
	}
}

func TestMerge_AllCleanSkipsIsEmptyNotError(t *testing.T) {
	units := []decode.Unit{decode.Skipped(), decode.Skipped()}
	res, err := Merge(units, []string{"a", "b"}, true, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FrameCount() != 0 || len(res.Problems) != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestMerge_GeometryFallbackAcrossUnits(t *testing.T) {
	// The first unit only knows part of the shape; a later unit fills in
	// the rest.
	partial := frame.Geometry{Height: 2, Width: 2}
	units := []decode.Unit{
		decode.Failed("truncated header", partial),
		unitWithFrames(7),
	}
	res, err := Merge(units, []string{"a", "b"}, true, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tensor.Geom != testGeom {
		t.Fatalf("geometry = %s, want %s", res.Tensor.Geom, testGeom)
	}
}

func TestMerge_MismatchedGeometryBecomesProblem(t *testing.T) {
	big := frame.Geometry{Height: 4, Width: 4, Channels: 1, DType: frame.DTypeUint8}
	bigTensor, _ := frame.NewTensor(big, 1)
	units := []decode.Unit{
		unitWithFrames(1),
		{Tensor: bigTensor, Metadata: []frame.Metadata{{}}, Geometry: big},
	}
	res, err := Merge(units, []string{"a", "b"}, true, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FrameCount() != 1 {
		t.Fatalf("frames = %d, want 1", res.FrameCount())
	}
	if len(res.Problems) != 1 || res.Problems[0].Path != "b" {
		t.Fatalf("problems = %v", res.Problems)
	}
}

func TestMerge_CanonicalCoercion(t *testing.T) {
	units := []decode.Unit{unitWithFrames(9)}
	res, err := Merge(units, []string{"a"}, true, frame.DTypeUint16, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Tensor.Geom.DType != frame.DTypeUint16 {
		t.Fatalf("dtype = %s, want uint16", res.Tensor.Geom.DType)
	}
	if got := res.Tensor.At(0, 0, 0, 0); got != 9 {
		t.Fatalf("value after coercion = %v, want 9", got)
	}
}

func TestMerge_NoMetadataRequested(t *testing.T) {
	units := []decode.Unit{unitWithFrames(1, 2)}
	res, err := Merge(units, []string{"a"}, false, frame.DTypeUint8, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Metadata) != 0 {
		t.Fatalf("metadata should be empty, got %d records", len(res.Metadata))
	}
	if res.FrameCount() != 2 {
		t.Fatalf("frames = %d, want 2", res.FrameCount())
	}
}
