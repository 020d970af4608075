package dataset

import (
	"context"
	"errors"
	"fmt"
	"time"

	"asiread/internal/assemble"
	"asiread/internal/decode"
	"asiread/internal/decode/idlsave"
	"asiread/internal/frame"
	"asiread/internal/sched"
)

// ErrUnsupportedRead marks a read against a missing or unregistered
// dataset. It is fatal to the call; no partial result accompanies it.
var ErrUnsupportedRead = errors.New("unsupported read")

// ErrTimestampFormat marks metadata whose timestamp field is missing or
// unparseable. A dataset that produced metadata must produce readable
// timestamps; anything else is a format defect, not a per-file problem.
var ErrTimestampFormat = errors.New("timestamp format")

// Data is the externally visible result of a frame-stream read.
type Data struct {
	Dataset    Descriptor
	Tensor     *frame.Tensor
	Metadata   []frame.Metadata
	Timestamps []time.Time
	Problems   []decode.Problem
}

// FrameCount returns the number of merged frames.
func (d *Data) FrameCount() int {
	if d.Tensor == nil {
		return 0
	}
	return d.Tensor.Frames
}

// Read decodes paths as frame-stream files of the named dataset and merges
// them into one Data. Per-file failures land in Data.Problems; only
// dataset resolution, interruption, and internal invariant violations
// surface as errors. A canceled ctx yields ctx's error and no data.
func Read(ctx context.Context, name string, paths []string, opts ReadOptions) (*Data, error) {
	desc, err := resolve(name, KindFrameStream)
	if err != nil {
		return nil, err
	}
	opts, err = opts.normalize()
	if err != nil {
		return nil, err
	}

	jobs := make([]decode.Job, len(paths))
	for i, path := range paths {
		jobs[i] = decode.Job{
			Path:       path,
			Workers:    opts.Workers,
			FirstFrame: opts.Flags.Has(FirstFrame),
			NoMetadata: opts.Flags.Has(NoMetadata),
			Start:      opts.Start,
			End:        opts.End,
			Quiet:      opts.Flags.Has(Quiet),
			TempDir:    opts.TempDir,
		}
	}

	units := sched.Decode(ctx, jobs, desc.decoder, opts.Workers)
	if err := ctx.Err(); err != nil {
		// Interruption is "no result", never a partial one.
		return nil, err
	}

	wantMetadata := !opts.Flags.Has(NoMetadata)
	merged, err := assemble.Merge(units, paths, wantMetadata, desc.Geometry.DType, opts.MergeWorkers)
	if err != nil {
		return nil, err
	}

	out := &Data{
		Dataset:  desc,
		Tensor:   merged.Tensor,
		Metadata: merged.Metadata,
		Problems: merged.Problems,
	}
	if !opts.timeFilterActive() {
		// Without a time filter nothing is skipped, so a clean unit with
		// zero frames means the file itself was empty.
		for i, u := range units {
			if !u.Problematic && u.FrameCount() == 0 {
				out.Problems = append(out.Problems, decode.Problem{
					Path:     paths[i],
					Message:  "file contained no frames",
					Severity: decode.SeverityWarning,
				})
			}
		}
	}
	if wantMetadata {
		if out.Timestamps, err = extractTimestamps(desc, merged.Metadata); err != nil {
			return nil, err
		}
	}

	if !opts.Flags.Has(Quiet) {
		opts.logger().Info("read complete",
			"component", "dataset",
			"dataset", desc.Name,
			"files", len(paths),
			"frames", out.FrameCount(),
			"problematic", len(out.Problems))
	}
	return out, nil
}

// ReadSkymaps parses skymap archives. Files that fail to parse are
// reported as problems, mirroring the frame-stream contract.
func ReadSkymaps(ctx context.Context, paths []string, opts ReadOptions) ([]*idlsave.Skymap, []decode.Problem, error) {
	if _, err := resolve("skymap", KindSingleRecord); err != nil {
		return nil, nil, err
	}
	var (
		records  []*idlsave.Skymap
		problems []decode.Problem
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		sm, err := idlsave.ReadSkymap(path)
		if err != nil {
			problems = append(problems, decode.Problem{Path: path, Message: err.Error(), Severity: decode.SeverityError})
			continue
		}
		records = append(records, sm)
	}
	if !opts.Flags.Has(Quiet) {
		opts.logger().Info("skymap read complete",
			"component", "dataset", "files", len(paths), "problematic", len(problems))
	}
	return records, problems, nil
}

// ReadCalibrations parses calibration archives with the same contract as
// ReadSkymaps.
func ReadCalibrations(ctx context.Context, paths []string, opts ReadOptions) ([]*idlsave.Calibration, []decode.Problem, error) {
	if _, err := resolve("calibration", KindSingleRecord); err != nil {
		return nil, nil, err
	}
	var (
		records  []*idlsave.Calibration
		problems []decode.Problem
	)
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}
		cal, err := idlsave.ReadCalibration(path)
		if err != nil {
			problems = append(problems, decode.Problem{Path: path, Message: err.Error(), Severity: decode.SeverityError})
			continue
		}
		records = append(records, cal)
	}
	if !opts.Flags.Has(Quiet) {
		opts.logger().Info("calibration read complete",
			"component", "dataset", "files", len(paths), "problematic", len(problems))
	}
	return records, problems, nil
}

func resolve(name string, kind Kind) (Descriptor, error) {
	if name == "" {
		return Descriptor{}, fmt.Errorf("%w: no dataset supplied", ErrUnsupportedRead)
	}
	desc, ok := Lookup(name)
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: dataset %q is not registered", ErrUnsupportedRead, name)
	}
	if desc.Kind != kind {
		return Descriptor{}, fmt.Errorf("%w: dataset %q is %s, not %s", ErrUnsupportedRead, name, desc.Kind, kind)
	}
	return desc, nil
}

// extractTimestamps parses one timestamp per metadata record using the
// dataset's accepted field names.
func extractTimestamps(desc Descriptor, meta []frame.Metadata) ([]time.Time, error) {
	out := make([]time.Time, len(meta))
	for i, rec := range meta {
		parsed := false
		for _, key := range desc.TimeKeys {
			s, ok := rec.String(key)
			if !ok {
				continue
			}
			ts, err := decode.ParseFrameTime(s)
			if err != nil {
				return nil, fmt.Errorf("%w: frame %d field %q: %v", ErrTimestampFormat, i, key, err)
			}
			out[i] = ts
			parsed = true
			break
		}
		if !parsed {
			return nil, fmt.Errorf("%w: frame %d carries none of %v", ErrTimestampFormat, i, desc.TimeKeys)
		}
	}
	return out, nil
}
