package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"asiread/internal/dataset"
	"asiread/internal/fileutil"
)

func newReadCommand(ctx *commandContext) *cobra.Command {
	var (
		datasetFlag    string
		workersFlag    int
		mergeFlag      int
		firstFrameFlag bool
		noMetadataFlag bool
		quietFlag      bool
		startFlag      string
		endFlag        string
	)

	cmd := &cobra.Command{
		Use:   "read --dataset <name> <file>...",
		Short: "Decode frame-stream files and print a batch summary",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := dataset.ReadOptions{
				Workers:      cfg.Read.Workers,
				MergeWorkers: cfg.Read.MergeWorkers,
				TempDir:      cfg.Read.TempDir,
				Logger:       logger,
			}
			if err := fileutil.EnsureDir(opts.TempDir); err != nil {
				return fmt.Errorf("scratch directory: %w", err)
			}
			if cmd.Flags().Changed("workers") {
				opts.Workers = workersFlag
			}
			if cmd.Flags().Changed("merge-workers") {
				opts.MergeWorkers = mergeFlag
			}
			if firstFrameFlag {
				opts.Flags = opts.Flags.Set(dataset.FirstFrame)
			}
			if noMetadataFlag {
				opts.Flags = opts.Flags.Set(dataset.NoMetadata)
			}
			if quietFlag {
				opts.Flags = opts.Flags.Set(dataset.Quiet)
			}
			if opts.Start, err = parseTimeFlag(startFlag); err != nil {
				return fmt.Errorf("--start: %w", err)
			}
			if opts.End, err = parseTimeFlag(endFlag); err != nil {
				return fmt.Errorf("--end: %w", err)
			}

			data, err := dataset.Read(cmd.Context(), datasetFlag, args, opts)
			if err != nil {
				return err
			}
			printReadSummary(cmd, data)
			return nil
		},
	}

	cmd.Flags().StringVarP(&datasetFlag, "dataset", "d", "", "Dataset name (see 'asiread datasets')")
	cmd.Flags().IntVarP(&workersFlag, "workers", "w", 1, "Decode worker count")
	cmd.Flags().IntVar(&mergeFlag, "merge-workers", 0, "Assembly copy worker count (0 follows --workers)")
	cmd.Flags().BoolVar(&firstFrameFlag, "first-frame", false, "Read only the first frame of each file")
	cmd.Flags().BoolVar(&noMetadataFlag, "no-metadata", false, "Skip per-frame metadata and timestamps")
	cmd.Flags().BoolVarP(&quietFlag, "quiet", "q", false, "Suppress advisory diagnostics")
	cmd.Flags().StringVar(&startFlag, "start", "", "Keep frames at or after this UTC time")
	cmd.Flags().StringVar(&endFlag, "end", "", "Keep frames before this UTC time")
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}

var timeFlagLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

func parseTimeFlag(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	var lastErr error
	for _, layout := range timeFlagLayouts {
		ts, err := time.ParseInLocation(layout, value, time.UTC)
		if err == nil {
			return ts, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func printReadSummary(cmd *cobra.Command, data *dataset.Data) {
	shape := "unknown"
	if data.Tensor != nil {
		shape = data.Tensor.Geom.String()
	}
	rows := [][]string{
		{"Dataset", data.Dataset.Name},
		{"Frames", strconv.Itoa(data.FrameCount())},
		{"Geometry", shape},
		{"Metadata records", strconv.Itoa(len(data.Metadata))},
		{"Timestamps", strconv.Itoa(len(data.Timestamps))},
		{"Problematic files", strconv.Itoa(len(data.Problems))},
	}
	if len(data.Timestamps) > 0 {
		rows = append(rows,
			[]string{"First frame", data.Timestamps[0].Format(time.RFC3339)},
			[]string{"Last frame", data.Timestamps[len(data.Timestamps)-1].Format(time.RFC3339)},
		)
	}
	cmd.Println(renderTable([]string{"Field", "Value"}, rows, nil))

	if len(data.Problems) > 0 {
		problemRows := make([][]string, 0, len(data.Problems))
		for _, p := range data.Problems {
			problemRows = append(problemRows, []string{p.Path, string(p.Severity), p.Message})
		}
		cmd.Println(renderTable([]string{"File", "Severity", "Message"}, problemRows, nil))
	}
}
