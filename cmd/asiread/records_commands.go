package main

import (
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"asiread/internal/dataset"
	"asiread/internal/decode"
)

func newSkymapCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "skymap <file>...",
		Short: "Parse skymap archives and print their provenance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			records, problems, err := dataset.ReadSkymaps(cmd.Context(), args, dataset.ReadOptions{Logger: logger})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, sm := range records {
				rows = append(rows, []string{
					sm.Project, sm.Site, sm.Device, sm.Version,
					formatLatLon(sm.Latitude, sm.Longitude),
					sm.Generation.Author,
					formatGenerated(sm.Generation.DateGenerated),
				})
			}
			cmd.Println(renderTable([]string{"Project", "Site", "Device", "Version", "Site location", "Author", "Generated"}, rows, nil))
			printProblems(cmd, problems)
			return nil
		},
	}
	return cmd
}

func newCalibrationCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "calibration <file>...",
		Short: "Parse calibration archives and print their provenance",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			records, problems, err := dataset.ReadCalibrations(cmd.Context(), args, dataset.ReadOptions{Logger: logger})
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(records))
			for _, cal := range records {
				rows = append(rows, []string{
					cal.Project, cal.Device, cal.Version,
					strconv.Itoa(len(cal.FlatField)),
					strconv.FormatFloat(float64(cal.RayleighsPerDN), 'g', 6, 32),
					cal.Generation.Author,
					formatGenerated(cal.Generation.DateGenerated),
				})
			}
			cmd.Println(renderTable([]string{"Project", "Device", "Version", "Flat field px", "R/dn/s", "Author", "Generated"}, rows, nil))
			printProblems(cmd, problems)
			return nil
		},
	}
	return cmd
}

func printProblems(cmd *cobra.Command, problems []decode.Problem) {
	if len(problems) == 0 {
		return
	}
	rows := make([][]string, 0, len(problems))
	for _, p := range problems {
		rows = append(rows, []string{p.Path, string(p.Severity), p.Message})
	}
	cmd.Println(renderTable([]string{"File", "Severity", "Message"}, rows, nil))
}

func formatLatLon(lat, lon float64) string {
	return strconv.FormatFloat(lat, 'f', 2, 64) + ", " + strconv.FormatFloat(lon, 'f', 2, 64)
}

func formatGenerated(ts time.Time) string {
	if ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02")
}
