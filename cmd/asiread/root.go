package main

import (
	"github.com/spf13/cobra"
)

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "asiread",
		Short:         "Decode all-sky imager raw data files",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newReadCommand(ctx))
	rootCmd.AddCommand(newSkymapCommand(ctx))
	rootCmd.AddCommand(newCalibrationCommand(ctx))
	rootCmd.AddCommand(newDatasetsCommand())
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
