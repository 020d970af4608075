package main

import (
	"github.com/spf13/cobra"

	"asiread/internal/dataset"
)

func newDatasetsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "datasets",
		Short: "List registered datasets and their formats",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rows := make([][]string, 0)
			for _, name := range dataset.Names() {
				desc, _ := dataset.Lookup(name)
				shape := "-"
				if desc.Kind == dataset.KindFrameStream {
					shape = desc.Geometry.String()
				}
				rows = append(rows, []string{desc.Name, desc.Kind.String(), desc.Format, shape})
			}
			cmd.Println(renderTable([]string{"Dataset", "Kind", "Format", "Geometry"}, rows, nil))
			return nil
		},
	}
}
