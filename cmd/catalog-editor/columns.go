package main

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/fairyhunter13/product-catalog-editor/internal/grid"
)

func newColumnsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "columns",
		Short: "Print the grid column definitions as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(grid.Columns())
		},
	}
}
