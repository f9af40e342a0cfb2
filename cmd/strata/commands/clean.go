package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
)

func (c *CLI) newCleanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove the build cache",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dist, _ := cmd.Flags().GetBool("dist")
			return c.app.Clean(cmd.Context(), app.CleanOptions{
				Root: rootFlag(cmd),
				Dist: dist,
			})
		},
	}

	cmd.Flags().BoolP("dist", "d", false, "Also remove the output directory of every target")

	return cmd
}
