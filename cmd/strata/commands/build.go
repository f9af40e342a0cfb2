package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/strata/internal/app"
	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
)

func (c *CLI) newBuildCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "build [entries...]",
		Short: "Build the asset graph once",
		Long: "Build the asset graph from the configured entries, or from the entries given as arguments.\n" +
			"Entries may be files, directories or globs relative to the project root.",
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}
			return c.app.Build(cmd.Context(), opts)
		},
	}
	addRunFlags(cmd)
	cmd.Flags().Bool("dump-graph", false, "Print the asset graph after a successful build")
	return cmd
}

func (c *CLI) newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [entries...]",
		Short: "Build, then rebuild whenever project files change",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := runOptions(cmd, args)
			if err != nil {
				return err
			}
			return c.app.Watch(cmd.Context(), opts)
		},
	}
	addRunFlags(cmd)
	return cmd
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("mode", "m", "", "Build mode: development or production")
	cmd.Flags().BoolP("no-cache", "n", false, "Build against an in-memory cache")
	cmd.Flags().Bool("timings", false, "Log the time spent per request kind")
	cmd.Flags().String("log-format", "", "Log format: pretty or json")
}

func runOptions(cmd *cobra.Command, args []string) (app.RunOptions, error) {
	mode, _ := cmd.Flags().GetString("mode")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	timings, _ := cmd.Flags().GetBool("timings")
	logFormat, _ := cmd.Flags().GetString("log-format")
	dump, _ := cmd.Flags().GetBool("dump-graph")

	switch domain.BuildMode(mode) {
	case "", domain.ModeDevelopment, domain.ModeProduction:
	default:
		return app.RunOptions{}, zerr.With(zerr.Wrap(domain.ErrInvalidOptions, "mode"), "value", mode)
	}
	switch logFormat {
	case "", "pretty", "json":
	default:
		return app.RunOptions{}, zerr.With(zerr.Wrap(domain.ErrInvalidOptions, "log-format"), "value", logFormat)
	}

	return app.RunOptions{
		Root:      rootFlag(cmd),
		Entries:   args,
		Mode:      domain.BuildMode(mode),
		NoCache:   noCache,
		DumpGraph: dump,
		Timings:   timings,
		LogFormat: logFormat,
	}, nil
}
