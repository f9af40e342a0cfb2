package commands

import (
	"github.com/spf13/cobra"
)

func (c *CLI) newExecCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exec -- command [args...]",
		Short: "Run a command with the terminal attached",
		Long: "Run a command with stdin, stdout and stderr attached and exit with its status.\n" +
			"On interrupt the command is killed and strata returns without waiting for it.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Exec(cmd.Context(), args)
		},
	}
}

func (c *CLI) newWorkerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "worker",
		Short:  "Serve the built-in plugins to a remote build (internal use)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			addr, _ := cmd.Flags().GetString("listen")
			return c.app.Worker(cmd.Context(), addr)
		},
	}
	cmd.Flags().String("listen", "127.0.0.1:0", "Address to listen on")
	return cmd
}
