package commands

import "github.com/spf13/cobra"

func (c *CLI) newCompileCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "compile [tasks...]",
		Short: "Compile tasks without running them and print their parameters",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Compile(cmd.Context(), args, commonOptions(cmd))
		},
	}
}

func (c *CLI) newRenderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "render <task>",
		Short: "Print the source generated for a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Render(cmd.Context(), args[0], commonOptions(cmd))
		},
	}
}
