package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/codetask/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [tasks...]",
		Short: "Compile and run tasks (all tasks when none are named)",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			watch, _ := cmd.Flags().GetBool("watch")
			jobs, _ := cmd.Flags().GetInt("jobs")

			return c.app.Run(cmd.Context(), args, app.RunOptions{
				CommonOptions: commonOptions(cmd),
				Watch:         watch,
				Jobs:          jobs,
			})
		},
	}
	cmd.Flags().BoolP("watch", "w", false, "Rerun the tasks when files below the project root change")
	cmd.Flags().IntP("jobs", "j", 0, "Maximum number of tasks run concurrently (default: settings)")
	return cmd
}
