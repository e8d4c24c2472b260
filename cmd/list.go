package cmd

import "github.com/spf13/cobra"

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"windows"},
	Short:   "List top-level windows",
	Long:    "List visible top-level windows with handle, title, process, PID and bounds.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "windows", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().String("title", "", "Filter by title substring")
	listCmd.Flags().Int("pid", 0, "Filter by process ID")
}
