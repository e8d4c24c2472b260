package cmd

import "github.com/spf13/cobra"

var findCmd = &cobra.Command{
	Use:   "find",
	Short: "Find UI elements in a window",
	Long: `Find elements matching a query in the target window (foreground by default).

Without --all exactly one element must match; several matches fail with
multiple_matches and list the candidates in diagnostics. Use --index to pick
one of them.

Examples:
  desktop-intent find --window Notepad --name Save --type Button
  desktop-intent find --name-contains theme --all`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "find", flagParams(cmd))
	},
}

var resolveCmd = &cobra.Command{
	Use:   "resolve <element-id>",
	Short: "Re-resolve an element id and print a fresh snapshot",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "resolve", params{"id": args[0]})
	},
}

func init() {
	rootCmd.AddCommand(findCmd, resolveCmd)
	addQueryFlags(findCmd)
	findCmd.Flags().Bool("all", false, "Return every match instead of requiring one")
}
