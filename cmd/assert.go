package cmd

import "github.com/spf13/cobra"

var assertCmd = &cobra.Command{
	Use:   "assert",
	Short: "Check that an element exists or is in a state",
	Long: `Check a condition once (or retry up to --timeout). Exits non-zero with
error_kind timeout when the condition does not hold.

Examples:
  desktop-intent assert --name "Word wrap" --state toggled_on
  desktop-intent assert --automation-id fontName --state value_equals --value Consolas`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "assert", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(assertCmd)
	addTargetFlags(assertCmd)
	addStateFlags(assertCmd)
	assertCmd.Flags().Bool("gone", false, "Assert that nothing matches")
}
