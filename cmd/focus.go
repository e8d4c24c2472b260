package cmd

import "github.com/spf13/cobra"

var focusCmd = &cobra.Command{
	Use:   "focus",
	Short: "Give keyboard focus to an element",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "focus", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(focusCmd)
	addTargetFlags(focusCmd)
}
