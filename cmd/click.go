package cmd

import "github.com/spf13/cobra"

var clickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click an element",
	Long: `Click an element found by query or id. Plain left clicks use the element's
Invoke pattern when it has one; other clicks are synthesized at the element's
click point.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "click", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(clickCmd)
	addTargetFlags(clickCmd)
	clickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	clickCmd.Flags().Int("count", 1, "Number of clicks")
	clickCmd.Flags().Bool("double", false, "Double-click")
	clickCmd.Flags().StringSlice("modifiers", nil, "Modifiers held during the click (ctrl, shift, alt, win)")
}
