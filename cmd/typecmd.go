package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var typeCmd = &cobra.Command{
	Use:   "type [text]",
	Short: "Type text into an element or the focused control",
	Long: `Type text into an element. Elements with a Value pattern get the text set
directly; others are focused and typed into with synthetic keystrokes.
Without a target the text goes to whatever has keyboard focus.

Examples:
  desktop-intent type --automation-id editor "hello world"
  desktop-intent type --name Search --append --text " more"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		p := flagParams(cmd)
		if len(args) > 0 && !p.has("text") {
			p["text"] = strings.Join(args, " ")
		}
		return runStep(cmd, "type", p)
	},
}

func init() {
	rootCmd.AddCommand(typeCmd)
	addTargetFlags(typeCmd)
	typeCmd.Flags().String("text", "", "Text to type")
	typeCmd.Flags().Bool("append", false, "Keep the current value and append")
	typeCmd.Flags().Bool("clear", false, "Clear the field before synthetic typing")
}
