package cmd

import (
	"strings"

	"github.com/mj1618/desktop-intent/internal/automation"
	"github.com/spf13/cobra"
)

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for an element to appear, disappear or reach a state",
	Long: `Poll until the condition holds or --timeout (default 10s) expires.

Without --state the command waits for the query to match; with --gone it
waits for no element to match. --state waits for one element to reach a
state: ` + strings.Join(automation.States, ", ") + `.

Examples:
  desktop-intent wait --name "Save complete" --timeout 30s
  desktop-intent wait --name Spinner --gone
  desktop-intent wait --name OK --type Button --state enabled`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "wait", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(waitCmd)
	addTargetFlags(waitCmd)
	addStateFlags(waitCmd)
	waitCmd.Flags().Bool("gone", false, "Wait until nothing matches")
}

func addStateFlags(cmd *cobra.Command) {
	cmd.Flags().String("state", "", "State to wait for: "+strings.Join(automation.States, ", "))
	cmd.Flags().String("value", "", "Expected value for value_equals")
}
