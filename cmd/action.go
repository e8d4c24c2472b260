package cmd

import "github.com/spf13/cobra"

var selectCmd = &cobra.Command{
	Use:   "select",
	Short: "Select a list item, tab or combo box entry",
	Long: `Select an element through its SelectionItem pattern. With --item the target
is a container (list, combo box, tab) and the named item inside it is
selected, expanding the container first when needed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "select", flagParams(cmd))
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle",
	Short: "Toggle a check box or toggle button",
	Long:  "Toggle an element once, or until it reaches --state (on, off, indeterminate).",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "toggle", flagParams(cmd))
	},
}

var expandCmd = &cobra.Command{
	Use:   "expand",
	Short: "Expand a tree item, menu or combo box",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "expand", flagParams(cmd))
	},
}

var collapseCmd = &cobra.Command{
	Use:   "collapse",
	Short: "Collapse a tree item, menu or combo box",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "collapse", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(selectCmd, toggleCmd, expandCmd, collapseCmd)
	addTargetFlags(selectCmd)
	selectCmd.Flags().String("item", "", "Name of the item to select inside the target")
	addTargetFlags(toggleCmd)
	toggleCmd.Flags().String("state", "", "Desired state: on, off, indeterminate")
	addTargetFlags(expandCmd)
	addTargetFlags(collapseCmd)
}
