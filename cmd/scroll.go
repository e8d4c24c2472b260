package cmd

import "github.com/spf13/cobra"

var scrollFindCmd = &cobra.Command{
	Use:   "scroll-find",
	Short: "Scroll a list until an element appears",
	Long: `Page through a scrollable container (a virtualized list, for example) until
an element matching the query is realized, then scroll it into view.

Without --container the first scrollable element in the window is used. The
search stops with scroll_exhausted when the container stops moving or
--max-pages is reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "scroll_find", flagParams(cmd))
	},
}

var scrollIntoViewCmd = &cobra.Command{
	Use:   "scroll-into-view",
	Short: "Scroll an element into view",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "scroll_into_view", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(scrollFindCmd, scrollIntoViewCmd)
	addQueryFlags(scrollFindCmd)
	scrollFindCmd.Flags().String("container", "", "Element id of the container to scroll")
	scrollFindCmd.Flags().Int("max-pages", 0, "Maximum pages to scroll (default 200)")
	scrollFindCmd.Flags().String("settle", "", "Pause after each page (e.g. 100ms)")
	addTargetFlags(scrollIntoViewCmd)
}
