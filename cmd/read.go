package cmd

import "github.com/spf13/cobra"

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read the text of an element",
	Long: `Read an element's text from its Text pattern, value or name, optionally
aggregating descendant text. With --ocr, elements without accessible text
fall back to OCR of their bounds when the backend supports it.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "read", flagParams(cmd))
	},
}

func init() {
	rootCmd.AddCommand(readCmd)
	addTargetFlags(readCmd)
	readCmd.Flags().Bool("include-children", false, "Append descendant text")
	readCmd.Flags().Int("text-depth", 0, "Depth limit for descendant text (default 8)")
	readCmd.Flags().Int("max-bytes", 0, "Truncate the text to this many bytes (default 64KiB)")
	readCmd.Flags().Bool("ocr", false, "Fall back to OCR when no accessible text is found")
	readCmd.Flags().String("language", "", "OCR language tag (e.g. en-US)")
}
