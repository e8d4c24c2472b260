package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var keyCmd = &cobra.Command{
	Use:   "key",
	Short: "Press, hold and release keys",
	Long: `Send synthetic keyboard input.

Keys held with "key down" stay held until "key up" or "key release-all", or
until the process exits; across calls this only matters for the MCP server.`,
}

var keyPressCmd = &cobra.Command{
	Use:   "press <combo>",
	Short: "Press and release a key combination (e.g. ctrl+s, alt+f4, enter)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "key", params{"action": "press", "key": args[0]})
	},
}

var keyDownCmd = &cobra.Command{
	Use:   "down <key>",
	Short: "Hold a key down",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "key", params{"action": "down", "key": args[0]})
	},
}

var keyUpCmd = &cobra.Command{
	Use:   "up <key>",
	Short: "Release a held key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "key", params{"action": "up", "key": args[0]})
	},
}

var keyReleaseAllCmd = &cobra.Command{
	Use:   "release-all",
	Short: "Release every key held by this process",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "key", params{"action": "release_all"})
	},
}

var keySequenceCmd = &cobra.Command{
	Use:   "sequence <combo>...",
	Short: "Press key combinations in order",
	Long: `Press each combination in order. Every combination is parsed before any
input is sent; a failure part way reports partial_count.

Example:
  desktop-intent key sequence ctrl+a ctrl+c --delay 50ms`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := flagParams(cmd)
		p["action"] = "sequence"
		p["keys"] = args
		return runStep(cmd, "key", p)
	},
}

var keyTypeCmd = &cobra.Command{
	Use:   "type <text>",
	Short: "Type text into the focused control",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStep(cmd, "key", params{"action": "type", "text": strings.Join(args, " ")})
	},
}

func init() {
	rootCmd.AddCommand(keyCmd)
	keyCmd.AddCommand(keyPressCmd, keyDownCmd, keyUpCmd, keyReleaseAllCmd, keySequenceCmd, keyTypeCmd)
	keySequenceCmd.Flags().String("delay", "", "Pause after each combination (e.g. 50ms)")
}
