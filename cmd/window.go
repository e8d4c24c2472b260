package cmd

import "github.com/spf13/cobra"

var windowCmd = &cobra.Command{
	Use:   "window",
	Short: "Activate, arrange, close or wait for top-level windows",
	Long: `Manage top-level windows. The window is chosen with the root --window,
--process and --window-handle flags, or --pid; without any the foreground
window is used.

Examples:
  desktop-intent --window Notepad window activate
  desktop-intent --process calc window move --x 100 --y 100
  desktop-intent --window Untitled window close --discard
  desktop-intent --window Settings window wait --timeout 20s`,
}

// windowAction builds a subcommand that runs one window action with the
// command's flags.
func windowAction(use, short, action string) *cobra.Command {
	c := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := flagParams(cmd)
			p["action"] = action
			return runStep(cmd, "window", p)
		},
	}
	c.Flags().Int("pid", 0, "Select the window by process ID")
	return c
}

func init() {
	rootCmd.AddCommand(windowCmd)

	winMoveCmd := windowAction("move", "Move the window's top-left corner to screen coordinates", "move")
	winMoveActivateCmd := windowAction("move-and-activate", "Move the window, then bring it to the foreground", "move_and_activate")
	for _, c := range []*cobra.Command{winMoveCmd, winMoveActivateCmd} {
		c.Flags().Int("x", 0, "Left edge")
		c.Flags().Int("y", 0, "Top edge")
	}
	winResizeCmd := windowAction("resize", "Resize the window", "resize")
	winResizeCmd.Flags().Int("width", 0, "New width")
	winResizeCmd.Flags().Int("height", 0, "New height")

	winCloseCmd := windowAction("close", "Close the window and wait for it to go away", "close")
	winCloseCmd.Flags().Bool("discard", false, `Answer a save prompt with "Don't Save"`)
	winCloseCmd.Flags().String("timeout", "", "How long to wait for the window to close (default 5s)")

	winWaitCmd := windowAction("wait", "Wait for a window to appear, or with --gone to close", "wait")
	winWaitCmd.Flags().Bool("gone", false, "Wait until no window matches")
	winWaitCmd.Flags().String("timeout", "", "Give up after this long (default 10s)")

	windowCmd.AddCommand(
		windowAction("activate", "Bring the window to the foreground, restoring it if minimized", "activate"),
		windowAction("minimize", "Minimize the window", "minimize"),
		windowAction("maximize", "Maximize the window", "maximize"),
		windowAction("restore", "Restore the window from minimized or maximized", "restore"),
		windowAction("find", "Resolve the selector to one window", "find"),
		windowAction("foreground", "Report the foreground window", "foreground"),
		winMoveCmd, winMoveActivateCmd, winResizeCmd, winCloseCmd, winWaitCmd,
	)
}

var saveCmd = &cobra.Command{
	Use:   "save <path>",
	Short: "Save through the application's Save As dialog",
	Long: `Drive the common Save As dialog of the selected window: open it with
--shortcut when it is not already showing, enter the path, press Save and
wait for the dialog to close. An existing file is only replaced with
--overwrite.

Example:
  desktop-intent --window Notepad save C:\notes\today.txt`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p := flagParams(cmd)
		p["path"] = args[0]
		return runStep(cmd, "file_save", p)
	},
}

func init() {
	rootCmd.AddCommand(saveCmd)
	saveCmd.Flags().String("shortcut", "", "Key combination that opens the dialog (default ctrl+shift+s)")
	saveCmd.Flags().Bool("overwrite", false, "Replace an existing file")
	saveCmd.Flags().String("timeout", "", "How long to wait for the dialog to open and to close (default 10s)")
	saveCmd.Flags().Int("pid", 0, "Select the window by process ID")
}
