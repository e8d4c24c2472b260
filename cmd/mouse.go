package cmd

import "github.com/spf13/cobra"

var mouseCmd = &cobra.Command{
	Use:   "mouse",
	Short: "Move, click, scroll and drag the mouse",
	Long: `Send synthetic mouse input at absolute virtual-screen coordinates. Points
outside every monitor are rejected before anything is sent.`,
}

var mouseMoveCmd = &cobra.Command{
	Use:   "move",
	Short: "Move the cursor",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMouse(cmd, "move")
	},
}

var mouseClickCmd = &cobra.Command{
	Use:   "click",
	Short: "Click at a point, or at the cursor when no point is given",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMouse(cmd, "click")
	},
}

var mouseScrollCmd = &cobra.Command{
	Use:   "scroll",
	Short: "Scroll the wheel; positive --dy scrolls down",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMouse(cmd, "scroll")
	},
}

var mouseDragCmd = &cobra.Command{
	Use:   "drag",
	Short: "Drag from (x,y) to (to-x,to-y)",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMouse(cmd, "drag")
	},
}

func runMouse(cmd *cobra.Command, action string) error {
	p := flagParams(cmd)
	p["action"] = action
	return runStep(cmd, "mouse", p)
}

func init() {
	rootCmd.AddCommand(mouseCmd)
	mouseCmd.AddCommand(mouseMoveCmd, mouseClickCmd, mouseScrollCmd, mouseDragCmd)
	for _, c := range []*cobra.Command{mouseMoveCmd, mouseClickCmd, mouseScrollCmd, mouseDragCmd} {
		c.Flags().Int("x", 0, "X coordinate")
		c.Flags().Int("y", 0, "Y coordinate")
	}
	mouseClickCmd.Flags().String("button", "left", "Mouse button: left, right, middle")
	mouseClickCmd.Flags().Int("count", 1, "Number of clicks")
	mouseClickCmd.Flags().Bool("double", false, "Double-click")
	mouseClickCmd.Flags().StringSlice("modifiers", nil, "Modifiers held during the click")
	mouseScrollCmd.Flags().Int("dx", 0, "Horizontal wheel clicks; positive scrolls right")
	mouseScrollCmd.Flags().Int("dy", 0, "Vertical wheel clicks; positive scrolls down")
	mouseDragCmd.Flags().Int("to-x", 0, "Destination X")
	mouseDragCmd.Flags().Int("to-y", 0, "Destination Y")
	mouseDragCmd.Flags().String("button", "left", "Mouse button")
	mouseDragCmd.Flags().Int("steps", 0, "Intermediate moves (default 10)")
}
