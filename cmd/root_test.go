package cmd

import (
	"testing"

	"github.com/spf13/cobra"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	expected := []string{
		"find", "resolve", "click", "type", "select", "toggle", "expand", "collapse",
		"focus", "scroll-find", "scroll-into-view", "wait", "assert", "read",
		"list", "key", "mouse", "window", "save", "do", "serve",
	}
	found := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range expected {
		if !found[name] {
			t.Errorf("expected subcommand %q not found", name)
		}
	}
}

func TestRootCommand_Version(t *testing.T) {
	if rootCmd.Version == "" {
		t.Error("root command version should be set")
	}
}

func TestCommandsUseKnownSteps(t *testing.T) {
	for _, name := range []string{"find", "scroll_find", "scroll_into_view", "windows", "window", "file_save", "key", "mouse"} {
		if _, ok := stepFuncs[name]; !ok {
			t.Errorf("step %q is not registered", name)
		}
	}
}

func TestWindowCommand_HasActions(t *testing.T) {
	found := make(map[string]bool)
	for _, c := range windowCmd.Commands() {
		found[c.Name()] = true
	}
	for _, name := range []string{"activate", "minimize", "maximize", "restore", "move", "move-and-activate", "resize", "close", "find", "foreground", "wait"} {
		if !found[name] {
			t.Errorf("window subcommand %q not found", name)
		}
	}
}

func TestFlagParams_OnlySetFlags(t *testing.T) {
	c := &cobra.Command{Use: "probe"}
	addTargetFlags(c)
	c.Flags().StringSlice("modifiers", nil, "")
	if err := c.ParseFlags([]string{"--name", "OK", "--type", "btn", "--index", "2", "--prominent", "--modifiers", "ctrl,shift"}); err != nil {
		t.Fatal(err)
	}

	p := flagParams(c)
	if p.str("name", "") != "OK" {
		t.Errorf("name = %v", p["name"])
	}
	if p.str("control_type", "") != "btn" {
		t.Errorf("--type should map to control_type, got %v", p)
	}
	if p.integer("index", 0) != 2 || !p.boolean("prominent", false) {
		t.Errorf("index/prominent = %v/%v", p["index"], p["prominent"])
	}
	if got := p.list("modifiers"); len(got) != 2 {
		t.Errorf("modifiers = %v", got)
	}
	if p.has("name_contains") || p.has("id") {
		t.Errorf("unset flags leaked into params: %v", p)
	}
}
