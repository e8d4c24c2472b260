package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// addQueryFlags registers the element query flags.
func addQueryFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("name", "", "Exact element name (case-insensitive)")
	f.String("name-contains", "", "Substring of the element name (case-insensitive)")
	f.String("name-pattern", "", "Regular expression on the element name")
	f.String("type", "", "Control type (e.g. Button, Edit, CheckBox, or btn, input, chk)")
	f.String("automation-id", "", "Automation id")
	f.String("class-name", "", "Native class name")
	f.String("parent-id", "", "Search under this element id instead of the window")
	f.Int("max-depth", 0, "Maximum tree depth (default 25)")
	f.Int("index", 0, "Pick the Nth match (1-based) instead of requiring a unique match")
	f.Bool("prominent", false, "Order matches by size and position before picking")
	f.String("region", "", "Only elements intersecting x,y,w,h")
	f.String("near", "", "Only elements near this element id")
	f.String("near-direction", "", "Direction from the near element: left, right, above, below")
	f.Int("near-distance", 0, "Maximum distance from the near element in pixels")
	f.String("timeout", "", "Keep searching up to this long (e.g. 5s)")
}

// addTargetFlags registers the query flags plus --id.
func addTargetFlags(cmd *cobra.Command) {
	addQueryFlags(cmd)
	cmd.Flags().String("id", "", "Element id from an earlier result")
}

// flagKeys renames flags whose param key differs from the flag name.
var flagKeys = map[string]string{
	"type": "control_type",
}

// flagParams collects the flags set on the command line as step params.
// Unset flags are left out so step defaults apply.
func flagParams(cmd *cobra.Command) params {
	p := params{}
	cmd.LocalNonPersistentFlags().Visit(func(f *pflag.Flag) {
		key := strings.ReplaceAll(f.Name, "-", "_")
		if k, ok := flagKeys[f.Name]; ok {
			key = k
		}
		switch f.Value.Type() {
		case "bool":
			p[key] = f.Value.String() == "true"
		case "int":
			n, _ := cmd.Flags().GetInt(f.Name)
			p[key] = n
		case "stringSlice":
			l, _ := cmd.Flags().GetStringSlice(f.Name)
			p[key] = l
		default:
			p[key] = f.Value.String()
		}
	})
	return p
}
