package model

import "strings"

// ControlTypeNames maps UI Automation control type identifiers to the
// names callers use in queries and results.
var ControlTypeNames = map[int]string{
	50000: "Button",
	50001: "Calendar",
	50002: "CheckBox",
	50003: "ComboBox",
	50004: "Edit",
	50005: "Hyperlink",
	50006: "Image",
	50007: "ListItem",
	50008: "List",
	50009: "Menu",
	50010: "MenuBar",
	50011: "MenuItem",
	50012: "ProgressBar",
	50013: "RadioButton",
	50014: "ScrollBar",
	50015: "Slider",
	50016: "Spinner",
	50017: "StatusBar",
	50018: "Tab",
	50019: "TabItem",
	50020: "Text",
	50021: "ToolBar",
	50022: "ToolTip",
	50023: "Tree",
	50024: "TreeItem",
	50025: "Custom",
	50026: "Group",
	50027: "Thumb",
	50028: "DataGrid",
	50029: "DataItem",
	50030: "Document",
	50031: "SplitButton",
	50032: "Window",
	50033: "Pane",
	50034: "Header",
	50035: "HeaderItem",
	50036: "Table",
	50037: "TitleBar",
	50038: "Separator",
}

// controlTypeAliases accepts the compact role codes and common synonyms.
var controlTypeAliases = map[string]string{
	"btn":       "Button",
	"button":    "Button",
	"chk":       "CheckBox",
	"checkbox":  "CheckBox",
	"combo":     "ComboBox",
	"combobox":  "ComboBox",
	"dropdown":  "ComboBox",
	"input":     "Edit",
	"edit":      "Edit",
	"textbox":   "Edit",
	"textfield": "Edit",
	"lnk":       "Hyperlink",
	"link":      "Hyperlink",
	"hyperlink": "Hyperlink",
	"img":       "Image",
	"image":     "Image",
	"listitem":  "ListItem",
	"list":      "List",
	"menu":      "Menu",
	"menubar":   "MenuBar",
	"menuitem":  "MenuItem",
	"radio":     "RadioButton",
	"slider":    "Slider",
	"tab":       "Tab",
	"tabitem":   "TabItem",
	"txt":       "Text",
	"text":      "Text",
	"label":     "Text",
	"toolbar":   "ToolBar",
	"tree":      "Tree",
	"treeitem":  "TreeItem",
	"group":     "Group",
	"document":  "Document",
	"window":    "Window",
	"pane":      "Pane",
	"table":     "Table",
	"datagrid":  "DataGrid",
	"dataitem":  "DataItem",
	"row":       "DataItem",
	"scrollbar": "ScrollBar",
}

// MapControlType converts a native control type id to its name. Unknown ids
// map to "Custom".
func MapControlType(id int) string {
	if name, ok := ControlTypeNames[id]; ok {
		return name
	}
	return "Custom"
}

// NormalizeControlType resolves a caller-supplied control type (any case,
// alias or canonical) to the canonical name. The second result is false for
// unknown names.
func NormalizeControlType(s string) (string, bool) {
	key := strings.ToLower(strings.TrimSpace(s))
	if key == "" {
		return "", false
	}
	if name, ok := controlTypeAliases[key]; ok {
		return name, true
	}
	for _, name := range ControlTypeNames {
		if strings.ToLower(name) == key {
			return name, true
		}
	}
	return "", false
}

// staticControlTypes are display-only; the near filter skips them when
// looking for the control a label describes.
var staticControlTypes = map[string]bool{
	"Text":      true,
	"Image":     true,
	"Group":     true,
	"Pane":      true,
	"Custom":    true,
	"Separator": true,
}

// IsStaticControlType reports whether a control type is display-only.
func IsStaticControlType(name string) bool {
	return staticControlTypes[name]
}
