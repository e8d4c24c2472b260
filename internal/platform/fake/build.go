package fake

import (
	"fmt"

	"github.com/mj1618/desktop-intent/internal/model"
)

// R is shorthand for a screen rectangle.
func R(x, y, w, h int) model.Rect {
	return model.Rect{X: x, Y: y, Width: w, Height: h}
}

// Container returns a node of the given control type holding children.
func Container(controlType, name string, bounds model.Rect, children ...*Node) *Node {
	return &Node{ControlType: controlType, Name: name, Bounds: bounds, Children: children}
}

// Button returns an invokable button.
func Button(name, automationID string, bounds model.Rect) *Node {
	return &Node{
		ControlType:  "Button",
		Name:         name,
		AutomationID: automationID,
		Bounds:       bounds,
		Caps:         model.NewCapabilitySet(model.CapInvoke),
	}
}

// Label returns static text.
func Label(text string, bounds model.Rect) *Node {
	return &Node{ControlType: "Text", Name: text, Bounds: bounds}
}

// Edit returns an editable text field.
func Edit(name, automationID string, bounds model.Rect) *Node {
	return &Node{
		ControlType:  "Edit",
		Name:         name,
		AutomationID: automationID,
		Bounds:       bounds,
		Caps:         model.NewCapabilitySet(model.CapValue),
	}
}

// CheckBox returns a two-state toggle.
func CheckBox(name string, bounds model.Rect, on bool) *Node {
	state := model.ToggleOff
	if on {
		state = model.ToggleOn
	}
	return &Node{
		ControlType: "CheckBox",
		Name:        name,
		Bounds:      bounds,
		Toggle:      state,
		Caps:        model.NewCapabilitySet(model.CapToggle),
	}
}

// MenuItem returns an expandable menu item holding children.
func MenuItem(name string, bounds model.Rect, children ...*Node) *Node {
	n := &Node{
		ControlType: "MenuItem",
		Name:        name,
		Bounds:      bounds,
		Children:    children,
		Caps:        model.NewCapabilitySet(model.CapInvoke),
	}
	if len(children) > 0 {
		n.Caps = model.NewCapabilitySet(model.CapExpandCollapse)
		n.Expand = model.ExpandCollapsed
	}
	return n
}

// ListItem returns a selectable item that can be scrolled into view.
func ListItem(name string) *Node {
	return &Node{
		ControlType: "ListItem",
		Name:        name,
		Caps:        model.NewCapabilitySet(model.CapSelectionItem, model.CapScrollItem),
	}
}

// VirtualList returns a list that materializes only pageSize of its items.
func VirtualList(name string, bounds model.Rect, pageSize int, items ...*Node) *Node {
	return &Node{
		ControlType: "List",
		Name:        name,
		Bounds:      bounds,
		Items:       items,
		PageSize:    pageSize,
		ItemHeight:  bounds.Height / max(pageSize, 1),
		Caps:        model.NewCapabilitySet(model.CapSelection),
	}
}

// NumberedItems returns n list items named "<prefix> 1" .. "<prefix> n".
func NumberedItems(prefix string, n int) []*Node {
	out := make([]*Node, n)
	for i := range out {
		out[i] = ListItem(fmt.Sprintf("%s %d", prefix, i+1))
	}
	return out
}

// Document returns a read-only text document.
func Document(name, text string, bounds model.Rect) *Node {
	return &Node{
		ControlType: "Document",
		Name:        name,
		Bounds:      bounds,
		Text:        text,
		Caps:        model.NewCapabilitySet(model.CapText),
	}
}

// SaveDialog returns a common Save As dialog: a file name field and Save and
// Cancel buttons carrying the standard automation ids.
func SaveDialog(bounds model.Rect) *Node {
	x, y := bounds.X, bounds.Y+bounds.Height
	n := Container("Window", "Save As", bounds,
		Edit("File name:", "1001", R(x+100, y-90, bounds.Width-120, 24)),
		Button("Save", "1", R(x+bounds.Width-200, y-40, 80, 28)),
		Button("Cancel", "2", R(x+bounds.Width-100, y-40, 80, 28)),
	)
	n.ClassName = "#32770"
	return n
}
