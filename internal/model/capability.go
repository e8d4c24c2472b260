package model

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Capability is one native interaction pattern an element may support.
type Capability uint16

const (
	CapInvoke Capability = 1 << iota
	CapToggle
	CapValue
	CapSelection
	CapSelectionItem
	CapExpandCollapse
	CapScrollItem
	CapScroll
	CapText
	CapRangeValue
	CapWindow
	CapTransform
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapInvoke, "invoke"},
	{CapToggle, "toggle"},
	{CapValue, "value"},
	{CapSelection, "selection"},
	{CapSelectionItem, "selection_item"},
	{CapExpandCollapse, "expand_collapse"},
	{CapScrollItem, "scroll_item"},
	{CapScroll, "scroll"},
	{CapText, "text"},
	{CapRangeValue, "range_value"},
	{CapWindow, "window"},
	{CapTransform, "transform"},
}

func (c Capability) String() string {
	for _, n := range capabilityNames {
		if n.cap == c {
			return n.name
		}
	}
	return fmt.Sprintf("capability(%d)", uint16(c))
}

// ParseCapability converts a capability name back to its bit.
func ParseCapability(s string) (Capability, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, n := range capabilityNames {
		if n.name == s {
			return n.cap, nil
		}
	}
	return 0, fmt.Errorf("unknown capability %q", s)
}

// CapabilitySet is computed once per snapshot; dispatch is by membership.
type CapabilitySet uint16

// Has reports whether every bit in c is present.
func (s CapabilitySet) Has(c Capability) bool {
	return uint16(s)&uint16(c) == uint16(c) && c != 0
}

// With returns the set with c added.
func (s CapabilitySet) With(c Capability) CapabilitySet {
	return CapabilitySet(uint16(s) | uint16(c))
}

// Names lists the supported capabilities in a stable order.
func (s CapabilitySet) Names() []string {
	names := []string{}
	for _, n := range capabilityNames {
		if s.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	return names
}

func (s CapabilitySet) String() string {
	names := s.Names()
	if len(names) == 0 {
		return "none"
	}
	return strings.Join(names, ",")
}

// NewCapabilitySet builds a set from individual capabilities.
func NewCapabilitySet(caps ...Capability) CapabilitySet {
	var s CapabilitySet
	for _, c := range caps {
		s = s.With(c)
	}
	return s
}

func (s CapabilitySet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Names())
}

func (s *CapabilitySet) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	return s.setNames(names)
}

func (s CapabilitySet) MarshalYAML() (interface{}, error) {
	return s.Names(), nil
}

func (s *CapabilitySet) UnmarshalYAML(node *yaml.Node) error {
	var names []string
	if err := node.Decode(&names); err != nil {
		return err
	}
	return s.setNames(names)
}

func (s *CapabilitySet) setNames(names []string) error {
	var out CapabilitySet
	for _, n := range names {
		c, err := ParseCapability(n)
		if err != nil {
			return err
		}
		out = out.With(c)
	}
	*s = out
	return nil
}
