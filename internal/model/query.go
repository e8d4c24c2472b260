package model

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// DefaultMaxDepth bounds tree walks when a query does not set MaxDepth.
const DefaultMaxDepth = 25

// DefaultNearRadius is the maximum centre-to-centre distance for the near
// filter when NearFilter.MaxDistance is unset.
const DefaultNearRadius = 200

// NearFilter keeps only candidates close to an anchor element.
type NearFilter struct {
	ID          string `yaml:"id"                  json:"id"`
	Direction   string `yaml:"direction,omitempty" json:"direction,omitempty"` // "", left, right, above, below
	MaxDistance int    `yaml:"max_distance,omitempty" json:"max_distance,omitempty"`
}

// ElementQuery is a declarative find request. It is created per call and
// never mutated after validation.
type ElementQuery struct {
	Name             string        `yaml:"name,omitempty"              json:"name,omitempty"`
	NameContains     string        `yaml:"name_contains,omitempty"     json:"name_contains,omitempty"`
	NamePattern      string        `yaml:"name_pattern,omitempty"      json:"name_pattern,omitempty"`
	ControlType      string        `yaml:"control_type,omitempty"      json:"control_type,omitempty"`
	AutomationID     string        `yaml:"automation_id,omitempty"     json:"automation_id,omitempty"`
	ClassName        string        `yaml:"class_name,omitempty"        json:"class_name,omitempty"`
	WindowHandle     uintptr       `yaml:"window_handle,omitempty"     json:"window_handle,omitempty"`
	ParentID         string        `yaml:"parent_id,omitempty"         json:"parent_id,omitempty"`
	MaxDepth         int           `yaml:"max_depth,omitempty"         json:"max_depth,omitempty"`
	Region           *Rect         `yaml:"region,omitempty"            json:"region,omitempty"`
	Near             *NearFilter   `yaml:"near,omitempty"              json:"near,omitempty"`
	FoundIndex       int           `yaml:"found_index,omitempty"       json:"found_index,omitempty"`
	SortByProminence bool          `yaml:"sort_by_prominence,omitempty" json:"sort_by_prominence,omitempty"`
	Timeout          time.Duration `yaml:"timeout,omitempty"           json:"timeout,omitempty"`
}

// HasFilter reports whether at least one element filter is set. Scope,
// depth, ordering and index are not filters.
func (q ElementQuery) HasFilter() bool {
	return q.Name != "" || q.NameContains != "" || q.NamePattern != "" ||
		q.ControlType != "" || q.AutomationID != "" || q.ClassName != "" ||
		q.Region != nil || q.Near != nil
}

// Depth returns the effective traversal bound.
func (q ElementQuery) Depth() int {
	if q.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return q.MaxDepth
}

// Validate checks the query and compiles it into a Matcher.
func (q ElementQuery) Validate() (*Matcher, error) {
	if !q.HasFilter() {
		return nil, Errorf(KindInvalidInput,
			"query has no filter: set at least one of name, name_contains, name_pattern, control_type, automation_id, class_name, region or near")
	}
	if q.WindowHandle == 0 && q.ParentID == "" {
		return nil, Errorf(KindInvalidInput, "query has no scope: set window_handle or parent_id")
	}
	if q.FoundIndex < 0 {
		return nil, Errorf(KindInvalidInput, "found_index must be >= 1 (got %d)", q.FoundIndex)
	}
	if q.Timeout < 0 {
		return nil, Errorf(KindInvalidInput, "timeout must not be negative")
	}
	if q.Region != nil && q.Region.Empty() {
		return nil, Errorf(KindInvalidInput, "region %s has no extent", q.Region)
	}
	m := &Matcher{
		name:         strings.ToLower(q.Name),
		nameContains: strings.ToLower(q.NameContains),
		automationID: q.AutomationID,
		className:    q.ClassName,
		region:       q.Region,
	}
	if q.ControlType != "" {
		ct, ok := NormalizeControlType(q.ControlType)
		if !ok {
			return nil, Errorf(KindInvalidInput, "unknown control type %q", q.ControlType)
		}
		m.controlType = ct
	}
	if q.NamePattern != "" {
		re, err := regexp.Compile(q.NamePattern)
		if err != nil {
			return nil, Wrap(KindInvalidInput, err, "invalid name_pattern %q", q.NamePattern)
		}
		m.pattern = re
	}
	return m, nil
}

// Describe renders the search criteria for diagnostics and error messages.
func (q ElementQuery) Describe() string {
	var parts []string
	if q.Name != "" {
		parts = append(parts, fmt.Sprintf("name=%q", q.Name))
	}
	if q.NameContains != "" {
		parts = append(parts, fmt.Sprintf("name_contains=%q", q.NameContains))
	}
	if q.NamePattern != "" {
		parts = append(parts, fmt.Sprintf("name_pattern=%q", q.NamePattern))
	}
	if q.ControlType != "" {
		parts = append(parts, fmt.Sprintf("control_type=%s", q.ControlType))
	}
	if q.AutomationID != "" {
		parts = append(parts, fmt.Sprintf("automation_id=%q", q.AutomationID))
	}
	if q.ClassName != "" {
		parts = append(parts, fmt.Sprintf("class_name=%q", q.ClassName))
	}
	if q.Region != nil {
		parts = append(parts, fmt.Sprintf("region=%s", q.Region))
	}
	if q.Near != nil {
		parts = append(parts, fmt.Sprintf("near=%s", q.Near.ID))
	}
	if q.FoundIndex > 0 {
		parts = append(parts, fmt.Sprintf("found_index=%d", q.FoundIndex))
	}
	return strings.Join(parts, " ")
}

// Matcher is a compiled ElementQuery predicate. All filters are ANDed.
type Matcher struct {
	name         string
	nameContains string
	pattern      *regexp.Regexp
	controlType  string
	automationID string
	className    string
	region       *Rect
}

// Match reports whether a snapshot satisfies every filter.
func (m *Matcher) Match(e ElementInfo) bool {
	if m.name != "" && strings.ToLower(e.Name) != m.name {
		return false
	}
	if m.nameContains != "" && !strings.Contains(strings.ToLower(e.Name), m.nameContains) {
		return false
	}
	if m.pattern != nil && !m.pattern.MatchString(e.Name) {
		return false
	}
	if m.controlType != "" && e.ControlType != m.controlType {
		return false
	}
	if m.automationID != "" && e.AutomationID != m.automationID {
		return false
	}
	if m.className != "" && e.ClassName != m.className {
		return false
	}
	if m.region != nil && !e.Bounds.Intersects(*m.region) {
		return false
	}
	return true
}
