package model

import (
	"encoding/base64"
	"encoding/json"
	"strings"
)

// elementIDPrefix versions the token format.
const elementIDPrefix = "e1."

// ElementID is the decoded form of the opaque caller-facing element token.
// It carries only plain values: the owning window handle, the native
// runtime identifier, the child-index path from the window root, and
// identity hints used for re-query and diagnostics. A decoded ElementID is
// never guaranteed to resolve.
type ElementID struct {
	Window       uintptr `json:"w"`
	RuntimeID    []int32 `json:"r,omitempty"`
	Path         []int   `json:"p,omitempty"`
	Name         string  `json:"n,omitempty"`
	ControlType  string  `json:"t,omitempty"`
	AutomationID string  `json:"a,omitempty"`
	ClassName    string  `json:"c,omitempty"`
}

// Encode renders the opaque token.
func (id ElementID) Encode() string {
	data, err := json.Marshal(id)
	if err != nil {
		// Only plain values are marshalled; this cannot fail.
		panic(err)
	}
	return elementIDPrefix + base64.RawURLEncoding.EncodeToString(data)
}

// ParseElementID decodes a token produced by Encode.
func ParseElementID(token string) (ElementID, error) {
	var id ElementID
	token = strings.TrimSpace(token)
	if !strings.HasPrefix(token, elementIDPrefix) {
		return id, Errorf(KindInvalidInput, "malformed element id %q", truncate(token, 32))
	}
	data, err := base64.RawURLEncoding.DecodeString(token[len(elementIDPrefix):])
	if err != nil {
		return id, Wrap(KindInvalidInput, err, "malformed element id %q", truncate(token, 32))
	}
	if err := json.Unmarshal(data, &id); err != nil {
		return id, Wrap(KindInvalidInput, err, "malformed element id %q", truncate(token, 32))
	}
	if id.Window == 0 {
		return id, Errorf(KindInvalidInput, "element id has no window")
	}
	return id, nil
}

// SameRuntimeID compares two native runtime identifiers.
func SameRuntimeID(a, b []int32) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Describe renders the identity hints for stale-reference messages.
func (id ElementID) Describe() string {
	var parts []string
	if id.ControlType != "" {
		parts = append(parts, id.ControlType)
	}
	if id.Name != "" {
		parts = append(parts, "name="+quote(id.Name))
	}
	if id.AutomationID != "" {
		parts = append(parts, "automation_id="+quote(id.AutomationID))
	}
	if len(parts) == 0 {
		return "element"
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
