package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mj1618/desktop-intent/internal/model"
)

// WindowSpec selects a window. Handle wins when set; otherwise Title is a
// case-insensitive substring, narrowed by Process and PID when given.
type WindowSpec struct {
	Handle  uintptr
	Title   string
	Process string
	PID     int
}

// IsZero reports whether no selector is set.
func (s WindowSpec) IsZero() bool {
	return s.Handle == 0 && s.Title == "" && s.Process == "" && s.PID == 0
}

func (s WindowSpec) String() string {
	var parts []string
	if s.Handle != 0 {
		parts = append(parts, fmt.Sprintf("handle=%#x", s.Handle))
	}
	if s.Title != "" {
		parts = append(parts, fmt.Sprintf("title=%q", s.Title))
	}
	if s.Process != "" {
		parts = append(parts, fmt.Sprintf("process=%q", s.Process))
	}
	if s.PID != 0 {
		parts = append(parts, fmt.Sprintf("pid=%d", s.PID))
	}
	if len(parts) == 0 {
		return "foreground window"
	}
	return strings.Join(parts, " ")
}

// ListOptions controls window listing.
type ListOptions struct {
	Title   string // Filter by title substring
	Process string // Filter by process name
	PID     int    // Filter by PID (0 = unset)
}

// Matches applies the list filters to a window.
func (o ListOptions) Matches(w model.WindowInfo) bool {
	if o.Title != "" && !strings.Contains(strings.ToLower(w.Title), strings.ToLower(o.Title)) {
		return false
	}
	if o.Process != "" && !strings.EqualFold(strings.TrimSuffix(w.ProcessName, ".exe"), strings.TrimSuffix(o.Process, ".exe")) {
		return false
	}
	if o.PID != 0 && w.PID != o.PID {
		return false
	}
	return true
}

// PickWindow applies spec to a window list the way every directory does:
// handle match, else exactly one title/process/pid match, preferring the
// foreground window when the title is ambiguous.
func PickWindow(windows []model.WindowInfo, spec WindowSpec) (model.WindowInfo, error) {
	if spec.Handle != 0 {
		for _, w := range windows {
			if w.Handle == spec.Handle {
				return w, nil
			}
		}
		return model.WindowInfo{}, model.Errorf(model.KindWindowNotFound, "no window with handle %#x", spec.Handle)
	}
	if spec.IsZero() {
		for _, w := range windows {
			if w.Foreground {
				return w, nil
			}
		}
		return model.WindowInfo{}, model.Errorf(model.KindWindowNotFound, "no foreground window")
	}
	opts := ListOptions{Title: spec.Title, Process: spec.Process, PID: spec.PID}
	var matches []model.WindowInfo
	for _, w := range windows {
		if opts.Matches(w) {
			matches = append(matches, w)
		}
	}
	switch len(matches) {
	case 0:
		return model.WindowInfo{}, model.Errorf(model.KindWindowNotFound, "no window matches %s", spec)
	case 1:
		return matches[0], nil
	}
	for _, w := range matches {
		if w.Foreground {
			return w, nil
		}
	}
	err := model.Errorf(model.KindMultipleMatches, "%d windows match %s; pass a handle", len(matches), spec)
	titles := make([]string, 0, len(matches))
	for _, w := range matches {
		titles = append(titles, fmt.Sprintf("%#x %q (%s)", w.Handle, w.Title, w.ProcessName))
	}
	return model.WindowInfo{}, err.With("windows", titles)
}

// ParseRegion parses a "x,y,w,h" string into a Rect.
func ParseRegion(s string) (*model.Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("invalid region %q: expected x,y,w,h", s)
	}
	vals := make([]int, 4)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid region %q: %w", s, err)
		}
		vals[i] = v
	}
	return &model.Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// ParseHandle accepts decimal or 0x-prefixed hexadecimal window handles.
func ParseHandle(s string) (uintptr, error) {
	s = strings.TrimSpace(s)
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil || v == 0 {
		return 0, fmt.Errorf("invalid window handle %q", s)
	}
	return uintptr(v), nil
}
