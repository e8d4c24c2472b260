package cmd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/mj1618/desktop-intent/internal/automation"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
)

// params is the argument map shared by batch steps, MCP tool calls and the
// flags of CLI commands. Keys are snake_case; dashes are accepted too.
type params map[string]interface{}

func (p params) get(key string) (interface{}, bool) {
	if v, ok := p[key]; ok && v != nil {
		return v, true
	}
	if v, ok := p[strings.ReplaceAll(key, "_", "-")]; ok && v != nil {
		return v, true
	}
	return nil, false
}

func (p params) has(key string) bool {
	_, ok := p.get(key)
	return ok
}

// str extracts a string, formatting numbers decoded from YAML or JSON.
func (p params) str(key, defaultVal string) string {
	v, ok := p.get(key)
	if !ok {
		return defaultVal
	}
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func (p params) integer(key string, defaultVal int) int {
	v, ok := p.get(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	case string:
		if i, err := strconv.ParseInt(strings.TrimSpace(n), 0, 64); err == nil {
			return int(i)
		}
	}
	return defaultVal
}

func (p params) float(key string, defaultVal float64) float64 {
	v, ok := p.get(key)
	if !ok {
		return defaultVal
	}
	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func (p params) boolean(key string, defaultVal bool) bool {
	v, ok := p.get(key)
	if !ok {
		return defaultVal
	}
	switch b := v.(type) {
	case bool:
		return b
	case string:
		if parsed, err := strconv.ParseBool(b); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// duration accepts Go duration strings ("500ms") or plain numbers of
// seconds, the unit agents most often send.
func (p params) duration(key string, defaultVal time.Duration) (time.Duration, error) {
	v, ok := p.get(key)
	if !ok {
		return defaultVal, nil
	}
	switch d := v.(type) {
	case time.Duration:
		return d, nil
	case int:
		return time.Duration(d) * time.Second, nil
	case int64:
		return time.Duration(d) * time.Second, nil
	case float64:
		return time.Duration(d * float64(time.Second)), nil
	case string:
		if secs, err := strconv.ParseFloat(d, 64); err == nil {
			return time.Duration(secs * float64(time.Second)), nil
		}
		parsed, err := time.ParseDuration(d)
		if err != nil {
			return 0, model.Errorf(model.KindInvalidInput, "%s: invalid duration %q", key, d)
		}
		return parsed, nil
	}
	return 0, model.Errorf(model.KindInvalidInput, "%s: invalid duration %v", key, v)
}

// list accepts a YAML/JSON list or a comma-separated string.
func (p params) list(key string) []string {
	v, ok := p.get(key)
	if !ok {
		return nil
	}
	var out []string
	switch l := v.(type) {
	case []string:
		out = l
	case []interface{}:
		for _, item := range l {
			out = append(out, fmt.Sprintf("%v", item))
		}
	case string:
		out = strings.Split(l, ",")
	}
	clean := out[:0]
	for _, s := range out {
		if s = strings.TrimSpace(s); s != "" {
			clean = append(clean, s)
		}
	}
	return clean
}

// handle parses a window handle given as a number or a hex string.
func (p params) handle(key string) (uintptr, error) {
	v, ok := p.get(key)
	if !ok {
		return 0, nil
	}
	switch h := v.(type) {
	case int:
		return uintptr(h), nil
	case int64:
		return uintptr(h), nil
	case float64:
		return uintptr(h), nil
	case string:
		n, err := strconv.ParseUint(strings.TrimSpace(h), 0, 64)
		if err != nil {
			return 0, model.Errorf(model.KindInvalidInput, "%s: invalid window handle %q", key, h)
		}
		return uintptr(n), nil
	}
	return 0, model.Errorf(model.KindInvalidInput, "%s: invalid window handle %v", key, v)
}

// query builds an ElementQuery from the query keys. Window scope is filled
// in by the executor.
func (p params) query() (model.ElementQuery, error) {
	q := model.ElementQuery{
		Name:             p.str("name", ""),
		NameContains:     p.str("name_contains", ""),
		NamePattern:      p.str("name_pattern", ""),
		ControlType:      p.str("control_type", p.str("type", "")),
		AutomationID:     p.str("automation_id", ""),
		ClassName:        p.str("class_name", ""),
		ParentID:         p.str("parent_id", ""),
		MaxDepth:         p.integer("max_depth", 0),
		FoundIndex:       p.integer("found_index", p.integer("index", 0)),
		SortByProminence: p.boolean("sort_by_prominence", p.boolean("prominent", false)),
	}
	var err error
	if q.WindowHandle, err = p.handle("window_handle"); err != nil {
		return q, err
	}
	if q.Timeout, err = p.duration("timeout", 0); err != nil {
		return q, err
	}
	if r := p.str("region", ""); r != "" {
		if q.Region, err = platform.ParseRegion(r); err != nil {
			return q, model.Wrap(model.KindInvalidInput, err, "region")
		}
	}
	if near := p.str("near", ""); near != "" {
		q.Near = &model.NearFilter{
			ID:          near,
			Direction:   p.str("near_direction", ""),
			MaxDistance: p.integer("near_distance", 0),
		}
	}
	return q, nil
}

// target returns the element a step acts on: an element id when "id" is
// set, otherwise a query.
func (p params) target() (automation.Target, error) {
	if id := p.str("id", ""); id != "" {
		return automation.Target{ID: id}, nil
	}
	q, err := p.query()
	if err != nil {
		return automation.Target{}, err
	}
	return automation.Target{Query: q}, nil
}

// point reads an x/y pair with the given key prefix. The second result is
// false when neither coordinate is set.
func (p params) point(prefix string) (model.Point, bool) {
	if !p.has(prefix+"x") && !p.has(prefix+"y") {
		return model.Point{}, false
	}
	return model.Point{X: p.integer(prefix+"x", 0), Y: p.integer(prefix+"y", 0)}, true
}
