package automation

import (
	"errors"
	"slices"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// maxPathDepth bounds parent-chain climbs.
const maxPathDepth = 64

// node is one element reached by a walk.
type node struct {
	el    uia.Element
	props uia.Properties
	path  []int
	depth int
}

// walk visits the descendants of root depth-first in pre-order, down to
// maxDepth levels. Children are not clipped to their parent's bounds:
// popups and overflowing content live outside it, so region filtering is
// left to the matcher. Elements that vanish mid-walk are skipped. visit
// returns false to stop.
func walk(a *uia.Arena, root uia.Element, rootPath []int, maxDepth int, tr *trace, visit func(n node) bool) error {
	var rec func(el uia.Element, path []int, depth int) (bool, error)
	rec = func(el uia.Element, path []int, depth int) (bool, error) {
		if depth >= maxDepth {
			return true, nil
		}
		kids, err := a.TrackAll(el.Children())
		if err != nil {
			if depth > 0 && errors.Is(err, uia.ErrElementNotAvailable) {
				return true, nil
			}
			return false, err
		}
		for i, k := range kids {
			props, err := k.Snapshot()
			if errors.Is(err, uia.ErrElementNotAvailable) {
				continue
			}
			if err != nil {
				return false, err
			}
			tr.scanned++
			p := append(slices.Clone(path), i)
			if !visit(node{el: k, props: props, path: p, depth: depth + 1}) {
				return false, nil
			}
			more, err := rec(k, p, depth+1)
			if err != nil || !more {
				return more, err
			}
		}
		return true, nil
	}
	_, err := rec(root, rootPath, 0)
	return err
}

// light converts cached properties to a snapshot good enough for matching.
func light(p uia.Properties) model.ElementInfo {
	return model.ElementInfo{
		Name:         p.Name,
		AutomationID: p.AutomationID,
		ClassName:    p.ClassName,
		ControlType:  p.ControlType(),
		Bounds:       p.Bounds,
		Capabilities: p.Capabilities,
		Enabled:      p.Enabled,
		Offscreen:    p.Offscreen,
		Focused:      p.Focused,
	}
}

// describe builds the full caller-facing snapshot of el: identity token,
// monitor-derived coordinates and cheap pattern state.
func describe(el uia.Element, p uia.Properties, window uintptr, path []int, top *coords.Topology) model.ElementInfo {
	info := light(p)
	id := model.ElementID{
		Window:       window,
		Path:         path,
		Name:         p.Name,
		ControlType:  info.ControlType,
		AutomationID: p.AutomationID,
		ClassName:    p.ClassName,
	}
	if rid, err := el.RuntimeID(); err == nil {
		id.RuntimeID = rid
	}
	info.ID = id.Encode()
	if p.Capabilities.Has(model.CapValue) {
		if v, err := el.Value(); err == nil {
			info.Value = v
		}
	}
	if p.Capabilities.Has(model.CapToggle) {
		if ts, err := el.ToggleState(); err == nil {
			info.ToggleState = ts
		}
	}
	if p.Capabilities.Has(model.CapExpandCollapse) {
		if es, err := el.ExpandState(); err == nil {
			info.ExpandState = es
		}
	}
	if top != nil {
		top.Annotate(&info)
	} else {
		info.ClickPoint = p.Bounds.Center()
	}
	return info
}
