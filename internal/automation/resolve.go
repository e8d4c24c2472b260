package automation

import (
	"context"
	"errors"
	"slices"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Resolution strategies, in the order they are tried.
const (
	StrategyRuntimeID = "runtime_id"
	StrategyPath      = "path"
	StrategyRequery   = "requery"
)

// windowRoot returns the root element of a top-level window.
func (s *Service) windowRoot(a *uia.Arena, hwnd uintptr) (uia.Element, error) {
	if hwnd == 0 {
		return nil, model.Errorf(model.KindInvalidInput, "no window handle")
	}
	root, err := a.Track(s.auto.ElementFromHandle(hwnd))
	if errors.Is(err, uia.ErrElementNotAvailable) {
		return nil, model.Wrap(model.KindWindowNotFound, err, "window %#x", hwnd)
	}
	return root, err
}

// resolveNative turns an ElementID back into a live element inside the
// current invocation. It tries the runtime id, then the ancestor path, then a
// re-query by identity hints. When all fail the id is stale; it is never
// retried.
func (s *Service) resolveNative(a *uia.Arena, id model.ElementID, tr *trace) (uia.Element, []int, error) {
	root, err := s.windowRoot(a, id.Window)
	if err != nil {
		return nil, nil, err
	}
	tr.window = id.Window

	if len(id.RuntimeID) > 0 {
		el, err := a.Track(s.auto.FindByRuntimeID(root, id.RuntimeID))
		if err != nil && !errors.Is(err, uia.ErrElementNotAvailable) {
			return nil, nil, err
		}
		if el != nil {
			tr.strategy = StrategyRuntimeID
			path, err := pathOf(a, root, el)
			return el, path, err
		}
	}

	if el, err := replayPath(a, root, id); err != nil {
		return nil, nil, err
	} else if el != nil {
		tr.strategy = StrategyPath
		return el, slices.Clone(id.Path), nil
	}

	if el, path, err := requery(a, root, id, tr); err != nil {
		return nil, nil, err
	} else if el != nil {
		tr.strategy = StrategyRequery
		return el, path, nil
	}

	return nil, nil, model.Errorf(model.KindStaleReference,
		"%s in window %#x is no longer in the tree; re-query it", id.Describe(), id.Window).
		With("tried", []string{StrategyRuntimeID, StrategyPath, StrategyRequery})
}

// replayPath follows the stored child indices from the window root and
// accepts the element only when its control type (and automation id, when
// both are known) still match the hints.
func replayPath(a *uia.Arena, root uia.Element, id model.ElementID) (uia.Element, error) {
	if id.Path == nil {
		return nil, nil
	}
	el := root
	for _, idx := range id.Path {
		kids, err := a.TrackAll(el.Children())
		if errors.Is(err, uia.ErrElementNotAvailable) {
			return nil, nil
		}
		if err != nil {
			return nil, err
		}
		if idx < 0 || idx >= len(kids) {
			return nil, nil
		}
		el = kids[idx]
	}
	p, err := el.Snapshot()
	if errors.Is(err, uia.ErrElementNotAvailable) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if id.ControlType != "" && p.ControlType() != id.ControlType {
		return nil, nil
	}
	if id.AutomationID != "" && p.AutomationID != "" && p.AutomationID != id.AutomationID {
		return nil, nil
	}
	return el, nil
}

// requery searches the window for exactly one element matching the identity
// hints. Hints without a name or automation id are too weak to re-identify
// an element.
func requery(a *uia.Arena, root uia.Element, id model.ElementID, tr *trace) (uia.Element, []int, error) {
	if id.Name == "" && id.AutomationID == "" {
		return nil, nil, nil
	}
	var found []node
	err := walk(a, root, nil, model.DefaultMaxDepth, tr, func(n node) bool {
		p := n.props
		if id.AutomationID != "" && p.AutomationID != id.AutomationID {
			return true
		}
		if id.Name != "" && p.Name != id.Name {
			return true
		}
		if id.ControlType != "" && p.ControlType() != id.ControlType {
			return true
		}
		if id.ClassName != "" && p.ClassName != id.ClassName {
			return true
		}
		found = append(found, n)
		return len(found) < 2
	})
	if err != nil || len(found) != 1 {
		return nil, nil, err
	}
	return found[0].el, found[0].path, nil
}

// pathOf computes the child-index path from root to el by climbing parents.
// It returns nil when el is not under root.
func pathOf(a *uia.Arena, root, el uia.Element) ([]int, error) {
	rootID, err := root.RuntimeID()
	if err != nil {
		return nil, err
	}
	var rev []int
	cur := el
	for range maxPathDepth {
		rid, err := cur.RuntimeID()
		if err != nil {
			return nil, err
		}
		if model.SameRuntimeID(rid, rootID) {
			slices.Reverse(rev)
			return rev, nil
		}
		parent, err := a.Track(cur.Parent())
		if err != nil || parent == nil {
			return nil, err
		}
		kids, err := a.TrackAll(parent.Children())
		if err != nil {
			return nil, err
		}
		idx := -1
		for i, k := range kids {
			if krid, err := k.RuntimeID(); err == nil && model.SameRuntimeID(krid, rid) {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		rev = append(rev, idx)
		cur = parent
	}
	return nil, nil
}

// resolve re-validates an element token and returns a fresh snapshot.
func (s *Service) resolve(ctx context.Context, token string, tr *trace) (model.ElementInfo, error) {
	id, err := model.ParseElementID(token)
	if err != nil {
		return model.ElementInfo{}, err
	}
	top := s.topology()
	return call(ctx, s, "resolve element", func(a *uia.Arena) (model.ElementInfo, error) {
		el, path, err := s.resolveNative(a, id, tr)
		if err != nil {
			return model.ElementInfo{}, err
		}
		p, err := el.Snapshot()
		if err != nil {
			return model.ElementInfo{}, err
		}
		return describe(el, p, id.Window, path, top), nil
	})
}

// Resolve re-validates an element id and returns its current snapshot with
// the strategy that found it.
func (s *Service) Resolve(ctx context.Context, token string) *model.AutomationResult {
	tr := s.begin("resolve")
	info, err := s.resolve(ctx, token, tr)
	res := s.finish(tr, err)
	if err == nil {
		res.Element = &info
	}
	return res
}
