package automation

import (
	"context"
	"math"
	"slices"
	"strings"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// scope is the subtree a query walks.
type scope struct {
	root   uia.Element
	window uintptr
	path   []int
}

func (s *Service) scopeOf(a *uia.Arena, q model.ElementQuery, tr *trace) (scope, error) {
	if q.ParentID != "" {
		id, err := model.ParseElementID(q.ParentID)
		if err != nil {
			return scope{}, err
		}
		el, path, err := s.resolveNative(a, id, tr)
		if err != nil {
			return scope{}, err
		}
		return scope{root: el, window: id.Window, path: path}, nil
	}
	root, err := s.windowRoot(a, q.WindowHandle)
	if err != nil {
		return scope{}, err
	}
	tr.window = q.WindowHandle
	return scope{root: root, window: q.WindowHandle}, nil
}

// anchor is the resolved reference element of a near filter.
type anchor struct {
	rid       []int32
	center    model.Point
	direction string
	radius    float64
	typed     bool
}

func (s *Service) anchorOf(a *uia.Arena, q model.ElementQuery, tr *trace) (*anchor, error) {
	if q.Near == nil {
		return nil, nil
	}
	id, err := model.ParseElementID(q.Near.ID)
	if err != nil {
		return nil, err
	}
	dir := strings.ToLower(strings.TrimSpace(q.Near.Direction))
	switch dir {
	case "", "left", "right", "above", "below":
	default:
		return nil, model.Errorf(model.KindInvalidInput, "near direction %q must be left, right, above or below", q.Near.Direction)
	}
	sub := &trace{}
	el, _, err := s.resolveNative(a, id, sub)
	tr.scanned += sub.scanned
	if err != nil {
		return nil, err
	}
	p, err := el.Snapshot()
	if err != nil {
		return nil, err
	}
	rid, err := el.RuntimeID()
	if err != nil {
		return nil, err
	}
	radius := float64(q.Near.MaxDistance)
	if radius <= 0 {
		radius = model.DefaultNearRadius
	}
	return &anchor{
		rid:       rid,
		center:    p.Bounds.Center(),
		direction: dir,
		radius:    radius,
		typed:     q.ControlType != "",
	}, nil
}

// distance returns how far info is from the anchor, or false when info is
// outside the radius, in the wrong direction, or is the anchor itself.
func (an *anchor) distance(info model.ElementInfo, rid []int32) (float64, bool) {
	if model.SameRuntimeID(rid, an.rid) {
		return 0, false
	}
	// A label's partner is an interactive control unless the caller asked
	// for a specific type.
	if !an.typed && model.IsStaticControlType(info.ControlType) {
		return 0, false
	}
	c := info.Bounds.Center()
	switch an.direction {
	case "left":
		if c.X >= an.center.X {
			return 0, false
		}
	case "right":
		if c.X <= an.center.X {
			return 0, false
		}
	case "above":
		if c.Y >= an.center.Y {
			return 0, false
		}
	case "below":
		if c.Y <= an.center.Y {
			return 0, false
		}
	}
	d := math.Hypot(float64(c.X-an.center.X), float64(c.Y-an.center.Y))
	return d, d <= an.radius
}

// scan runs one query walk as a single dispatch invocation and returns the
// ordered matches.
func (s *Service) scan(ctx context.Context, q model.ElementQuery, m *model.Matcher, tr *trace) ([]model.ElementInfo, error) {
	top := s.topology()
	return call(ctx, s, "query", func(a *uia.Arena) ([]model.ElementInfo, error) {
		return s.scanLocked(a, q, m, top, tr)
	})
}

// scanLocked is scan for callers already on the dispatch thread.
func (s *Service) scanLocked(a *uia.Arena, q model.ElementQuery, m *model.Matcher, top *coords.Topology, tr *trace) ([]model.ElementInfo, error) {
	sc, err := s.scopeOf(a, q, tr)
	if err != nil {
		return nil, err
	}
	an, err := s.anchorOf(a, q, tr)
	if err != nil {
		return nil, err
	}
	var (
		out   []model.ElementInfo
		dists []float64
	)
	err = walk(a, sc.root, sc.path, q.Depth(), tr, func(n node) bool {
		if !m.Match(light(n.props)) {
			return true
		}
		info := describe(n.el, n.props, sc.window, n.path, top)
		if an != nil {
			id, _ := model.ParseElementID(info.ID)
			d, ok := an.distance(info, id.RuntimeID)
			if !ok {
				return true
			}
			dists = append(dists, d)
		}
		out = append(out, info)
		return true
	})
	if err != nil {
		return nil, err
	}
	tr.lastCandidates = len(out)
	switch {
	case q.SortByProminence:
		slices.SortStableFunc(out, func(x, y model.ElementInfo) int {
			ax, ay := x.Bounds.Area(), y.Bounds.Area()
			switch {
			case ax > ay:
				return -1
			case ax < ay:
				return 1
			}
			return 0
		})
	case an != nil:
		idx := make([]int, len(out))
		for i := range idx {
			idx[i] = i
		}
		slices.SortStableFunc(idx, func(i, j int) int {
			switch {
			case dists[i] < dists[j]:
				return -1
			case dists[i] > dists[j]:
				return 1
			}
			return 0
		})
		sorted := make([]model.ElementInfo, len(out))
		for i, k := range idx {
			sorted[i] = out[k]
		}
		out = sorted
	}
	return out, nil
}

// pick applies found_index and the ambiguity policy to an ordered match
// list. Strict callers act on the result and refuse to guess.
func pick(q model.ElementQuery, matches []model.ElementInfo, strict bool, tr *trace) ([]model.ElementInfo, error) {
	if len(matches) == 0 {
		return nil, notFound(q, tr)
	}
	if q.FoundIndex > 0 {
		if q.FoundIndex > len(matches) {
			return nil, notFound(q, tr).With("matches", len(matches))
		}
		return matches[q.FoundIndex-1 : q.FoundIndex], nil
	}
	if strict && len(matches) > 1 {
		e := model.Errorf(model.KindMultipleMatches,
			"%d elements match %s; pass found_index or refine the query", len(matches), q.Describe())
		e.Candidates = matches
		return nil, e
	}
	return matches, nil
}

func notFound(q model.ElementQuery, tr *trace) *model.Error {
	e := model.Errorf(model.KindNotFound, "no element matches %s", q.Describe()).
		With("scanned", tr.scanned)
	if tr.window != 0 {
		e.With("window", tr.window)
	}
	return e
}

// find validates q and runs it, waiting when q.Timeout is set.
func (s *Service) find(ctx context.Context, q model.ElementQuery, strict bool, tr *trace) ([]model.ElementInfo, error) {
	tr.forQuery(q)
	m, err := q.Validate()
	if err != nil {
		return nil, err
	}
	if q.Timeout > 0 {
		return s.waitFind(ctx, q, m, strict, q.Timeout, tr)
	}
	tr.attempts = 1
	matches, err := s.scan(ctx, q, m, tr)
	if err != nil {
		return nil, err
	}
	return pick(q, matches, strict, tr)
}

// FindAll returns every match in order (or the found_index-th). It never
// fails on ambiguity.
func (s *Service) FindAll(ctx context.Context, q model.ElementQuery) *model.AutomationResult {
	tr := s.begin("find_all")
	list, err := s.find(ctx, q, false, tr)
	res := s.finish(tr, err)
	if err == nil {
		res.Elements = list
	}
	return res
}

// Find returns exactly one element. More than one match without found_index
// is MultipleMatches carrying every candidate.
func (s *Service) Find(ctx context.Context, q model.ElementQuery) *model.AutomationResult {
	tr := s.begin("find")
	list, err := s.find(ctx, q, true, tr)
	res := s.finish(tr, err)
	if err == nil {
		res.Element = &list[0]
	}
	return res
}

// Target names the element an action applies to: an element id from an
// earlier result, or a query that must match exactly one element.
type Target struct {
	ID    string             `yaml:"id,omitempty"    json:"id,omitempty"`
	Query model.ElementQuery `yaml:"query,omitempty" json:"query,omitempty"`
}

// locate returns a snapshot of the target.
func (s *Service) locate(ctx context.Context, t Target, tr *trace) (model.ElementInfo, error) {
	if t.ID != "" {
		return s.resolve(ctx, t.ID, tr)
	}
	list, err := s.find(ctx, t.Query, true, tr)
	if err != nil {
		return model.ElementInfo{}, err
	}
	return list[0], nil
}
