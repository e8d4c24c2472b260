package automation

import (
	"context"
	"errors"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// ScrollSearchRequest searches a virtualized container for an element.
type ScrollSearchRequest struct {
	// Query finds the element. Its scope is the window unless Container is
	// set.
	Query model.ElementQuery `yaml:"query" json:"query"`
	// Container is the element id of the list to search. When empty the
	// first scrollable element under the query scope is used.
	Container string        `yaml:"container,omitempty" json:"container,omitempty"`
	MaxPages  int           `yaml:"max_pages,omitempty" json:"max_pages,omitempty"`
	Settle    time.Duration `yaml:"settle,omitempty"    json:"settle,omitempty"`
}

// scroller is the resolved container a scroll search pages through.
type scroller struct {
	id model.ElementID
}

// findScroller returns the nearest scrollable element relative to the
// search scope: the container itself, then its ancestors. Without a
// container the first scrollable descendant of the window is used.
func (s *Service) findScroller(ctx context.Context, req ScrollSearchRequest, tr *trace) (*scroller, error) {
	top := s.topology()
	return call(ctx, s, "find scroll container", func(a *uia.Arena) (*scroller, error) {
		var start uia.Element
		var window uintptr
		if req.Container != "" {
			id, err := model.ParseElementID(req.Container)
			if err != nil {
				return nil, err
			}
			el, _, err := s.resolveNative(a, id, tr)
			if err != nil {
				return nil, err
			}
			start, window = el, id.Window
		} else {
			root, err := s.windowRoot(a, req.Query.WindowHandle)
			if err != nil {
				return nil, err
			}
			window = req.Query.WindowHandle
			var found *node
			err = walk(a, root, nil, req.Query.Depth(), tr, func(n node) bool {
				if n.props.Capabilities.Has(model.CapScroll) {
					found = &n
					return false
				}
				return true
			})
			if err != nil {
				return nil, err
			}
			if found == nil {
				return nil, nil
			}
			start = found.el
		}

		rootEl, err := s.windowRoot(a, window)
		if err != nil {
			return nil, err
		}
		cur := start
		for range maxPathDepth {
			p, err := cur.Snapshot()
			if err != nil {
				return nil, err
			}
			if p.Capabilities.Has(model.CapScroll) {
				path, err := pathOf(a, rootEl, cur)
				if err != nil {
					return nil, err
				}
				info := describe(cur, p, window, path, top)
				id, err := model.ParseElementID(info.ID)
				if err != nil {
					return nil, err
				}
				return &scroller{id: id}, nil
			}
			parent, err := a.Track(cur.Parent())
			if err != nil || parent == nil {
				return nil, err
			}
			cur = parent
		}
		return nil, nil
	})
}

// scrollStep runs one paging action on the container and returns the
// vertical position before and after it.
func (s *Service) scrollStep(ctx context.Context, sc *scroller, tr *trace, step func(el uia.Element) error) (before, after float64, err error) {
	type pos struct{ before, after float64 }
	p, err := call(ctx, s, "scroll", func(a *uia.Arena) (pos, error) {
		el, _, err := s.resolveNative(a, sc.id, tr)
		if err != nil {
			return pos{}, err
		}
		b, err := el.ScrollPercent()
		if err != nil {
			return pos{}, err
		}
		if err := step(el); err != nil {
			return pos{}, err
		}
		af, err := el.ScrollPercent()
		if err != nil {
			return pos{}, err
		}
		return pos{b.Vertical, af.Vertical}, nil
	})
	return p.before, p.after, err
}

// scrollSearch looks for the query in the materialized tree, then pages the
// nearest scrollable container from the top until the element appears or
// the scroll position stops changing.
func (s *Service) scrollSearch(ctx context.Context, req ScrollSearchRequest, tr *trace) (model.ElementInfo, error) {
	q := req.Query
	q.Timeout = 0
	if req.Container != "" {
		q.ParentID = req.Container
	}
	tr.forQuery(q)
	m, err := q.Validate()
	if err != nil {
		return model.ElementInfo{}, err
	}
	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = s.opts.ScrollMaxPages
	}
	settle := req.Settle
	if settle <= 0 {
		settle = s.opts.ScrollSettle
	}

	search := func() (model.ElementInfo, bool, error) {
		tr.attempts++
		matches, err := s.scan(ctx, q, m, tr)
		if err != nil {
			return model.ElementInfo{}, false, err
		}
		list, err := pick(q, matches, false, tr)
		if errors.Is(err, model.ErrNotFound) {
			return model.ElementInfo{}, false, nil
		}
		if err != nil {
			return model.ElementInfo{}, false, err
		}
		return list[0], true, nil
	}

	if info, ok, err := search(); err != nil || ok {
		return info, err
	}

	sc, err := s.findScroller(ctx, req, tr)
	if err != nil {
		return model.ElementInfo{}, err
	}
	if sc == nil {
		return model.ElementInfo{}, notFound(q, tr).With("reason", "no scrollable container")
	}
	if _, _, err := s.scrollStep(ctx, sc, tr, func(el uia.Element) error {
		return el.SetScrollPercent(uia.NoScroll, 0)
	}); err != nil {
		return model.ElementInfo{}, err
	}
	if info, ok, err := search(); err != nil || ok {
		return info, err
	}

	for page := 1; page <= maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return model.ElementInfo{}, model.Wrap(model.KindCancelled, err, "scroll search cancelled after %d pages", page-1)
		}
		before, after, err := s.scrollStep(ctx, sc, tr, func(el uia.Element) error {
			return el.ScrollPage(uia.ScrollDown)
		})
		if err != nil {
			return model.ElementInfo{}, err
		}
		if after == before {
			return model.ElementInfo{}, model.Errorf(model.KindScrollExhausted,
				"scrolled to the end of %s without finding %s", sc.id.Describe(), q.Describe()).
				With("pages", page-1).
				With("scanned", tr.scanned)
		}
		if err := s.clock.Sleep(ctx, settle); err != nil {
			return model.ElementInfo{}, model.Wrap(model.KindCancelled, err, "scroll search cancelled after %d pages", page)
		}
		if info, ok, err := search(); err != nil || ok {
			return info, err
		}
	}
	return model.ElementInfo{}, model.Errorf(model.KindScrollExhausted,
		"gave up after %d pages without finding %s", maxPages, q.Describe()).
		With("pages", maxPages).
		With("scanned", tr.scanned)
}

// ScrollSearch finds an element in a virtualized container, scrolling it
// page by page when the element is not materialized.
func (s *Service) ScrollSearch(ctx context.Context, req ScrollSearchRequest) *model.AutomationResult {
	tr := s.begin("scroll_search")
	var info model.ElementInfo
	err := s.guard()
	if err == nil {
		info, err = s.scrollSearch(ctx, req, tr)
	}
	res := s.finish(tr, err)
	if err == nil {
		res.Element = &info
	}
	return res
}
