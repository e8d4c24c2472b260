package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Methods reported in Diagnostics.Method.
const (
	MethodInvoke         = "pattern:Invoke"
	MethodToggle         = "pattern:Toggle"
	MethodValue          = "pattern:Value"
	MethodSelect         = "pattern:SelectionItem"
	MethodExpand         = "pattern:ExpandCollapse"
	MethodScrollItem     = "pattern:ScrollItem"
	MethodScroll         = "pattern:Scroll"
	MethodFocus          = "focus"
	MethodInputClick     = "input:click"
	MethodInputType      = "input:type"
	MethodAlreadyInState = "none"
)

// maxToggles bounds how often Toggle cycles a control toward a desired state.
const maxToggles = 3

// live is the per-invocation view of an action target.
type live struct {
	el    uia.Element
	props uia.Properties
	id    model.ElementID
	path  []int
}

func (l live) info(s *Service) model.ElementInfo {
	return describe(l.el, l.props, l.id.Window, l.path, s.topology())
}

// act locates the target, then runs fn on its live element in one dispatch
// invocation. Disabled elements are rejected before fn runs.
func act[T any](ctx context.Context, s *Service, t Target, what string, tr *trace, fn func(a *uia.Arena, l live) (T, error)) (model.ElementInfo, T, error) {
	var zero T
	info, err := s.locate(ctx, t, tr)
	if err != nil {
		return info, zero, err
	}
	id, err := model.ParseElementID(info.ID)
	if err != nil {
		return info, zero, err
	}
	v, err := call(ctx, s, what, func(a *uia.Arena) (T, error) {
		el, path, err := s.resolveNative(a, id, tr)
		if err != nil {
			return zero, err
		}
		p, err := el.Snapshot()
		if err != nil {
			return zero, err
		}
		if !p.Enabled {
			return zero, model.Errorf(model.KindInvalidInput, "%s: element is disabled", what).
				With("element", light(p).Label())
		}
		return fn(a, live{el: el, props: p, id: id, path: path})
	})
	return info, v, err
}

// unsupported reports a missing capability together with what the element
// does support.
func unsupported(what string, p uia.Properties, need model.Capability) error {
	return model.Errorf(model.KindUnsupportedCapability,
		"%s needs the %s capability; %s supports: %s", what, need, light(p).Label(), p.Capabilities).
		With("capabilities", p.Capabilities.Names())
}

// refreshed snapshots the element after an action.
type refreshed struct {
	info   model.ElementInfo
	method string
	focus  bool
}

// ClickOptions configures Click.
type ClickOptions struct {
	Button    input.Button
	Count     int
	Modifiers input.ModifierSet
}

func (o ClickOptions) plain() bool {
	return (o.Button == "" || o.Button == input.ButtonLeft) && o.Count <= 1 && o.Modifiers == 0
}

// Click invokes the target. Plain left clicks use the Invoke pattern when
// available; right, double and modified clicks, and elements without Invoke,
// get a synthetic click at the element's click point.
func (s *Service) Click(ctx context.Context, t Target, opts ClickOptions) *model.AutomationResult {
	tr := s.begin("click")
	r, err := s.click(ctx, t, opts, tr)
	return s.withElement(s.finish(tr, err), r)
}

func (s *Service) click(ctx context.Context, t Target, opts ClickOptions, tr *trace) (model.ElementInfo, error) {
	if err := s.guard(); err != nil {
		return model.ElementInfo{}, err
	}
	info, r, err := act(ctx, s, t, "click", tr, func(_ *uia.Arena, l live) (refreshed, error) {
		if opts.plain() && l.props.Capabilities.Has(model.CapInvoke) {
			if err := l.el.Invoke(); err != nil {
				return refreshed{}, err
			}
			return refreshed{info: l.info(s), method: MethodInvoke}, nil
		}
		if l.props.Offscreen || l.props.Bounds.Empty() {
			return refreshed{}, model.Errorf(model.KindInvalidInput,
				"element has no on-screen click point; scroll it into view first").
				With("element", light(l.props).Label())
		}
		return refreshed{info: l.info(s), method: MethodInputClick}, nil
	})
	if err != nil {
		return info, err
	}
	tr.method = r.method
	if r.method != MethodInputClick {
		return r.info, nil
	}
	if err := s.checkIntegrity(ctx, windowOf(r.info)); err != nil {
		return r.info, err
	}
	p := r.info.ClickPoint
	err = s.input.MouseClick(ctx, &p, input.ClickOptions{Button: opts.Button, Count: opts.Count, Modifiers: opts.Modifiers})
	return r.info, err
}

// Toggle flips a toggle control. With a desired state it toggles until the
// state is reached, at most three times.
func (s *Service) Toggle(ctx context.Context, t Target, desired model.ToggleState) *model.AutomationResult {
	tr := s.begin("toggle")
	var r model.ElementInfo
	err := s.guard()
	if err == nil {
		switch desired {
		case "", model.ToggleOn, model.ToggleOff, model.ToggleIndeterminate:
		default:
			err = model.Errorf(model.KindInvalidInput, "unknown toggle state %q (use on, off or indeterminate)", desired)
		}
	}
	if err == nil {
		var rf refreshed
		_, rf, err = act(ctx, s, t, "toggle", tr, func(_ *uia.Arena, l live) (refreshed, error) {
			if !l.props.Capabilities.Has(model.CapToggle) {
				return refreshed{}, unsupported("toggle", l.props, model.CapToggle)
			}
			state, err := l.el.ToggleState()
			if err != nil {
				return refreshed{}, err
			}
			if desired == "" {
				if err := l.el.Toggle(); err != nil {
					return refreshed{}, err
				}
				return refreshed{info: l.info(s), method: MethodToggle}, nil
			}
			if state == desired {
				return refreshed{info: l.info(s), method: MethodAlreadyInState}, nil
			}
			for range maxToggles {
				if err := l.el.Toggle(); err != nil {
					return refreshed{}, err
				}
				if state, err = l.el.ToggleState(); err != nil {
					return refreshed{}, err
				}
				if state == desired {
					return refreshed{info: l.info(s), method: MethodToggle}, nil
				}
			}
			return refreshed{}, model.Errorf(model.KindUnsupportedCapability,
				"toggle did not reach %s after %d toggles (now %s)", desired, maxToggles, state)
		})
		r, tr.method = rf.info, rf.method
	}
	return s.withElement(s.finish(tr, err), r)
}

// TypeOptions configures Type.
type TypeOptions struct {
	// Append keeps the current value and adds text at the end.
	Append bool
	// Clear selects and deletes existing content before synthetic typing.
	// The Value pattern always replaces unless Append is set.
	Clear bool
}

// Type enters text into the target. It sets the Value pattern when the
// element has one; otherwise it focuses the element (clicking it when focus
// cannot be set) and types synthetically. Synthetic typing reports how many
// characters went out before a failure; nothing is rolled back.
func (s *Service) Type(ctx context.Context, t Target, text string, opts TypeOptions) *model.AutomationResult {
	tr := s.begin("type")
	r, sent, err := s.typeInto(ctx, t, text, opts, tr)
	res := s.withElement(s.finish(tr, err), r)
	if err != nil && tr.method == MethodInputType {
		res.PartialCount = sent
	}
	return res
}

func (s *Service) typeInto(ctx context.Context, t Target, text string, opts TypeOptions, tr *trace) (model.ElementInfo, int, error) {
	if err := s.guard(); err != nil {
		return model.ElementInfo{}, 0, err
	}
	info, r, err := act(ctx, s, t, "type", tr, func(_ *uia.Arena, l live) (refreshed, error) {
		if l.props.Capabilities.Has(model.CapValue) {
			v := text
			if opts.Append {
				cur, err := l.el.Value()
				if err != nil {
					return refreshed{}, err
				}
				v = cur + text
			}
			err := l.el.SetValue(v)
			if err == nil {
				return refreshed{info: l.info(s), method: MethodValue}, nil
			}
			var me *model.Error
			if errors.Is(err, uia.ErrElementNotAvailable) || errors.As(err, &me) {
				return refreshed{}, err
			}
			s.log.Debug().Err(err).Msg("value pattern refused text; typing instead")
		}
		focusErr := l.el.SetFocus()
		return refreshed{info: l.info(s), method: MethodInputType, focus: focusErr == nil}, nil
	})
	if err != nil {
		return info, 0, err
	}
	tr.method = r.method
	if r.method != MethodInputType {
		return r.info, len([]rune(text)), nil
	}
	if err := s.checkIntegrity(ctx, windowOf(r.info)); err != nil {
		return r.info, 0, err
	}
	if !r.focus {
		if r.info.Offscreen || r.info.Bounds.Empty() {
			return r.info, 0, model.Errorf(model.KindInvalidInput, "cannot focus element to type into it").
				With("element", r.info.Label())
		}
		p := r.info.ClickPoint
		if err := s.input.MouseClick(ctx, &p, input.ClickOptions{}); err != nil {
			return r.info, 0, err
		}
	}
	if opts.Clear && !opts.Append {
		if err := s.input.Press(ctx, "ctrl+a"); err != nil {
			return r.info, 0, err
		}
		if err := s.input.Press(ctx, "delete"); err != nil {
			return r.info, 0, err
		}
	}
	n, err := s.input.TypeText(ctx, text)
	return r.info, n, err
}

// Select selects the target item. When the target is a selection container
// and item is set, the named child is selected instead, expanding the
// container first when it can expand (combo boxes).
func (s *Service) Select(ctx context.Context, t Target, item string) *model.AutomationResult {
	tr := s.begin("select")
	var r model.ElementInfo
	err := s.guard()
	if err == nil {
		var rf refreshed
		_, rf, err = act(ctx, s, t, "select", tr, func(a *uia.Arena, l live) (refreshed, error) {
			caps := l.props.Capabilities
			if item == "" || strings.EqualFold(item, l.props.Name) {
				if !caps.Has(model.CapSelectionItem) {
					return refreshed{}, unsupported("select", l.props, model.CapSelectionItem)
				}
				if err := l.el.Select(); err != nil {
					return refreshed{}, err
				}
				return refreshed{info: l.info(s), method: MethodSelect}, nil
			}
			if !caps.Has(model.CapSelection) && !caps.Has(model.CapExpandCollapse) {
				return refreshed{}, unsupported(fmt.Sprintf("select %q", item), l.props, model.CapSelection)
			}
			if caps.Has(model.CapExpandCollapse) {
				if err := l.el.Expand(); err != nil {
					return refreshed{}, err
				}
			}
			var hit *node
			err := walk(a, l.el, l.path, 3, tr, func(n node) bool {
				if n.props.Capabilities.Has(model.CapSelectionItem) && strings.EqualFold(n.props.Name, item) {
					hit = &n
					return false
				}
				return true
			})
			if err != nil {
				return refreshed{}, err
			}
			if hit == nil {
				return refreshed{}, model.Errorf(model.KindNotFound, "no item %q in %s", item, light(l.props).Label()).
					With("hint", "use scroll_find for virtualized lists")
			}
			if err := hit.el.Select(); err != nil {
				return refreshed{}, err
			}
			p, err := hit.el.Snapshot()
			if err != nil {
				return refreshed{}, err
			}
			return refreshed{info: describe(hit.el, p, l.id.Window, hit.path, s.topology()), method: MethodSelect}, nil
		})
		r, tr.method = rf.info, rf.method
	}
	return s.withElement(s.finish(tr, err), r)
}

// Expand expands the target.
func (s *Service) Expand(ctx context.Context, t Target) *model.AutomationResult {
	return s.expandCollapse(ctx, t, true)
}

// Collapse collapses the target.
func (s *Service) Collapse(ctx context.Context, t Target) *model.AutomationResult {
	return s.expandCollapse(ctx, t, false)
}

func (s *Service) expandCollapse(ctx context.Context, t Target, expand bool) *model.AutomationResult {
	op, fn := "collapse", uia.Element.Collapse
	if expand {
		op, fn = "expand", uia.Element.Expand
	}
	tr := s.begin(op)
	var r model.ElementInfo
	err := s.guard()
	if err == nil {
		var rf refreshed
		_, rf, err = act(ctx, s, t, op, tr, func(_ *uia.Arena, l live) (refreshed, error) {
			if !l.props.Capabilities.Has(model.CapExpandCollapse) {
				return refreshed{}, unsupported(op, l.props, model.CapExpandCollapse)
			}
			if err := fn(l.el); err != nil {
				return refreshed{}, err
			}
			return refreshed{info: l.info(s), method: MethodExpand}, nil
		})
		r, tr.method = rf.info, rf.method
	}
	return s.withElement(s.finish(tr, err), r)
}

// Focus gives the target keyboard focus.
func (s *Service) Focus(ctx context.Context, t Target) *model.AutomationResult {
	tr := s.begin("focus")
	var r model.ElementInfo
	err := s.guard()
	if err == nil {
		var rf refreshed
		_, rf, err = act(ctx, s, t, "focus", tr, func(_ *uia.Arena, l live) (refreshed, error) {
			if err := l.el.SetFocus(); err != nil {
				return refreshed{}, err
			}
			p, err := l.el.Snapshot()
			if err != nil {
				return refreshed{}, err
			}
			l.props = p
			return refreshed{info: l.info(s), method: MethodFocus}, nil
		})
		r, tr.method = rf.info, rf.method
	}
	return s.withElement(s.finish(tr, err), r)
}

// ScrollIntoView brings the target on screen: ScrollItem on the element
// itself, else paging its nearest scrollable ancestor until the element's
// bounds fall inside the ancestor's.
func (s *Service) ScrollIntoView(ctx context.Context, t Target) *model.AutomationResult {
	tr := s.begin("scroll_into_view")
	var r model.ElementInfo
	err := s.guard()
	if err == nil {
		r, err = s.scrollIntoView(ctx, t, tr)
	}
	return s.withElement(s.finish(tr, err), r)
}

func (s *Service) scrollIntoView(ctx context.Context, t Target, tr *trace) (model.ElementInfo, error) {
	type step struct {
		info    model.ElementInfo
		visible bool
		moved   bool
	}
	try := func(first bool) (step, error) {
		_, st, err := act(ctx, s, t, "scroll into view", tr, func(a *uia.Arena, l live) (step, error) {
			if first && l.props.Capabilities.Has(model.CapScrollItem) {
				if err := l.el.ScrollIntoView(); err != nil {
					return step{}, err
				}
				tr.method = MethodScrollItem
				p, err := l.el.Snapshot()
				if err != nil {
					return step{}, err
				}
				l.props = p
				return step{info: l.info(s), visible: true}, nil
			}
			cur := l.el
			for range maxPathDepth {
				parent, err := a.Track(cur.Parent())
				if err != nil {
					return step{}, err
				}
				if parent == nil {
					return step{}, unsupported("scroll into view", l.props, model.CapScrollItem)
				}
				pp, err := parent.Snapshot()
				if err != nil {
					return step{}, err
				}
				if !pp.Capabilities.Has(model.CapScroll) {
					cur = parent
					continue
				}
				tr.method = MethodScroll
				if !l.props.Offscreen && !l.props.Bounds.Empty() && inside(l.props.Bounds, pp.Bounds) {
					return step{info: l.info(s), visible: true}, nil
				}
				before, err := parent.ScrollPercent()
				if err != nil {
					return step{}, err
				}
				if err := parent.ScrollPage(uia.ScrollDown); err != nil {
					return step{}, err
				}
				after, err := parent.ScrollPercent()
				if err != nil {
					return step{}, err
				}
				return step{info: l.info(s), moved: after.Vertical != before.Vertical}, nil
			}
			return step{}, unsupported("scroll into view", l.props, model.CapScrollItem)
		})
		return st, err
	}
	for page := 0; page <= s.opts.ScrollMaxPages; page++ {
		st, err := try(page == 0)
		if err != nil || st.visible {
			return st.info, err
		}
		if !st.moved {
			return st.info, model.Errorf(model.KindScrollExhausted, "reached the end of the scroll range before %s became visible", st.info.Label())
		}
		if err := s.clock.Sleep(ctx, s.opts.ScrollSettle); err != nil {
			return st.info, model.Wrap(model.KindCancelled, err, "scroll into view cancelled")
		}
	}
	return model.ElementInfo{}, model.Errorf(model.KindScrollExhausted, "element not visible after %d pages", s.opts.ScrollMaxPages)
}

// windowOf extracts the owning window from a snapshot's id.
func windowOf(info model.ElementInfo) uintptr {
	id, err := model.ParseElementID(info.ID)
	if err != nil {
		return 0
	}
	return id.Window
}

func inside(r, outer model.Rect) bool {
	return r.X >= outer.X && r.Y >= outer.Y &&
		r.X+r.Width <= outer.X+outer.Width && r.Y+r.Height <= outer.Y+outer.Height
}

// withElement attaches the acted-on element to a result.
func (s *Service) withElement(res *model.AutomationResult, info model.ElementInfo) *model.AutomationResult {
	if info.ID != "" {
		res.Element = &info
	}
	return res
}
