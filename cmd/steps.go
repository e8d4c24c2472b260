package cmd

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mj1618/desktop-intent/internal/automation"
	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
)

// Default timeouts for steps that wait.
const (
	defaultWaitTimeout = 10 * time.Second
	maxSleep           = time.Minute
)

// executor runs named steps against one automation service. CLI commands,
// batch steps and MCP tools all go through it.
type executor struct {
	svc *automation.Service
	// defaults fill keys a step leaves unset (window scope from the root
	// flags or the do command).
	defaults params
}

type stepFunc func(ctx context.Context, e *executor, p params) *model.AutomationResult

var stepFuncs = map[string]stepFunc{
	"find":             stepFind,
	"click":            stepClick,
	"type":             stepType,
	"select":           stepSelect,
	"toggle":           stepToggle,
	"expand":           stepExpand,
	"collapse":         stepCollapse,
	"focus":            stepFocus,
	"scroll_into_view": stepScrollIntoView,
	"wait":             stepWait,
	"assert":           stepAssert,
	"read":             stepRead,
	"scroll_find":      stepScrollFind,
	"key":              stepKey,
	"mouse":            stepMouse,
	"windows":          stepWindows,
	"window":           stepWindow,
	"file_save":        stepFileSave,
	"resolve":          stepResolve,
	"sleep":            stepSleep,
}

// stepNames lists the supported step types.
func stepNames() []string {
	names := make([]string, 0, len(stepFuncs))
	for n := range stepFuncs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// run executes one step. Unknown steps and malformed parameters come back
// as failed results with error kind invalid_input.
func (e *executor) run(ctx context.Context, name string, p params) *model.AutomationResult {
	fn, ok := stepFuncs[strings.ReplaceAll(name, "-", "_")]
	if !ok {
		return failed(model.Errorf(model.KindInvalidInput, "unknown step type %q (supported: %s)", name, strings.Join(stepNames(), ", ")))
	}
	merged := params{}
	for k, v := range e.defaults {
		merged[k] = v
	}
	for k, v := range p {
		merged[k] = v
	}
	return fn(ctx, e, merged)
}

// failed builds a result for an error raised before the service was called.
func failed(err error) *model.AutomationResult {
	res := &model.AutomationResult{}
	res.Fail(err)
	return res
}

// scope fills the window of a query from "window_handle", or resolves
// "window" (title) and "process" through the window directory. Without
// either, the foreground window is used.
func (e *executor) scope(ctx context.Context, p params, q *model.ElementQuery) error {
	if q.WindowHandle != 0 || q.ParentID != "" {
		return nil
	}
	spec := platform.WindowSpec{
		Title:   p.str("window", ""),
		Process: p.str("process", ""),
		PID:     p.integer("pid", 0),
	}
	w, err := e.svc.Window(ctx, spec)
	if err != nil {
		return err
	}
	q.WindowHandle = w.Handle
	return nil
}

func (e *executor) scopedQuery(ctx context.Context, p params) (model.ElementQuery, error) {
	q, err := p.query()
	if err != nil {
		return q, err
	}
	return q, e.scope(ctx, p, &q)
}

func (e *executor) target(ctx context.Context, p params) (automation.Target, error) {
	t, err := p.target()
	if err != nil || t.ID != "" {
		return t, err
	}
	return t, e.scope(ctx, p, &t.Query)
}

// hasTarget reports whether p names an element at all.
func hasTarget(p params) bool {
	if p.has("id") {
		return true
	}
	q, err := p.query()
	return err != nil || q.HasFilter()
}

func stepFind(ctx context.Context, e *executor, p params) *model.AutomationResult {
	q, err := e.scopedQuery(ctx, p)
	if err != nil {
		return failed(err)
	}
	if p.boolean("all", false) {
		return e.svc.FindAll(ctx, q)
	}
	return e.svc.Find(ctx, q)
}

func clickOptions(p params) (automation.ClickOptions, error) {
	var opts automation.ClickOptions
	var err error
	if opts.Button, err = input.ParseButton(p.str("button", "left")); err != nil {
		return opts, err
	}
	opts.Count = p.integer("count", 1)
	if p.boolean("double", false) {
		opts.Count = 2
	}
	if opts.Modifiers, err = input.ParseModifiers(p.list("modifiers")); err != nil {
		return opts, err
	}
	return opts, nil
}

func stepClick(ctx context.Context, e *executor, p params) *model.AutomationResult {
	opts, err := clickOptions(p)
	if err != nil {
		return failed(err)
	}
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.Click(ctx, t, opts)
}

// stepType types into a target element, or into whatever has focus when no
// target is given.
func stepType(ctx context.Context, e *executor, p params) *model.AutomationResult {
	if !p.has("text") {
		return failed(model.Errorf(model.KindInvalidInput, "type needs text"))
	}
	text := p.str("text", "")
	if !hasTarget(p) {
		return e.svc.TypeText(ctx, text)
	}
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.Type(ctx, t, text, automation.TypeOptions{
		Append: p.boolean("append", false),
		Clear:  p.boolean("clear", false),
	})
}

func stepSelect(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.Select(ctx, t, p.str("item", ""))
}

func stepToggle(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	state := p.str("state", "")
	if state == "toggle" {
		state = ""
	}
	return e.svc.Toggle(ctx, t, model.ToggleState(state))
}

// stepExpand also collapses when action is "collapse".
func stepExpand(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	switch p.str("action", "expand") {
	case "expand":
		return e.svc.Expand(ctx, t)
	case "collapse":
		return e.svc.Collapse(ctx, t)
	default:
		return failed(model.Errorf(model.KindInvalidInput, "action must be expand or collapse"))
	}
}

func stepCollapse(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.Collapse(ctx, t)
}

func stepFocus(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.Focus(ctx, t)
}

func stepScrollIntoView(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.ScrollIntoView(ctx, t)
}

// stepWait waits for an element to appear, to disappear ("gone") or to
// reach a state. An id without a state only checks that it still resolves.
func stepWait(ctx context.Context, e *executor, p params) *model.AutomationResult {
	return waitFor(ctx, e, p, defaultWaitTimeout)
}

// stepAssert checks a condition once unless a timeout is given.
func stepAssert(ctx context.Context, e *executor, p params) *model.AutomationResult {
	return waitFor(ctx, e, p, 0)
}

func waitFor(ctx context.Context, e *executor, p params, defaultTimeout time.Duration) *model.AutomationResult {
	timeout, err := p.duration("timeout", defaultTimeout)
	if err != nil {
		return failed(err)
	}
	if state := p.str("state", ""); state != "" {
		t, err := e.target(ctx, p)
		if err != nil {
			return failed(err)
		}
		t.Query.Timeout = 0
		cond := automation.StateCondition{State: state, Value: p.str("value", "")}
		return e.svc.WaitForState(ctx, t, cond, timeout)
	}
	if id := p.str("id", ""); id != "" && !p.boolean("gone", false) {
		return e.svc.Resolve(ctx, id)
	}
	q, err := e.scopedQuery(ctx, p)
	if err != nil {
		return failed(err)
	}
	q.Timeout = 0
	if p.boolean("gone", false) {
		return e.svc.WaitForDisappear(ctx, q, timeout)
	}
	return e.svc.WaitFor(ctx, q, timeout)
}

func stepRead(ctx context.Context, e *executor, p params) *model.AutomationResult {
	t, err := e.target(ctx, p)
	if err != nil {
		return failed(err)
	}
	return e.svc.ReadText(ctx, t, automation.TextOptions{
		IncludeChildren: p.boolean("include_children", false),
		MaxDepth:        p.integer("text_depth", 0),
		MaxBytes:        p.integer("max_bytes", 0),
		AllowOCR:        p.boolean("ocr", false),
		Language:        p.str("language", ""),
	})
}

func stepScrollFind(ctx context.Context, e *executor, p params) *model.AutomationResult {
	q, err := p.query()
	if err != nil {
		return failed(err)
	}
	container := p.str("container", "")
	if container == "" {
		if err := e.scope(ctx, p, &q); err != nil {
			return failed(err)
		}
	}
	settle, err := p.duration("settle", 0)
	if err != nil {
		return failed(err)
	}
	q.Timeout = 0
	return e.svc.ScrollSearch(ctx, automation.ScrollSearchRequest{
		Query:     q,
		Container: container,
		MaxPages:  p.integer("max_pages", 0),
		Settle:    settle,
	})
}

// stepKey handles keyboard actions: press (default), down, up, release_all,
// held, sequence and type.
func stepKey(ctx context.Context, e *executor, p params) *model.AutomationResult {
	key := p.str("key", p.str("combo", ""))
	action := p.str("action", "press")
	needKey := func() *model.AutomationResult {
		return failed(model.Errorf(model.KindInvalidInput, "%s needs key", action))
	}
	switch action {
	case "press":
		if key == "" {
			return needKey()
		}
		return e.svc.PressKey(ctx, key)
	case "down":
		if key == "" {
			return needKey()
		}
		return e.svc.KeyDown(ctx, key)
	case "up":
		if key == "" {
			return needKey()
		}
		return e.svc.KeyUp(ctx, key)
	case "release_all", "release-all":
		return e.svc.ReleaseAll(ctx)
	case "held":
		return e.svc.HeldKeys()
	case "type":
		return e.svc.TypeText(ctx, p.str("text", ""))
	case "sequence":
		items, err := sequenceItems(p)
		if err != nil {
			return failed(err)
		}
		return e.svc.Sequence(ctx, items)
	default:
		return failed(model.Errorf(model.KindInvalidInput, "unknown key action %q (use press, down, up, release_all, held, sequence or type)", action))
	}
}

// sequenceItems reads "keys" as a list of combos or of {key, modifiers,
// delay} maps. A "delay" on the step applies to every item.
func sequenceItems(p params) ([]input.SequenceItem, error) {
	delay, err := p.duration("delay", 0)
	if err != nil {
		return nil, err
	}
	raw, _ := p.get("keys")
	var items []input.SequenceItem
	switch l := raw.(type) {
	case []interface{}:
		for i, it := range l {
			switch v := it.(type) {
			case string:
				items = append(items, input.SequenceItem{Key: v, Delay: delay})
			case map[string]interface{}:
				ip := params(v)
				d, err := ip.duration("delay", delay)
				if err != nil {
					return nil, err
				}
				items = append(items, input.SequenceItem{Key: ip.str("key", ""), Modifiers: ip.list("modifiers"), Delay: d})
			default:
				return nil, model.Errorf(model.KindInvalidInput, "keys[%d]: expected a combo or a map", i)
			}
		}
	default:
		for _, k := range p.list("keys") {
			items = append(items, input.SequenceItem{Key: k, Delay: delay})
		}
	}
	if len(items) == 0 {
		return nil, model.Errorf(model.KindInvalidInput, "sequence needs keys")
	}
	return items, nil
}

// stepMouse handles mouse actions: move, click, scroll and drag.
func stepMouse(ctx context.Context, e *executor, p params) *model.AutomationResult {
	at, hasPoint := p.point("")
	var atPtr *model.Point
	if hasPoint {
		atPtr = &at
	}
	switch action := p.str("action", "click"); action {
	case "move":
		if !hasPoint {
			return failed(model.Errorf(model.KindInvalidInput, "move needs x and y"))
		}
		return e.svc.MouseMove(ctx, at)
	case "click":
		opts, err := clickOptions(p)
		if err != nil {
			return failed(err)
		}
		return e.svc.MouseClick(ctx, atPtr, input.ClickOptions{Button: opts.Button, Count: opts.Count, Modifiers: opts.Modifiers})
	case "scroll":
		return e.svc.MouseScroll(ctx, atPtr, p.integer("dx", 0), p.integer("dy", 0))
	case "drag":
		to, ok := p.point("to_")
		if !hasPoint || !ok {
			return failed(model.Errorf(model.KindInvalidInput, "drag needs x, y, to_x and to_y"))
		}
		button, err := input.ParseButton(p.str("button", "left"))
		if err != nil {
			return failed(err)
		}
		return e.svc.MouseDrag(ctx, at, to, input.DragOptions{Button: button, Steps: p.integer("steps", 0)})
	default:
		return failed(model.Errorf(model.KindInvalidInput, "unknown mouse action %q (use move, click, scroll or drag)", action))
	}
}

func stepWindows(ctx context.Context, e *executor, p params) *model.AutomationResult {
	return e.svc.Windows(ctx, platform.ListOptions{
		Title:   p.str("title", p.str("window", "")),
		Process: p.str("process", ""),
		PID:     p.integer("pid", 0),
	})
}

// windowSpec reads the selector of a window step: window_handle, then a
// title substring ("title" or "window"), process and pid.
func windowSpec(p params) platform.WindowSpec {
	return platform.WindowSpec{
		Handle:  uintptr(p.integer("window_handle", 0)),
		Title:   p.str("title", p.str("window", "")),
		Process: p.str("process", ""),
		PID:     p.integer("pid", 0),
	}
}

// stepWindow manages top-level windows. Besides the actions of
// automation.WindowActions it takes list, find, foreground and wait.
func stepWindow(ctx context.Context, e *executor, p params) *model.AutomationResult {
	action := strings.ReplaceAll(p.str("action", ""), "-", "_")
	switch action {
	case "":
		return failed(model.Errorf(model.KindInvalidInput, "window needs an action (list, find, foreground, wait, %s)",
			strings.Join(automation.WindowActions, ", ")))
	case "list":
		return stepWindows(ctx, e, p)
	case "find":
		return e.svc.FindWindow(ctx, windowSpec(p))
	case "foreground", "get_foreground":
		return e.svc.Foreground(ctx)
	case "wait", "wait_for":
		timeout, err := p.duration("timeout", defaultWaitTimeout)
		if err != nil {
			return failed(err)
		}
		return e.svc.WaitForWindow(ctx, windowSpec(p), p.boolean("gone", false), timeout)
	}
	timeout, err := p.duration("timeout", 0)
	if err != nil {
		return failed(err)
	}
	return e.svc.ManageWindow(ctx, windowSpec(p), action, automation.WindowOptions{
		X:       p.integer("x", 0),
		Y:       p.integer("y", 0),
		Width:   p.integer("width", 0),
		Height:  p.integer("height", 0),
		Discard: p.boolean("discard", false),
		Timeout: timeout,
	})
}

func stepFileSave(ctx context.Context, e *executor, p params) *model.AutomationResult {
	timeout, err := p.duration("timeout", 0)
	if err != nil {
		return failed(err)
	}
	return e.svc.SaveFile(ctx, windowSpec(p), automation.SaveOptions{
		Path:      p.str("path", ""),
		Shortcut:  p.str("shortcut", ""),
		Overwrite: p.boolean("overwrite", false),
		Timeout:   timeout,
	})
}

func stepResolve(ctx context.Context, e *executor, p params) *model.AutomationResult {
	id := p.str("id", "")
	if id == "" {
		return failed(model.Errorf(model.KindInvalidInput, "resolve needs id"))
	}
	return e.svc.Resolve(ctx, id)
}

func stepSleep(ctx context.Context, _ *executor, p params) *model.AutomationResult {
	d := time.Duration(p.integer("ms", 0)) * time.Millisecond
	if d <= 0 || d > maxSleep {
		return failed(model.Errorf(model.KindInvalidInput, "ms must be between 1 and %d", maxSleep.Milliseconds()))
	}
	start := time.Now()
	if err := input.Sleep(ctx, d); err != nil {
		return failed(model.Wrap(model.KindCancelled, err, "sleep"))
	}
	res := &model.AutomationResult{Success: true, Message: fmt.Sprintf("slept %s", d)}
	res.Diagnostics.Duration = time.Since(start)
	return res
}
