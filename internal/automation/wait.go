package automation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// poll runs check immediately, then again after each backoff sleep until it
// reports done, fails, or the timeout elapses. Sleeps double from
// PollInitial up to PollMax and never run past the deadline. Each check is
// expected to be one dispatch invocation; sleeping happens here, off the
// dispatch thread.
func (s *Service) poll(ctx context.Context, timeout time.Duration, tr *trace, check func() (bool, error)) error {
	start := s.clock.Now()
	deadline := start.Add(timeout)
	delay := s.opts.PollInitial
	for {
		tr.attempts++
		done, err := check()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		now := s.clock.Now()
		if !now.Before(deadline) {
			elapsed := now.Sub(start)
			return model.Errorf(model.KindTimeout, "gave up after %s", elapsed.Round(time.Millisecond)).
				With("elapsed", elapsed.String()).
				With("attempts", tr.attempts).
				With("last_candidates", tr.lastCandidates)
		}
		if err := s.clock.Sleep(ctx, min(delay, deadline.Sub(now))); err != nil {
			return model.Wrap(model.KindCancelled, err, "wait cancelled after %d attempts", tr.attempts)
		}
		delay = min(delay*2, s.opts.PollMax)
	}
}

// waiting reports whether err means "not there yet" while polling.
func waiting(err error) bool {
	return errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrWindowNotFound)
}

// scopeGone reports whether err says the ParentID scope of q is no longer
// in the tree.
func scopeGone(q model.ElementQuery, err error) bool {
	return q.ParentID != "" && errors.Is(err, model.ErrStaleReference)
}

// waitFind polls a query until it matches.
func (s *Service) waitFind(ctx context.Context, q model.ElementQuery, m *model.Matcher, strict bool, timeout time.Duration, tr *trace) ([]model.ElementInfo, error) {
	var out []model.ElementInfo
	err := s.poll(ctx, timeout, tr, func() (bool, error) {
		matches, err := s.scan(ctx, q, m, tr)
		if waiting(err) {
			tr.lastCandidates = 0
			return false, nil
		}
		if err != nil {
			return false, err
		}
		out, err = pick(q, matches, strict, tr)
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return err == nil, err
	})
	if errors.Is(err, model.ErrTimeout) {
		var me *model.Error
		errors.As(err, &me)
		me.Message = fmt.Sprintf("no element matched %s; %s", q.Describe(), me.Message)
	}
	return out, err
}

// WaitFor waits up to timeout for q to match. Zero timeout checks once.
func (s *Service) WaitFor(ctx context.Context, q model.ElementQuery, timeout time.Duration) *model.AutomationResult {
	tr := s.begin("wait_for")
	q.Timeout = 0
	tr.forQuery(q)
	list, err := s.waitForQuery(ctx, q, timeout, tr)
	res := s.finish(tr, err)
	if err == nil {
		res.Element = &list[0]
		res.Elements = list
	}
	return res
}

func (s *Service) waitForQuery(ctx context.Context, q model.ElementQuery, timeout time.Duration, tr *trace) ([]model.ElementInfo, error) {
	m, err := q.Validate()
	if err != nil {
		return nil, err
	}
	if timeout < 0 {
		return nil, model.Errorf(model.KindInvalidInput, "timeout must not be negative")
	}
	return s.waitFind(ctx, q, m, false, timeout, tr)
}

// WaitForDisappear waits until q no longer matches anything. A ParentID
// scope that has itself left the tree counts as disappeared.
func (s *Service) WaitForDisappear(ctx context.Context, q model.ElementQuery, timeout time.Duration) *model.AutomationResult {
	tr := s.begin("wait_for_disappear")
	q.Timeout = 0
	tr.forQuery(q)
	err := func() error {
		m, err := q.Validate()
		if err != nil {
			return err
		}
		err = s.poll(ctx, timeout, tr, func() (bool, error) {
			matches, err := s.scan(ctx, q, m, tr)
			if waiting(err) || scopeGone(q, err) {
				return true, nil
			}
			if err != nil {
				return false, err
			}
			_, err = pick(q, matches, false, tr)
			return errors.Is(err, model.ErrNotFound), nil
		})
		if errors.Is(err, model.ErrTimeout) {
			var me *model.Error
			errors.As(err, &me)
			me.Message = fmt.Sprintf("%s still present; %s", q.Describe(), me.Message)
		}
		return err
	}()
	return s.finish(tr, err)
}

// StateCondition is a predicate WaitForState polls for.
type StateCondition struct {
	State string `yaml:"state"           json:"state"`
	Value string `yaml:"value,omitempty" json:"value,omitempty"` // for value_equals
}

// States lists the conditions WaitForState understands.
var States = []string{
	"enabled", "disabled", "visible", "offscreen", "focused",
	"toggled_on", "toggled_off", "indeterminate",
	"expanded", "collapsed", "value_equals",
}

func (c StateCondition) predicate() (func(model.ElementInfo) bool, error) {
	switch strings.ToLower(strings.TrimSpace(c.State)) {
	case "enabled":
		return func(e model.ElementInfo) bool { return e.Enabled }, nil
	case "disabled":
		return func(e model.ElementInfo) bool { return !e.Enabled }, nil
	case "visible":
		return func(e model.ElementInfo) bool { return !e.Offscreen && !e.Bounds.Empty() }, nil
	case "offscreen", "hidden":
		return func(e model.ElementInfo) bool { return e.Offscreen || e.Bounds.Empty() }, nil
	case "focused":
		return func(e model.ElementInfo) bool { return e.Focused }, nil
	case "toggled_on", "checked", "on":
		return func(e model.ElementInfo) bool { return e.ToggleState == model.ToggleOn }, nil
	case "toggled_off", "unchecked", "off":
		return func(e model.ElementInfo) bool { return e.ToggleState == model.ToggleOff }, nil
	case "indeterminate":
		return func(e model.ElementInfo) bool { return e.ToggleState == model.ToggleIndeterminate }, nil
	case "expanded":
		return func(e model.ElementInfo) bool { return e.ExpandState == model.ExpandExpanded }, nil
	case "collapsed":
		return func(e model.ElementInfo) bool { return e.ExpandState == model.ExpandCollapsed }, nil
	case "value_equals", "value":
		want := c.Value
		return func(e model.ElementInfo) bool { return e.Value == want }, nil
	}
	return nil, model.Errorf(model.KindInvalidInput, "unknown state %q (use one of %s)", c.State, strings.Join(States, ", "))
}

// WaitForState resolves the target once, then polls its state until cond
// holds. The element going stale while polling fails the wait.
func (s *Service) WaitForState(ctx context.Context, t Target, cond StateCondition, timeout time.Duration) *model.AutomationResult {
	tr := s.begin("wait_for_state")
	var last model.ElementInfo
	err := func() error {
		pred, err := cond.predicate()
		if err != nil {
			return err
		}
		if timeout < 0 {
			return model.Errorf(model.KindInvalidInput, "timeout must not be negative")
		}
		info, err := s.locate(ctx, t, tr)
		if err != nil {
			return err
		}
		id, err := model.ParseElementID(info.ID)
		if err != nil {
			return err
		}
		top := s.topology()
		attempts := tr.attempts
		tr.attempts = 0
		err = s.poll(ctx, timeout, tr, func() (bool, error) {
			cur, err := call(ctx, s, "read state", func(a *uia.Arena) (model.ElementInfo, error) {
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
			if err != nil {
				return false, err
			}
			last = cur
			return pred(cur), nil
		})
		tr.attempts += attempts
		if errors.Is(err, model.ErrTimeout) {
			var me *model.Error
			errors.As(err, &me)
			me.Message = fmt.Sprintf("%s never became %s; %s", id.Describe(), cond.State, me.Message)
		}
		return err
	}()
	res := s.finish(tr, err)
	if last.ID != "" {
		res.Element = &last
	}
	return res
}
