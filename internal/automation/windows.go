package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/uia"
)

// Window management actions.
const (
	WindowActivate        = "activate"
	WindowMinimize        = "minimize"
	WindowMaximize        = "maximize"
	WindowRestore         = "restore"
	WindowClose           = "close"
	WindowMove            = "move"
	WindowResize          = "resize"
	WindowMoveAndActivate = "move_and_activate"
)

// WindowActions lists every action ManageWindow accepts.
var WindowActions = []string{
	WindowActivate, WindowMinimize, WindowMaximize, WindowRestore,
	WindowClose, WindowMove, WindowResize, WindowMoveAndActivate,
}

// Defaults for window management.
const (
	DefaultActivateTimeout    = time.Second
	DefaultWindowCloseTimeout = 5 * time.Second
)

// MethodWindow and MethodTransform are reported for window actions.
const (
	MethodWindow    = "pattern:Window"
	MethodTransform = "pattern:Transform"
)

// discardPattern matches the button of a save prompt that closes without
// saving.
const discardPattern = `(?i)^(don['’]?t save|no)$`

// WindowOptions carries the arguments of a window action.
type WindowOptions struct {
	X, Y          int
	Width, Height int
	// Discard answers a save prompt raised by close with "Don't Save".
	Discard bool
	// Timeout bounds how long close waits for the window to go away.
	Timeout time.Duration
}

// Window resolves a window selector to one top-level window.
func (s *Service) Window(ctx context.Context, spec platform.WindowSpec) (model.WindowInfo, error) {
	if s.prov.Windows == nil {
		return model.WindowInfo{}, model.Errorf(model.KindInternalFault, "%s backend cannot enumerate windows", s.prov.Name)
	}
	return s.prov.Windows.Resolve(ctx, spec)
}

// Windows lists visible top-level windows.
func (s *Service) Windows(ctx context.Context, opts platform.ListOptions) *model.AutomationResult {
	tr := s.begin("list_windows")
	var (
		wins []model.WindowInfo
		err  error
	)
	if s.prov.Windows == nil {
		err = model.Errorf(model.KindInternalFault, "%s backend cannot enumerate windows", s.prov.Name)
	} else {
		wins, err = s.prov.Windows.List(ctx, opts)
	}
	res := s.finish(tr, err)
	res.Windows = wins
	return res
}

// FindWindow resolves spec to one window without waiting.
func (s *Service) FindWindow(ctx context.Context, spec platform.WindowSpec) *model.AutomationResult {
	tr := s.begin("find_window")
	w, err := s.Window(ctx, spec)
	tr.window = w.Handle
	res := s.finish(tr, err)
	if err == nil {
		res.Windows = []model.WindowInfo{w}
	}
	return res
}

// Foreground reports the window that currently has the foreground.
func (s *Service) Foreground(ctx context.Context) *model.AutomationResult {
	tr := s.begin("get_foreground")
	w, err := s.Window(ctx, platform.WindowSpec{})
	tr.window = w.Handle
	res := s.finish(tr, err)
	if err == nil {
		res.Windows = []model.WindowInfo{w}
	}
	return res
}

// ManageWindow applies action to the window spec selects. Successful results
// carry the window as it is afterwards; close reports it as it was.
func (s *Service) ManageWindow(ctx context.Context, spec platform.WindowSpec, action string, opts WindowOptions) *model.AutomationResult {
	tr := s.begin("window_" + action)
	var w model.WindowInfo
	err := func() error {
		if err := opts.validate(action); err != nil {
			return err
		}
		if err := s.guard(); err != nil {
			return err
		}
		before, err := s.Window(ctx, spec)
		if err != nil {
			return err
		}
		hwnd := before.Handle
		tr.window = hwnd
		if err := s.checkIntegrity(ctx, hwnd); err != nil {
			return err
		}
		switch action {
		case WindowActivate:
			err = s.activate(ctx, hwnd, tr)
		case WindowMinimize:
			err = s.setWindowState(ctx, hwnd, model.WindowMinimized, tr)
		case WindowMaximize:
			err = s.setWindowState(ctx, hwnd, model.WindowMaximized, tr)
		case WindowRestore:
			err = s.setWindowState(ctx, hwnd, model.WindowNormal, tr)
		case WindowClose:
			w = before
			return s.closeWindow(ctx, before, opts, tr)
		case WindowMove:
			err = s.transform(ctx, hwnd, "move", tr, func(root uia.Element) error { return root.Move(opts.X, opts.Y) })
		case WindowResize:
			err = s.transform(ctx, hwnd, "resize", tr, func(root uia.Element) error { return root.Resize(opts.Width, opts.Height) })
		case WindowMoveAndActivate:
			err = s.transform(ctx, hwnd, "move", tr, func(root uia.Element) error { return root.Move(opts.X, opts.Y) })
			if err == nil {
				err = s.activate(ctx, hwnd, tr)
			}
		}
		if err != nil {
			return err
		}
		w, err = s.Window(ctx, platform.WindowSpec{Handle: hwnd})
		return err
	}()
	res := s.finish(tr, err)
	if w.Handle != 0 {
		res.Windows = []model.WindowInfo{w}
	}
	return res
}

func (o WindowOptions) validate(action string) error {
	switch action {
	case WindowActivate, WindowMinimize, WindowMaximize, WindowRestore, WindowMove, WindowMoveAndActivate:
	case WindowResize:
		if o.Width <= 0 || o.Height <= 0 {
			return model.Errorf(model.KindInvalidInput, "resize needs a positive width and height (got %dx%d)", o.Width, o.Height)
		}
	case WindowClose:
		if o.Timeout < 0 {
			return model.Errorf(model.KindInvalidInput, "timeout must not be negative")
		}
	default:
		return model.Errorf(model.KindInvalidInput, "unknown window action %q", action).
			With("actions", WindowActions)
	}
	return nil
}

// onWindow runs fn on the root of hwnd in one dispatch invocation after
// checking that the root supports need.
func (s *Service) onWindow(ctx context.Context, hwnd uintptr, what string, need model.Capability, fn func(root uia.Element) error) error {
	_, err := call(ctx, s, what, func(a *uia.Arena) (struct{}, error) {
		root, err := s.windowRoot(a, hwnd)
		if err != nil {
			return struct{}{}, err
		}
		p, err := root.Snapshot()
		if err != nil {
			return struct{}{}, err
		}
		if !p.Capabilities.Has(need) {
			return struct{}{}, unsupported(what, p, need)
		}
		return struct{}{}, fn(root)
	})
	return err
}

func (s *Service) setWindowState(ctx context.Context, hwnd uintptr, state model.WindowState, tr *trace) error {
	tr.method = MethodWindow
	return s.onWindow(ctx, hwnd, string(state), model.CapWindow, func(root uia.Element) error {
		return root.SetWindowState(state)
	})
}

func (s *Service) transform(ctx context.Context, hwnd uintptr, what string, tr *trace, fn func(root uia.Element) error) error {
	tr.method = MethodTransform
	return s.onWindow(ctx, hwnd, what, model.CapTransform, fn)
}

// activate restores a minimized window, focuses it and waits briefly for it
// to become the foreground window. Focus-steal prevention can refuse; that
// surfaces as a timeout.
func (s *Service) activate(ctx context.Context, hwnd uintptr, tr *trace) error {
	tr.method = MethodFocus
	_, err := call(ctx, s, "activate", func(a *uia.Arena) (struct{}, error) {
		root, err := s.windowRoot(a, hwnd)
		if err != nil {
			return struct{}{}, err
		}
		p, err := root.Snapshot()
		if err != nil {
			return struct{}{}, err
		}
		if p.Capabilities.Has(model.CapWindow) {
			st, err := root.WindowState()
			if err != nil {
				return struct{}{}, err
			}
			if st == model.WindowMinimized {
				if err := root.SetWindowState(model.WindowNormal); err != nil {
					return struct{}{}, err
				}
			}
		}
		return struct{}{}, root.SetFocus()
	})
	if err != nil {
		return err
	}
	err = s.poll(ctx, DefaultActivateTimeout, tr, func() (bool, error) {
		w, err := s.Window(ctx, platform.WindowSpec{Handle: hwnd})
		if err != nil {
			return false, err
		}
		return w.Foreground, nil
	})
	if errors.Is(err, model.ErrTimeout) {
		var me *model.Error
		errors.As(err, &me)
		me.Message = fmt.Sprintf("window %#x did not come to the foreground; %s", hwnd, me.Message)
	}
	return err
}

// closeWindow asks the window to close and waits until it is gone. With
// Discard set, a save prompt in the window or another window of the same
// process is answered with "Don't Save".
func (s *Service) closeWindow(ctx context.Context, w model.WindowInfo, opts WindowOptions, tr *trace) error {
	tr.method = MethodWindow
	if err := s.onWindow(ctx, w.Handle, "close", model.CapWindow, func(root uia.Element) error {
		return root.CloseWindow()
	}); err != nil {
		return err
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = DefaultWindowCloseTimeout
	}
	err := s.poll(ctx, timeout, tr, func() (bool, error) {
		_, err := s.Window(ctx, platform.WindowSpec{Handle: w.Handle})
		if errors.Is(err, model.ErrWindowNotFound) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if opts.Discard {
			s.discardPrompt(ctx, w)
		}
		return false, nil
	})
	if errors.Is(err, model.ErrTimeout) {
		var me *model.Error
		errors.As(err, &me)
		me.Message = fmt.Sprintf("window %q is still open and may be waiting on a save prompt (close with discard to dismiss it); %s", w.Title, me.Message)
	}
	return err
}

// discardPrompt clicks the first "Don't Save" button found in w or another
// window of its process. Failures are logged; the caller keeps polling.
func (s *Service) discardPrompt(ctx context.Context, w model.WindowInfo) {
	handles := []uintptr{w.Handle}
	if w.PID != 0 && s.prov.Windows != nil {
		if all, err := s.prov.Windows.List(ctx, platform.ListOptions{PID: w.PID}); err == nil {
			for _, o := range all {
				if o.Handle != w.Handle {
					handles = append(handles, o.Handle)
				}
			}
		}
	}
	for _, h := range handles {
		q := model.ElementQuery{WindowHandle: h, ControlType: "Button", NamePattern: discardPattern, FoundIndex: 1}
		tr := s.begin("discard")
		_, err := s.click(ctx, Target{Query: q}, ClickOptions{}, tr)
		if err == nil {
			s.log.Debug().Uint64("window", uint64(h)).Msg("dismissed save prompt")
			return
		}
		if !waiting(err) {
			s.log.Debug().Err(err).Msg("discard click failed")
		}
	}
}

// WaitForWindow waits until a window matching spec exists, or with gone set,
// until none does.
func (s *Service) WaitForWindow(ctx context.Context, spec platform.WindowSpec, gone bool, timeout time.Duration) *model.AutomationResult {
	op := "wait_for_window"
	if gone {
		op = "wait_for_window_gone"
	}
	tr := s.begin(op)
	var w model.WindowInfo
	err := func() error {
		if spec.IsZero() {
			return model.Errorf(model.KindInvalidInput, "waiting for a window needs a handle, title, process or pid")
		}
		if timeout < 0 {
			return model.Errorf(model.KindInvalidInput, "timeout must not be negative")
		}
		err := s.poll(ctx, timeout, tr, func() (bool, error) {
			got, err := s.Window(ctx, spec)
			switch {
			case errors.Is(err, model.ErrWindowNotFound):
				return gone, nil
			case errors.Is(err, model.ErrMultipleMatches):
				return false, nil
			case err != nil:
				return false, err
			}
			w = got
			return !gone, nil
		})
		if errors.Is(err, model.ErrTimeout) {
			var me *model.Error
			errors.As(err, &me)
			verb := "appear"
			if gone {
				verb = "close"
			}
			me.Message = fmt.Sprintf("no window matching %s did %s; %s", spec, verb, me.Message)
		}
		return err
	}()
	tr.window = w.Handle
	res := s.finish(tr, err)
	if err == nil && !gone {
		res.Windows = []model.WindowInfo{w}
	}
	return res
}
