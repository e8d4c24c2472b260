package automation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
)

// Defaults for the save dialog flow.
const (
	DefaultSaveShortcut = "ctrl+shift+s"
	DefaultSaveTimeout  = 10 * time.Second
)

// Common file dialog identities.
const (
	dialogClass    = "#32770"
	fileNameEditID = "1001"
	okButtonID     = "1"
	cancelButtonID = "2"
)

// SaveOptions configures SaveFile.
type SaveOptions struct {
	// Path is typed into the dialog's file name field as given.
	Path string
	// Shortcut opens the dialog when none is showing.
	Shortcut string
	// Overwrite confirms replacing an existing file; without it the dialog
	// is cancelled and the call fails.
	Overwrite bool
	// Timeout bounds each wait: the dialog appearing and the dialog
	// closing.
	Timeout time.Duration
}

func (o *SaveOptions) setDefaults() {
	if o.Shortcut == "" {
		o.Shortcut = DefaultSaveShortcut
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultSaveTimeout
	}
}

// SaveFile drives the common Save As dialog of the window spec selects: it
// opens the dialog with the shortcut when it is not already showing, enters
// the path, presses Save, answers the overwrite prompt and waits for the
// dialog to close.
func (s *Service) SaveFile(ctx context.Context, spec platform.WindowSpec, opts SaveOptions) *model.AutomationResult {
	tr := s.begin("file_save")
	opts.setDefaults()
	err := s.saveFile(ctx, spec, opts, tr)
	res := s.finish(tr, err)
	if err == nil {
		res.Details = map[string]any{"path": opts.Path}
	}
	return res
}

func (s *Service) saveFile(ctx context.Context, spec platform.WindowSpec, opts SaveOptions, tr *trace) error {
	if opts.Path == "" {
		return model.Errorf(model.KindInvalidInput, "file_save needs a path")
	}
	if opts.Timeout < 0 {
		return model.Errorf(model.KindInvalidInput, "timeout must not be negative")
	}
	if err := s.guard(); err != nil {
		return err
	}
	w, err := s.Window(ctx, spec)
	if err != nil {
		return err
	}
	tr.window = w.Handle
	if err := s.checkIntegrity(ctx, w.Handle); err != nil {
		return err
	}

	dialog, err := s.saveDialog(ctx, w, opts, tr)
	if err != nil {
		return err
	}
	field := model.ElementQuery{ParentID: dialog.ID, AutomationID: fileNameEditID, ControlType: "Edit", FoundIndex: 1}
	if _, _, err := s.typeInto(ctx, Target{Query: field}, opts.Path, TypeOptions{Clear: true}, s.begin(tr.op)); err != nil {
		return fmt.Errorf("file name field: %w", err)
	}
	if err := s.dialogButton(ctx, dialog, okButtonID, ""); err != nil {
		return err
	}

	return s.poll(ctx, opts.Timeout, tr, func() (bool, error) {
		_, err := s.find(ctx, model.ElementQuery{WindowHandle: w.Handle, ClassName: dialogClass}, false, s.begin(tr.op))
		if waiting(err) {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		confirm := buttonQuery(dialog, "", `(?i)^yes$`)
		_, err = s.find(ctx, confirm, false, s.begin(tr.op))
		switch {
		case waiting(err), errors.Is(err, model.ErrStaleReference):
			return false, nil
		case err != nil:
			return false, err
		case !opts.Overwrite:
			return false, s.declineOverwrite(ctx, dialog, opts.Path)
		}
		return false, s.dialogButton(ctx, dialog, "", `(?i)^yes$`)
	})
}

// saveDialog returns the open save dialog of w, opening it with the
// shortcut when none is showing.
func (s *Service) saveDialog(ctx context.Context, w model.WindowInfo, opts SaveOptions, tr *trace) (model.ElementInfo, error) {
	q := model.ElementQuery{WindowHandle: w.Handle, ClassName: dialogClass, FoundIndex: 1}
	list, err := s.find(ctx, q, false, s.begin(tr.op))
	if err == nil {
		return list[0], nil
	}
	if !errors.Is(err, model.ErrNotFound) {
		return model.ElementInfo{}, err
	}
	if err := s.activate(ctx, w.Handle, s.begin(tr.op)); err != nil {
		return model.ElementInfo{}, err
	}
	if err := s.input.Press(ctx, opts.Shortcut); err != nil {
		return model.ElementInfo{}, err
	}
	m, err := q.Validate()
	if err != nil {
		return model.ElementInfo{}, err
	}
	list, err = s.waitFind(ctx, q, m, false, opts.Timeout, tr)
	if errors.Is(err, model.ErrTimeout) {
		var me *model.Error
		errors.As(err, &me)
		me.Message = fmt.Sprintf("no save dialog after %s; %s", opts.Shortcut, me.Message)
	}
	if err != nil {
		return model.ElementInfo{}, err
	}
	return list[0], nil
}

// dialogButton clicks a button of the dialog by automation id, or by name
// pattern when id is empty.
func (s *Service) dialogButton(ctx context.Context, dialog model.ElementInfo, id, pattern string) error {
	_, err := s.click(ctx, Target{Query: buttonQuery(dialog, id, pattern)}, ClickOptions{}, s.begin("file_save"))
	return err
}

func buttonQuery(dialog model.ElementInfo, id, pattern string) model.ElementQuery {
	return model.ElementQuery{ParentID: dialog.ID, ControlType: "Button", AutomationID: id, NamePattern: pattern, FoundIndex: 1}
}

// declineOverwrite answers the overwrite prompt with No and cancels the
// dialog.
func (s *Service) declineOverwrite(ctx context.Context, dialog model.ElementInfo, path string) error {
	if err := s.dialogButton(ctx, dialog, "", `(?i)^no$`); err != nil {
		return err
	}
	if err := s.dialogButton(ctx, dialog, cancelButtonID, ""); err != nil {
		return err
	}
	return model.Errorf(model.KindInvalidInput, "%s already exists; pass overwrite to replace it", path).
		With("path", path)
}
