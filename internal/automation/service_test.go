package automation

import (
	"errors"
	"testing"
	"time"

	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/platform/fake"
	"github.com/mj1618/desktop-intent/internal/uia"
)

func TestNewRequiresAutomationBackend(t *testing.T) {
	if _, err := New(&platform.Provider{Name: "empty"}, Options{}); err == nil {
		t.Fatal("New() with no backend should fail")
	}
	prov := fake.NewDesktop().Provider()
	prov.NewAutomation = func() (uia.Automation, error) { return nil, errors.New("COM not registered") }
	_, err := New(prov, Options{})
	if model.KindOf(err) != model.KindInternalFault {
		t.Errorf("New() error = %v, want internal fault", err)
	}
}

func TestThreadInitAndTeardownRunAroundFacade(t *testing.T) {
	d := fake.NewDesktop()
	prov := d.Provider()
	var order []string
	prov.ThreadInit = func() error { order = append(order, "init"); return nil }
	prov.ThreadTeardown = func() { order = append(order, "teardown") }
	s, err := New(prov, Options{})
	if err != nil {
		t.Fatal(err)
	}
	if !s.Close(time.Second) {
		t.Error("Close() did not drain")
	}
	if len(order) != 2 || order[0] != "init" || order[1] != "teardown" {
		t.Errorf("order = %v", order)
	}
}

func TestCloseReleasesHeldKeys(t *testing.T) {
	d := singleWindow()
	clk := newFakeClock()
	s, err := New(d.Provider(), Options{
		Clock: clk,
		Input: []input.Option{input.WithRegistry(input.NewRegistry())},
	})
	if err != nil {
		t.Fatal(err)
	}
	wantSuccess(t, s.KeyDown(t.Context(), "shift"))
	res := s.KeyDown(t.Context(), "a")
	wantSuccess(t, res)
	if len(res.HeldKeys) != 2 || res.HeldKeys[0] != "a" {
		t.Errorf("held = %v, want [a shift]", res.HeldKeys)
	}
	wantKind(t, s.KeyDown(t.Context(), "A"), model.KindKeyAlreadyHeld)

	s.Close(time.Second)
	if down := d.Input.SyntheticDown(); len(down) != 0 {
		t.Errorf("keys still down after Close: %v", down)
	}
	if s.Close(time.Second) != true {
		t.Error("second Close should be a no-op")
	}
}

func TestKeyPassThrough(t *testing.T) {
	d := singleWindow()
	s, _ := newTestService(t, d)

	wantKind(t, s.KeyUp(t.Context(), "ctrl"), model.KindKeyNotHeld)
	wantKind(t, s.PressKey(t.Context(), "ctrl+banana"), model.KindInvalidKey)
	wantSuccess(t, s.PressKey(t.Context(), "ctrl+shift+t"))

	for _, k := range []string{"ctrl", "alt", "x"} {
		wantSuccess(t, s.KeyDown(t.Context(), k))
	}
	res := s.ReleaseAll(t.Context())
	wantSuccess(t, res)
	if res.Released != 3 || len(res.HeldKeys) != 0 {
		t.Errorf("released = %d held = %v", res.Released, res.HeldKeys)
	}

	res = s.Sequence(t.Context(), []input.SequenceItem{{Key: "ctrl+z"}, {Key: "ctrl+z"}, {Key: "ctrl+z"}})
	wantSuccess(t, res)

	d.Input.FailAfter(5)
	res = s.Sequence(t.Context(), []input.SequenceItem{{Key: "ctrl+z"}, {Key: "ctrl+z"}, {Key: "ctrl+z"}})
	wantKind(t, res, model.KindPermissionDenied)
	if res.PartialCount != 1 {
		t.Errorf("partial count = %d, want 1", res.PartialCount)
	}
	d.Input.FailAfter(-1)
	if len(s.HeldKeys().HeldKeys) != 0 {
		t.Error("failed sequence left keys held")
	}
}

func TestMousePassThrough(t *testing.T) {
	d := singleWindow()
	s, _ := newTestService(t, d)

	wantKind(t, s.MouseMove(t.Context(), model.Point{X: 5000, Y: 10}), model.KindInvalidInput)
	if len(d.Input.Events()) != 0 {
		t.Fatal("out-of-bounds move sent events")
	}
	wantSuccess(t, s.MouseClick(t.Context(), &model.Point{X: 640, Y: 480}, input.ClickOptions{}))
	if got := d.Input.Clicks(); len(got) != 1 || got[0] != (model.Point{X: 640, Y: 480}) {
		t.Errorf("clicks = %v", got)
	}
	wantSuccess(t, s.MouseScroll(t.Context(), nil, 0, 3))
	wantSuccess(t, s.MouseDrag(t.Context(), model.Point{X: 10, Y: 10}, model.Point{X: 200, Y: 200}, input.DragOptions{}))
}

func TestRequestIDsAreUnique(t *testing.T) {
	s, _ := newTestService(t, singleWindow(fake.Button("OK", "", fake.R(0, 0, 10, 10))))
	seen := map[string]bool{}
	for range 5 {
		res := s.Find(t.Context(), inWindow(model.ElementQuery{Name: "OK"}))
		if seen[res.Diagnostics.RequestID] {
			t.Fatalf("request id %s reused", res.Diagnostics.RequestID)
		}
		seen[res.Diagnostics.RequestID] = true
	}
}

func TestDemoDesktopWalkthrough(t *testing.T) {
	d := fake.Demo()
	s, _ := newTestService(t, d)

	q := model.ElementQuery{WindowHandle: fake.EditorHandle, Name: "Save"}
	wantKind(t, s.Click(t.Context(), Target{Query: q}, ClickOptions{}), model.KindMultipleMatches)

	q.ControlType = "Button"
	wantSuccess(t, s.Click(t.Context(), Target{Query: q}, ClickOptions{}))

	editor := Target{Query: model.ElementQuery{WindowHandle: fake.EditorHandle, AutomationID: "editor"}}
	wantSuccess(t, s.Type(t.Context(), editor, "hello", TypeOptions{}))
	res := s.ReadText(t.Context(), editor, TextOptions{})
	if res.Text != "hello" {
		t.Errorf("editor text = %q", res.Text)
	}

	res = s.ScrollSearch(t.Context(), ScrollSearchRequest{
		Query: model.ElementQuery{WindowHandle: fake.SettingsHandle, Name: "Theme 250"},
	})
	wantSuccess(t, res)
	wantSuccess(t, s.Select(t.Context(), Target{ID: res.Element.ID}, ""))
}
