package automation

import (
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform/fake"
)

func TestResolveStrategies(t *testing.T) {
	ok := fake.Button("OK", "okButton", fake.R(10, 10, 60, 20))
	panel := fake.Container("Pane", "panel", fake.R(0, 0, 500, 500), fake.Label("hint", fake.R(0, 0, 10, 10)), ok)
	other := fake.Container("Pane", "other", fake.R(500, 0, 500, 500))
	d := singleWindow(panel, other)
	s, _ := newTestService(t, d)

	found := s.Find(t.Context(), inWindow(model.ElementQuery{AutomationID: "okButton"}))
	wantSuccess(t, found)
	id := found.Element.ID

	res := s.Resolve(t.Context(), id)
	wantSuccess(t, res)
	if res.Diagnostics.Strategy != StrategyRuntimeID {
		t.Errorf("strategy = %q, want %s", res.Diagnostics.Strategy, StrategyRuntimeID)
	}

	// Rebuilt in place: new runtime id, same position.
	d.Recreate(ok)
	res = s.Resolve(t.Context(), id)
	wantSuccess(t, res)
	if res.Diagnostics.Strategy != StrategyPath {
		t.Errorf("strategy after rebuild = %q, want %s", res.Diagnostics.Strategy, StrategyPath)
	}

	// Moved elsewhere: only the hints still identify it.
	d.Remove(ok)
	d.Append(other, ok)
	d.Recreate(ok)
	res = s.Resolve(t.Context(), id)
	wantSuccess(t, res)
	if res.Diagnostics.Strategy != StrategyRequery {
		t.Errorf("strategy after move = %q, want %s", res.Diagnostics.Strategy, StrategyRequery)
	}
	if res.Element.ID == id {
		t.Error("resolved element should carry a refreshed id")
	}
}

func TestStaleReference(t *testing.T) {
	ok := fake.Button("OK", "okButton", fake.R(10, 10, 60, 20))
	d := singleWindow(ok)
	s, _ := newTestService(t, d)

	found := s.Find(t.Context(), inWindow(model.ElementQuery{Name: "OK"}))
	wantSuccess(t, found)
	d.Remove(ok)

	for _, res := range []*model.AutomationResult{
		s.Resolve(t.Context(), found.Element.ID),
		s.Click(t.Context(), Target{ID: found.Element.ID}, ClickOptions{}),
	} {
		wantKind(t, res, model.KindStaleReference)
		if res.Diagnostics.Attempts > 1 {
			t.Errorf("stale reference was retried %d times", res.Diagnostics.Attempts)
		}
	}
	if ok.Invoked != 0 {
		t.Error("removed element was invoked")
	}
}

func TestPathReplayRequiresMatchingType(t *testing.T) {
	ok := fake.Button("OK", "", fake.R(10, 10, 60, 20))
	d := singleWindow(ok)
	s, _ := newTestService(t, d)

	found := s.Find(t.Context(), inWindow(model.ElementQuery{Name: "OK"}))
	wantSuccess(t, found)

	d.Remove(ok)
	d.Append(d.Windows()[0].Root, fake.Label("Done", fake.R(10, 10, 60, 20)))
	wantKind(t, s.Resolve(t.Context(), found.Element.ID), model.KindStaleReference)
}

func TestResolveMalformedID(t *testing.T) {
	s, _ := newTestService(t, singleWindow())
	wantKind(t, s.Resolve(t.Context(), "not-a-token"), model.KindInvalidInput)
}

func TestResolveClosedWindow(t *testing.T) {
	s, _ := newTestService(t, singleWindow(fake.Button("OK", "", fake.R(0, 0, 10, 10))))
	id := model.ElementID{Window: 0x7777, Name: "OK"}.Encode()
	wantKind(t, s.Resolve(t.Context(), id), model.KindWindowNotFound)
}
