package automation

import (
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform/fake"
)

func threeItems() *fake.Desktop {
	return singleWindow(
		fake.Button("Item", "a", fake.R(10, 10, 50, 20)),
		fake.Container("Group", "g", fake.R(10, 40, 300, 100),
			fake.Button("Item", "b", fake.R(10, 40, 100, 40)),
		),
		fake.Button("Item", "c", fake.R(10, 200, 80, 20)),
	)
}

func TestFoundIndexSelectsInTraversalOrder(t *testing.T) {
	s, _ := newTestService(t, threeItems())

	res := s.FindAll(t.Context(), inWindow(model.ElementQuery{Name: "Item"}))
	wantSuccess(t, res)
	if len(res.Elements) != 3 {
		t.Fatalf("FindAll returned %d elements, want 3", len(res.Elements))
	}

	res = s.Find(t.Context(), inWindow(model.ElementQuery{Name: "Item", FoundIndex: 2}))
	wantSuccess(t, res)
	if res.Element.AutomationID != "b" {
		t.Errorf("found_index=2 returned %q, want b", res.Element.AutomationID)
	}

	res = s.Find(t.Context(), inWindow(model.ElementQuery{Name: "Item", FoundIndex: 4}))
	wantKind(t, res, model.KindNotFound)
}

func TestAmbiguousActionReportsAllCandidates(t *testing.T) {
	s, _ := newTestService(t, threeItems())

	res := s.Click(t.Context(), Target{Query: inWindow(model.ElementQuery{Name: "Item"})}, ClickOptions{})
	wantKind(t, res, model.KindMultipleMatches)
	if got := len(res.Diagnostics.Candidates); got != 3 {
		t.Fatalf("candidates = %d, want 3", got)
	}
	var ids []string
	for _, c := range res.Diagnostics.Candidates {
		ids = append(ids, c.AutomationID)
	}
	if ids[0] != "a" || ids[1] != "b" || ids[2] != "c" {
		t.Errorf("candidate order = %v, want [a b c]", ids)
	}
}

func TestTwoSaveButtonsNeverPicked(t *testing.T) {
	save1 := fake.Button("Save", "save1", fake.R(10, 10, 60, 25))
	save2 := fake.Button("Save", "save2", fake.R(500, 700, 80, 30))
	d := singleWindow(save1, fake.Label("Save", fake.R(100, 10, 60, 25)), save2)
	s, _ := newTestService(t, d)

	res := s.Click(t.Context(), Target{Query: inWindow(model.ElementQuery{Name: "save", ControlType: "btn"})}, ClickOptions{})
	wantKind(t, res, model.KindMultipleMatches)
	c := res.Diagnostics.Candidates
	if len(c) != 2 {
		t.Fatalf("candidates = %d, want 2", len(c))
	}
	if c[0].Bounds != save1.Bounds || c[1].Bounds != save2.Bounds {
		t.Errorf("candidate bounds = %v, %v", c[0].Bounds, c[1].Bounds)
	}
	if save1.Invoked+save2.Invoked != 0 {
		t.Error("an ambiguous click invoked a button")
	}
}

func TestQueryValidation(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	tests := []struct {
		name string
		q    model.ElementQuery
	}{
		{"no filter", inWindow(model.ElementQuery{})},
		{"no scope", model.ElementQuery{Name: "Item"}},
		{"bad regex", inWindow(model.ElementQuery{NamePattern: "("})},
		{"unknown type", inWindow(model.ElementQuery{ControlType: "gizmo"})},
		{"bad parent id", model.ElementQuery{Name: "x", ParentID: "nope"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wantKind(t, s.FindAll(t.Context(), tt.q), model.KindInvalidInput)
		})
	}
}

func TestWindowNotFound(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	res := s.Find(t.Context(), model.ElementQuery{Name: "Item", WindowHandle: 0x9999})
	wantKind(t, res, model.KindWindowNotFound)
}

func TestNotFoundCarriesCriteria(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	res := s.Find(t.Context(), inWindow(model.ElementQuery{Name: "Missing"}))
	wantKind(t, res, model.KindNotFound)
	if res.Details["scanned"] != 4 {
		t.Errorf("scanned detail = %v, want 4", res.Details["scanned"])
	}
	if res.Diagnostics.Query != `name="Missing"` {
		t.Errorf("query = %q", res.Diagnostics.Query)
	}
	if res.Diagnostics.Window != testWindow {
		t.Errorf("window = %#x", res.Diagnostics.Window)
	}
}

func TestFilters(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	tests := []struct {
		name string
		q    model.ElementQuery
		want []string
	}{
		{"automation id", model.ElementQuery{AutomationID: "c"}, []string{"c"}},
		{"contains", model.ElementQuery{NameContains: "ite", ControlType: "Button"}, []string{"a", "b", "c"}},
		{"pattern", model.ElementQuery{NamePattern: "^It"}, []string{"a", "b", "c"}},
		{"region", model.ElementQuery{Name: "Item", Region: &model.Rect{X: 0, Y: 150, Width: 200, Height: 100}}, []string{"c"}},
		{"depth 1", model.ElementQuery{Name: "Item", MaxDepth: 1}, []string{"a", "c"}},
		{"prominence", model.ElementQuery{Name: "Item", SortByProminence: true}, []string{"b", "c", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := s.FindAll(t.Context(), inWindow(tt.q))
			wantSuccess(t, res)
			var got []string
			for _, e := range res.Elements {
				got = append(got, e.AutomationID)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("got %v, want %v", got, tt.want)
				}
			}
		})
	}
}

func TestNearFilter(t *testing.T) {
	d := singleWindow(
		fake.Label("Name", fake.R(10, 10, 60, 20)),
		fake.Edit("", "nameField", fake.R(80, 10, 200, 20)),
		fake.Label("Email", fake.R(10, 40, 60, 20)),
		fake.Edit("", "emailField", fake.R(80, 40, 200, 20)),
		fake.Edit("", "farField", fake.R(700, 700, 200, 20)),
	)
	s, _ := newTestService(t, d)

	label := s.Find(t.Context(), inWindow(model.ElementQuery{Name: "Email", ControlType: "Text"}))
	wantSuccess(t, label)

	res := s.FindAll(t.Context(), inWindow(model.ElementQuery{
		ControlType: "Edit",
		Near:        &model.NearFilter{ID: label.Element.ID, Direction: "right"},
	}))
	wantSuccess(t, res)
	if len(res.Elements) != 2 {
		t.Fatalf("near matched %d, want 2", len(res.Elements))
	}
	if res.Elements[0].AutomationID != "emailField" {
		t.Errorf("closest = %q, want emailField", res.Elements[0].AutomationID)
	}

	res = s.FindAll(t.Context(), inWindow(model.ElementQuery{
		Near: &model.NearFilter{ID: label.Element.ID, Direction: "sideways"},
	}))
	wantKind(t, res, model.KindInvalidInput)
}

func TestRegionFindsChildOutsideParentBounds(t *testing.T) {
	// A dropdown popup hangs below its collapsed combo box.
	d := singleWindow(
		fake.Container("ComboBox", "Size", fake.R(10, 10, 120, 24),
			fake.Container("List", "", fake.R(10, 34, 120, 200),
				fake.Button("Large", "large", fake.R(10, 180, 120, 20)),
			),
		),
	)
	s, _ := newTestService(t, d)

	res := s.Find(t.Context(), inWindow(model.ElementQuery{
		Name:   "Large",
		Region: &model.Rect{X: 0, Y: 170, Width: 300, Height: 50},
	}))
	wantSuccess(t, res)
	if res.Element.AutomationID != "large" {
		t.Errorf("found %q, want large", res.Element.AutomationID)
	}
}

func TestParentScope(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	g := s.Find(t.Context(), inWindow(model.ElementQuery{ControlType: "Group"}))
	wantSuccess(t, g)

	res := s.Find(t.Context(), model.ElementQuery{Name: "Item", ParentID: g.Element.ID})
	wantSuccess(t, res)
	if res.Element.AutomationID != "b" {
		t.Errorf("scoped find = %q, want b", res.Element.AutomationID)
	}
	id, err := model.ParseElementID(res.Element.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(id.Path) != 2 || id.Path[0] != 1 || id.Path[1] != 0 {
		t.Errorf("path = %v, want [1 0]", id.Path)
	}
}

func TestSnapshotIsAnnotated(t *testing.T) {
	s, _ := newTestService(t, threeItems())
	res := s.Find(t.Context(), inWindow(model.ElementQuery{AutomationID: "a"}))
	wantSuccess(t, res)
	e := res.Element
	if e.ClickPoint != (model.Point{X: 35, Y: 20}) {
		t.Errorf("click point = %+v", e.ClickPoint)
	}
	if e.NormalizedClickPoint.X == 0 || e.NormalizedClickPoint.Y == 0 {
		t.Errorf("normalized click point not set: %+v", e.NormalizedClickPoint)
	}
	if !e.Capabilities.Has(model.CapInvoke) || !e.Enabled {
		t.Errorf("caps = %s enabled = %v", e.Capabilities, e.Enabled)
	}
	if res.Diagnostics.RequestID == "" || res.Diagnostics.ElementsScanned != 4 {
		t.Errorf("diagnostics = %+v", res.Diagnostics)
	}
}
