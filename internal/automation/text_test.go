package automation

import (
	"context"
	"strings"
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/platform/fake"
)

func TestReadTextFallbackOrder(t *testing.T) {
	doc := fake.Document("Doc", "Body text", fake.R(0, 0, 100, 100))
	ed := fake.Edit("Field", "", fake.R(0, 100, 100, 20))
	ed.Value = "typed"
	emptyEd := fake.Edit("Label only", "", fake.R(0, 130, 100, 20))
	s, _ := newTestService(t, singleWindow(doc, ed, emptyEd))

	tests := []struct {
		target, text, source string
	}{
		{"Doc", "Body text", SourceText},
		{"Field", "typed", SourceValue},
		{"Label only", "Label only", SourceName},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			res := s.ReadText(t.Context(), byName(tt.target), TextOptions{})
			wantSuccess(t, res)
			if res.Text != tt.text || res.TextSource != tt.source {
				t.Errorf("ReadText(%q) = %q from %s, want %q from %s", tt.target, res.Text, res.TextSource, tt.text, tt.source)
			}
		})
	}
}

func TestReadTextAggregatesChildren(t *testing.T) {
	group := fake.Container("Group", "", fake.R(0, 0, 300, 300),
		fake.Label("Total", fake.R(0, 0, 50, 20)),
		fake.Label("42", fake.R(60, 0, 50, 20)),
		fake.Container("Pane", "", fake.R(0, 30, 300, 100),
			fake.Label("Total", fake.R(0, 30, 50, 20)),
			fake.Label("deep", fake.R(0, 60, 50, 20)),
		),
	)
	group.AutomationID = "summary"
	s, _ := newTestService(t, singleWindow(group))
	target := Target{Query: inWindow(model.ElementQuery{AutomationID: "summary"})}

	res := s.ReadText(t.Context(), target, TextOptions{})
	wantSuccess(t, res)
	if res.TextSource != SourceNone || res.Text != "" {
		t.Errorf("own text = %q from %s, want empty from none", res.Text, res.TextSource)
	}

	res = s.ReadText(t.Context(), target, TextOptions{IncludeChildren: true})
	wantSuccess(t, res)
	if res.Text != "Total\n42\ndeep" || res.TextSource != SourceChildren {
		t.Errorf("aggregate = %q from %s", res.Text, res.TextSource)
	}

	res = s.ReadText(t.Context(), target, TextOptions{IncludeChildren: true, MaxDepth: 1})
	wantSuccess(t, res)
	if res.Text != "Total\n42" {
		t.Errorf("depth-capped aggregate = %q", res.Text)
	}

	res = s.ReadText(t.Context(), target, TextOptions{IncludeChildren: true, MaxBytes: 8})
	wantSuccess(t, res)
	if res.Text != "Total\n42" || !strings.Contains(res.Message, "truncated") {
		t.Errorf("size-capped aggregate = %q (%s)", res.Text, res.Message)
	}
}

type stubOCR struct {
	rect model.Rect
	lang string
}

func (o *stubOCR) Recognize(_ context.Context, rect model.Rect, lang string) (platform.OCRResult, error) {
	o.rect, o.lang = rect, lang
	return platform.OCRResult{Lines: []platform.OCRLine{{Text: "Pixels"}, {Text: "only"}}}, nil
}

func TestReadTextOCRIsOptIn(t *testing.T) {
	canvas := &fake.Node{ControlType: "Pane", AutomationID: "canvas", Bounds: fake.R(10, 20, 300, 200)}
	d := singleWindow(canvas)
	prov := d.Provider()
	ocr := &stubOCR{}
	prov.OCR = ocr
	clk := newFakeClock()
	s, err := New(prov, Options{Clock: clk})
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close(0)
	target := Target{Query: inWindow(model.ElementQuery{AutomationID: "canvas"})}

	res := s.ReadText(t.Context(), target, TextOptions{})
	wantSuccess(t, res)
	if res.TextSource != SourceNone || ocr.lang != "" {
		t.Fatalf("OCR ran without opt-in: %+v", res)
	}

	res = s.ReadText(t.Context(), target, TextOptions{AllowOCR: true, Language: "en"})
	wantSuccess(t, res)
	if res.Text != "Pixels\nonly" || res.TextSource != SourceOCR {
		t.Errorf("ocr text = %q from %s", res.Text, res.TextSource)
	}
	if ocr.rect != canvas.Bounds || ocr.lang != "en" {
		t.Errorf("ocr called with %v %q", ocr.rect, ocr.lang)
	}
}
