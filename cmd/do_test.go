package cmd

import (
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
)

func TestParseSteps(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int
		wantErr bool
	}{
		{"yaml list", "- click: { name: OK }\n- sleep: { ms: 10 }\n", 2, false},
		{"json list", `[{"find": {"name": "Save"}}]`, 1, false},
		{"empty", "  \n", 0, true},
		{"empty list", "[]", 0, true},
		{"not a list", "click: {name: OK}", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := parseSteps([]byte(tt.input))
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if len(steps) != tt.want {
				t.Errorf("steps = %d, want %d", len(steps), tt.want)
			}
		})
	}
}

func TestRunBatch_AllSuccess(t *testing.T) {
	e, _ := newTestExecutor(t, params{"window": "Settings"})
	steps, err := parseSteps([]byte(`
- scroll_find: { name: "Theme 250" }
- select: { id: $prev }
- assert: { id: $prev, state: enabled }
- toggle: { name: "Word wrap", state: on }
`))
	if err != nil {
		t.Fatal(err)
	}

	result := runBatch(t.Context(), e, steps, true)
	if !result.OK {
		t.Fatalf("batch failed: %s", result.Error)
	}
	if result.Steps != 4 || result.Completed != 4 || len(result.Results) != 4 {
		t.Errorf("steps=%d completed=%d results=%d", result.Steps, result.Completed, len(result.Results))
	}
	first := result.Results[0].Result.Element
	if first == nil || first.Name != "Theme 250" {
		t.Fatalf("scroll_find element = %+v", first)
	}
	if sel := result.Results[1].Result.Element; sel == nil || sel.Name != "Theme 250" {
		t.Errorf("select did not act on the previous element: %+v", sel)
	}
}

func TestRunBatch_StopOnError(t *testing.T) {
	steps := []map[string]map[string]interface{}{
		{"sleep": {"ms": 1}},
		{"wiggle": {}},
		{"sleep": {"ms": 1}},
	}

	tests := []struct {
		name        string
		stopOnError bool
		results     int
		completed   int
	}{
		{"stop", true, 2, 1},
		{"continue", false, 3, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, _ := newTestExecutor(t, nil)
			result := runBatch(t.Context(), e, steps, tt.stopOnError)
			if result.OK {
				t.Error("expected ok=false when a step fails")
			}
			if len(result.Results) != tt.results {
				t.Errorf("results = %d, want %d", len(result.Results), tt.results)
			}
			if result.Completed != tt.completed {
				t.Errorf("completed = %d, want %d", result.Completed, tt.completed)
			}
			if result.Error == "" || result.Results[1].Result.ErrorKind != model.KindInvalidInput {
				t.Errorf("step 2 error = %q / %s", result.Error, result.Results[1].Result.ErrorKind)
			}
		})
	}
}

func TestRunBatch_RejectsMultiKeyStep(t *testing.T) {
	e, _ := newTestExecutor(t, nil)
	steps := []map[string]map[string]interface{}{
		{"sleep": {"ms": 1}, "find": {"name": "OK"}},
	}
	result := runBatch(t.Context(), e, steps, true)
	if result.OK || result.Completed != 0 {
		t.Errorf("result = %+v", result)
	}
}

func TestResolvePrev(t *testing.T) {
	in := map[string]interface{}{"id": "$prev", "near": "$prev", "name": "x"}
	out := resolvePrev(in, "e1.abc")
	if out["id"] != "e1.abc" || out["near"] != "e1.abc" || out["name"] != "x" {
		t.Errorf("resolvePrev = %v", out)
	}
	if in["id"] != "$prev" {
		t.Error("resolvePrev modified its input")
	}
}
