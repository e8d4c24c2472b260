package model

import "testing"

func TestMapControlType_Known(t *testing.T) {
	tests := []struct {
		input int
		want  string
	}{
		{50000, "Button"},
		{50004, "Edit"},
		{50008, "List"},
		{50020, "Text"},
		{50032, "Window"},
		{50033, "Pane"},
	}
	for _, tt := range tests {
		if got := MapControlType(tt.input); got != tt.want {
			t.Errorf("MapControlType(%d) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestMapControlType_UnknownFallback(t *testing.T) {
	for _, id := range []int{0, 1, 49999, 60000} {
		if got := MapControlType(id); got != "Custom" {
			t.Errorf("MapControlType(%d) = %q, want Custom", id, got)
		}
	}
}

func TestNormalizeControlType(t *testing.T) {
	tests := []struct {
		input  string
		want   string
		wantOK bool
	}{
		{"Button", "Button", true},
		{"button", "Button", true},
		{"btn", "Button", true},
		{"  BTN ", "Button", true},
		{"input", "Edit", true},
		{"checkbox", "CheckBox", true},
		{"splitbutton", "SplitButton", true},
		{"gizmo", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeControlType(tt.input)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("NormalizeControlType(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.wantOK)
		}
	}
}
