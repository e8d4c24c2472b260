package platform

import (
	"errors"
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
)

func TestParseRegion_Valid(t *testing.T) {
	b, err := ParseRegion("10, 20, 300, 400")
	if err != nil {
		t.Fatal(err)
	}
	if b.X != 10 || b.Y != 20 || b.Width != 300 || b.Height != 400 {
		t.Errorf("got %+v, want {10 20 300 400}", b)
	}
}

func TestParseRegion_Invalid(t *testing.T) {
	tests := []string{
		"",
		"10,20,300",
		"10,20,300,400,500",
		"a,b,c,d",
		"10,20,abc,400",
	}
	for _, s := range tests {
		_, err := ParseRegion(s)
		if err == nil {
			t.Errorf("ParseRegion(%q) should fail", s)
		}
	}
}

func TestParseHandle(t *testing.T) {
	tests := []struct {
		input string
		want  uintptr
	}{
		{"132456", 132456},
		{"0x1F2E", 0x1f2e},
		{" 0x10 ", 0x10},
	}
	for _, tt := range tests {
		got, err := ParseHandle(tt.input)
		if err != nil {
			t.Errorf("ParseHandle(%q): %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseHandle(%q) = %#x, want %#x", tt.input, got, tt.want)
		}
	}
	for _, bad := range []string{"", "0", "notepad", "-1"} {
		if _, err := ParseHandle(bad); err == nil {
			t.Errorf("ParseHandle(%q) should fail", bad)
		}
	}
}

var testWindows = []model.WindowInfo{
	{Handle: 0x10, Title: "Untitled - Notepad", ProcessName: "notepad.exe", PID: 100},
	{Handle: 0x20, Title: "notes.txt - Notepad", ProcessName: "notepad.exe", PID: 101, Foreground: true},
	{Handle: 0x30, Title: "Calculator", ProcessName: "CalculatorApp.exe", PID: 200},
}

func TestPickWindow(t *testing.T) {
	tests := []struct {
		name string
		spec WindowSpec
		want uintptr
	}{
		{"by handle", WindowSpec{Handle: 0x30}, 0x30},
		{"unique title", WindowSpec{Title: "calc"}, 0x30},
		{"ambiguous title prefers foreground", WindowSpec{Title: "notepad"}, 0x20},
		{"process without exe", WindowSpec{Process: "calculatorapp"}, 0x30},
		{"pid", WindowSpec{PID: 100}, 0x10},
		{"empty spec is foreground", WindowSpec{}, 0x20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, err := PickWindow(testWindows, tt.spec)
			if err != nil {
				t.Fatal(err)
			}
			if w.Handle != tt.want {
				t.Errorf("PickWindow(%s) = %#x, want %#x", tt.spec, w.Handle, tt.want)
			}
		})
	}
}

func TestPickWindow_Errors(t *testing.T) {
	if _, err := PickWindow(testWindows, WindowSpec{Handle: 0x99}); !errors.Is(err, model.ErrWindowNotFound) {
		t.Errorf("unknown handle err = %v, want window_not_found", err)
	}
	if _, err := PickWindow(testWindows, WindowSpec{Title: "paint"}); !errors.Is(err, model.ErrWindowNotFound) {
		t.Errorf("unknown title err = %v, want window_not_found", err)
	}
	bg := []model.WindowInfo{testWindows[0], {Handle: 0x11, Title: "Other - Notepad"}}
	if _, err := PickWindow(bg, WindowSpec{Title: "notepad"}); !errors.Is(err, model.ErrMultipleMatches) {
		t.Errorf("ambiguous title err = %v, want multiple_matches", err)
	}
}
