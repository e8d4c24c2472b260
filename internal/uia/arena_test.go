package uia

import (
	"errors"
	"testing"

	"github.com/mj1618/desktop-intent/internal/model"
)

type countingElement struct {
	Element
	name     string
	released *[]string
}

func (c *countingElement) Release() { *c.released = append(*c.released, c.name) }

func TestArena_ReleasesInReverseOrder(t *testing.T) {
	var released []string
	a := NewArena()
	a.Add(&countingElement{name: "root", released: &released})
	a.Add(&countingElement{name: "child", released: &released}, nil)
	if _, err := a.Track(&countingElement{name: "grandchild", released: &released}, nil); err != nil {
		t.Fatal(err)
	}
	if a.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", a.Len())
	}

	a.Release()
	want := []string{"grandchild", "child", "root"}
	if len(released) != len(want) {
		t.Fatalf("released %v, want %v", released, want)
	}
	for i := range want {
		if released[i] != want[i] {
			t.Errorf("released[%d] = %q, want %q", i, released[i], want[i])
		}
	}

	// Late additions are released immediately.
	a.Add(&countingElement{name: "late", released: &released})
	if released[len(released)-1] != "late" || a.Len() != 0 {
		t.Error("element added after Release should be released at once")
	}
}

func TestArena_TrackPassesErrors(t *testing.T) {
	a := NewArena()
	boom := errors.New("boom")
	if _, err := a.Track(nil, boom); err != boom {
		t.Errorf("Track() err = %v, want boom", err)
	}
	if a.Len() != 0 {
		t.Error("failed lookups should not be tracked")
	}
}

func TestTranslate(t *testing.T) {
	tests := []struct {
		err  error
		want model.ErrorKind
	}{
		{ErrElementNotAvailable, model.KindStaleReference},
		{ErrPatternUnavailable, model.KindUnsupportedCapability},
		{errors.New("0x80004005"), model.KindInternalFault},
		{model.Errorf(model.KindNotFound, "x"), model.KindNotFound},
	}
	for _, tt := range tests {
		if got := model.KindOf(Translate(tt.err, "invoke")); got != tt.want {
			t.Errorf("Translate(%v) kind = %s, want %s", tt.err, got, tt.want)
		}
	}
	if Translate(nil, "x") != nil {
		t.Error("Translate(nil) should be nil")
	}
}
