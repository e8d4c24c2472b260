package input

import (
	"context"
	"errors"
	"testing"
	"time"
	"unicode/utf16"

	"github.com/mj1618/desktop-intent/internal/model"
)

func TestTypeText_UnicodeAndNewline(t *testing.T) {
	r := newRecorder()
	s := newTestSynth(r)
	text := "Hello, 世界 👍\n"
	n, err := s.TypeText(context.Background(), text)
	if err != nil {
		t.Fatal(err)
	}
	if want := len([]rune(text)); n != want {
		t.Errorf("TypeText() = %d, want %d", n, want)
	}

	enterDown, enterUp := 0, 0
	for _, e := range r.events {
		if e.Code == vkReturn {
			if e.IsKeyUp() {
				enterUp++
			} else {
				enterDown++
			}
		}
		if e.Code == 0 && e.Flags&KeyUnicode == 0 {
			t.Errorf("character event %+v is missing the unicode flag", e)
		}
	}
	if enterDown != 1 || enterUp != 1 {
		t.Errorf("Enter events = %d down / %d up, want exactly one of each", enterDown, enterUp)
	}

	hi, lo := utf16.EncodeRune('👍')
	found := false
	for i := 0; i+3 < len(r.events); i++ {
		e := r.events[i : i+4]
		if e[0].Unit == uint16(hi) && !e[0].IsKeyUp() &&
			e[1].Unit == uint16(hi) && e[1].IsKeyUp() &&
			e[2].Unit == uint16(lo) && !e[2].IsKeyUp() &&
			e[3].Unit == uint16(lo) && e[3].IsKeyUp() {
			found = true
		}
	}
	if !found {
		t.Errorf("emoji was not sent as the surrogate pair %#x %#x", hi, lo)
	}
	if last := r.events[len(r.events)-1]; last.Code != vkReturn || !last.IsKeyUp() {
		t.Errorf("last event = %+v, want Enter up", last)
	}
}

func TestEncodeText_LineEndings(t *testing.T) {
	chunks := encodeText("a\r\nb\rc\td", 1000)
	if len(chunks) != 1 {
		t.Fatalf("chunks = %d, want 1", len(chunks))
	}
	enters, tabs := 0, 0
	for _, e := range chunks[0].events {
		if e.IsKeyUp() {
			continue
		}
		switch e.Code {
		case vkReturn:
			enters++
		case vkTab:
			tabs++
		}
	}
	if enters != 2 || tabs != 1 {
		t.Errorf("enters = %d, tabs = %d; want 2 and 1", enters, tabs)
	}
	if got := len(chunks[0].ends); got != 7 {
		t.Errorf("characters = %d, want 7", got)
	}
}

func TestEncodeText_SurrogatePairNeverSplit(t *testing.T) {
	chunks := encodeText("ab👍c", 3)
	if len(chunks) != 2 {
		t.Fatalf("chunks = %d, want 2", len(chunks))
	}
	if len(chunks[0].ends) != 2 {
		t.Errorf("first chunk holds %d characters, want 2", len(chunks[0].ends))
	}
	hi, _ := utf16.EncodeRune('👍')
	if chunks[1].events[0].Unit != uint16(hi) {
		t.Errorf("second chunk should start with the high surrogate, got %#x", chunks[1].events[0].Unit)
	}
}

func TestEncodeText_ChunkSize(t *testing.T) {
	text := make([]byte, 2500)
	for i := range text {
		text[i] = 'x'
	}
	chunks := encodeText(string(text), DefaultChunkSize)
	if len(chunks) != 3 {
		t.Fatalf("chunks = %d, want 3", len(chunks))
	}
	if len(chunks[0].ends) != 1000 || len(chunks[2].ends) != 500 {
		t.Errorf("chunk sizes = %d, %d, %d", len(chunks[0].ends), len(chunks[1].ends), len(chunks[2].ends))
	}
}

func TestTypeText_PartialProgressOnDenial(t *testing.T) {
	r := newRecorder()
	r.fail = func(call int, _ []Event) (int, error) {
		if call == 2 {
			return 3, ErrAccessDenied
		}
		return 1 << 30, nil
	}
	s := newTestSynth(r, WithChunkSize(2))
	n, err := s.TypeText(context.Background(), "abcd")
	if !errors.Is(err, model.ErrPermissionDenied) {
		t.Fatalf("err = %v, want permission_denied", err)
	}
	var pe *model.PartialError
	if !errors.As(err, &pe) {
		t.Fatalf("err = %T, want *model.PartialError", err)
	}
	if pe.Completed != 3 || n != 3 {
		t.Errorf("completed = %d, n = %d; want 3", pe.Completed, n)
	}
	// The half-sent "d" is released.
	last := r.events[len(r.events)-1]
	if last.Unit != 'd' || !last.IsKeyUp() {
		t.Errorf("last event = %+v, want key-up for d", last)
	}
}

func TestTypeText_CancelledBetweenChunks(t *testing.T) {
	r := newRecorder()
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	s := newTestSynth(r, WithChunkSize(1), WithSleep(func(ctx context.Context, _ time.Duration) error {
		calls++
		if calls == 2 {
			cancel()
		}
		return ctx.Err()
	}))
	n, err := s.TypeText(ctx, "abcdef")
	if !errors.Is(err, model.ErrCancelled) {
		t.Fatalf("err = %v, want cancelled", err)
	}
	if n != 2 {
		t.Errorf("typed %d characters before cancellation, want 2", n)
	}
}
