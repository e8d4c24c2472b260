package automation

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform/fake"
)

// fakeClock advances only when slept on and fires scheduled hooks once
// their time has passed.
type fakeClock struct {
	mu     sync.Mutex
	start  time.Time
	now    time.Time
	sleeps []time.Duration
	hooks  []hook
}

type hook struct {
	at time.Duration
	fn func()
}

func newFakeClock() *fakeClock {
	t0 := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return &fakeClock{start: t0, now: t0}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.sleeps = append(c.sleeps, d)
	elapsed := c.now.Sub(c.start)
	var due []hook
	rest := c.hooks[:0]
	for _, h := range c.hooks {
		if h.at <= elapsed {
			due = append(due, h)
		} else {
			rest = append(rest, h)
		}
	}
	c.hooks = rest
	c.mu.Unlock()
	for _, h := range due {
		h.fn()
	}
	return ctx.Err()
}

// At runs fn the first time the clock passes offset.
func (c *fakeClock) At(offset time.Duration, fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hooks = append(c.hooks, hook{at: offset, fn: fn})
	sort.Slice(c.hooks, func(i, j int) bool { return c.hooks[i].at < c.hooks[j].at })
}

func (c *fakeClock) Sleeps() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

func noSleep(context.Context, time.Duration) error { return nil }

// newTestService starts a service over d with a fake clock and a private
// held-key registry. It asserts on cleanup that no element leaked and that
// every facade call ran on the dispatch thread.
func newTestService(t *testing.T, d *fake.Desktop) (*Service, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	s, err := New(d.Provider(), Options{
		Clock: clk,
		Input: []input.Option{input.WithRegistry(input.NewRegistry()), input.WithSleep(noSleep)},
	})
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	d.RequireThread(s.d.OnThread)
	t.Cleanup(func() {
		s.Close(time.Second)
		if n := d.LiveElements(); n != 0 {
			t.Errorf("%d native elements were never released", n)
		}
		if n := d.ThreadViolations(); n != 0 {
			t.Errorf("%d facade calls ran off the dispatch thread", n)
		}
	})
	return s, clk
}

const testWindow uintptr = 0x2001

// singleWindow returns a desktop with one window holding children.
func singleWindow(children ...*fake.Node) *fake.Desktop {
	d := fake.NewDesktop()
	d.AddWindow(testWindow, "Test", "test.exe", fake.Container("Window", "", fake.R(0, 0, 1000, 800), children...))
	return d
}

func inWindow(q model.ElementQuery) model.ElementQuery {
	q.WindowHandle = testWindow
	return q
}

func wantKind(t *testing.T, res *model.AutomationResult, kind model.ErrorKind) {
	t.Helper()
	if res.Success {
		t.Fatalf("result succeeded, want %s", kind)
	}
	if res.ErrorKind != kind {
		t.Fatalf("error kind = %s (%s), want %s", res.ErrorKind, res.Message, kind)
	}
}

func wantSuccess(t *testing.T, res *model.AutomationResult) {
	t.Helper()
	if !res.Success {
		t.Fatalf("result failed: %s: %s", res.ErrorKind, res.Message)
	}
}
