// Package automation turns declarative element queries and actions into
// native accessibility calls and synthetic input.
//
// All native work runs on one dispatch thread. Each query scan, resolve,
// pattern call or poll attempt is a single dispatch invocation that releases
// every native element it touched before returning; callers only ever see
// value snapshots and opaque element ids. Sleeping (poll backoff, scroll
// settle) happens on the caller's goroutine between invocations.
package automation

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/dispatch"
	"github.com/mj1618/desktop-intent/internal/input"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/mj1618/desktop-intent/internal/platform"
	"github.com/mj1618/desktop-intent/internal/uia"
	"github.com/rs/zerolog"
)

// Defaults for the polling engines and the text extractor.
const (
	DefaultPollInitial    = 50 * time.Millisecond
	DefaultPollMax        = time.Second
	DefaultScrollMaxPages = 200
	DefaultScrollSettle   = 100 * time.Millisecond
	DefaultTextMaxDepth   = 8
	DefaultTextMaxBytes   = 64 << 10
	DefaultCloseTimeout   = 5 * time.Second
)

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	QueueDepth     int
	PollInitial    time.Duration
	PollMax        time.Duration
	ScrollMaxPages int
	ScrollSettle   time.Duration
	TextMaxDepth   int
	TextMaxBytes   int

	// Clock replaces the wall clock for polling and diagnostics.
	Clock Clock
	// Input configures the synthesizer (chunking, pacing, registry).
	Input []input.Option
}

func (o *Options) setDefaults() {
	if o.PollInitial <= 0 {
		o.PollInitial = DefaultPollInitial
	}
	if o.PollMax <= 0 {
		o.PollMax = DefaultPollMax
	}
	if o.PollMax < o.PollInitial {
		o.PollMax = o.PollInitial
	}
	if o.ScrollMaxPages <= 0 {
		o.ScrollMaxPages = DefaultScrollMaxPages
	}
	if o.ScrollSettle < 0 {
		o.ScrollSettle = 0
	} else if o.ScrollSettle == 0 {
		o.ScrollSettle = DefaultScrollSettle
	}
	if o.TextMaxDepth <= 0 {
		o.TextMaxDepth = DefaultTextMaxDepth
	}
	if o.TextMaxBytes <= 0 {
		o.TextMaxBytes = DefaultTextMaxBytes
	}
	if o.Clock == nil {
		o.Clock = realClock{}
	}
}

// Service is the automation engine. It is safe for concurrent use; native
// work is serialized on the dispatch thread and input on the synthesizer
// lock.
type Service struct {
	prov  *platform.Provider
	d     *dispatch.Dispatcher
	auto  uia.Automation
	input *input.Synthesizer
	clock Clock
	opts  Options
	log   zerolog.Logger

	closeOnce sync.Once
}

// New starts the dispatch thread, creates the accessibility facade on it
// and wires the input synthesizer to the provider's sender.
func New(prov *platform.Provider, opts Options) (*Service, error) {
	if prov == nil || prov.NewAutomation == nil {
		return nil, errors.New("automation: provider has no accessibility backend")
	}
	opts.setDefaults()
	s := &Service{
		prov:  prov,
		clock: opts.Clock,
		opts:  opts,
		log:   logging.For("automation"),
	}

	d, err := dispatch.New(
		dispatch.WithName(prov.Name),
		dispatch.WithQueueDepth(opts.QueueDepth),
		dispatch.WithInit(func() error {
			if prov.ThreadInit != nil {
				if err := prov.ThreadInit(); err != nil {
					return err
				}
			}
			auto, err := prov.NewAutomation()
			if err != nil {
				if prov.ThreadTeardown != nil {
					prov.ThreadTeardown()
				}
				return err
			}
			s.auto = auto
			return nil
		}),
		dispatch.WithTeardown(func() {
			if s.auto != nil {
				if err := s.auto.Close(); err != nil {
					s.log.Warn().Err(err).Msg("closing accessibility facade")
				}
			}
			if prov.ThreadTeardown != nil {
				prov.ThreadTeardown()
			}
		}),
	)
	if err != nil {
		return nil, model.Wrap(model.KindInternalFault, err, "start %s backend", prov.Name)
	}
	s.d = d
	s.input = input.New(prov.Sender, prov.KeyState, prov.Monitors, opts.Input...)
	s.log.Debug().Str("backend", prov.Name).Msg("automation service started")
	return s, nil
}

// Backend names the platform provider in use.
func (s *Service) Backend() string {
	return s.prov.Name
}

// Input exposes the synthesizer for callers that need raw input.
func (s *Service) Input() *input.Synthesizer {
	return s.input
}

// Stats reports dispatch queue load.
func (s *Service) Stats() dispatch.Stats {
	return s.d.Stats()
}

// Close releases every synthetically held key, drains the dispatch queue and
// closes the accessibility facade on the dispatch thread. It reports whether
// the queue drained within timeout.
func (s *Service) Close(timeout time.Duration) bool {
	drained := true
	s.closeOnce.Do(func() {
		if timeout <= 0 {
			timeout = DefaultCloseTimeout
		}
		if n, err := s.input.ReleaseAll(context.Background()); err != nil {
			s.log.Warn().Err(err).Int("released", n).Msg("releasing held keys on close")
		}
		drained = s.d.Shutdown(timeout)
		if !drained {
			s.log.Warn().Dur("timeout", timeout).Msg("dispatch queue did not drain; abandoning thread")
		}
	})
	return drained
}

// call runs fn as one dispatch invocation with its own release arena and
// translates facade errors at the boundary.
func call[T any](ctx context.Context, s *Service, what string, fn func(a *uia.Arena) (T, error)) (T, error) {
	return dispatch.Execute(ctx, s.d, func() (T, error) {
		a := uia.NewArena()
		defer a.Release()
		v, err := fn(a)
		return v, uia.Translate(err, what)
	})
}

// topology snapshots the monitor layout, or returns nil when the provider
// reports none.
func (s *Service) topology() *coords.Topology {
	if s.prov.Monitors == nil {
		return nil
	}
	top, err := coords.Snapshot(s.prov.Monitors)
	if err != nil {
		s.log.Debug().Err(err).Msg("no monitor topology")
		return nil
	}
	return top
}

// guard short-circuits input-affecting operations while the secure desktop
// is active, before any native automation or input call is made.
func (s *Service) guard() error {
	if s.prov.Probe == nil {
		return nil
	}
	active, err := s.prov.Probe.SecureDesktopActive()
	if err != nil {
		s.log.Warn().Err(err).Msg("secure desktop probe failed")
		return nil
	}
	if active {
		return model.Errorf(model.KindEnvironmentBlocked,
			"the secure desktop is active (UAC prompt or lock screen); input cannot reach applications")
	}
	return nil
}

// checkIntegrity rejects synthetic input into an elevated window from a
// non-elevated process, which the system would silently drop.
func (s *Service) checkIntegrity(ctx context.Context, hwnd uintptr) error {
	if hwnd == 0 || s.prov.Windows == nil || s.prov.Probe == nil {
		return nil
	}
	w, err := s.prov.Windows.Resolve(ctx, platform.WindowSpec{Handle: hwnd})
	if err != nil || !w.Elevated {
		return nil
	}
	if elevated, err := s.prov.Probe.ProcessElevated(); err == nil && !elevated {
		return model.Errorf(model.KindPermissionDenied,
			"window %#x (%s) runs elevated; run desktop-intent as administrator to send it input", hwnd, w.Title)
	}
	return nil
}

// trace accumulates diagnostics for one operation.
type trace struct {
	op             string
	start          time.Time
	scanned        int
	attempts       int
	lastCandidates int
	window         uintptr
	query          string
	strategy       string
	method         string
}

func (s *Service) begin(op string) *trace {
	return &trace{op: op, start: s.clock.Now()}
}

func (tr *trace) forQuery(q model.ElementQuery) {
	tr.query = q.Describe()
	if q.WindowHandle != 0 {
		tr.window = q.WindowHandle
	}
}

// finish builds the caller-facing result for an operation.
func (s *Service) finish(tr *trace, err error) *model.AutomationResult {
	res := &model.AutomationResult{
		Success: err == nil,
		Diagnostics: model.Diagnostics{
			RequestID:       uuid.NewString(),
			Duration:        s.clock.Now().Sub(tr.start),
			ElementsScanned: tr.scanned,
			Attempts:        tr.attempts,
			Window:          tr.window,
			Query:           tr.query,
			Strategy:        tr.strategy,
			Method:          tr.method,
		},
	}
	ev := s.log.Debug()
	if err != nil {
		res.Fail(err)
		ev = s.log.Info().Str("kind", string(res.ErrorKind)).Str("error", res.Message)
	}
	ev.Str("op", tr.op).
		Str("request_id", res.Diagnostics.RequestID).
		Dur("duration", res.Diagnostics.Duration).
		Int("scanned", tr.scanned).
		Msg("operation finished")
	return res
}
