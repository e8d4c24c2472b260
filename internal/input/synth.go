// Package input synthesizes keyboard and mouse events.
//
// Every operation of every Synthesizer runs under one process-wide lock so
// that synthetic sequences never interleave. The lock is independent of the
// automation dispatch thread: input may be sent from any goroutine.
package input

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mj1618/desktop-intent/internal/coords"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/mj1618/desktop-intent/internal/model"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// Defaults for text delivery.
const (
	DefaultChunkSize  = 1000
	DefaultChunkDelay = 10 * time.Millisecond
)

var sharedLock sync.Mutex

// Synthesizer builds and sends synthetic input.
type Synthesizer struct {
	mu         *sync.Mutex
	sender     Sender
	keys       KeyState
	monitors   coords.Source
	registry   *Registry
	chunkSize  int
	chunkDelay time.Duration
	limiter    *rate.Limiter
	sleep      func(context.Context, time.Duration) error
	log        zerolog.Logger
}

// Option configures a Synthesizer.
type Option func(*Synthesizer)

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) Option {
	return func(s *Synthesizer) { s.registry = r }
}

// WithChunkSize sets the number of UTF-16 code units typed per batch.
func WithChunkSize(n int) Option {
	return func(s *Synthesizer) {
		if n > 0 {
			s.chunkSize = n
		}
	}
}

// WithChunkDelay sets the pause between text batches.
func WithChunkDelay(d time.Duration) Option {
	return func(s *Synthesizer) { s.chunkDelay = d }
}

// WithRateLimit paces event delivery to at most perSecond events per second.
// Zero disables pacing.
func WithRateLimit(perSecond float64) Option {
	return func(s *Synthesizer) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithSleep replaces the cancellable delay used between chunks, sequence
// items and drag steps.
func WithSleep(fn func(context.Context, time.Duration) error) Option {
	return func(s *Synthesizer) { s.sleep = fn }
}

// WithLock replaces the process-wide input lock.
func WithLock(mu *sync.Mutex) Option {
	return func(s *Synthesizer) { s.mu = mu }
}

// New returns a Synthesizer sending through sender. keys reports live key
// state for modifier handling; monitors supplies the topology for absolute
// mouse coordinates.
func New(sender Sender, keys KeyState, monitors coords.Source, opts ...Option) *Synthesizer {
	s := &Synthesizer{
		mu:         &sharedLock,
		sender:     sender,
		keys:       keys,
		monitors:   monitors,
		registry:   DefaultRegistry,
		chunkSize:  DefaultChunkSize,
		chunkDelay: DefaultChunkDelay,
		sleep:      Sleep,
		log:        logging.For("input"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Registry returns the held-key registry in use.
func (s *Synthesizer) Registry() *Registry {
	return s.registry
}

// Sleep waits for d or until ctx is done.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// send delivers a batch and maps failures onto the error taxonomy. It
// returns the number of events the system accepted.
func (s *Synthesizer) send(ctx context.Context, events []Event) (int, error) {
	if len(events) == 0 {
		return 0, nil
	}
	if s.limiter != nil {
		if err := s.limiter.WaitN(ctx, min(len(events), s.limiter.Burst())); err != nil {
			return 0, model.Wrap(model.KindCancelled, err, "waiting for input pacing")
		}
	}
	n, err := s.sender.SendInput(events)
	switch {
	case errors.Is(err, ErrAccessDenied):
		return n, model.Wrap(model.KindPermissionDenied, err,
			"input rejected after %d of %d events; the target window may belong to an elevated process", n, len(events))
	case err != nil:
		return n, model.Wrap(model.KindInternalFault, err, "send input")
	case n < len(events):
		return n, model.Errorf(model.KindInternalFault, "system accepted %d of %d input events", n, len(events))
	}
	return n, nil
}

// release sends key-up events that must go out on every exit path. It does
// not observe cancellation.
func (s *Synthesizer) release(keys ...Key) error {
	var first error
	for _, k := range keys {
		if _, err := s.send(context.Background(), []Event{keyUp(k)}); err != nil {
			s.log.Error().Err(err).Str("key", k.Name).Msg("failed to release key")
			if first == nil {
				first = err
			}
		}
	}
	return first
}

func cancelled(err error, what string) error {
	return model.Wrap(model.KindCancelled, err, "%s cancelled", what)
}
