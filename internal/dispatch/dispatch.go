// Package dispatch runs closures on a single OS thread.
//
// Native accessibility objects may only be touched from the thread that
// initialized the automation runtime. A Dispatcher owns that thread: work is
// submitted as closures through a bounded FIFO queue and results come back
// through futures.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"runtime/debug"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/desktop-intent/internal/logging"
	"github.com/mj1618/desktop-intent/internal/model"
)

// DefaultQueueDepth is the number of closures that may wait behind the one
// currently executing.
const DefaultQueueDepth = 64

// ErrClosed is wrapped by submissions made after Shutdown.
var ErrClosed = errors.New("dispatcher is shut down")

type job struct {
	id     string
	ctx    context.Context
	run    func()
	cancel func(error)
}

// Stats is a point-in-time view of dispatcher load.
type Stats struct {
	Queued   int    `yaml:"queued"   json:"queued"`
	Executed uint64 `yaml:"executed" json:"executed"`
	Rejected uint64 `yaml:"rejected" json:"rejected"`
}

// Dispatcher is a single-consumer work queue pinned to one OS thread.
type Dispatcher struct {
	name     string
	depth    int
	init     func() error
	teardown func()

	queue   chan job
	done    chan struct{}
	abandon chan struct{}

	mu        sync.RWMutex
	closed    bool
	abandoned sync.Once

	goid     atomic.Uint64
	executed atomic.Uint64
	rejected atomic.Uint64
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithQueueDepth bounds the queue. Values < 1 select DefaultQueueDepth.
func WithQueueDepth(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.depth = n
		}
	}
}

// WithInit runs fn on the dispatch thread before any work. A non-nil error
// aborts New.
func WithInit(fn func() error) Option {
	return func(d *Dispatcher) { d.init = fn }
}

// WithTeardown runs fn on the dispatch thread after the queue has drained.
func WithTeardown(fn func()) Option {
	return func(d *Dispatcher) { d.teardown = fn }
}

// WithName labels log lines from this dispatcher.
func WithName(name string) Option {
	return func(d *Dispatcher) { d.name = name }
}

// New starts the dispatch thread and waits for its init hook.
func New(opts ...Option) (*Dispatcher, error) {
	d := &Dispatcher{
		name:    "automation",
		depth:   DefaultQueueDepth,
		done:    make(chan struct{}),
		abandon: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.queue = make(chan job, d.depth)

	ready := make(chan error, 1)
	go d.loop(ready)
	if err := <-ready; err != nil {
		return nil, fmt.Errorf("dispatch thread init: %w", err)
	}
	return d, nil
}

func (d *Dispatcher) loop(ready chan<- error) {
	// The goroutine never unlocks: when it returns the runtime terminates the
	// thread together with whatever apartment state init left on it.
	runtime.LockOSThread()
	d.goid.Store(currentGoroutineID())
	defer close(d.done)

	if d.init != nil {
		if err := d.init(); err != nil {
			ready <- err
			return
		}
	}
	ready <- nil

	log := logging.For("dispatch")
	log.Debug().Str("dispatcher", d.name).Int("depth", d.depth).Msg("dispatch thread started")

	for j := range d.queue {
		select {
		case <-d.abandon:
			j.cancel(model.Wrap(model.KindCancelled, ErrClosed, "dispatcher abandoned before job %s ran", j.id))
			continue
		default:
		}
		if err := j.ctx.Err(); err != nil {
			j.cancel(model.Wrap(model.KindCancelled, err, "cancelled before execution"))
			continue
		}
		j.run()
		n := d.executed.Add(1)
		log.Debug().Str("job", j.id).Uint64("executed", n).Int("queued", len(d.queue)).Msg("job done")
	}

	if d.teardown != nil {
		d.teardown()
	}
	log.Debug().Str("dispatcher", d.name).Msg("dispatch thread stopped")
}

// enqueue hands a job to the thread without blocking.
func (d *Dispatcher) enqueue(j job) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return model.Wrap(model.KindCancelled, ErrClosed, "cannot submit work")
	}
	select {
	case d.queue <- j:
		return nil
	default:
		d.rejected.Add(1)
		return model.Errorf(model.KindQueueFull, "dispatch queue is full (%d pending)", d.depth).
			With("depth", d.depth)
	}
}

// OnThread reports whether the caller is running on the dispatch thread.
func (d *Dispatcher) OnThread() bool {
	return d.goid.Load() == currentGoroutineID()
}

// Stats returns current queue metrics.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Queued:   len(d.queue),
		Executed: d.executed.Load(),
		Rejected: d.rejected.Load(),
	}
}

// Shutdown stops accepting work and waits up to timeout for queued work to
// drain. When the timeout expires the thread is abandoned: jobs still queued
// are completed with a Cancelled error and the in-flight closure, if any, is
// left to finish on its own. It reports whether the drain completed.
func (d *Dispatcher) Shutdown(timeout time.Duration) bool {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-d.done:
		return true
	case <-timer.C:
		d.abandoned.Do(func() { close(d.abandon) })
		logging.Warn("dispatch").Str("dispatcher", d.name).Dur("timeout", timeout).
			Msg("dispatch thread did not drain; abandoning")
		return false
	}
}

// Done is closed once the dispatch thread has exited.
func (d *Dispatcher) Done() <-chan struct{} {
	return d.done
}

// Future is the pending result of a submitted closure.
type Future[T any] struct {
	done chan struct{}
	once sync.Once
	val  T
	err  error
}

func newFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

func (f *Future[T]) complete(v T, err error) {
	f.once.Do(func() {
		f.val, f.err = v, err
		close(f.done)
	})
}

// Done is closed when the result is available.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Wait blocks until the closure has run or ctx ends. When ctx ends first the
// closure may still run to completion; its result is discarded.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, model.Wrap(model.KindCancelled, ctx.Err(), "gave up waiting for dispatch result")
	}
}

// Submit queues fn for execution on the dispatch thread. If ctx is done
// before fn starts, fn is skipped. A panic inside fn is recovered and
// reported as InternalFault.
func Submit[T any](ctx context.Context, d *Dispatcher, fn func() (T, error)) *Future[T] {
	f := newFuture[T]()
	var zero T
	j := job{
		id:  uuid.NewString(),
		ctx: ctx,
		cancel: func(err error) {
			f.complete(zero, err)
		},
	}
	j.run = func() {
		defer func() {
			if r := recover(); r != nil {
				logging.Error("dispatch").Str("job", j.id).Interface("panic", r).
					Str("stack", string(debug.Stack())).Msg("panic on dispatch thread")
				f.complete(zero, model.Errorf(model.KindInternalFault, "panic on dispatch thread: %v", r))
			}
		}()
		v, err := fn()
		f.complete(v, err)
	}
	if err := d.enqueue(j); err != nil {
		f.complete(zero, err)
	}
	return f
}

// Execute submits fn and waits for its result.
func Execute[T any](ctx context.Context, d *Dispatcher, fn func() (T, error)) (T, error) {
	return Submit(ctx, d, fn).Wait(ctx)
}

// currentGoroutineID parses the id from the goroutine header of a stack
// trace. The dispatch goroutine is locked to its thread for life, so the
// goroutine id identifies the thread.
func currentGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	s := strings.TrimPrefix(string(buf[:n]), "goroutine ")
	if i := strings.IndexByte(s, ' '); i > 0 {
		id, _ := strconv.ParseUint(s[:i], 10, 64)
		return id
	}
	return 0
}
