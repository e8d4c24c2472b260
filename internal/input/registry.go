package input

import (
	"sort"
	"sync"
	"time"

	"github.com/mj1618/desktop-intent/internal/model"
)

// HeldKeyState records a key that was pressed synthetically and not yet
// released.
type HeldKeyState struct {
	Name      string    `yaml:"name"               json:"name"`
	Code      uint16    `yaml:"code"               json:"code"`
	Extended  bool      `yaml:"extended,omitempty" json:"extended,omitempty"`
	HeldSince time.Time `yaml:"held_since"         json:"held_since"`
}

// Registry tracks held keys by canonical name. Every transition is atomic
// under one lock; a key is either Up (absent) or Held (present).
type Registry struct {
	mu   sync.Mutex
	held map[string]HeldKeyState
	seq  map[string]uint64
	next uint64
	now  func() time.Time
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		held: make(map[string]HeldKeyState),
		seq:  make(map[string]uint64),
		now:  time.Now,
	}
}

// DefaultRegistry is the process-wide registry so a crashed caller's held
// keys can still be released by the next one.
var DefaultRegistry = NewRegistry()

// TryMarkHeld moves k from Up to Held. It fails with KeyAlreadyHeld if k is
// already held.
func (r *Registry) TryMarkHeld(k Key) (HeldKeyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.held[k.Name]; ok {
		return s, model.Errorf(model.KindKeyAlreadyHeld, "key %q is already held", k.Name).
			With("held_since", s.HeldSince.Format(time.RFC3339Nano))
	}
	s := HeldKeyState{Name: k.Name, Code: k.Code, Extended: k.Extended, HeldSince: r.now()}
	r.held[k.Name] = s
	r.next++
	r.seq[k.Name] = r.next
	return s, nil
}

// TryRelease moves k from Held to Up. It fails with KeyNotHeld if k is up.
func (r *Registry) TryRelease(k Key) (HeldKeyState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.held[k.Name]
	if !ok {
		return HeldKeyState{}, model.Errorf(model.KindKeyNotHeld, "key %q is not held", k.Name)
	}
	delete(r.held, k.Name)
	delete(r.seq, k.Name)
	return s, nil
}

// IsHeld reports whether k is held.
func (r *Registry) IsHeld(k Key) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.held[k.Name]
	return ok
}

// ReleaseAll moves every key to Up and returns the removed entries, most
// recently held first. Calling it on an empty registry is a no-op.
func (r *Registry) ReleaseAll() []HeldKeyState {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.sortedLocked()
	r.held = make(map[string]HeldKeyState)
	r.seq = make(map[string]uint64)
	return out
}

// Held returns the held keys, most recently held first.
func (r *Registry) Held() []HeldKeyState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sortedLocked()
}

// Len returns the number of held keys.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

func (r *Registry) sortedLocked() []HeldKeyState {
	out := make([]HeldKeyState, 0, len(r.held))
	for _, s := range r.held {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		return r.seq[out[i].Name] > r.seq[out[j].Name]
	})
	return out
}
