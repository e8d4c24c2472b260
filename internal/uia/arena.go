package uia

import "sync"

// Arena tracks every native element obtained during one dispatch invocation
// and releases them all at the end of it.
//
//	a := uia.NewArena()
//	defer a.Release()
//	root := a.Track(auto.ElementFromHandle(hwnd))
type Arena struct {
	mu    sync.Mutex
	elems []Element
	done  bool
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add registers elements for release. Nil entries are ignored.
func (a *Arena) Add(elems ...Element) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, e := range elems {
		if e == nil {
			continue
		}
		if a.done {
			e.Release()
			continue
		}
		a.elems = append(a.elems, e)
	}
}

// Track registers the element returned by a facade call and passes the call's
// result through.
func (a *Arena) Track(e Element, err error) (Element, error) {
	if err != nil {
		return nil, err
	}
	a.Add(e)
	return e, nil
}

// TrackAll registers a slice of elements and passes the call's result through.
func (a *Arena) TrackAll(elems []Element, err error) ([]Element, error) {
	if err != nil {
		return nil, err
	}
	a.Add(elems...)
	return elems, nil
}

// Len reports how many elements are held.
func (a *Arena) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.elems)
}

// Release releases every tracked element in reverse registration order.
// Elements added afterwards are released immediately.
func (a *Arena) Release() {
	a.mu.Lock()
	elems := a.elems
	a.elems = nil
	a.done = true
	a.mu.Unlock()
	for i := len(elems) - 1; i >= 0; i-- {
		elems[i].Release()
	}
}
