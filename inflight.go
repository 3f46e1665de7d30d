package tagoreq

import (
	"context"
	"sync"
)

// InFlight tracks fingerprints whose call sequence is currently executing.
// Waiters are woken by a broadcast when the owner releases its marker.
type InFlight struct {
	mu    sync.Mutex
	calls map[Fingerprint]chan struct{}
}

// NewInFlight returns an empty registry.
func NewInFlight() *InFlight {
	return &InFlight{
		calls: make(map[Fingerprint]chan struct{}),
	}
}

// Add marks key as in flight. It returns ok=false when another caller
// already holds the marker. Only the caller that added the marker receives
// release, which clears it exactly once however many times it is invoked.
func (r *InFlight) Add(key Fingerprint) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.calls[key]; exists {
		return nil, false
	}

	done := make(chan struct{})
	r.calls[key] = done

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			if r.calls[key] == done {
				delete(r.calls, key)
			}
			r.mu.Unlock()
			close(done)
		})
	}, true
}

// Has reports whether key is currently in flight.
func (r *InFlight) Has(key Fingerprint) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, ok := r.calls[key]
	return ok
}

// Wait blocks until the marker for key is released or ctx is done. It
// returns immediately when key is not in flight.
func (r *InFlight) Wait(ctx context.Context, key Fingerprint) error {
	r.mu.Lock()
	done, ok := r.calls[key]
	r.mu.Unlock()

	if !ok {
		return nil
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of fingerprints in flight.
func (r *InFlight) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.calls)
}
