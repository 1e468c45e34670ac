// Package turns serializes message processing per user. At most one turn may
// be in flight for a given user; concurrent messages are rejected with a busy
// signal rather than queued, so a stuck handler only ever blocks its own user.
package turns

import "sync"

// Registry is the process-wide table of in-flight turns, keyed by user
// identifier. The table mutex only guards map mutation; it is never held for
// the duration of a turn, so users do not contend with each other.
type Registry struct {
	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewRegistry creates an empty turn registry.
func NewRegistry() *Registry {
	return &Registry{inFlight: make(map[string]struct{})}
}

// Acquire attempts to start a turn for the given user. It never blocks: if a
// turn is already in flight the second return value is false and the caller
// must reply busy without touching state. On success the returned release
// function frees the slot; it must be called exactly once, on every exit
// path, and is safe to call via defer. Calling release more than once is a
// no-op.
func (r *Registry) Acquire(userID string) (release func(), ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, busy := r.inFlight[userID]; busy {
		return nil, false
	}
	r.inFlight[userID] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			r.mu.Lock()
			delete(r.inFlight, userID)
			r.mu.Unlock()
		})
	}, true
}

// Busy reports whether a turn is currently in flight for the user.
func (r *Registry) Busy(userID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, busy := r.inFlight[userID]
	return busy
}

// ActiveTurns returns the number of turns currently in flight across all
// users, for stats reporting.
func (r *Registry) ActiveTurns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.inFlight)
}
