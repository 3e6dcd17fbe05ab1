package proto

import (
	"sync"

	"aura/internal/dispatch"
)

// progressRegistry holds per-request progress callbacks keyed by request
// id. Entries are inserted when a call is accepted and removed once its
// response is produced, on every exit path; a leak here would grow
// without bound under sustained use.
type progressRegistry struct {
	mu        sync.Mutex
	callbacks map[string]dispatch.ProgressFunc
}

func newProgressRegistry() *progressRegistry {
	return &progressRegistry{callbacks: make(map[string]dispatch.ProgressFunc)}
}

// put registers the callback for id. Ids are caller-unique per the
// protocol contract; if a caller reuses an in-flight id anyway, the
// last writer wins and the earlier request's notifications are dropped.
func (r *progressRegistry) put(id string, fn dispatch.ProgressFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.callbacks[id] = fn
}

func (r *progressRegistry) remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.callbacks, id)
}

// fn returns a stable ProgressFunc that forwards to whatever callback is
// currently registered for id, or drops the event if the entry is gone.
func (r *progressRegistry) fn(id string) dispatch.ProgressFunc {
	return func(ev dispatch.Event) {
		r.mu.Lock()
		cb := r.callbacks[id]
		r.mu.Unlock()
		if cb != nil {
			cb(ev)
		}
	}
}

// size is used by tests to assert cleanup.
func (r *progressRegistry) size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.callbacks)
}
