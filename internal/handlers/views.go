package handlers

import (
	"sync"
	"time"

	"github.com/MegaGrindStone/parcel-chat-ui/internal/chat"
)

// viewIdleTimeout is how long a view without an open event stream is kept after its last request.
const viewIdleTimeout = 2 * time.Hour

// views maps the ID of every open page to the controller that owns its conversation. A view lives from
// the page load until the page reports it is closing, until it sits idle longer than the sweep allows,
// or until the server shuts down.
type views struct {
	mu      sync.RWMutex
	entries map[string]*view
	now     func() time.Time
}

type view struct {
	ctrl    *chat.Controller
	touched time.Time
	// streams counts the event streams currently attached to the view.
	streams int
}

func newViews() *views {
	return &views{
		entries: make(map[string]*view),
		now:     time.Now,
	}
}

func (v *views) add(id string, c *chat.Controller) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries[id] = &view{ctrl: c, touched: v.now()}
}

// get returns the controller of the view and marks the view as used.
func (v *views) get(id string) (*chat.Controller, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[id]
	if !ok {
		return nil, false
	}
	e.touched = v.now()
	return e.ctrl, true
}

// attach records an event stream opened for the view. It reports false when the view is unknown.
func (v *views) attach(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	e, ok := v.entries[id]
	if !ok {
		return false
	}
	e.streams++
	e.touched = v.now()
	return true
}

func (v *views) detach(id string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if e, ok := v.entries[id]; ok && e.streams > 0 {
		e.streams--
		e.touched = v.now()
	}
}

func (v *views) remove(id string) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	_, ok := v.entries[id]
	delete(v.entries, id)
	return ok
}

// sweep drops the views untouched for longer than maxIdle. Views with an attached stream or a reply
// still pending are kept. It returns how many views were dropped.
func (v *views) sweep(maxIdle time.Duration) int {
	v.mu.Lock()
	defer v.mu.Unlock()

	cutoff := v.now().Add(-maxIdle)
	dropped := 0
	for id, e := range v.entries {
		if e.streams > 0 || e.ctrl.Loading() || !e.touched.Before(cutoff) {
			continue
		}
		delete(v.entries, id)
		dropped++
	}
	return dropped
}

func (v *views) count() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries)
}

func (v *views) reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	clear(v.entries)
}
