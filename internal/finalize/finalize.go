// Package finalize implements the finalization channel: a registry of
// one-shot callbacks keyed by object address, fed by the collector's
// relocation phase when it discovers a registered object has become
// unreachable, and drained by any number of consumer goroutines.
package finalize

import (
	"github.com/anacrolix/sync"
)

// Callback is invoked, at most once, when its associated object is found
// unreachable during a full-heap trace.
type Callback func()

// Channel is the finalization queue. It is safe for concurrent use: Post
// is called by the collector goroutine, Register/Drain by any number of
// mutator or idle-time goroutines, safely concurrent with both.
type Channel struct {
	mu      sync.Mutex
	pending map[uint64]Callback
	queue   []Callback

	enabled bool
}

// New returns an empty, disabled Channel. Enable must be called before
// Post will queue anything, matching the hook surface's separate
// "finalization enabled" control.
func New() *Channel {
	return &Channel{pending: make(map[uint64]Callback)}
}

// Enable turns finalizer delivery on or off. While disabled, Post still
// forgets ref's registration but discards its callback instead of
// queueing it: the collector still reclaims the object's storage, and the
// callback never runs, even if delivery is enabled again later.
func (c *Channel) Enable(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enabled = on
}

// Register associates cb with ref. If ref is already registered, the
// previous callback is replaced (re-registration is used by embedders
// that reuse a finalizer slot across a dumped-and-reloaded image).
func (c *Channel) Register(ref uint64, cb Callback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[ref] = cb
}

// Deregister removes ref's callback without running it (used when an
// embedder explicitly frees an object itself).
func (c *Channel) Deregister(ref uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pending, ref)
}

// Post is called by the collector when it determines, during relocation,
// that ref was registered and did not survive the trace. It moves ref's
// callback from the pending map to the drain queue and forgets ref (a
// finalizer fires at most once).
func (c *Channel) Post(ref uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cb, ok := c.pending[ref]
	if !ok {
		return
	}
	delete(c.pending, ref)
	if c.enabled {
		c.queue = append(c.queue, cb)
	}
}

// Registered reports whether ref currently has a pending finalizer. The
// collector uses it after a trace to pick out the committed objects that
// have a finalizer, and posts those that were not forwarded.
func (c *Channel) Registered(ref uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.pending[ref]
	return ok
}

// Drain runs every queued callback and empties the queue. It never
// blocks: callbacks queued after Drain begins are left for the next call.
func (c *Channel) Drain() int {
	c.mu.Lock()
	batch := c.queue
	c.queue = nil
	c.mu.Unlock()

	for _, cb := range batch {
		cb()
	}
	return len(batch)
}

// Pending reports how many finalizers are queued but not yet drained.
func (c *Channel) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}
