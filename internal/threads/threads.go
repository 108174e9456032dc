// Package threads implements the thread registry half of C5: one Record
// per mutator thread, owning its control-stack root registration and its
// allocation points.
package threads

import (
	"fmt"

	"github.com/anacrolix/sync"
	"github.com/google/uuid"
	"github.com/movingc/igc/internal/alloc"
	"github.com/movingc/igc/internal/roots"
)

// Handle identifies a registered thread.
type Handle = uuid.UUID

// Record is everything the collector tracks for one mutator thread: its
// ambiguous stack root, its exact specbinding-stack root, and the cons
// allocation point it allocates through. That AP is the Registry's single
// shared one; a Record does not get an AP of its own.
type Record struct {
	Handle Handle

	// StackRootHandle is the ambiguous root registered over the thread's
	// control stack ([ColdEnd, current SP)).
	StackRootHandle roots.Handle
	// BindingRootHandle is the exact root registered over the thread's
	// specpdl (dynamic-binding) stack.
	BindingRootHandle roots.Handle

	ColdEnd uint64
	ConsAP  *alloc.AP
}

// Registry tracks every live thread record, keyed by Handle.
type Registry struct {
	mu      sync.RWMutex
	threads map[Handle]*Record
	roots   *roots.Registry
	apCons  *alloc.AP
}

// New returns an empty Registry. consAP is shared across threads (the
// arena has one nursery per pool, not per thread): every Record added
// later references this same AP, and no per-thread AP is created.
func New(rootRegistry *roots.Registry, consAP *alloc.AP) *Registry {
	return &Registry{threads: make(map[Handle]*Record), roots: rootRegistry, apCons: consAP}
}

// Add registers a new thread whose control stack currently spans
// [coldEnd, sp) and is conservatively scanned through the live stackWords
// slice (the embedder owns this buffer and keeps it in sync with the
// thread's actual stack; this module only ever reads and rewrites the
// words already in it, matching the MemInsert calling convention,
// since Go provides no portable way to scan another goroutine's native
// stack). specpdl is scanned precisely by bindingScan.
func (r *Registry) Add(coldEnd, sp uint64, stackWords []uint64, bindingScan roots.ScanFunc) (*Record, error) {
	stackHandle, err := r.roots.RegisterThreadStack(coldEnd, sp, stackWords, "thread-stack")
	if err != nil {
		return nil, fmt.Errorf("threads: register stack root: %w", err)
	}
	bindingHandle, err := r.roots.RegisterExact(coldEnd, sp, bindingScan, "thread-specpdl")
	if err != nil {
		_ = r.roots.Deregister(stackHandle)
		return nil, fmt.Errorf("threads: register specpdl root: %w", err)
	}

	rec := &Record{
		Handle:            uuid.New(),
		StackRootHandle:   stackHandle,
		BindingRootHandle: bindingHandle,
		ColdEnd:           coldEnd,
		ConsAP:            r.apCons,
	}

	r.mu.Lock()
	r.threads[rec.Handle] = rec
	r.mu.Unlock()
	return rec, nil
}

// Remove deregisters a thread's roots and forgets its record.
func (r *Registry) Remove(h Handle) error {
	r.mu.Lock()
	rec, ok := r.threads[h]
	if ok {
		delete(r.threads, h)
	}
	r.mu.Unlock()

	if !ok {
		return fmt.Errorf("threads: unknown handle %s", h)
	}
	if err := r.roots.Deregister(rec.StackRootHandle); err != nil {
		return err
	}
	return r.roots.Deregister(rec.BindingRootHandle)
}

// Get returns the record for h, if still registered.
func (r *Registry) Get(h Handle) (*Record, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.threads[h]
	return rec, ok
}

// Len reports how many threads are currently registered.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.threads)
}
