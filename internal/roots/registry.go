// Package roots implements the root registry: the doubly-linked list
// of live roots the collector must treat as part of the live set, indexed
// for fast lookup by start address.
package roots

import (
	"container/list"
	"errors"
	"fmt"

	"github.com/anacrolix/sync"
	"github.com/google/btree"
	"github.com/google/uuid"
)

// Rank distinguishes ambiguous roots (conservative, false positives
// tolerated) from exact roots (precise, type-aware scanning).
type Rank int

const (
	Ambiguous Rank = iota
	Exact
)

// Handle identifies one registered root.
type Handle = uuid.UUID

// FixFunc fixes one candidate word and returns its (possibly rewritten)
// value. It is supplied by the collector at sweep time, not by callers of
// Register*.
type FixFunc func(word uint64) (uint64, error)

// ScanFunc is an exact root's caller-supplied scanner: it walks its own
// structure and applies fix to every reference slot it owns.
type ScanFunc func(fix FixFunc) error

// Root describes one region of memory the collector must treat as live.
type Root struct {
	Handle Handle
	Start  uint64
	End    uint64
	Rank   Rank

	// Data backs an Ambiguous root: every word in Data is a candidate
	// value, scanned by the core's generic mem-area scanner.
	Data []uint64

	// Scan backs an Exact root: a caller-supplied, type-aware scanner.
	Scan ScanFunc

	// Owner is a human-readable back-reference (e.g. "cons-pool",
	// "thread-stack:<id>"), used for diagnostics only.
	Owner string
}

var (
	// ErrZeroSize is returned when registering a root whose [start, end)
	// is empty.
	ErrZeroSize = errors.New("roots: zero-size root rejected")
	// ErrOverlap is returned when a new root's range overlaps a
	// previously registered one.
	ErrOverlap = errors.New("roots: overlapping root rejected")
	// ErrUnknownHandle is returned by Deregister for a handle that was
	// never registered, or already removed.
	ErrUnknownHandle = errors.New("roots: unknown handle")
)

// Registry is the doubly-linked list of live roots (scan order), with a
// google/btree secondary index keyed by Start for O(log n) FindByStart
// lookups used by growable-root replacement.
type Registry struct {
	mu       sync.RWMutex
	order    *list.List // scan order; element.Value is *Root
	byStart  *btree.BTreeG[*Root]
	byHandle map[Handle]*list.Element
}

func lessByStart(a, b *Root) bool { return a.Start < b.Start }

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		order:    list.New(),
		byStart:  btree.NewG(32, lessByStart),
		byHandle: make(map[Handle]*list.Element),
	}
}

// RegisterAmbiguous registers [start, end) as an ambiguous root backed by
// data: every word in data is a scan candidate.
func (r *Registry) RegisterAmbiguous(start, end uint64, data []uint64, owner string) (Handle, error) {
	return r.register(&Root{Start: start, End: end, Rank: Ambiguous, Data: data, Owner: owner})
}

// RegisterExact registers [start, end) as an exact root scanned by scan.
func (r *Registry) RegisterExact(start, end uint64, scan ScanFunc, owner string) (Handle, error) {
	if scan == nil {
		return Handle{}, errors.New("roots: exact root requires a non-nil scan function")
	}
	return r.register(&Root{Start: start, End: end, Rank: Exact, Scan: scan, Owner: owner})
}

// RegisterThreadStack registers the ambiguous scan range [coldEnd, sp) for
// a thread's control stack. It is a thin, semantically-distinct alias for
// RegisterAmbiguous used by internal/threads.
func (r *Registry) RegisterThreadStack(coldEnd, sp uint64, data []uint64, owner string) (Handle, error) {
	return r.RegisterAmbiguous(coldEnd, sp, data, owner)
}

func (r *Registry) register(root *Root) (Handle, error) {
	if root.End <= root.Start {
		return Handle{}, ErrZeroSize
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.overlapsLocked(root.Start, root.End) {
		return Handle{}, ErrOverlap
	}

	root.Handle = uuid.New()
	elem := r.order.PushBack(root)
	r.byHandle[root.Handle] = elem
	r.byStart.ReplaceOrInsert(root)
	return root.Handle, nil
}

// overlapsLocked reports whether [start, end) overlaps any registered
// root. Callers must hold r.mu.
func (r *Registry) overlapsLocked(start, end uint64) bool {
	overlap := false
	// Every root whose Start could possibly overlap [start, end) has
	// Start < end; scan descending from there and stop once a
	// candidate's End can no longer reach into [start, end).
	r.byStart.DescendLessOrEqual(&Root{Start: end}, func(item *Root) bool {
		if item.End <= start {
			return false // sorted by Start descending; nothing further can overlap
		}
		if item.Start < end && start < item.End {
			overlap = true
			return false
		}
		return true
	})
	return overlap
}

// Deregister atomically removes handle. It is safe to call concurrently
// with collector activity (the registries are only ever mutated while
// parked; callers are expected to have parked the arena first).
func (r *Registry) Deregister(handle Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.byHandle[handle]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}
	root := elem.Value.(*Root)
	r.order.Remove(elem)
	r.byStart.Delete(root)
	delete(r.byHandle, handle)
	return nil
}

// FindByStart looks up the root registered with the given start address.
func (r *Registry) FindByStart(start uint64) (*Root, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	found, ok := r.byStart.Get(&Root{Start: start})
	return found, ok
}

// ForEach invokes fn for every registered root, in scan order, stopping
// and returning the first error fn produces. Callers (the collector) are
// expected to hold the arena parked or otherwise be tolerant of the
// snapshot racing with concurrent Register/Deregister: ForEach holds the
// read lock only while copying the list, and calls fn on that copy with
// no lock held.
func (r *Registry) ForEach(fn func(*Root) error) error {
	r.mu.RLock()
	roots := make([]*Root, 0, r.order.Len())
	for e := r.order.Front(); e != nil; e = e.Next() {
		roots = append(roots, e.Value.(*Root))
	}
	r.mu.RUnlock()

	for _, root := range roots {
		if err := fn(root); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of registered roots.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.order.Len()
}
