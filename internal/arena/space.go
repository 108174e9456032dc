package arena

import (
	"fmt"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/anacrolix/sync"
	"github.com/movingc/igc/internal/format"
)

// Space is one semispace: a fixed-size byte range carved out of the
// arena's single mmap region, a bump cursor for the reserve/commit
// protocol, and a roaring bitmap of the start-of-object word indices that
// have actually been committed (as opposed to merely reserved).
//
// Space implements format.Memory directly, so a Format's Scan/Forward/Pad
// callbacks operate on it without any further adapter.
type Space struct {
	data []byte
	// Base is this space's offset within the arena's single mmap region,
	// giving every Addr local to this space a global counterpart
	// (Base + local) that scan.Locator/scan.Pool operate on.
	Base uint64

	mu        sync.Mutex
	bump      uint64 // next free byte offset, relative to data[0]
	committed *roaring.Bitmap

	// epoch counts relocations of this space. AP.Commit compares the
	// epoch AP.Reserve observed against the current value to detect that
	// the space it was bumping against was retired mid-reservation and the
	// reservation must be retried against the (possibly different)
	// active space.
	epoch atomic.Uint64
}

// NewSpace wraps data (a sub-slice of the arena's mmap region, already
// sized to one generation's per-semispace capacity, starting at global
// offset base) as an empty Space.
func NewSpace(data []byte, base uint64) *Space {
	return &Space{data: data, Base: base, committed: roaring.New()}
}

// ReadWord implements format.Memory.
func (s *Space) ReadWord(addr format.Addr) uint64 {
	return format.DecodeWord(s.data[addr : addr+format.WordSize])
}

// WriteWord implements format.Memory.
func (s *Space) WriteWord(addr format.Addr, word uint64) {
	format.EncodeWord(s.data[addr:addr+format.WordSize], word)
}

// Len returns the space's total capacity in bytes.
func (s *Space) Len() uint64 { return uint64(len(s.data)) }

// Epoch returns the current relocation epoch of this space.
func (s *Space) Epoch() uint64 { return s.epoch.Load() }

// Bump returns the current reservation cursor (bytes already reserved,
// committed or not).
func (s *Space) Bump() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bump
}

// TryReserve atomically advances the bump cursor by size bytes if doing so
// would not exceed the space's capacity, returning the address reserved.
// It never blocks and never retries; the caller (AP.Reserve) is
// responsible for the backoff/retry policy when ok is false.
func (s *Space) TryReserve(size uint64) (addr format.Addr, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bump+size > uint64(len(s.data)) {
		return 0, false
	}
	addr = format.Addr(s.bump)
	s.bump += size
	return addr, true
}

// Commit marks [addr, addr+size) as committed: the object is now visible
// to the scanner and counted toward this space's live-byte estimate.
func (s *Space) Commit(addr format.Addr, size uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.committed.Add(uint32(uint64(addr) / format.WordSize))
	_ = size // committed bitmap tracks object starts only; Scan derives extent via Format.Skip
}

// CommittedCount reports how many objects have been committed into this
// space (shown by String).
func (s *Space) CommittedCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.committed.GetCardinality()
}

// IterateCommitted invokes fn once per committed object's start address,
// in ascending order. Used by the collector to find registered
// finalizable objects that a trace left unforwarded.
func (s *Space) IterateCommitted(fn func(addr format.Addr)) {
	s.mu.Lock()
	words := s.committed.ToArray()
	s.mu.Unlock()

	for _, w := range words {
		fn(format.Addr(uint64(w) * format.WordSize))
	}
}

// Reset clears the space back to empty and bumps its epoch, invalidating
// any AP reservation still in flight against the epoch it observed.
func (s *Space) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bump = 0
	s.committed.Clear()
	s.epoch.Add(1)
}

// Contains reports whether the global address ref falls within this
// space's byte range.
func (s *Space) Contains(ref uint64) bool {
	return ref >= s.Base && ref < s.Base+uint64(len(s.data))
}

func (s *Space) String() string {
	return fmt.Sprintf("space(len=%d bump=%d committed=%d epoch=%d)",
		len(s.data), s.Bump(), s.CommittedCount(), s.Epoch())
}
