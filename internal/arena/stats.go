package arena

import "sync/atomic"

// Stats holds the running cycle counters: additive instrumentation, not
// a memory-usage report.
type Stats struct {
	cycles           atomic.Uint64
	bytesCopied      atomic.Uint64
	objectsForwarded atomic.Uint64
	finalizersDrained atomic.Uint64
}

// Snapshot is an immutable copy of Stats at one instant.
type Snapshot struct {
	Cycles            uint64
	BytesCopied       uint64
	ObjectsForwarded  uint64
	FinalizersDrained uint64
}

func (s *Stats) recordForward(size uint64) {
	s.bytesCopied.Add(size)
	s.objectsForwarded.Add(1)
}

func (s *Stats) recordCycle() {
	s.cycles.Add(1)
}

func (s *Stats) recordFinalizersDrained(n uint64) {
	s.finalizersDrained.Add(n)
}

// Snapshot returns a consistent-enough point-in-time copy of the counters.
func (s *Stats) Snapshot() Snapshot {
	return Snapshot{
		Cycles:            s.cycles.Load(),
		BytesCopied:       s.bytesCopied.Load(),
		ObjectsForwarded:  s.objectsForwarded.Load(),
		FinalizersDrained: s.finalizersDrained.Load(),
	}
}
