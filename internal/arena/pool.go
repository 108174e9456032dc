package arena

import (
	"github.com/anacrolix/sync"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/scan"
)

// Kind identifies which object format a Pool manages.
type Kind int

const (
	KindCons Kind = iota
	KindSymbol
)

func (k Kind) String() string {
	if k == KindCons {
		return "cons"
	}
	return "symbol"
}

// genSpaces is one generation's semispace pair within a Pool.
type genSpaces struct {
	from, to *Space
	// promote records the cycle decision (set by collect.go before
	// relocation starts) that this generation's survivors go to the next
	// generation's "to" space rather than its own.
	promote bool
	// scanCursor is how far into "to" the Cheney trace has already
	// scanned this cycle (internal/arena/collect.go).
	scanCursor uint64
	// lastSurvival is the fraction of this generation's "to" semispace
	// (half its capacity) filled by copies during its most recently
	// completed cycle, used by decidePromotions (promote.go) to decide
	// this cycle's promote flag per the mortality-threshold rule.
	lastSurvival float64
}

// Pool manages every generation's copy of one object kind (cons or
// symbol), i.e. it is the C3 "pool" sliced across the whole generation
// chain. It implements scan.Pool, so the Fixer can ask it to relocate an
// object on first visit during an active cycle.
type Pool struct {
	Kind   Kind
	Format format.Format

	chain Chain
	gens  []*genSpaces

	mu         sync.Mutex
	relocating bool
	stats      *Stats
}

// NewPool builds a Pool with one semispace pair per generation in chain,
// each carved out of region starting at baseOffset; it returns the offset
// immediately past the bytes it consumed, for the next pool to start at.
func NewPool(kind Kind, f format.Format, chain Chain, region []byte, baseOffset uint64, stats *Stats) (*Pool, uint64) {
	p := &Pool{Kind: kind, Format: f, chain: chain, stats: stats}
	offset := baseOffset
	for _, g := range chain.Generations {
		half := g.CapacityBytes / 2
		from := NewSpace(region[offset:offset+half], offset)
		offset += half
		to := NewSpace(region[offset:offset+half], offset)
		offset += half
		p.gens = append(p.gens, &genSpaces{from: from, to: to})
	}
	return p, offset
}

// Contains reports whether the global address ref falls inside one of
// this pool's active (from) semispaces.
func (p *Pool) Contains(ref uint64) bool {
	for _, g := range p.gens {
		if g.from.Contains(ref) {
			return true
		}
	}
	return false
}

func (p *Pool) findGen(ref uint64) (int, format.Addr, bool) {
	for i, g := range p.gens {
		if g.from.Contains(ref) {
			return i, format.Addr(ref - g.from.Base), true
		}
	}
	return 0, 0, false
}

// SetRelocating toggles whether Fix performs real copy-and-forward work or
// is a cheap pass-through. RunCycle turns it on for the duration of a
// cycle and off again when the cycle returns.
func (p *Pool) SetRelocating(on bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.relocating = on
}

// SetPromote records, for generation i, whether its survivors are
// promoted into generation i+1 during the next relocation.
func (p *Pool) SetPromote(gen int, promote bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.chain.Last(gen) {
		p.gens[gen].promote = promote
	}
}

// destination returns the space generation i's survivors copy into,
// honoring the promotion decision set by SetPromote.
func (p *Pool) destination(gen int) *Space {
	g := p.gens[gen]
	if g.promote && !p.chain.Last(gen) {
		return p.gens[gen+1].to
	}
	return g.to
}

// Fix implements scan.Pool: FIX2. Outside an active relocation it is a
// no-op; during relocation it copies the object on first visit and writes
// a forwarding marker, returning the new global address.
func (p *Pool) Fix(ref uint64) (uint64, error) {
	p.mu.Lock()
	relocating := p.relocating
	p.mu.Unlock()

	gi, local, ok := p.findGen(ref)
	if !ok {
		return ref, nil
	}
	if !relocating {
		return ref, nil
	}

	g := p.gens[gi]
	if target, forwarded := p.Format.IsForwarded(g.from, local); forwarded {
		dst := p.destination(gi)
		return dst.Base + uint64(target), nil
	}

	size := uint64(p.Format.Skip(g.from, local) - local)
	dst := p.destination(gi)
	newAddr, ok := dst.TryReserve(size)
	if !ok {
		return 0, scan.ErrRetry
	}
	copyObject(g.from, dst, local, newAddr, size)
	dst.Commit(newAddr, size)
	p.Format.Forward(g.from, local, newAddr)
	p.stats.recordForward(size)

	return dst.Base + uint64(newAddr), nil
}

// copyObject copies size bytes word-by-word from src:from to dst:to,
// since every Format's object size is a multiple of format.WordSize.
func copyObject(src, dst format.Memory, from, to format.Addr, size uint64) {
	for off := uint64(0); off < size; off += format.WordSize {
		dst.WriteWord(to+format.Addr(off), src.ReadWord(from+format.Addr(off)))
	}
}

// Flip retires generation gen's "from" space (after a completed
// relocation has emptied it of live data) by swapping it with "to" and
// resetting the old "from" so it becomes the next cycle's free "to".
func (p *Pool) Flip(gen int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	g := p.gens[gen]
	g.lastSurvival = float64(g.to.Bump()) / float64(g.to.Len())
	g.from.Reset()
	g.from, g.to = g.to, g.from
	g.promote = false
	g.scanCursor = 0
}

// Active returns generation gen's current "from" (active) space, used by
// the mark phase to walk committed objects.
func (p *Pool) Active(gen int) *Space {
	return p.gens[gen].from
}

// Destination exposes the cycle's chosen destination space for
// generation gen, for the Cheney trace driver in collect.go.
func (p *Pool) Destination(gen int) *Space {
	return p.destination(gen)
}

// ScanCursor and AdvanceScanCursor let collect.go drive the Cheney
// two-finger scan across every generation's destination space to a fixed
// point, including destinations that receive promoted objects from a
// younger generation.
func (p *Pool) ScanCursor(gen int) uint64 { return p.gens[gen].scanCursor }

func (p *Pool) AdvanceScanCursor(gen int, to uint64) { p.gens[gen].scanCursor = to }

// LastSurvival returns generation gen's survival fraction as of its most
// recently completed cycle (zero before the first cycle).
func (p *Pool) LastSurvival(gen int) float64 { return p.gens[gen].lastSurvival }

// Mortality returns generation gen's configured mortality threshold.
func (p *Pool) Mortality(gen int) float64 { return p.chain.Generations[gen].Mortality }

// Generations reports how many generations this pool has a semispace pair
// for.
func (p *Pool) Generations() int { return len(p.gens) }
