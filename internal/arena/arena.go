package arena

import (
	"fmt"

	"github.com/edsrzf/mmap-go"
	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/finalize"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/roots"
	"github.com/movingc/igc/internal/scan"
)

// Arena is the top-level C3 object: one mmap-backed virtual address
// space shared by the cons pool's generation chain and the non-moving
// symbol table, plus the root registry and finalization channel every
// fix and collection cycle operates against.
type Arena struct {
	region mmap.MMap

	Cons    *Pool
	Symbols *SymbolTable
	Roots   *roots.Registry
	Final   *finalize.Channel
	Stats   *Stats

	chain Chain
}

// Options configures a new Arena. Zero values fall back to DefaultChain
// and a 4096 KB symbol table.
type Options struct {
	Chain            Chain
	SymbolTableBytes uint64
}

// New maps a fresh arena region sized to fit opts.Chain's cons capacity
// plus the symbol table (and one leading unused word), and lays out the
// cons pool's generations and the symbol table within it.
func New(opts Options) (*Arena, error) {
	chain := opts.Chain
	if len(chain.Generations) == 0 {
		chain = DefaultChain()
	}
	symBytes := opts.SymbolTableBytes
	if symBytes == 0 {
		symBytes = 4096 * 1024
	}

	var consTotal uint64
	for _, g := range chain.Generations {
		consTotal += g.CapacityBytes
	}

	// The cons pool starts one word into the region so that no object ever
	// lives at global address 0: a zero word in an ambiguous root (or in a
	// fresh symbol's fields) decodes as a TagCons reference to address 0
	// and would otherwise keep whatever object sits there alive.
	total := format.WordSize + consTotal + symBytes
	region, err := mmap.MapRegion(nil, int(total), mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		return nil, fmt.Errorf("arena: mmap region of %d bytes: %w", total, err)
	}

	stats := &Stats{}
	consPool, next := NewPool(KindCons, format.Cons{}, chain, region, format.WordSize, stats)
	symtab, _ := NewSymbolTable(region, next, symBytes)

	a := &Arena{
		region:  region,
		Cons:    consPool,
		Symbols: symtab,
		Roots:   roots.New(),
		Final:   finalize.New(),
		Stats:   stats,
		chain:   chain,
	}

	if err := a.registerSymbolTableRoot(); err != nil {
		return nil, fmt.Errorf("arena: registering symbol table root: %w", err)
	}

	return a, nil
}

// registerSymbolTableRoot adds the built-in symbol table to the root
// registry as a static, startup-time exact root, so every symbol's
// value/function/plist/package slot is fixed on every cycle through the
// normal root-tracing path rather than a special case in RunCycle. This
// is what actually wires format.Symbol.Scan: without it, a symbol's
// fields referencing the cons pool would go stale across a move.
//
// The registered range is a single word at the table's base address, not
// its full reserved capacity (which can run to several MB by default):
// the overlap check in internal/roots exists to stop two callers from
// double-claiming the same memory, not to describe how much of the table
// gets scanned — that is however far SymbolTable.Scan's own bump pointer
// has advanced, which grows over the table's lifetime. Claiming the whole
// reserved span up front would spuriously collide with unrelated
// low-numbered addresses (embedder memory, test fixtures) that happen to
// fall inside that mostly-uncommitted range.
func (a *Arena) registerSymbolTableRoot() error {
	fixer := a.Fixer()
	scanFn := func(roots.FixFunc) error {
		return a.Symbols.Scan(format.Symbol{}, func(mem format.Memory, slot format.Addr) error {
			word := mem.ReadWord(slot)
			v, err := fixer.FixSlot(api.Value(word))
			if err != nil {
				return err
			}
			mem.WriteWord(slot, uint64(v))
			return nil
		})
	}
	base := a.Symbols.Base()
	_, err := a.Roots.RegisterExact(base, base+format.WordSize, scanFn, "symbol-table")
	return err
}

// Close unmaps the arena's backing region. It must only be called once
// the lifecycle controller has stopped its background goroutine.
func (a *Arena) Close() error {
	return a.region.Unmap()
}

// Locate implements scan.Locator (FIX1): ref resolves to the cons pool
// iff it falls inside one of its active generations. TagSymbol references
// never reach Locate (internal/scan.Fixer short-circuits them), so the
// symbol table is intentionally not a scan.Pool.
func (a *Arena) Locate(ref uint64) (scan.Pool, bool) {
	if a.Cons.Contains(ref) {
		return a.Cons, true
	}
	return nil, false
}

// SymbolTableBase returns the base address internal/tagged needs to
// resolve a TagSymbol payload to an absolute address.
func (a *Arena) SymbolTableBase() uint64 {
	return a.Symbols.Base()
}

// Fixer returns a scan.Fixer wired against this arena.
func (a *Arena) Fixer() *scan.Fixer {
	return &scan.Fixer{SymbolTableBase: a.SymbolTableBase(), Locator: a}
}

// DrainFinalizers runs every queued finalizer callback and records how
// many ran into the cycle statistics.
func (a *Arena) DrainFinalizers() int {
	n := a.Final.Drain()
	if n > 0 {
		a.Stats.recordFinalizersDrained(uint64(n))
	}
	return n
}
