package arena

import (
	"errors"

	"github.com/movingc/igc/internal/format"
)

// ErrSymbolTableFull is returned by Alloc once the non-moving symbol
// table region has been exhausted.
var ErrSymbolTableFull = errors.New("arena: symbol table exhausted")

// SymbolTable is the built-in symbol table: a dedicated, non-moving
// bump-allocated region. TagSymbol values are an offset into this region
// rather than an absolute address (internal/tagged), and the fix protocol
// never relocates anything here (internal/scan.Fixer short-circuits
// TagSymbol before ever consulting a Locator) — interned symbols are
// permanent for the process lifetime, matching the table this collector
// is modeled on.
//
// A symbol's own fields (name, function, plist, package, value) are still
// ordinary managed references and are scanned via format.Symbol, which is
// why SymbolTable implements format.Memory.
type SymbolTable struct {
	space *Space
}

// NewSymbolTable carves out size bytes of region, starting at baseOffset,
// as the symbol table, returning the offset immediately past it.
func NewSymbolTable(region []byte, baseOffset, size uint64) (*SymbolTable, uint64) {
	return &SymbolTable{space: NewSpace(region[baseOffset:baseOffset+size], baseOffset)}, baseOffset + size
}

// Base is the symbol table's global base address: the value
// internal/tagged.ReferenceAddress adds to a TagSymbol payload.
func (t *SymbolTable) Base() uint64 { return t.space.Base }

// ReadWord implements format.Memory.
func (t *SymbolTable) ReadWord(addr format.Addr) uint64 { return t.space.ReadWord(addr) }

// WriteWord implements format.Memory.
func (t *SymbolTable) WriteWord(addr format.Addr, word uint64) { t.space.WriteWord(addr, word) }

// Alloc bump-allocates size bytes (a format.SymbolSize-sized slot) and
// returns its offset from Base. The underlying Space already serializes
// concurrent reservations.
func (t *SymbolTable) Alloc(size uint64) (format.Addr, error) {
	addr, ok := t.space.TryReserve(size)
	if !ok {
		return 0, ErrSymbolTableFull
	}
	t.space.Commit(addr, size)
	return addr, nil
}

// Scan walks every committed symbol, fixing its reference fields via fn.
func (t *SymbolTable) Scan(f format.Format, fn format.FixFunc) error {
	return f.Scan(t, 0, format.Addr(t.space.Bump()), fn)
}
