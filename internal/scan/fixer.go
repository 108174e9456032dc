// Package scan implements the fix protocol: the six-step operation
// applied to every candidate reference word during a scan, plus the small
// set of generic scanners the core provides (mem-area, static-vector) on
// top of it. The per-pool cons/symbol scanners live in internal/format,
// since they need direct access to each pool's object layout.
package scan

import (
	"errors"

	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/tagged"
)

// ErrRetry is the fix-retry signal: FIX2 (Pool.Fix) decided it could not
// complete right now and the scan of this area must abort and be retried
// by the collector. It never escapes the fix protocol.
var ErrRetry = errors.New("scan: retry")

// Pool is the FIX2 half of the protocol: given the address a reference
// resolves to, return its current address (relocating the object on first
// visit if the collector is actively evacuating it), or ErrRetry.
type Pool interface {
	Fix(ref uint64) (uint64, error)
}

// Locator is the FIX1 half of the protocol: does ref fall inside a known
// pool's managed range?
type Locator interface {
	Locate(ref uint64) (Pool, bool)
}

// Fixer applies the fix protocol: decode, filter, locate, relocate, re-encode.
type Fixer struct {
	SymbolTableBase uint64
	Locator         Locator
}

// FixSlot runs the six-step fix protocol over one candidate word and
// returns the (possibly rewritten) Value. It is tag-preserving:
// FixSlot(v).Tag() == v.Tag() always.
func (f *Fixer) FixSlot(v api.Value) (api.Value, error) {
	// Step 1+2: decode, and immediates are never references.
	if v.IsImmediate() {
		return v, nil
	}

	tag := v.Tag()
	// Symbols are a dedicated non-moving region; the offset is always
	// valid and the fix protocol never needs to consult a pool for it.
	if tag == api.TagSymbol {
		return v, nil
	}

	// Step 3: compute the candidate reference address.
	ref := tagged.ReferenceAddress(v, f.SymbolTableBase)

	// Step 4 (FIX1): is this a managed reference at all?
	pool, ok := f.Locator.Locate(ref)
	if !ok {
		return v, nil
	}

	// Step 5 (FIX2).
	newRef, err := pool.Fix(ref)
	if err != nil {
		return v, err
	}

	// Step 6: re-encode only if the address actually moved.
	if newRef == ref {
		return v, nil
	}
	return tagged.Rewrite(v, newRef, f.SymbolTableBase), nil
}
