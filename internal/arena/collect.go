package arena

import (
	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/roots"
	"github.com/movingc/igc/internal/scan"
)

// RunCycle performs one complete mark/relocate/promote collection cycle
// over the cons pool: trace every registered root, copy every object it
// reaches (and everything reachable transitively from the copies) into
// each generation's destination space, post finalizers for anything left
// unreached, then flip semispaces.
//
// This module traces the whole cons heap on every cycle rather than
// using generation-scoped remembered sets (see DESIGN.md); the mortality
// threshold still governs the promotion decision, just not which
// generations get traced.
func (a *Arena) RunCycle() error {
	decidePromotions(a.Cons)
	a.Cons.SetRelocating(true)
	defer a.Cons.SetRelocating(false)

	fixer := a.Fixer()

	fixWord := func(word uint64) (uint64, error) {
		v, err := fixer.FixSlot(api.Value(word))
		return uint64(v), err
	}
	fixSlot := func(mem format.Memory, slot format.Addr) error {
		word := mem.ReadWord(slot)
		v, err := fixer.FixSlot(api.Value(word))
		if err != nil {
			return err
		}
		mem.WriteWord(slot, uint64(v))
		return nil
	}

	if err := a.traceRoots(fixer, fixWord); err != nil {
		return err
	}
	if err := a.traceToFixedPoint(fixSlot); err != nil {
		return err
	}
	a.postDeadFinalizers()
	a.flipGenerations()

	a.Stats.recordCycle()
	return nil
}

// traceRoots applies the fix protocol to every registered root, copying
// the objects they reference on first visit.
func (a *Arena) traceRoots(fixer *scan.Fixer, fixWord roots.FixFunc) error {
	return a.Roots.ForEach(func(r *roots.Root) error {
		switch r.Rank {
		case roots.Ambiguous:
			return scan.MemAreaScanner(fixer, r.Data)
		case roots.Exact:
			return r.Scan(fixWord)
		}
		return nil
	})
}

// traceToFixedPoint runs the Cheney two-finger scan: repeatedly scans
// every generation's destination space from where it left off to its
// current bump pointer, until no space advances, so that objects
// reachable only via a reference inside a just-copied object are
// themselves copied and scanned in turn.
func (a *Arena) traceToFixedPoint(fix format.FixFunc) error {
	pool := a.Cons
	for {
		progress := false
		for gen := 0; gen < pool.Generations(); gen++ {
			dst := pool.Destination(gen)
			cursor := pool.ScanCursor(gen)
			bump := dst.Bump()
			if cursor >= bump {
				continue
			}
			if err := pool.Format.Scan(dst, format.Addr(cursor), format.Addr(bump), fix); err != nil {
				return err
			}
			pool.AdvanceScanCursor(gen, bump)
			progress = true
		}
		if !progress {
			return nil
		}
	}
}

// postDeadFinalizers walks every generation's "from" space (the pre-cycle
// active space, not yet flipped) and posts the finalizer of any committed
// object that was registered but never forwarded during the trace.
func (a *Arena) postDeadFinalizers() {
	pool := a.Cons
	for gen := 0; gen < pool.Generations(); gen++ {
		from := pool.Active(gen)
		from.IterateCommitted(func(local format.Addr) {
			ref := from.Base + uint64(local)
			if !a.Final.Registered(ref) {
				return
			}
			if _, forwarded := pool.Format.IsForwarded(from, local); !forwarded {
				a.Final.Post(ref)
			}
		})
	}
}

func (a *Arena) flipGenerations() {
	for gen := 0; gen < a.Cons.Generations(); gen++ {
		a.Cons.Flip(gen)
	}
}
