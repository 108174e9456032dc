// Package igc is the external hook surface of the collector: the set of
// entry points a surrounding language runtime calls to register memory,
// register threads, allocate objects, and give the collector idle-time
// work, wrapping the internal arena/roots/threads/lifecycle machinery.
package igc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
	"unsafe"

	"github.com/google/uuid"
	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/alloc"
	"github.com/movingc/igc/internal/arena"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/lifecycle"
	"github.com/movingc/igc/internal/observe"
	"github.com/movingc/igc/internal/roots"
	"github.com/movingc/igc/internal/scan"
	"github.com/movingc/igc/internal/threads"
)

// Default sizes for the startup-registered value-stack vector and the
// two buffer-parameter blocks, in words.
const (
	defaultValueStackWords  = 4096
	defaultBufferParamWords = 1024
)

// Runtime is the collector instance an embedding language runtime holds
// for its entire process lifetime.
type Runtime struct {
	arena   *arena.Arena
	ctl     *lifecycle.Controller
	threads *threads.Registry
	consAP  *alloc.AP

	log       *observe.Logger
	telemetry *observe.Telemetry
	lastSnap  arena.Snapshot

	// Default static roots registered at startup: the value-stack vector
	// and the two buffer-parameter blocks. Kept alive here so the slices
	// backing their registered address ranges are never collected by Go
	// itself out from under the registry.
	valueStack   []uint64
	bufferParams [2][]uint64
}

// Init constructs a Runtime from cfg and starts its background collector
// goroutine, bound to ctx: cancelling ctx (or calling Close) stops it.
func Init(ctx context.Context, cfg *Config) (*Runtime, error) {
	if cfg == nil {
		cfg = NewConfig()
	}

	a, err := arena.New(arena.Options{Chain: cfg.chain, SymbolTableBytes: cfg.symbolTableBytes})
	if err != nil {
		return nil, fmt.Errorf("igc: init: %w", err)
	}

	ctl := lifecycle.New(a, lifecycle.Options{TickInterval: msToDuration(cfg.tickIntervalMS)})
	consAP := alloc.NewCons(a.Cons, alloc.Policy{})
	tr := threads.New(a.Roots, consAP)

	var tel *observe.Telemetry
	if cfg.telemetry {
		tel = observe.NewTelemetry()
	}

	rt := &Runtime{
		arena:     a,
		ctl:       ctl,
		threads:   tr,
		consAP:    consAP,
		log:       observe.NewLogger(nil, observe.ScopeNone),
		telemetry: tel,
	}

	a.Final.Enable(cfg.finalizationEnabled)

	if err := rt.registerDefaultStaticRoots(); err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("igc: init: %w", err)
	}

	ctl.Start(ctx)
	return rt, nil
}

// EnableFinalization toggles finalizer delivery at runtime, overriding
// whatever Config.WithFinalization chose at startup.
func (rt *Runtime) EnableFinalization(on bool) {
	rt.arena.Final.Enable(on)
}

// registerDefaultStaticRoots adds the startup static roots named alongside
// the built-in symbol table: the value-stack vector and both default
// buffer-parameter blocks, each an ambiguous root over its own Go slice's
// backing array. These are conservatively scanned exactly like any other
// mem_insert root; they are pre-registered here only because, unlike
// embedder memory, nothing else ever calls mem_insert for them.
func (rt *Runtime) registerDefaultStaticRoots() error {
	rt.valueStack = make([]uint64, defaultValueStackWords)
	if _, err := rt.registerSliceRoot(rt.valueStack, "value-stack"); err != nil {
		return err
	}

	for i := range rt.bufferParams {
		rt.bufferParams[i] = make([]uint64, defaultBufferParamWords)
		owner := fmt.Sprintf("buffer-parameter-%d", i)
		if _, err := rt.registerSliceRoot(rt.bufferParams[i], owner); err != nil {
			return err
		}
	}
	return nil
}

// registerSliceRoot registers data's backing array as an ambiguous root
// spanning its own address range, derived via unsafe.Pointer since data is
// ordinary Go-managed memory rather than arena-backed storage.
func (rt *Runtime) registerSliceRoot(data []uint64, owner string) (roots.Handle, error) {
	start := uint64(uintptr(unsafe.Pointer(&data[0])))
	end := start + uint64(len(data))*format.WordSize
	return rt.arena.Roots.RegisterAmbiguous(start, end, data, owner)
}

// Close stops the background collector goroutine and unmaps the arena.
func (rt *Runtime) Close() error {
	rt.ctl.Close()
	return rt.arena.Close()
}

// WithLogging enables logger output for the given scopes, returning rt for
// chaining.
func (rt *Runtime) WithLogging(w io.Writer, scopes observe.Scope) *Runtime {
	rt.log = observe.NewLogger(w, scopes)
	return rt
}

// Stats returns a snapshot of the collector's running cycle counters.
func (rt *Runtime) Stats() arena.Snapshot {
	return rt.arena.Stats.Snapshot()
}

// --- Memory registration -------------------------------------------------

// MemHandle identifies a memory range registered via MemInsert.
type MemHandle = roots.Handle

// MemInsert registers [start, end), backed by the live word slice data, as
// an ambiguous root: every word in data is a scan candidate on every
// future cycle until MemDelete removes it. The caller owns data and must
// keep it in sync with the memory it describes.
func (rt *Runtime) MemInsert(start, end uint64, data []uint64) (MemHandle, error) {
	rt.ctl.Park()
	defer rt.ctl.Release()

	h, err := rt.arena.Roots.RegisterAmbiguous(start, end, data, "mem-insert")
	if err != nil {
		return MemHandle{}, fmt.Errorf("igc: mem_insert: %w", err)
	}
	rt.log.Logf(observe.ScopeRoots, "mem_insert [%d,%d) -> %s", start, end, h)
	return h, nil
}

// MemDelete deregisters a range previously registered with MemInsert.
func (rt *Runtime) MemDelete(h MemHandle) error {
	rt.ctl.Park()
	defer rt.ctl.Release()

	if err := rt.arena.Roots.Deregister(h); err != nil {
		return fmt.Errorf("igc: mem_delete: %w", err)
	}
	rt.log.Logf(observe.ScopeRoots, "mem_delete %s", h)
	return nil
}

// --- Thread registration --------------------------------------------------

// ThreadHandle identifies a registered mutator thread.
type ThreadHandle = threads.Handle

// ThreadAdd registers a new mutator thread whose control stack spans
// [coldEnd, sp), conservatively scanned through stackWords, and whose
// dynamic-binding (specpdl) stack is precisely scanned by bindingScan.
func (rt *Runtime) ThreadAdd(coldEnd, sp uint64, stackWords []uint64, bindingScan roots.ScanFunc) (ThreadHandle, error) {
	rt.ctl.Park()
	defer rt.ctl.Release()

	rec, err := rt.threads.Add(coldEnd, sp, stackWords, bindingScan)
	if err != nil {
		return ThreadHandle{}, fmt.Errorf("igc: thread_add: %w", err)
	}
	rt.log.Logf(observe.ScopeRoots, "thread_add -> %s", rec.Handle)
	return rec.Handle, nil
}

// ThreadRemove deregisters a thread and its roots.
func (rt *Runtime) ThreadRemove(h ThreadHandle) error {
	rt.ctl.Park()
	defer rt.ctl.Release()

	if err := rt.threads.Remove(h); err != nil {
		return fmt.Errorf("igc: thread_remove: %w", err)
	}
	rt.log.Logf(observe.ScopeRoots, "thread_remove %s", h)
	return nil
}

// GrowSpecpdl replaces a thread's dynamic-binding root with one covering
// the new, larger [start, end) range after the embedder has reallocated
// its specpdl stack.
func (rt *Runtime) GrowSpecpdl(h ThreadHandle, start, end uint64, scan roots.ScanFunc) error {
	rec, ok := rt.threads.Get(h)
	if !ok {
		return fmt.Errorf("igc: grow_specpdl: unknown thread %s", h)
	}

	rt.ctl.Park()
	defer rt.ctl.Release()

	if err := rt.arena.Roots.Deregister(rec.BindingRootHandle); err != nil {
		return fmt.Errorf("igc: grow_specpdl: deregister old root: %w", err)
	}
	newHandle, err := rt.arena.Roots.RegisterExact(start, end, scan, "thread-specpdl")
	if err != nil {
		return fmt.Errorf("igc: grow_specpdl: register new root: %w", err)
	}
	rec.BindingRootHandle = newHandle
	return nil
}

// SpecbindingUnused shrinks a thread's dynamic-binding root to [start,
// end) after the embedder has unwound bindings it no longer needs scanned.
func (rt *Runtime) SpecbindingUnused(h ThreadHandle, start, end uint64, scan roots.ScanFunc) error {
	return rt.GrowSpecpdl(h, start, end, scan)
}

// --- Face cache / glyph matrix calling convention ------------------------

// FaceCacheHandle identifies a registered face cache exact root.
type FaceCacheHandle = roots.Handle

// MakeFaceCache registers an embedder's face cache, scanned by
// internal/scan.FaceCacheScanner, as an exact root over [start, end).
func (rt *Runtime) MakeFaceCache(start, end uint64, faces *[]scan.Face) (FaceCacheHandle, error) {
	fixer := rt.arena.Fixer()
	scanFn := func(roots.FixFunc) error {
		return scan.FaceCacheScanner(fixer, *faces)
	}

	rt.ctl.Park()
	defer rt.ctl.Release()
	h, err := rt.arena.Roots.RegisterExact(start, end, scanFn, "face-cache")
	if err != nil {
		return FaceCacheHandle{}, fmt.Errorf("igc: make_face_cache: %w", err)
	}
	return h, nil
}

// FreeFaceCache deregisters a face cache root.
func (rt *Runtime) FreeFaceCache(h FaceCacheHandle) error {
	rt.ctl.Park()
	defer rt.ctl.Release()
	return rt.arena.Roots.Deregister(h)
}

// FaceCacheChange re-registers a face cache root after the embedder has
// resized or replaced its underlying vector (start/end may differ).
func (rt *Runtime) FaceCacheChange(h FaceCacheHandle, start, end uint64, faces *[]scan.Face) (FaceCacheHandle, error) {
	if err := rt.FreeFaceCache(h); err != nil {
		return FaceCacheHandle{}, err
	}
	return rt.MakeFaceCache(start, end, faces)
}

// GlyphMatrixHandle identifies a registered glyph matrix exact root.
type GlyphMatrixHandle = roots.Handle

// AdjustGlyphMatrix registers (or re-registers) an embedder's glyph
// matrix, scanned by internal/scan.GlyphRowScanner.
func (rt *Runtime) AdjustGlyphMatrix(start, end uint64, rows *[]scan.GlyphRow) (GlyphMatrixHandle, error) {
	fixer := rt.arena.Fixer()
	scanFn := func(roots.FixFunc) error {
		return scan.GlyphRowScanner(fixer, *rows)
	}

	rt.ctl.Park()
	defer rt.ctl.Release()
	h, err := rt.arena.Roots.RegisterExact(start, end, scanFn, "glyph-matrix")
	if err != nil {
		return GlyphMatrixHandle{}, fmt.Errorf("igc: adjust_glyph_matrix: %w", err)
	}
	return h, nil
}

// FreeGlyphMatrix deregisters a glyph matrix root.
func (rt *Runtime) FreeGlyphMatrix(h GlyphMatrixHandle) error {
	rt.ctl.Park()
	defer rt.ctl.Release()
	return rt.arena.Roots.Deregister(h)
}

// --- Reader stack / pdump --------------------------------------------------

// ReadStackHandle identifies the growable reader-stack exact root.
type ReadStackHandle = roots.Handle

// GrowReadStack replaces the reader stack's root after the embedder has
// grown its backing storage.
func (rt *Runtime) GrowReadStack(old ReadStackHandle, start, end uint64, scanFn roots.ScanFunc) (ReadStackHandle, error) {
	rt.ctl.Park()
	defer rt.ctl.Release()

	if old != (uuid.UUID{}) {
		if err := rt.arena.Roots.Deregister(old); err != nil {
			return ReadStackHandle{}, fmt.Errorf("igc: grow_read_stack: deregister old root: %w", err)
		}
	}
	h, err := rt.arena.Roots.RegisterExact(start, end, scanFn, "read-stack")
	if err != nil {
		return ReadStackHandle{}, fmt.Errorf("igc: grow_read_stack: %w", err)
	}
	return h, nil
}

// PdumpLoaded notifies the collector that a persistent dump image has
// finished loading, so static image roots registered beforehand are now
// known-stable and included in every subsequent trace. This module treats
// the notification as a no-op trigger point: by the time PdumpLoaded is
// called, the image's own roots must already have been registered via
// MemInsert/MakeFaceCache/etc, matching the hook's ordering contract.
func (rt *Runtime) PdumpLoaded() {
	rt.log.Logf(observe.ScopeCycle, "pdump_loaded: %d roots active", rt.arena.Roots.Len())
}

// --- Idle-time work & messaging -------------------------------------------

// OnIdle gives the collector an opportunity to make progress immediately,
// instead of waiting for its next background tick.
func (rt *Runtime) OnIdle() {
	rt.ctl.OnIdle()
	rt.observeTelemetry()
}

// HandleMessages drains any finalizer callbacks queued by a completed
// cycle, running them on the calling goroutine, and returns how many ran.
func (rt *Runtime) HandleMessages() int {
	n := rt.arena.DrainFinalizers()
	if n > 0 {
		rt.log.Logf(observe.ScopeFinalize, "handle_messages: drained %d finalizers", n)
	}
	rt.observeTelemetry()
	return n
}

func (rt *Runtime) observeTelemetry() {
	if rt.telemetry == nil {
		return
	}
	snap := rt.arena.Stats.Snapshot()
	rt.telemetry.Observe(snap, rt.lastSnap)
	rt.lastSnap = snap
}

// InhibitGC prevents any cycle from starting until the returned func is
// called; the returned func must be called exactly once, typically via
// defer.
func (rt *Runtime) InhibitGC() (release func()) {
	return rt.ctl.InhibitGC()
}

// --- Allocation ------------------------------------------------------------

// RegisterFinalizer arranges for cb to run, at most once, if the object at
// ref is found unreachable by a future cycle.
func (rt *Runtime) RegisterFinalizer(ref uint64, cb func()) {
	rt.arena.Final.Register(ref, cb)
}

// MakeCons allocates a cons cell with the given car/cdr values and returns
// a TagCons-tagged Value referencing it. A concurrent collection cycle
// may flip the nursery's semispaces between Reserve and Commit; that is a
// local, expected race (alloc.ErrStaleReservation), recovered by
// repeating reserve/init/commit rather than ever surfacing the signal as
// a hard allocation failure.
func (rt *Runtime) MakeCons(car, cdr api.Value) (api.Value, error) {
	for {
		res, err := rt.consAP.Reserve(format.ConsSize)
		if err != nil {
			return 0, fmt.Errorf("igc: make_cons: %w", err)
		}

		space := res.Space()
		space.WriteWord(res.Addr, uint64(car))
		space.WriteWord(res.Addr+format.WordSize, uint64(cdr))

		if err := rt.consAP.Commit(res); err != nil {
			if errors.Is(err, alloc.ErrStaleReservation) {
				continue
			}
			return 0, fmt.Errorf("igc: make_cons: %w", err)
		}

		ref := space.Base + uint64(res.Addr)
		return api.MakeValue(ref, api.TagCons), nil
	}
}

// AllocSymbol allocates a symbol object in the non-moving symbol table and
// returns a TagSymbol-tagged Value referencing it by table offset.
func (rt *Runtime) AllocSymbol() (api.Value, error) {
	addr, err := rt.arena.Symbols.Alloc(format.SymbolSize)
	if err != nil {
		return 0, fmt.Errorf("igc: alloc_symbol: %w", err)
	}
	return api.MakeValue(uint64(addr), api.TagSymbol), nil
}

// msToDuration converts a millisecond tick interval to the duration the
// lifecycle controller expects, preserving its "non-positive disables
// ticking" sentinel rather than letting ms<=0 become a zero or backwards
// duration.
func msToDuration(ms int64) time.Duration {
	if ms <= 0 {
		return -1
	}
	return time.Duration(ms) * time.Millisecond
}
