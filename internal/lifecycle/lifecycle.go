// Package lifecycle implements the lifecycle controller: the state
// machine that drives collection cycles on a background goroutine, the
// park/release protocol that lets callers safely mutate the root registry,
// and the inhibit-GC scope embedders use around critical sections.
package lifecycle

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/anacrolix/sync"
	"github.com/movingc/igc/internal/arena"
)

// Phase is the collector's current position in its Idle -> Marking ->
// Relocating -> Idle state machine.
type Phase int32

const (
	Idle Phase = iota
	Marking
	Relocating
)

func (p Phase) String() string {
	switch p {
	case Marking:
		return "marking"
	case Relocating:
		return "relocating"
	default:
		return "idle"
	}
}

// Controller owns the background goroutine that drives collection cycles
// over an Arena, plus the park/release and inhibit-GC coordination every
// mutation of the root registry or allocation must respect.
type Controller struct {
	arena *arena.Arena

	phase atomic.Int32

	// cycleMu serializes cycle execution with Park/Release: a running
	// cycle and a parked caller never hold it at the same time, and at
	// most one cycle ever runs at once.
	cycleMu sync.Mutex

	inhibited atomic.Int32

	tickInterval    time.Duration
	tickingDisabled bool
	cancel          context.CancelFunc
	done            chan struct{}
}

// Options configures a Controller. A zero TickInterval falls back to
// 10ms, matching an interactive embedder's idle-time budget granularity.
// A negative TickInterval disables the background ticker entirely: the
// collector then only makes progress when OnIdle is called explicitly
// (used by embedders that drive everything from their own event loop,
// and by tests that want deterministic cycle counts).
type Options struct {
	TickInterval time.Duration
}

// New returns a Controller for a, not yet started.
func New(a *arena.Arena, opts Options) *Controller {
	interval := opts.TickInterval
	disabled := false
	switch {
	case interval < 0:
		disabled = true
	case interval == 0:
		interval = 10 * time.Millisecond
	}
	return &Controller{arena: a, tickInterval: interval, tickingDisabled: disabled}
}

// Phase returns the collector's current state.
func (c *Controller) Phase() Phase {
	return Phase(c.phase.Load())
}

// Start launches the background goroutine. It ticks at TickInterval,
// attempting one opportunistic cycle per tick whenever the collector is
// neither parked nor inhibited. If ticking is disabled (a negative
// TickInterval was passed to New), the goroutine only waits for Close and
// the collector makes progress solely through explicit OnIdle calls.
// Start is idempotent-unsafe: callers must not call it twice without an
// intervening Close.
func (c *Controller) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.done = make(chan struct{})

	if c.tickingDisabled {
		go func() {
			defer close(c.done)
			<-ctx.Done()
		}()
		return
	}

	go func() {
		defer close(c.done)
		ticker := time.NewTicker(c.tickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.tryCycle()
			}
		}
	}()
}

// Close stops the background goroutine and waits for it to exit.
func (c *Controller) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	<-c.done
}

// OnIdle gives the collector an immediate opportunity to make progress:
// an embedder calls this when its event loop is about to block, instead
// of waiting for the next background tick.
func (c *Controller) OnIdle() {
	c.tryCycle()
}

func (c *Controller) tryCycle() {
	if c.inhibited.Load() > 0 {
		return
	}
	if !c.cycleMu.TryLock() {
		return
	}
	defer c.cycleMu.Unlock()

	c.phase.Store(int32(Marking))
	c.phase.Store(int32(Relocating))
	_ = c.arena.RunCycle()
	c.phase.Store(int32(Idle))
}

// Park blocks until any in-flight cycle finishes, then holds exclusive
// access so the caller can safely mutate the root registry. Release must
// be called exactly once per Park.
func (c *Controller) Park() {
	c.cycleMu.Lock()
}

// Release ends a Park/Release scope.
func (c *Controller) Release() {
	c.cycleMu.Unlock()
}

// InhibitGC prevents any cycle from starting until the returned func is
// called. Nestable: each call increments a counter, each release
// decrements it, and cycles resume once it reaches zero.
func (c *Controller) InhibitGC() (release func()) {
	c.inhibited.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() { c.inhibited.Add(-1) })
	}
}
