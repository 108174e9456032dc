package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/movingc/igc/internal/arena"
	"github.com/movingc/igc/internal/testing/require"
)

func smallArena(t *testing.T) *arena.Arena {
	t.Helper()
	chain := arena.Chain{Generations: []arena.Generation{
		{Name: "nursery", CapacityBytes: 1024, Mortality: 0.8},
	}}
	a, err := arena.New(arena.Options{Chain: chain, SymbolTableBytes: 256})
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestOnIdleRunsACycle(t *testing.T) {
	a := smallArena(t)
	ctl := New(a, Options{TickInterval: time.Hour}) // background ticker effectively disabled

	require.Equal(t, uint64(0), a.Stats.Snapshot().Cycles)
	ctl.OnIdle()
	require.Equal(t, uint64(1), a.Stats.Snapshot().Cycles)
	require.Equal(t, Idle, ctl.Phase())
}

func TestInhibitGCBlocksCycles(t *testing.T) {
	a := smallArena(t)
	ctl := New(a, Options{TickInterval: time.Hour})

	release := ctl.InhibitGC()
	ctl.OnIdle()
	require.Equal(t, uint64(0), a.Stats.Snapshot().Cycles)

	release()
	ctl.OnIdle()
	require.Equal(t, uint64(1), a.Stats.Snapshot().Cycles)
}

func TestParkBlocksCycles(t *testing.T) {
	a := smallArena(t)
	ctl := New(a, Options{TickInterval: time.Hour})

	ctl.Park()
	ctl.OnIdle()
	require.Equal(t, uint64(0), a.Stats.Snapshot().Cycles)
	ctl.Release()

	ctl.OnIdle()
	require.Equal(t, uint64(1), a.Stats.Snapshot().Cycles)
}

func TestStartAndCloseStopBackgroundGoroutine(t *testing.T) {
	a := smallArena(t)
	ctl := New(a, Options{TickInterval: time.Millisecond})

	ctl.Start(context.Background())
	time.Sleep(20 * time.Millisecond)
	ctl.Close()

	require.Greater(t, a.Stats.Snapshot().Cycles, uint64(0))
}
