package alloc

import (
	"testing"
	"time"

	"github.com/movingc/igc/internal/arena"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/testing/require"
)

func smallPool(t *testing.T) *arena.Pool {
	t.Helper()
	chain := arena.Chain{Generations: []arena.Generation{
		{Name: "nursery", CapacityBytes: 4 * format.ConsSize, Mortality: 0.8},
	}}
	region := make([]byte, 4*format.ConsSize)
	pool, _ := arena.NewPool(arena.KindCons, format.Cons{}, chain, region, 0, &arena.Stats{})
	return pool
}

func TestReserveAndCommit(t *testing.T) {
	pool := smallPool(t)
	ap := NewCons(pool, Policy{MaxElapsedTime: 50 * time.Millisecond})

	res, err := ap.Reserve(format.ConsSize)
	require.NoError(t, err)
	require.Equal(t, format.ConsSize, res.Size)

	require.NoError(t, ap.Commit(res))
}

func TestCommitFailsAfterRelocationFlipsEpoch(t *testing.T) {
	pool := smallPool(t)
	ap := NewCons(pool, Policy{MaxElapsedTime: 50 * time.Millisecond})

	res, err := ap.Reserve(format.ConsSize)
	require.NoError(t, err)

	pool.Flip(0) // simulates a concurrent collection cycle completing

	err = ap.Commit(res)
	require.ErrorIs(t, err, ErrStaleReservation)
}

func TestReserveExhaustsRetryBudget(t *testing.T) {
	chain := arena.Chain{Generations: []arena.Generation{
		{Name: "nursery", CapacityBytes: 2 * format.ConsSize, Mortality: 0.8},
	}}
	region := make([]byte, 2*format.ConsSize)
	pool, _ := arena.NewPool(arena.KindCons, format.Cons{}, chain, region, 0, &arena.Stats{})
	ap := NewCons(pool, Policy{InitialInterval: time.Millisecond, MaxInterval: 2 * time.Millisecond, MaxElapsedTime: 20 * time.Millisecond})

	// The nursery's single semispace is ConsSize bytes; reserve it, then
	// every further reservation must time out since nothing ever frees it.
	_, err := ap.Reserve(format.ConsSize)
	require.NoError(t, err)

	_, err = ap.Reserve(format.ConsSize)
	require.ErrorIs(t, err, ErrExhausted)
}
