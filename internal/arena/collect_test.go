package arena

import (
	"testing"

	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/testing/require"
)

func allocCons(t *testing.T, a *Arena, car, cdr uint64) uint64 {
	t.Helper()
	from := a.Cons.Active(0)
	addr, ok := from.TryReserve(format.ConsSize)
	require.True(t, ok)
	from.WriteWord(addr, car)
	from.WriteWord(addr+format.WordSize, cdr)
	from.Commit(addr, format.ConsSize)
	return from.Base + uint64(addr)
}

func TestRunCycleRelocatesRootedObjectAndFixesRootWord(t *testing.T) {
	a, err := New(Options{Chain: smallChain(), SymbolTableBytes: 256})
	require.NoError(t, err)
	defer a.Close()

	ref := allocCons(t, a, uint64(api.EncodeFixnum(1)), uint64(api.EncodeFixnum(2)))
	v := api.MakeValue(ref, api.TagCons)

	data := []uint64{uint64(v)}
	_, err = a.Roots.RegisterAmbiguous(0xF000, 0xF008, data, "test-root")
	require.NoError(t, err)

	require.NoError(t, a.RunCycle())

	movedValue := api.Value(data[0])
	require.Equal(t, api.TagCons, movedValue.Tag())
	require.True(t, movedValue.Payload() != ref) // relocated to the destination space

	// The moved object's car/cdr are still intact.
	pool := a.Cons
	movedRef := movedValue.Payload()
	var found *Space
	for gen := 0; gen < pool.Generations(); gen++ {
		if pool.Active(gen).Contains(movedRef) {
			found = pool.Active(gen)
		}
	}
	require.NotNil(t, found)
	local := format.Addr(movedRef - found.Base)
	require.Equal(t, uint64(api.EncodeFixnum(1)), found.ReadWord(local))
	require.Equal(t, uint64(api.EncodeFixnum(2)), found.ReadWord(local+format.WordSize))
}

func TestRunCyclePostsFinalizerForUnreachableObject(t *testing.T) {
	a, err := New(Options{Chain: smallChain(), SymbolTableBytes: 256})
	require.NoError(t, err)
	defer a.Close()

	ref := allocCons(t, a, uint64(api.EncodeFixnum(9)), uint64(api.EncodeFixnum(9)))
	a.Final.Enable(true)
	fired := false
	a.Final.Register(ref, func() { fired = true })

	require.NoError(t, a.RunCycle())
	a.DrainFinalizers()
	require.True(t, fired)
}

func TestRunCycleDoesNotFinalizeReachableObject(t *testing.T) {
	a, err := New(Options{Chain: smallChain(), SymbolTableBytes: 256})
	require.NoError(t, err)
	defer a.Close()

	ref := allocCons(t, a, uint64(api.EncodeFixnum(1)), uint64(api.EncodeFixnum(1)))
	v := api.MakeValue(ref, api.TagCons)
	data := []uint64{uint64(v)}
	_, err = a.Roots.RegisterAmbiguous(0xF000, 0xF008, data, "test-root")
	require.NoError(t, err)

	a.Final.Enable(true)
	fired := false
	a.Final.Register(ref, func() { fired = true })

	require.NoError(t, a.RunCycle())
	a.DrainFinalizers()
	require.False(t, fired)
}
