package format

import (
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestConsSkip(t *testing.T) {
	c := Cons{}
	mem := newMemory()
	require.Equal(t, Addr(ConsSize), c.Skip(mem, 0))
}

func TestConsScanFixesCarAndCdr(t *testing.T) {
	c := Cons{}
	mem := newMemory()
	mem.WriteWord(0, 10)
	mem.WriteWord(WordSize, 20)

	var fixed []uint64
	fix := func(m Memory, slot Addr) error {
		fixed = append(fixed, m.ReadWord(slot))
		m.WriteWord(slot, m.ReadWord(slot)+1)
		return nil
	}

	err := c.Scan(mem, 0, ConsSize, fix)
	require.NoError(t, err)
	require.Equal(t, []uint64{10, 20}, fixed)
	require.Equal(t, uint64(11), mem.ReadWord(0))
	require.Equal(t, uint64(21), mem.ReadWord(WordSize))
}

func TestConsScanSkipsForwarded(t *testing.T) {
	c := Cons{}
	mem := newMemory()
	c.Forward(mem, 0, 256)
	mem.WriteWord(ConsSize, 1)
	mem.WriteWord(ConsSize+WordSize, 2)

	var visited int
	fix := func(Memory, Addr) error { visited++; return nil }

	err := c.Scan(mem, 0, 2*ConsSize, fix)
	require.NoError(t, err)
	require.Equal(t, 2, visited) // only the second, unforwarded cons is fixed
}
