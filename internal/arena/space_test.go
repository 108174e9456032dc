package arena

import (
	"testing"

	"github.com/movingc/igc/internal/format"
	"github.com/movingc/igc/internal/testing/require"
)

func TestSpaceTryReserve(t *testing.T) {
	s := NewSpace(make([]byte, 64), 0x1000)
	addr, ok := s.TryReserve(16)
	require.True(t, ok)
	require.Equal(t, format.Addr(0), addr)

	addr, ok = s.TryReserve(16)
	require.True(t, ok)
	require.Equal(t, format.Addr(16), addr)

	_, ok = s.TryReserve(64)
	require.False(t, ok) // exceeds remaining capacity
}

func TestSpaceReadWriteWord(t *testing.T) {
	s := NewSpace(make([]byte, 32), 0)
	s.WriteWord(8, 0xabcdef)
	require.Equal(t, uint64(0xabcdef), s.ReadWord(8))
}

func TestSpaceCommitAndIterate(t *testing.T) {
	s := NewSpace(make([]byte, 64), 0x2000)
	a, _ := s.TryReserve(16)
	s.Commit(a, 16)
	b, _ := s.TryReserve(16)
	s.Commit(b, 16)

	var seen []format.Addr
	s.IterateCommitted(func(addr format.Addr) { seen = append(seen, addr) })
	require.Equal(t, []format.Addr{0, 16}, seen)
	require.Equal(t, uint64(2), s.CommittedCount())
}

func TestSpaceResetBumpsEpoch(t *testing.T) {
	s := NewSpace(make([]byte, 64), 0)
	require.Equal(t, uint64(0), s.Epoch())
	s.TryReserve(16)
	s.Reset()
	require.Equal(t, uint64(0), s.Bump())
	require.Equal(t, uint64(1), s.Epoch())
}

func TestSpaceContains(t *testing.T) {
	s := NewSpace(make([]byte, 64), 0x1000)
	require.True(t, s.Contains(0x1000))
	require.True(t, s.Contains(0x103f))
	require.False(t, s.Contains(0x1040))
	require.False(t, s.Contains(0x0fff))
}
