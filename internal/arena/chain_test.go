package arena

import (
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestDefaultChain(t *testing.T) {
	c := DefaultChain()
	require.Equal(t, 2, len(c.Generations))
	require.Equal(t, uint64(32000*1024), c.Generations[0].CapacityBytes)
	require.Equal(t, 0.8, c.Generations[0].Mortality)
	require.Equal(t, uint64(160045*1024), c.Generations[1].CapacityBytes)
	require.Equal(t, 0.4, c.Generations[1].Mortality)
}

func TestChainLast(t *testing.T) {
	c := DefaultChain()
	require.False(t, c.Last(0))
	require.True(t, c.Last(1))
}
