package finalize

import (
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestPostQueuesOnlyWhenEnabled(t *testing.T) {
	c := New()
	ran := false
	c.Register(0x10, func() { ran = true })

	c.Post(0x10) // not yet enabled
	require.Equal(t, 0, c.Drain())
	require.False(t, ran)

	c.Enable(true)
	c.Register(0x10, func() { ran = true })
	c.Post(0x10)
	n := c.Drain()
	require.Equal(t, 1, n)
	require.True(t, ran)
}

func TestPostFiresAtMostOnce(t *testing.T) {
	c := New()
	c.Enable(true)
	count := 0
	c.Register(0x20, func() { count++ })

	c.Post(0x20)
	c.Post(0x20) // already removed from pending, second Post is a no-op
	c.Drain()
	require.Equal(t, 1, count)
}

func TestDeregisterPreventsPost(t *testing.T) {
	c := New()
	c.Enable(true)
	fired := false
	c.Register(0x30, func() { fired = true })
	c.Deregister(0x30)

	c.Post(0x30)
	c.Drain()
	require.False(t, fired)
}

func TestRegistered(t *testing.T) {
	c := New()
	require.False(t, c.Registered(0x40))
	c.Register(0x40, func() {})
	require.True(t, c.Registered(0x40))
}
