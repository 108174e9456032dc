package roots

import (
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestRegisterAmbiguousAndFindByStart(t *testing.T) {
	r := New()
	data := []uint64{1, 2, 3}
	h, err := r.RegisterAmbiguous(100, 200, data, "test")
	require.NoError(t, err)

	found, ok := r.FindByStart(100)
	require.True(t, ok)
	require.Equal(t, h, found.Handle)
	require.Equal(t, Ambiguous, found.Rank)
}

func TestRegisterRejectsZeroSize(t *testing.T) {
	r := New()
	_, err := r.RegisterAmbiguous(100, 100, nil, "test")
	require.ErrorIs(t, err, ErrZeroSize)
}

func TestRegisterRejectsOverlap(t *testing.T) {
	r := New()
	_, err := r.RegisterAmbiguous(100, 200, nil, "a")
	require.NoError(t, err)

	_, err = r.RegisterAmbiguous(150, 250, nil, "b")
	require.ErrorIs(t, err, ErrOverlap)

	_, err = r.RegisterAmbiguous(200, 300, nil, "c")
	require.NoError(t, err) // adjacent, non-overlapping ranges are fine
}

func TestDeregisterRemovesRoot(t *testing.T) {
	r := New()
	h, err := r.RegisterAmbiguous(100, 200, nil, "test")
	require.NoError(t, err)

	require.NoError(t, r.Deregister(h))
	_, ok := r.FindByStart(100)
	require.False(t, ok)

	err = r.Deregister(h)
	require.ErrorIs(t, err, ErrUnknownHandle)
}

func TestRegisterExactRejectsNilScan(t *testing.T) {
	r := New()
	_, err := r.RegisterExact(100, 200, nil, "test")
	require.Error(t, err)
}

func TestForEachVisitsInScanOrder(t *testing.T) {
	r := New()
	_, err := r.RegisterAmbiguous(300, 400, nil, "third")
	require.NoError(t, err)
	_, err = r.RegisterAmbiguous(100, 200, nil, "first")
	require.NoError(t, err)

	var owners []string
	err = r.ForEach(func(root *Root) error {
		owners = append(owners, root.Owner)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, []string{"third", "first"}, owners) // insertion order, not address order
}

func TestLen(t *testing.T) {
	r := New()
	require.Equal(t, 0, r.Len())
	_, err := r.RegisterAmbiguous(0, 10, nil, "x")
	require.NoError(t, err)
	require.Equal(t, 1, r.Len())
}
