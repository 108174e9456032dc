package scan

import (
	"testing"

	"github.com/movingc/igc/api"
	"github.com/movingc/igc/internal/testing/require"
)

func TestMemAreaScannerFixesInPlace(t *testing.T) {
	pool := &fakePool{base: 0x1000, forward: map[uint64]uint64{0x1000: 0x3000}}
	f := &Fixer{Locator: &fakeLocator{pools: []*fakePool{pool}, size: 0x1000}}

	v := api.MakeValue(0x1000, api.TagCons)
	data := []uint64{uint64(v), uint64(api.EncodeFixnum(5))}

	err := MemAreaScanner(f, data)
	require.NoError(t, err)
	require.Equal(t, uint64(0x3000), api.Value(data[0]).Payload())
	require.Equal(t, uint64(api.EncodeFixnum(5)), data[1])
}

func TestStaticVectorScannerSkipsNilSlots(t *testing.T) {
	f := &Fixer{Locator: &fakeLocator{}}
	v := api.EncodeFixnum(1)
	slots := []*api.Value{nil, &v, nil}

	err := StaticVectorScanner(f, slots)
	require.NoError(t, err)
	require.Equal(t, v, *slots[1])
}

func TestFaceCacheScannerWalksEveryFace(t *testing.T) {
	f := &Fixer{Locator: &fakeLocator{}}
	a := api.EncodeFixnum(1)
	b := api.EncodeFixnum(2)
	faces := []Face{{LFace: []*api.Value{&a}}, {LFace: []*api.Value{&b}}}

	err := FaceCacheScanner(f, faces)
	require.NoError(t, err)
	require.Equal(t, a, *faces[0].LFace[0])
	require.Equal(t, b, *faces[1].LFace[0])
}
