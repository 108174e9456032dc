package api

import (
	"testing"

	"github.com/movingc/igc/internal/testing/require"
)

func TestMakeValueDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		payload uint64
		tag     Tag
	}{
		{"cons zero", 0, TagCons},
		{"cons aligned", 0x1000, TagCons},
		{"symbol offset", 0x48, TagSymbol},
		{"finalizer", 0x800, TagFinalizer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := MakeValue(tt.payload, tt.tag)
			payload, tag := Decode(v)
			require.Equal(t, tt.tag, tag)
			require.Equal(t, tt.payload&^uint64(tagMask), payload)
		})
	}
}

func TestTagString(t *testing.T) {
	require.Equal(t, "cons", TagCons.String())
	require.Equal(t, "symbol", TagSymbol.String())
	require.Equal(t, "finalizer", TagFinalizer.String())
	require.Equal(t, "fixnum", TagFixnumEven.String())
	require.Equal(t, "fixnum", TagFixnumOdd.String())
}

func TestIsFixnum(t *testing.T) {
	require.True(t, TagFixnumEven.IsFixnum())
	require.True(t, TagFixnumOdd.IsFixnum())
	require.False(t, TagCons.IsFixnum())
	require.False(t, TagSymbol.IsFixnum())
}

func TestIsImmediate(t *testing.T) {
	require.True(t, EncodeFixnum(42).IsImmediate())
	require.False(t, MakeValue(0x10, TagCons).IsImmediate())
}

func TestFixnumRoundTrip(t *testing.T) {
	for _, n := range []int64{0, 1, -1, 42, -42, 1 << 40, -(1 << 40)} {
		v := EncodeFixnum(n)
		require.True(t, v.IsImmediate())
		require.Equal(t, n, DecodeFixnum(v))
	}
}

func TestPayloadMasksTagBits(t *testing.T) {
	v := MakeValue(0x7, TagCons) // payload bits overlapping the tag are dropped
	require.Equal(t, uint64(0), v.Payload())
}
