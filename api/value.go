// Package api includes the value ABI shared by embedders and the collector
// itself: the tagged machine word, its tag space, and the handful of pure
// functions that encode and decode it.
package api

import "fmt"

// Value is a single tagged machine word. Its low TagBits bits carry a Tag;
// the remaining bits are either an immediate integer or an address payload,
// interpreted according to the tag.
//
// Value is a plain uint64 rather than an unsafe.Pointer: the collector in
// this module manages a simulated heap (a byte arena), not the Go runtime's
// own heap, so addresses are offsets rather than real pointers.
type Value uint64

// TagBits is the number of low-order bits reserved for the Tag, matching
// the generation's low-bit tag scheme (see Tag).
const TagBits = 3

const tagMask = Value(1<<TagBits) - 1

// Tag occupies the low TagBits bits of every Value.
type Tag uint64

const (
	// TagCons marks a reference into the cons pool.
	TagCons Tag = iota
	// TagSymbol marks an offset into the built-in symbol table. Unlike
	// every other reference tag, its payload is an offset, not an
	// absolute address - see Value.Payload.
	TagSymbol
	// TagFinalizer marks a reference to a registered finalizable object.
	TagFinalizer
	tagReserved3
	tagReserved4
	tagReserved5
	// TagFixnumEven and TagFixnumOdd both mark an immediate integer. Two
	// tag values are reserved so that callers never need to special-case
	// the bottom tag bit when deciding whether a Value is an integer.
	TagFixnumEven
	TagFixnumOdd
)

func (t Tag) String() string {
	switch t {
	case TagCons:
		return "cons"
	case TagSymbol:
		return "symbol"
	case TagFinalizer:
		return "finalizer"
	case TagFixnumEven, TagFixnumOdd:
		return "fixnum"
	default:
		return fmt.Sprintf("reserved(%d)", uint64(t))
	}
}

// IsFixnum reports whether t is one of the two tags reserved for immediate
// integers.
func (t Tag) IsFixnum() bool {
	return t == TagFixnumEven || t == TagFixnumOdd
}

// Tag returns the low TagBits bits of v.
func (v Value) Tag() Tag {
	return Tag(v & tagMask)
}

// Payload returns the untagged bits of v. For reference tags other than
// TagSymbol this is an absolute address; for TagSymbol it is an offset into
// the built-in symbol table; for a fixnum tag it is the integer value
// shifted left by TagBits.
func (v Value) Payload() uint64 {
	return uint64(v &^ tagMask)
}

// IsImmediate reports whether v is an immediate integer, i.e. never a
// reference that the fix protocol needs to consider.
func (v Value) IsImmediate() bool {
	return v.Tag().IsFixnum()
}

// MakeValue builds a Value from an already-tag-aligned payload and a tag.
// Make is total and branch-free: it never inspects payload or tag beyond
// combining their bits.
func MakeValue(payload uint64, tag Tag) Value {
	return Value(payload&^uint64(tagMask)) | Value(tag)
}

// Decode is the inverse of MakeValue: Decode(MakeValue(payload, tag)) == (payload, tag).
func Decode(v Value) (payload uint64, tag Tag) {
	return v.Payload(), v.Tag()
}

// EncodeFixnum packs a signed integer into an immediate Value. The sign is
// preserved by an arithmetic shift on decode (DecodeFixnum).
func EncodeFixnum(n int64) Value {
	return Value(uint64(n)<<TagBits) | Value(TagFixnumEven)
}

// DecodeFixnum recovers the integer packed by EncodeFixnum. The tag is
// ignored beyond confirming it is a fixnum; callers should check
// v.IsImmediate() first.
func DecodeFixnum(v Value) int64 {
	return int64(v) >> TagBits
}
