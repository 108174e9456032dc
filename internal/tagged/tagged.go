// Package tagged implements the GC-side half of the tagged-word codec:
// resolving a Value's payload to a candidate reference address, and back
// again. The pure encode/decode/tag operations themselves live in the
// public api package since embedders need them too; this package adds the
// collector-only policy of how the symbol tag's offset payload maps to an
// absolute address in the built-in symbol table.
package tagged

import "github.com/movingc/igc/api"

// ReferenceAddress computes the absolute address a reference-tagged Value
// points to. For every tag but api.TagSymbol this is simply the payload;
// for api.TagSymbol the payload is an offset into the built-in symbol
// table, so symbolTableBase is added. Fixnums have no reference address;
// callers must check v.IsImmediate() first.
func ReferenceAddress(v api.Value, symbolTableBase uint64) uint64 {
	payload, tag := api.Decode(v)
	if tag == api.TagSymbol {
		return symbolTableBase + payload
	}
	return payload
}

// Rewrite re-encodes a fixed reference address back into a Value carrying
// the original tag, converting back to a table offset for api.TagSymbol.
// Rewrite never changes the tag: tag(Rewrite(v, ref, base)) == tag(v).
func Rewrite(v api.Value, newRef uint64, symbolTableBase uint64) api.Value {
	tag := v.Tag()
	if tag == api.TagSymbol {
		return api.MakeValue(newRef-symbolTableBase, tag)
	}
	return api.MakeValue(newRef, tag)
}
