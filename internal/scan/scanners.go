package scan

import "github.com/movingc/igc/api"

// MemAreaScanner is the generic ambiguous-root scanner: it treats every
// machine word in data as a candidate value and applies the fix protocol,
// writing back any rewritten word. False positives (non-reference words
// that happen to decode as a managed reference) are tolerated by
// construction: Locator.Locate only matches addresses that truly fall
// inside a pool, so a stray word is simply left alone.
func MemAreaScanner(fixer *Fixer, data []uint64) error {
	for i, w := range data {
		v, err := fixer.FixSlot(api.Value(w))
		if err != nil {
			return err
		}
		data[i] = uint64(v)
	}
	return nil
}

// StaticVectorScanner is the exact scanner for a vector of slots, each
// holding a pointer to a value: follow the pointer, fix *slot, skip nil
// slots. A nil slot is represented as a nil *api.Value, matching the
// "skip null slots" rule shared with the rest of the fix protocol.
func StaticVectorScanner(fixer *Fixer, slots []*api.Value) error {
	for _, slot := range slots {
		if slot == nil {
			continue
		}
		v, err := fixer.FixSlot(*slot)
		if err != nil {
			return err
		}
		*slot = v
	}
	return nil
}

// GlyphRow is one row's fixed set of glyph reference slots, as supplied by
// an embedding runtime's glyph matrix. This module never constructs a real
// glyph matrix; GlyphRowScanner exists only to
// define the calling convention an embedder's exact root would use.
type GlyphRow struct {
	Glyphs []*api.Value
}

// GlyphRowScanner fixes one reference per glyph, across every row.
func GlyphRowScanner(fixer *Fixer, rows []GlyphRow) error {
	for _, row := range rows {
		if err := StaticVectorScanner(fixer, row.Glyphs); err != nil {
			return err
		}
	}
	return nil
}

// Face is one face's vector of lface references, as supplied by an
// embedding runtime's face cache. Out of scope in the same sense as
// GlyphRow above.
type Face struct {
	LFace []*api.Value
}

// FaceCacheScanner fixes every face's lface vector.
func FaceCacheScanner(fixer *Fixer, faces []Face) error {
	for _, face := range faces {
		if err := StaticVectorScanner(fixer, face.LFace); err != nil {
			return err
		}
	}
	return nil
}
