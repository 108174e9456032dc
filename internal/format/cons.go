package format

// ConsSize is the fixed size in bytes of one cons cell: a car word and a
// cdr word.
const ConsSize = 2 * WordSize

// Cons is the object format for the cons pool. Every slot is fixed-size,
// so Skip is a constant stride.
type Cons struct{}

func (Cons) Skip(_ Memory, addr Addr) Addr {
	return addr + ConsSize
}

func (Cons) Forward(mem Memory, old, new Addr) {
	WriteForwardingMarker(mem, old, new)
}

func (Cons) IsForwarded(mem Memory, addr Addr) (Addr, bool) {
	return ReadForwardingMarker(mem, addr)
}

func (Cons) Pad(mem Memory, addr Addr, size uint64) {
	WritePaddingMarker(mem, addr, size)
}

// Scan implements the cons scanner of the fix protocol: for each object in
// [base, limit), skip if it starts with a marker, else fix car and cdr.
func (c Cons) Scan(mem Memory, base, limit Addr, fix FixFunc) error {
	for addr := base; addr < limit; {
		if IsPadding(mem, addr) {
			addr = c.Skip(mem, addr)
			continue
		}
		if _, forwarded := c.IsForwarded(mem, addr); forwarded {
			addr = c.Skip(mem, addr)
			continue
		}
		if err := fix(mem, addr); err != nil { // car
			return err
		}
		if err := fix(mem, addr+WordSize); err != nil { // cdr
			return err
		}
		addr = c.Skip(mem, addr)
	}
	return nil
}
