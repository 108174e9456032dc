package format

// Symbol field offsets, in words, within one symbol object.
const (
	symOffName     = 0 * WordSize
	symOffFunction = 1 * WordSize
	symOffPlist    = 2 * WordSize
	symOffPackage  = 3 * WordSize
	symOffValue    = 4 * WordSize
	symOffRedirect = 5 * WordSize // raw discriminant word; 0 (RedirectDirect) means "value is direct"

	// SymbolSize is the fixed size in bytes of one symbol object.
	SymbolSize = 6 * WordSize
)

// RedirectDirect is the discriminant value meaning the symbol's value slot
// holds a direct value that must be fixed like any other reference.
// Any other discriminant means the value is redirected elsewhere (e.g. to
// a buffer-local binding cell) and the symbol scanner must not touch it.
const RedirectDirect = 0

// Symbol is the object format for the symbol pool.
type Symbol struct{}

func (Symbol) Skip(_ Memory, addr Addr) Addr {
	return addr + SymbolSize
}

func (Symbol) Forward(mem Memory, old, new Addr) {
	WriteForwardingMarker(mem, old, new)
}

func (Symbol) IsForwarded(mem Memory, addr Addr) (Addr, bool) {
	return ReadForwardingMarker(mem, addr)
}

func (Symbol) Pad(mem Memory, addr Addr, size uint64) {
	WritePaddingMarker(mem, addr, size)
}

// Scan implements the symbol scanner: for each object, fix name, function,
// plist, and package unconditionally, and fix value iff the symbol's
// redirect discriminant indicates a direct value.
func (s Symbol) Scan(mem Memory, base, limit Addr, fix FixFunc) error {
	for addr := base; addr < limit; {
		if IsPadding(mem, addr) {
			addr = s.Skip(mem, addr)
			continue
		}
		if _, forwarded := s.IsForwarded(mem, addr); forwarded {
			addr = s.Skip(mem, addr)
			continue
		}
		for _, off := range [...]Addr{symOffName, symOffFunction, symOffPlist, symOffPackage} {
			if err := fix(mem, addr+off); err != nil {
				return err
			}
		}
		if mem.ReadWord(addr+symOffRedirect) == RedirectDirect {
			if err := fix(mem, addr+symOffValue); err != nil {
				return err
			}
		}
		addr = s.Skip(mem, addr)
	}
	return nil
}
