package machofmt

import "github.com/mewmew/objtrans/bin"

// indirectSymbolLocal and indirectSymbolAbs are the reserved indirect
// symbol table index values from <mach-o/loader.h> marking an entry that
// does not bind to an imported symbol.
const (
	indirectSymbolLocal = 0x80000000
	indirectSymbolAbs   = 0x40000000
)

// Symbolizer resolves lazily-bound __stubs entries to the imported symbol
// name they dispatch to, satisfying spec.md §6's symbolizer collaborator
// (findExternalFunctionAt) for Mach-O binaries.
//
// Built from the indirect symbol table: each __stubs entry's position
// indexes into Dysymtab.IndirectSyms, which in turn indexes into
// Symtab.Syms.
type Symbolizer struct {
	byAddr map[bin.Address]string
}

// NewSymbolizer builds a Symbolizer from l's __stubs section and indirect
// symbol table. Returns an empty (always-miss) Symbolizer if the binary
// carries no stubs, dynamic symbol table, or symbol table.
func NewSymbolizer(l *Loader) *Symbolizer {
	s := &Symbolizer{byAddr: make(map[bin.Address]string)}
	stubs := l.File.Section("__stubs")
	if stubs == nil || l.File.Dysymtab == nil || l.File.Symtab == nil {
		return s
	}
	firstIndirect, stubSize, ok := rawSectionReserved(l, "__stubs")
	if !ok || stubSize == 0 {
		return s
	}
	nStubs := stubs.Size / uint64(stubSize)
	indirect := l.File.Dysymtab.IndirectSyms
	syms := l.File.Symtab.Syms
	for i := uint64(0); i < nStubs; i++ {
		idxPos := int(firstIndirect) + int(i)
		if idxPos < 0 || idxPos >= len(indirect) {
			break
		}
		symIdx := indirect[idxPos]
		if symIdx == indirectSymbolLocal || symIdx == indirectSymbolAbs {
			continue
		}
		if int(symIdx) >= len(syms) {
			continue
		}
		// Keyed by original (pre-slide) address: callers resolve an
		// effective address back to original before querying (spec.md §6).
		addr := bin.Address(stubs.Addr) + bin.Address(i)*bin.Address(stubSize)
		s.byAddr[addr] = syms[symIdx].Name
	}
	return s
}

// FindExternalFunctionAt returns the name of the external function whose
// stub lives at the given original (pre-slide) address, if any.
func (s *Symbolizer) FindExternalFunctionAt(original bin.Address) (string, bool) {
	name, ok := s.byAddr[original]
	return name, ok
}
