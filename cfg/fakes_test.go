package cfg

import (
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/disasm/x86"
	"golang.org/x/arch/x86/x86asm"
)

// newTestDecoder returns a real x86-64 decoder; the builder's worklist logic
// is exercised against genuine decoded instructions rather than a fake, since
// the Oracle predicates only make sense against real x86asm.Inst values.
func newTestDecoder() Decoder {
	return x86.NewDecoder(x86asm.Mode64)
}

// fakeSymbolizer resolves a fixed set of original addresses to external
// function names, standing in for machofmt.Symbolizer in tests.
type fakeSymbolizer map[bin.Address]string

func (f fakeSymbolizer) FindExternalFunctionAt(original bin.Address) (string, bool) {
	name, ok := f[original]
	return name, ok
}
