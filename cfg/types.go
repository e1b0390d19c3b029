// Package cfg implements the CFG Builder, Function Factory, and
// module-level driver of the object disassembler (spec.md §4.D, §4.E,
// §4.F): the worklist algorithm that discovers atoms, splits them at
// branch targets, resolves successor edges, and binds entry addresses to
// recovered functions.
package cfg

import (
	"github.com/mewmew/objtrans/bin"
	"golang.org/x/arch/x86/x86asm"
)

// Decoder decodes the instruction at the head of data, reporting the
// decoded instruction, the number of bytes consumed, and success. On
// failure it reports the number of bytes to skip as invalid data.
//
// Satisfied by *x86.Decoder; kept as an interface so the worklist algorithm
// is not hard-wired to one decode-cache implementation (spec.md §6).
type Decoder interface {
	Decode(data []byte) (x86asm.Inst, int, bool)
}

// Oracle answers the instruction-analysis predicates spec.md §6 names as
// an external collaborator. Satisfied by X86Oracle, which adapts the
// package-level functions of disasm/x86.
type Oracle interface {
	IsConditionalBranch(inst x86asm.Inst) bool
	IsCall(inst x86asm.Inst) bool
	IsTerminator(inst x86asm.Inst) bool
	EvaluateBranch(inst x86asm.Inst, addr bin.Address, size int) (bin.Address, bool)
}

// Symbolizer resolves an original (pre-slide) address to the name of an
// external function, if any (spec.md §6).
type Symbolizer interface {
	FindExternalFunctionAt(original bin.Address) (name string, ok bool)
}

// SymbolKind classifies a symbol-table entry.
type SymbolKind int

const (
	// SymOther is a symbol that is neither a function nor a data symbol.
	SymOther SymbolKind = iota
	// SymFunction is a function-typed symbol.
	SymFunction
	// SymData is a data-typed symbol.
	SymData
)

// Symbol is a minimal view of a symbol-table entry, as consumed from the
// object-file library (spec.md §6).
type Symbol struct {
	Addr bin.Address
	Name string
	Kind SymbolKind
}
