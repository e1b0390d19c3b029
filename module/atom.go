package module

import (
	"fmt"

	"github.com/mewmew/objtrans/bin"
	"golang.org/x/arch/x86/x86asm"
)

// Instruction is a decoded machine instruction at a known address.
type Instruction struct {
	// Addr is the address of the first byte of the instruction.
	Addr bin.Address
	// Size is the number of bytes the instruction occupies.
	Size int
	// Inst is the decoded instruction.
	Inst x86asm.Inst
}

// End returns the address one past the last byte of the instruction.
func (inst *Instruction) End() bin.Address {
	return inst.Addr + bin.Address(inst.Size)
}

// AtomKind distinguishes the two disjoint atom variants of spec.md §3.
type AtomKind int

const (
	// TextAtomKind is a contiguous run of decoded instructions.
	TextAtomKind AtomKind = iota
	// DataAtomKind is a contiguous run of undecoded bytes.
	DataAtomKind
)

// Atom is a contiguous, homogeneous range [Begin, End] (inclusive) of a
// loaded section: either a text atom (decoded instructions) or a data atom
// (raw bytes), per spec.md §3.
//
// Atoms are owned by a Module and never deleted, only split (see
// Module.SplitTextAtom). Atom names default to the owning section's name
// and are refined to "section:hexaddr" after a split.
type Atom struct {
	Kind AtomKind
	// Begin and End are inclusive bounds; range queries compare against End
	// directly.
	Begin, End bin.Address
	Name       string

	// Insts holds the decoded instructions of a text atom, in address order.
	// Invariant: Insts[i+1].Addr == Insts[i].Addr+Insts[i].Size, and all
	// instructions lie within [Begin, End+1).
	Insts []*Instruction

	// Data holds the raw bytes of a data atom; len(Data) == End-Begin+1.
	Data []byte
}

// String returns a human-readable label for the atom.
func (a *Atom) String() string {
	return fmt.Sprintf("%s [%v, %v]", a.Name, a.Begin, a.End)
}

// Contains reports whether addr lies within the atom's inclusive range.
func (a *Atom) Contains(addr bin.Address) bool {
	return a.Begin <= addr && addr <= a.End
}

// FirstInstAfter returns the index of the first instruction in a text atom
// whose address is >= addr, or len(a.Insts) if none.
func (a *Atom) FirstInstAfter(addr bin.Address) int {
	lo, hi := 0, len(a.Insts)
	for lo < hi {
		mid := (lo + hi) / 2
		if a.Insts[mid].Addr < addr {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}
