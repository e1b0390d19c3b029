package module

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/mewmew/objtrans/bin"
)

// Function owns basic blocks, has an optional name, a single entry block,
// and an entry address (spec.md §3).
type Function struct {
	// Entry is the address of the function's entry basic block.
	Entry bin.Address
	// Name is the function's name; empty for unnamed (not-yet-recovered)
	// functions, and set to the symbolizer's name for external aliases.
	Name string
	// External reports whether this function is an alias for an external
	// (PLT/stub) symbol; external functions carry no basic blocks.
	External bool

	// Blocks maps basic block entry address to basic block.
	Blocks map[bin.Address]*BasicBlock
}

// NewFunction returns a new, empty function with the given entry address.
func NewFunction(entry bin.Address) *Function {
	return &Function{
		Entry:  entry,
		Blocks: make(map[bin.Address]*BasicBlock),
	}
}

// NewExternalFunction returns a function standing in for an external
// (PLT/stub) symbol; it carries no basic blocks (spec.md §4.E).
func NewExternalFunction(entry bin.Address, name string) *Function {
	return &Function{
		Entry:    entry,
		Name:     name,
		External: true,
		Blocks:   make(map[bin.Address]*BasicBlock),
	}
}

// EntryBlock returns the function's entry basic block, if recovered.
func (f *Function) EntryBlock() (*BasicBlock, bool) {
	b, ok := f.Blocks[f.Entry]
	return b, ok
}

// SortedBlocks returns the function's basic blocks sorted by entry address.
func (f *Function) SortedBlocks() []*BasicBlock {
	addrs := make(bin.Addrs, 0, len(f.Blocks))
	for addr := range f.Blocks {
		addrs = append(addrs, addr)
	}
	sort.Sort(addrs)
	bs := make([]*BasicBlock, len(addrs))
	for i, addr := range addrs {
		bs[i] = f.Blocks[addr]
	}
	return bs
}

// String returns the string representation of the function.
func (f *Function) String() string {
	buf := &bytes.Buffer{}
	name := f.Name
	if name == "" {
		name = fmt.Sprintf("func_%016X", uint64(f.Entry))
	}
	if f.External {
		return fmt.Sprintf("declare %s()", name)
	}
	fmt.Fprintf(buf, "%s() {\n", name)
	for i, block := range f.SortedBlocks() {
		if i != 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "%v\n", block)
	}
	buf.WriteString("}")
	return buf.String()
}

// BasicBlock is owned by a function and references exactly one text atom.
// It holds predecessor and successor sets of basic blocks, normally within
// the same function (spec.md §3); when an atom is split by the entry of
// another function, the lower block is linked to the split-off block in
// that other function.
type BasicBlock struct {
	// Atom is the text atom backing this basic block's instructions.
	Atom *Atom

	// Preds and Succs are keyed by the neighboring block's entry address,
	// satisfying the edge-symmetry invariant of spec.md §8: for every
	// successor S of B, B appears in S.Preds.
	Preds map[bin.Address]*BasicBlock
	Succs map[bin.Address]*BasicBlock
}

// NewBasicBlock returns a new basic block backed by the given text atom.
func NewBasicBlock(atom *Atom) *BasicBlock {
	return &BasicBlock{
		Atom:  atom,
		Preds: make(map[bin.Address]*BasicBlock),
		Succs: make(map[bin.Address]*BasicBlock),
	}
}

// Entry returns the entry address of the basic block.
func (block *BasicBlock) Entry() bin.Address {
	return block.Atom.Begin
}

// AddSucc records a successor edge, and the corresponding predecessor edge
// on succ, per the edge-symmetry invariant of spec.md §8.
func (block *BasicBlock) AddSucc(succ *BasicBlock) {
	block.Succs[succ.Entry()] = succ
	succ.Preds[block.Entry()] = block
}

// String returns the string representation of the basic block.
func (block *BasicBlock) String() string {
	buf := &bytes.Buffer{}
	fmt.Fprintf(buf, "block_%016X:\n", uint64(block.Entry()))
	for i, inst := range block.Atom.Insts {
		if i != 0 {
			buf.WriteString("\n")
		}
		fmt.Fprintf(buf, "\t%v", inst.Inst)
	}
	return buf.String()
}
