// Package module implements the atom store and module-level data model of
// the object disassembler (spec.md §3, components A and B): a module owns
// atoms and functions, indexed by address range and by entry address, and
// grows monotonically as the CFG builder discovers code.
package module

import (
	"fmt"
	"sort"

	"github.com/mewmew/objtrans/bin"
	"github.com/pkg/errors"
)

// Module owns the atoms and functions recovered from an object file. Atoms
// are created monotonically (never deleted, only split); functions are
// bound at most once per entry address.
type Module struct {
	// Regions is the region map backing atom discovery (component A).
	Regions *bin.RegionMap

	atoms []*Atom // sorted by Begin, disjoint
	funcs map[bin.Address]*Function
}

// NewModule returns an empty module backed by the given region map.
func NewModule(regions *bin.RegionMap) *Module {
	return &Module{
		Regions: regions,
		funcs:   make(map[bin.Address]*Function),
	}
}

// FindAtomContaining returns the atom containing addr, if any.
//
// Atom disjointness (spec.md §8) guarantees at most one match.
func (m *Module) FindAtomContaining(addr bin.Address) (*Atom, bool) {
	i := sort.Search(len(m.atoms), func(i int) bool {
		return m.atoms[i].End >= addr
	})
	if i < len(m.atoms) && m.atoms[i].Contains(addr) {
		return m.atoms[i], true
	}
	return nil, false
}

// FindFirstAtomAfter returns the first atom whose Begin is > addr, if any.
func (m *Module) FindFirstAtomAfter(addr bin.Address) (*Atom, bool) {
	i := sort.Search(len(m.atoms), func(i int) bool {
		return m.atoms[i].Begin > addr
	})
	if i < len(m.atoms) {
		return m.atoms[i], true
	}
	return nil, false
}

// Atoms returns the module's atoms in ascending address order.
func (m *Module) Atoms() []*Atom {
	return m.atoms
}

// NewTextAtom creates and inserts a text atom spanning [begin, end]
// (inclusive), owning the given decoded instructions.
func (m *Module) NewTextAtom(begin, end bin.Address, name string, insts []*Instruction) *Atom {
	a := &Atom{Kind: TextAtomKind, Begin: begin, End: end, Name: name, Insts: insts}
	m.insertAtom(a)
	return a
}

// NewDataAtom creates and inserts a data atom spanning [begin, end]
// (inclusive), owning the given raw bytes.
func (m *Module) NewDataAtom(begin, end bin.Address, name string, data []byte) *Atom {
	a := &Atom{Kind: DataAtomKind, Begin: begin, End: end, Name: name, Data: data}
	m.insertAtom(a)
	return a
}

func (m *Module) insertAtom(a *Atom) {
	i := sort.Search(len(m.atoms), func(i int) bool { return m.atoms[i].Begin >= a.Begin })
	m.atoms = append(m.atoms, nil)
	copy(m.atoms[i+1:], m.atoms[i:])
	m.atoms[i] = a
}

// SplitTextAtom splits the text atom T at address a, per the split contract
// of spec.md §4.B: T must satisfy Begin < a <= End. Returns a new text atom
// covering [a, T.End], and truncates T in place to [T.Begin, a-1].
//
// The split point must fall exactly on an instruction boundary within T (a
// split point derived from evaluateBranch is always aligned this way); a
// mid-instruction split is a builder bug and returns an error rather than
// silently corrupting the instruction list, per spec.md §7.
func (m *Module) SplitTextAtom(t *Atom, a bin.Address) (*Atom, error) {
	if t.Kind != TextAtomKind {
		return nil, errors.Errorf("cannot split non-text atom %v", t)
	}
	if !(t.Begin < a && a <= t.End) {
		return nil, errors.Errorf("split address %v out of bounds for atom %v", a, t)
	}
	idx := t.FirstInstAfter(a)
	if idx >= len(t.Insts) || t.Insts[idx].Addr != a {
		return nil, errors.Errorf("mid-instruction split of atom %v at %v", t, a)
	}
	upperInsts := t.Insts[idx:]
	lowerInsts := t.Insts[:idx]

	upperName := fmt.Sprintf("%s:%v", sectionName(t.Name), a)
	upper := &Atom{Kind: TextAtomKind, Begin: a, End: t.End, Name: upperName, Insts: upperInsts}

	t.End = lowerInsts[len(lowerInsts)-1].End() - 1
	t.Insts = lowerInsts
	if t.Name == upper.Name || !isSplitName(t.Name) {
		t.Name = fmt.Sprintf("%s:%v", sectionName(t.Name), t.Begin)
	}

	m.insertAtom(upper)
	return upper, nil
}

// sectionName strips a previously-applied "section:hexaddr" suffix, if any,
// returning the original section name a split atom should keep deriving
// names from.
func sectionName(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return name[:i]
		}
	}
	return name
}

// isSplitName reports whether name already has the "section:hexaddr" shape.
func isSplitName(name string) bool {
	for i := 0; i < len(name); i++ {
		if name[i] == ':' {
			return true
		}
	}
	return false
}

// FindFunctionAt returns the function bound to the given entry address, if
// any.
func (m *Module) FindFunctionAt(addr bin.Address) (*Function, bool) {
	f, ok := m.funcs[addr]
	return f, ok
}

// AddFunction binds f at its entry address. At most one function may be
// bound per entry address (spec.md §3); AddFunction overwrites silently if
// called twice for the same address. The Function Factory's "already
// exists" short-circuit prevents this for recovered functions, but an
// external alias created again for the same address replaces the earlier
// one.
func (m *Module) AddFunction(f *Function) {
	m.funcs[f.Entry] = f
}

// Functions returns the module's functions sorted by entry address.
func (m *Module) Functions() []*Function {
	addrs := make(bin.Addrs, 0, len(m.funcs))
	for addr := range m.funcs {
		addrs = append(addrs, addr)
	}
	sort.Sort(addrs)
	fs := make([]*Function, len(addrs))
	for i, addr := range addrs {
		fs[i] = m.funcs[addr]
	}
	return fs
}
