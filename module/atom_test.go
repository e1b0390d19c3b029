package module

import (
	"testing"

	"github.com/mewmew/objtrans/bin"
	"golang.org/x/arch/x86/x86asm"
)

func newInsts(addrs ...bin.Address) []*Instruction {
	insts := make([]*Instruction, len(addrs))
	for i, addr := range addrs {
		insts[i] = &Instruction{Addr: addr, Size: 1, Inst: x86asm.Inst{Len: 1}}
	}
	return insts
}

func TestSplitTextAtom(t *testing.T) {
	m := NewModule(&bin.RegionMap{})
	insts := newInsts(0x1000, 0x1001, 0x1002, 0x1003)
	a := m.NewTextAtom(0x1000, 0x1003, "text", insts)

	upper, err := m.SplitTextAtom(a, 0x1002)
	if err != nil {
		t.Fatalf("SplitTextAtom returned error: %v", err)
	}

	if a.End != 0x1001 {
		t.Errorf("lower atom End = %v, want 0x1001", a.End)
	}
	if len(a.Insts) != 2 {
		t.Errorf("lower atom has %d instructions, want 2", len(a.Insts))
	}
	if upper.Begin != 0x1002 || upper.End != 0x1003 {
		t.Errorf("upper atom = [%v, %v], want [0x1002, 0x1003]", upper.Begin, upper.End)
	}
	if len(upper.Insts) != 2 {
		t.Errorf("upper atom has %d instructions, want 2", len(upper.Insts))
	}

	// The atom identity of the lower half must be preserved: a pointer held
	// before the split observes the truncation in place.
	found, ok := m.FindAtomContaining(0x1000)
	if !ok || found != a {
		t.Errorf("FindAtomContaining(0x1000) did not return the original atom pointer")
	}
	if _, ok := m.FindAtomContaining(0x1002); !ok {
		t.Errorf("FindAtomContaining(0x1002) did not find the newly split atom")
	}
}

func TestSplitTextAtomMidInstruction(t *testing.T) {
	m := NewModule(&bin.RegionMap{})
	insts := make([]*Instruction, 2)
	insts[0] = &Instruction{Addr: 0x1000, Size: 2, Inst: x86asm.Inst{Len: 2}}
	insts[1] = &Instruction{Addr: 0x1002, Size: 1, Inst: x86asm.Inst{Len: 1}}
	a := m.NewTextAtom(0x1000, 0x1002, "text", insts)

	if _, err := m.SplitTextAtom(a, 0x1001); err == nil {
		t.Fatalf("SplitTextAtom at a non-instruction-boundary address did not return an error")
	}
}

func TestSplitTextAtomOutOfBounds(t *testing.T) {
	m := NewModule(&bin.RegionMap{})
	a := m.NewTextAtom(0x1000, 0x1000, "text", newInsts(0x1000))
	if _, err := m.SplitTextAtom(a, 0x1000); err == nil {
		t.Errorf("SplitTextAtom(t, t.Begin) did not return an error")
	}
	if _, err := m.SplitTextAtom(a, 0x2000); err == nil {
		t.Errorf("SplitTextAtom(t, addr > t.End) did not return an error")
	}
}
