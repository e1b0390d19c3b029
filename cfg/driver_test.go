package cfg

import (
	"testing"

	"github.com/mewmew/objtrans/bin"
)

func TestBuildModuleFixpointCallDiscovery(t *testing.T) {
	// 0x6000: call +1 (-> 0x6006)   [5 bytes]
	// 0x6005: ret
	// 0x6006: ret                  (reachable only via the call target)
	data := []byte{0xE8, 0x01, 0x00, 0x00, 0x00, 0xC3, 0xC3}
	rm := &bin.RegionMap{}
	rm.Insert(0x6000, data, "text")

	symbols := []Symbol{{Addr: 0x6000, Kind: SymFunction}}
	m, err := BuildModule(rm, symbols, newTestDecoder(), X86Oracle{}, nil, nil, true)
	if err != nil {
		t.Fatalf("BuildModule returned error: %v", err)
	}

	funcs := m.Functions()
	if len(funcs) != 2 {
		t.Fatalf("BuildModule recovered %d functions, want 2 (the call target must be discovered via the fixpoint)", len(funcs))
	}
	if funcs[0].Entry != 0x6000 || funcs[1].Entry != 0x6006 {
		t.Errorf("recovered function entries = [%v, %v], want [0x6000, 0x6006]", funcs[0].Entry, funcs[1].Entry)
	}
	if funcs[1].External {
		t.Errorf("function at 0x6006 was marked external; it is defined locally")
	}
	block, ok := funcs[1].EntryBlock()
	if !ok {
		t.Fatalf("function at 0x6006 has no entry block")
	}
	if block.Atom.Begin != 0x6006 || block.Atom.End != 0x6006 {
		t.Errorf("entry block atom = [%v, %v], want [0x6006, 0x6006]", block.Atom.Begin, block.Atom.End)
	}
}

func TestBuildModuleWithoutCFGSweepsLinearAtoms(t *testing.T) {
	data := []byte{0x90, 0xC3} // nop; ret
	rm := &bin.RegionMap{}
	rm.Insert(0x7000, data, "text")

	m, err := BuildModule(rm, nil, newTestDecoder(), X86Oracle{}, nil, nil, false)
	if err != nil {
		t.Fatalf("BuildModule returned error: %v", err)
	}
	if len(m.Functions()) != 0 {
		t.Errorf("BuildModule(withCFG=false) recovered %d functions, want 0", len(m.Functions()))
	}
	if len(m.Atoms()) == 0 {
		t.Errorf("BuildModule(withCFG=false) recovered no atoms")
	}
}

func TestFindFunctionStarts(t *testing.T) {
	rm := &bin.RegionMap{}
	rm.Insert(0x8000, []byte{0x90, 0xC3}, "text")

	symbols := []Symbol{
		{Addr: 0x8001, Kind: SymFunction},
		{Addr: 0x8000, Kind: SymFunction},
		{Addr: 0x8000, Kind: SymFunction}, // duplicate
		{Addr: 0x8000, Kind: SymData},     // wrong kind, excluded
		{Addr: 0x9000, Kind: SymFunction}, // outside any region, excluded
	}

	got := FindFunctionStarts(symbols, rm)
	want := bin.Addrs{0x8000, 0x8001}
	if len(got) != len(want) {
		t.Fatalf("FindFunctionStarts() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("FindFunctionStarts()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}
