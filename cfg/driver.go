package cfg

import (
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/module"
	"github.com/pkg/errors"
)

// BuildModule is the module-level driver of component F: it populates the
// region map's owning module with atoms (and, when withCFG is set,
// functions and their CFGs).
//
// When withCFG is false, BuildModule performs a straight linear sweep
// (buildSectionAtoms): one text atom per contiguous decodable run and one
// data atom per decode-failure run, with no edges.
//
// When withCFG is true, BuildModule seeds the CFG Builder from every
// function-typed symbol whose address lies in a known region, then closes
// the discovered call-target set to a fixpoint (spec.md §4.F).
func BuildModule(regions *bin.RegionMap, symbols []Symbol, decoder Decoder, oracle Oracle, symbolizer Symbolizer, toOriginal func(bin.Address) bin.Address, withCFG bool) (*module.Module, error) {
	m := module.NewModule(regions)
	if !withCFG {
		buildSectionAtoms(m, decoder)
		return m, nil
	}

	b := NewBuilder(m, decoder, oracle, symbolizer, toOriginal)
	var callTargets, tailCallTargets []bin.Address
	for _, sym := range symbols {
		if sym.Kind != SymFunction {
			continue
		}
		if _, ok := regions.RegionFor(sym.Addr); !ok {
			dbg.Printf("buildModule: skipping symbol %q at %v; address outside known region", sym.Name, sym.Addr)
			continue
		}
		if _, err := b.CreateFunction(sym.Addr, &callTargets, &tailCallTargets); err != nil {
			return nil, errors.WithStack(err)
		}
	}
	callTargets = bin.Addrs(callTargets).Dedup()
	tailCallTargets = bin.Addrs(tailCallTargets).Dedup()

	for len(callTargets) > 0 {
		var newCallTargets []bin.Address
		for _, t := range callTargets {
			if _, ok := regions.RegionFor(t); !ok {
				if _, ext := b.resolveExternal(b.toOriginal(t)); !ext {
					dbg.Printf("buildModule: skipping call target %v; address outside known region", t)
					continue
				}
			}
			if _, err := b.CreateFunction(t, &newCallTargets, &tailCallTargets); err != nil {
				return nil, errors.WithStack(err)
			}
		}
		callTargets = bin.Addrs(newCallTargets).Dedup()
	}
	return m, nil
}

// FindFunctionStarts returns the sorted, deduplicated set of function-entry
// addresses the given symbols would seed BuildModule with: every
// SymFunction-kind symbol whose address lies in a known region (spec.md §6's
// "findFunctionStarts() → sorted address set"). Unlike BuildModule, it
// performs no CFG recovery; it is the standalone enumeration spec.md lists
// alongside buildModule, getEntrypoint, and getStaticInit/ExitFunctions as
// one of the four operations exposed upward.
func FindFunctionStarts(symbols []Symbol, regions *bin.RegionMap) bin.Addrs {
	var starts bin.Addrs
	for _, sym := range symbols {
		if sym.Kind != SymFunction {
			continue
		}
		if _, ok := regions.RegionFor(sym.Addr); !ok {
			continue
		}
		starts = append(starts, sym.Addr)
	}
	return starts.Dedup()
}

// buildSectionAtoms performs the withCFG=false linear sweep of spec.md §4.F
// step 2.
func buildSectionAtoms(m *module.Module, decoder Decoder) {
	for _, region := range m.Regions.Regions() {
		var textStart, dataStart bin.Address
		var textInsts []*module.Instruction
		var dataBytes []byte

		flushText := func() {
			if len(textInsts) == 0 {
				return
			}
			end := textInsts[len(textInsts)-1].End() - 1
			m.NewTextAtom(textStart, end, region.Name, textInsts)
			textInsts = nil
		}
		flushData := func() {
			if len(dataBytes) == 0 {
				return
			}
			end := dataStart + bin.Address(len(dataBytes)) - 1
			m.NewDataAtom(dataStart, end, region.Name, dataBytes)
			dataBytes = nil
		}

		for cur := region.Base; cur < region.End(); {
			data := region.BytesAt(cur)
			inst, size, ok := decoder.Decode(data)
			if ok {
				flushData()
				if len(textInsts) == 0 {
					textStart = cur
				}
				textInsts = append(textInsts, &module.Instruction{Addr: cur, Size: size, Inst: inst})
				cur += bin.Address(size)
				continue
			}
			flushText()
			if len(dataBytes) == 0 {
				dataStart = cur
			}
			n := size
			if n > len(data) {
				n = len(data)
			}
			if n <= 0 {
				n = 1
			}
			dataBytes = append(dataBytes, data[:n]...)
			cur += bin.Address(n)
		}
		flushText()
		flushData()
	}
}
