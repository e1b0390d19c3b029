package cfg

import (
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/module"
	"github.com/pkg/errors"
)

var (
	// dbg is a logger which logs debug messages with "cfg:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("cfg:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

// Builder recovers the CFG of a module's functions via iterative,
// cache-accelerated recursive disassembly (spec.md §4.D). A Builder is
// module-scoped: its block index persists across the multiple getBBAt
// invocations issued by the module-level driver, so that an atom split
// caused by discovering a new function entry can locate and rewire basic
// blocks materialized by an earlier invocation (spec.md §8 scenario 3).
type Builder struct {
	Module     *module.Module
	Decoder    Decoder
	Oracle     Oracle
	Symbolizer Symbolizer
	// ToOriginal translates an effective address back to its original,
	// pre-slide form for symbolizer lookups. Nil is treated as identity.
	ToOriginal func(bin.Address) bin.Address

	// blocks indexes every materialized basic block by its entry address,
	// across all functions recovered so far.
	blocks map[bin.Address]*module.BasicBlock
}

// NewBuilder returns a builder operating over m.
func NewBuilder(m *module.Module, decoder Decoder, oracle Oracle, symbolizer Symbolizer, toOriginal func(bin.Address) bin.Address) *Builder {
	return &Builder{
		Module:     m,
		Decoder:    decoder,
		Oracle:     oracle,
		Symbolizer: symbolizer,
		ToOriginal: toOriginal,
		blocks:     make(map[bin.Address]*module.BasicBlock),
	}
}

func (b *Builder) toOriginal(addr bin.Address) bin.Address {
	if b.ToOriginal == nil {
		return addr
	}
	return b.ToOriginal(addr)
}

// bbInfo is the builder-scoped per-address work record of spec.md §3,
// living only for the duration of one GetBasicBlockAt call.
type bbInfo struct {
	atom  *module.Atom
	succs []bin.Address
}

// pendingRewire defers reattaching an already-materialized block's
// successor edge until the new split-off block exists.
type pendingRewire struct {
	old     *module.BasicBlock
	newAddr bin.Address
}

// GetBasicBlockAt returns the basic block containing beginAddr inside fn,
// discovering, splitting, and wiring atoms as needed (spec.md §4.D). Newly
// discovered call targets are appended to *callTargets, and the targets of
// tail calls to external functions are appended to both *callTargets and
// *tailCallTargets.
func (b *Builder) GetBasicBlockAt(fn *module.Function, beginAddr bin.Address, callTargets, tailCallTargets *[]bin.Address) (*module.BasicBlock, error) {
	infos := make(map[bin.Address]*bbInfo)
	var worklist []bin.Address
	seen := make(map[bin.Address]bool)
	var order []bin.Address // addresses that received a bbInfo, in discovery order
	var rewires []pendingRewire

	enqueue := func(addr bin.Address) {
		if !seen[addr] {
			seen[addr] = true
			worklist = append(worklist, addr)
		}
	}
	enqueue(beginAddr)

	// Phase 1: atom discovery.
	for i := 0; i < len(worklist); i++ {
		addr := worklist[i]
		if _, done := infos[addr]; done {
			continue
		}

		if atom, ok := b.Module.FindAtomContaining(addr); ok {
			if atom.Kind == module.DataAtomKind {
				warn.Printf("getBBAt: %v lies within data atom %v; skipping", addr, atom)
				continue
			}
			if atom.Begin == addr {
				infos[addr] = &bbInfo{atom: atom}
				order = append(order, addr)
				continue
			}
			// Split contract (spec.md §4.B).
			origBegin := atom.Begin
			upper, err := b.Module.SplitTextAtom(atom, addr)
			if err != nil {
				return nil, errors.WithStack(err)
			}
			newInfo := &bbInfo{atom: upper}
			if origInfo, ok := infos[origBegin]; ok {
				// Split within an atom discovered earlier in this call.
				newInfo.succs = origInfo.succs
				origInfo.succs = []bin.Address{addr}
			} else if oldBlock, ok := b.blocks[origBegin]; ok {
				// Split of an atom already bound to a block materialized by
				// an earlier GetBasicBlockAt call (possibly in another
				// function). Carry its successors to the new split-off
				// block and rewire it to point solely at addr.
				for succAddr, succBlock := range oldBlock.Succs {
					newInfo.succs = append(newInfo.succs, succAddr)
					delete(succBlock.Preds, oldBlock.Entry())
				}
				oldBlock.Succs = make(map[bin.Address]*module.BasicBlock)
				rewires = append(rewires, pendingRewire{old: oldBlock, newAddr: addr})
			}
			infos[addr] = newInfo
			order = append(order, addr)
			continue
		}

		// No atom exists at addr: disassemble linearly.
		region, ok := b.Module.Regions.RegionFor(addr)
		if !ok {
			warn.Printf("getBBAt: no region covers %v; skipping", addr)
			continue
		}
		nextAtom, hasNext := b.Module.FindFirstAtomAfter(addr)

		var insts []*module.Instruction
		failed := false
		var trailingTarget bin.Address
		var hasTrailingTarget bool

	extend:
		for cur := addr; ; {
			if hasNext && cur >= nextAtom.Begin {
				break
			}
			if cur >= region.End() {
				break
			}
			data := region.BytesAt(cur)
			if len(data) == 0 {
				break
			}
			if hasNext {
				maxLen := int(nextAtom.Begin - cur)
				if maxLen <= 0 {
					break
				}
				if maxLen < len(data) {
					data = data[:maxLen]
				}
			}
			inst, size, ok := b.Decoder.Decode(data)
			if !ok {
				failed = true
				break
			}
			rec := &module.Instruction{Addr: cur, Size: size, Inst: inst}
			insts = append(insts, rec)
			cur += bin.Address(size)

			if target, ok := b.Oracle.EvaluateBranch(inst, rec.Addr, size); ok {
				if b.Oracle.IsCall(inst) {
					*callTargets = append(*callTargets, target)
				} else {
					trailingTarget = target
					hasTrailingTarget = true
				}
			}
			if b.Oracle.IsTerminator(inst) {
				break extend
			}
		}

		if len(insts) == 0 {
			warn.Printf("getBBAt: unable to decode any instruction at %v; skipping", addr)
			continue
		}

		end := insts[len(insts)-1].End() - 1
		atom := b.Module.NewTextAtom(addr, end, region.Name, insts)
		info := &bbInfo{atom: atom}
		infos[addr] = info
		order = append(order, addr)

		if !failed {
			trailing := insts[len(insts)-1].Inst
			if !b.Oracle.IsTerminator(trailing) || b.Oracle.IsConditionalBranch(trailing) {
				fallthroughAddr := insts[len(insts)-1].End()
				if region.Contains(fallthroughAddr) {
					info.succs = append(info.succs, fallthroughAddr)
					enqueue(fallthroughAddr)
				}
			}
			if hasTrailingTarget {
				originalTarget := b.toOriginal(trailingTarget)
				if _, ok := b.resolveExternal(originalTarget); ok {
					*tailCallTargets = append(*tailCallTargets, trailingTarget)
					*callTargets = append(*callTargets, trailingTarget)
				} else {
					info.succs = append(info.succs, trailingTarget)
					enqueue(trailingTarget)
				}
			}
		}
	}

	// Phase 2: block materialization.
	for _, addr := range order {
		if _, ok := fn.Blocks[addr]; ok {
			continue
		}
		block := module.NewBasicBlock(infos[addr].atom)
		fn.Blocks[addr] = block
		b.blocks[addr] = block
	}

	// Phase 3: edge wiring.
	for _, addr := range order {
		info := infos[addr]
		block := fn.Blocks[addr]
		for _, succAddr := range bin.Addrs(info.succs).Dedup() {
			succBlock, ok := fn.Blocks[succAddr]
			if !ok {
				succBlock, ok = b.blocks[succAddr]
			}
			if !ok {
				continue
			}
			block.AddSucc(succBlock)
		}
	}
	for _, r := range rewires {
		newBlock, ok := fn.Blocks[r.newAddr]
		if !ok {
			newBlock, ok = b.blocks[r.newAddr]
		}
		if ok {
			r.old.AddSucc(newBlock)
		}
	}

	block, ok := fn.Blocks[beginAddr]
	if !ok {
		return nil, errors.Errorf("getBBAt: no basic block materialized at %v", beginAddr)
	}
	return block, nil
}

func (b *Builder) resolveExternal(original bin.Address) (string, bool) {
	if b.Symbolizer == nil {
		return "", false
	}
	return b.Symbolizer.FindExternalFunctionAt(original)
}
