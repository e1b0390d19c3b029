package cfg

import (
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/disasm/x86"
	"golang.org/x/arch/x86/x86asm"
)

// X86Oracle adapts disasm/x86's package-level instruction-analysis
// predicates to the Oracle interface.
type X86Oracle struct{}

func (X86Oracle) IsConditionalBranch(inst x86asm.Inst) bool { return x86.IsConditionalBranch(inst) }
func (X86Oracle) IsCall(inst x86asm.Inst) bool               { return x86.IsCall(inst) }
func (X86Oracle) IsTerminator(inst x86asm.Inst) bool         { return x86.IsTerminator(inst) }
func (X86Oracle) EvaluateBranch(inst x86asm.Inst, addr bin.Address, size int) (bin.Address, bool) {
	return x86.EvaluateBranch(inst, addr, size)
}
