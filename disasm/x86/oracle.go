package x86

import (
	"github.com/mewmew/objtrans/bin"
	"golang.org/x/arch/x86/x86asm"
)

// IsBranch reports whether inst may transfer control away from the next
// sequential instruction: conditional and unconditional jumps, loop
// instructions, and calls.
func IsBranch(inst x86asm.Inst) bool {
	switch inst.Op {
	case x86asm.JMP,
		x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ, x86asm.JE,
		x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE,
		x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JRCXZ,
		x86asm.JS,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE,
		x86asm.CALL:
		return true
	}
	return false
}

// IsConditionalBranch reports whether inst is a branch whose successor set
// includes both a taken and a fallthrough edge.
func IsConditionalBranch(inst x86asm.Inst) bool {
	switch inst.Op {
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ, x86asm.JE,
		x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE,
		x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JRCXZ,
		x86asm.JS,
		x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return true
	}
	return false
}

// IsCall reports whether inst is a call instruction.
func IsCall(inst x86asm.Inst) bool {
	return inst.Op == x86asm.CALL
}

// IsTerminator reports whether inst ends a basic block: unconditional and
// conditional jumps, loop instructions, and returns. A call is not a
// terminator; control returns to the instruction following it.
func IsTerminator(inst x86asm.Inst) bool {
	switch inst.Op {
	case x86asm.LOOP, x86asm.LOOPE, x86asm.LOOPNE:
		return true
	case x86asm.JA, x86asm.JAE, x86asm.JB, x86asm.JBE, x86asm.JCXZ, x86asm.JE,
		x86asm.JECXZ, x86asm.JG, x86asm.JGE, x86asm.JL, x86asm.JLE, x86asm.JNE,
		x86asm.JNO, x86asm.JNP, x86asm.JNS, x86asm.JO, x86asm.JP, x86asm.JRCXZ,
		x86asm.JS:
		return true
	case x86asm.JMP:
		return true
	case x86asm.RET:
		return true
	}
	return false
}

// EvaluateBranch decides, at decode time, whether inst (located at addr and
// occupying size bytes) is a branch with a statically known target address.
// It returns false for indirect branches (register or memory operands),
// matching spec.md §4.D's conservative "no speculation past indirect
// branches" stance.
func EvaluateBranch(inst x86asm.Inst, addr bin.Address, size int) (bin.Address, bool) {
	if !IsBranch(inst) || len(inst.Args) == 0 {
		return 0, false
	}
	rel, ok := inst.Args[0].(x86asm.Rel)
	if !ok {
		return 0, false
	}
	target := int64(addr) + int64(size) + int64(rel)
	return bin.Address(target), true
}
