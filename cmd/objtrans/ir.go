package main

import (
	"fmt"
	"os"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/types"
	"github.com/mewmew/objtrans/module"
	"github.com/pkg/errors"
)

// irModule wraps the LLVM IR module produced by lowerModule, the glue that
// turns a recovered module.Module into a compiler-ready skeleton (spec.md
// §1's "lowers the result into LLVM IR"). Lowering instruction semantics
// (the "DC translator") is explicitly out of scope; every recovered basic
// block becomes an empty ir.BasicBlock terminated by "unreachable", one per
// block, wired into the function its atom belongs to.
type irModule struct {
	m *ir.Module
}

// funcName returns the symbolic name to give an LLVM IR function standing
// in for fn, falling back to an address-derived name when fn carries none.
func funcName(fn *module.Function) string {
	if fn.Name != "" {
		return fn.Name
	}
	return fmt.Sprintf("func_%016X", uint64(fn.Entry))
}

// lowerModule builds an LLVM IR module skeleton from m: one declaration per
// external function (Function Factory alias, spec.md §4.E) and one
// definition per recovered function, with one ir.BasicBlock per recovered
// module.BasicBlock. Blocks carry no lowered instructions; each is closed
// with an "unreachable" terminator so the resulting module prints as valid
// LLVM IR assembly.
func lowerModule(m *module.Module) *irModule {
	llMod := ir.NewModule()

	llFuncs := make(map[*module.Function]*ir.Function, len(m.Functions()))
	for _, fn := range m.Functions() {
		llFunc := llMod.NewFunction(funcName(fn), types.Void)
		llFuncs[fn] = llFunc
	}

	for _, fn := range m.Functions() {
		if fn.External {
			continue
		}
		llFunc := llFuncs[fn]
		llBlocks := make(map[*module.BasicBlock]*ir.BasicBlock, len(fn.Blocks))
		for _, block := range fn.SortedBlocks() {
			name := fmt.Sprintf("block_%016X", uint64(block.Entry()))
			llBlocks[block] = llFunc.NewBlock(name)
		}
		for _, block := range fn.SortedBlocks() {
			llBlocks[block].NewUnreachable()
		}
	}

	return &irModule{m: llMod}
}

// emitIR writes the lowered module's LLVM IR assembly to standard output.
func emitIR(irMod *irModule) error {
	if _, err := fmt.Fprint(os.Stdout, irMod.m.String()); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
