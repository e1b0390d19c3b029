package main

import (
	"debug/macho"

	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/cfg"
	"github.com/mewmew/objtrans/machofmt"
)

// nStab is the N_STAB mask from <mach-o/nlist.h>: set for debugger symbol
// table entries, which carry no useful address for CFG seeding.
const nStab = 0xe0

// symbolsFromMacho converts the object file's symbol table into the
// minimal cfg.Symbol view the module driver consumes (spec.md §6),
// classifying each defined symbol as a function or data symbol by the
// executability of its owning section.
//
// The symbol table alone routinely misses real entry points: the
// entrypoint itself when LC_MAIN resolution is the only way to find it
// (spec.md §4.G), and Swift/ObjC static constructors and destructors
// recorded only in __mod_init_func/__mod_exit_func, never in Symtab.
// Both are appended here as unnamed function symbols so the CFG builder
// seeds from them the same way it seeds from a named symbol, per
// component G's role of widening function discovery beyond the raw
// symbol table. extra addresses (from an optional sidecar) are appended
// the same way.
func symbolsFromMacho(file *macho.File, loader *machofmt.Loader, extra []bin.Address) []cfg.Symbol {
	var out []cfg.Symbol
	if file.Symtab != nil {
		for _, sym := range file.Symtab.Syms {
			if sym.Type&nStab != 0 {
				continue // debugger symbol, no fixed code/data address
			}
			if sym.Sect == 0 || int(sym.Sect) > len(file.Sections) {
				continue // undefined/external symbol; resolved via the symbolizer instead
			}
			sect := file.Sections[sym.Sect-1]
			kind := cfg.SymData
			if loader.IsExecutableSection(sect) {
				kind = cfg.SymFunction
			}
			out = append(out, cfg.Symbol{
				Addr: loader.Effective(bin.Address(sym.Value)),
				Name: sym.Name,
				Kind: kind,
			})
		}
	}
	if entry, ok := loader.Entrypoint(); ok {
		out = append(out, cfg.Symbol{Addr: entry, Kind: cfg.SymFunction})
	} else {
		warn.Printf("unable to resolve entrypoint (no LC_MAIN, no main/_main symbol)")
	}
	inits, err := loader.StaticInitFuncs()
	if err != nil {
		warn.Printf("unable to read __mod_init_func: %v", err)
	}
	for _, addr := range inits {
		out = append(out, cfg.Symbol{Addr: addr, Kind: cfg.SymFunction})
	}
	exits, err := loader.StaticExitFuncs()
	if err != nil {
		warn.Printf("unable to read __mod_exit_func: %v", err)
	}
	for _, addr := range exits {
		out = append(out, cfg.Symbol{Addr: addr, Kind: cfg.SymFunction})
	}
	for _, addr := range extra {
		out = append(out, cfg.Symbol{Addr: addr, Kind: cfg.SymFunction})
	}
	return out
}
