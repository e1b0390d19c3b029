package main

import (
	"debug/macho"
	"time"

	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/cfg"
	"github.com/mewmew/objtrans/disasm/x86"
	"github.com/mewmew/objtrans/machofmt"
	"github.com/mewmew/objtrans/module"
	"github.com/pkg/errors"
	"golang.org/x/arch/x86/x86asm"
)

// translator lifts one Mach-O object file to an LLVM IR module skeleton.
type translator struct {
	binPath     string
	withCFG     bool
	dump        bool
	sidecarPath string

	timers timerReport
}

// newTranslator returns a new translator for the given object file.
func newTranslator(binPath string, withCFG, dump bool, sidecarPath string) *translator {
	return &translator{
		binPath:     binPath,
		withCFG:     withCFG,
		dump:        dump,
		sidecarPath: sidecarPath,
	}
}

// run lifts the object file to LLVM IR assembly and prints it to stdout,
// after writing a timer report to the debug log on stderr.
func (t *translator) run() error {
	dbg.Printf("run(binPath = %q)", t.binPath)

	file, err := macho.Open(t.binPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()
	if file.Magic != macho.Magic64 {
		return errors.New("support for 32-bit Mach-O not implemented")
	}

	loader := machofmt.NewLoader(file, 0)

	regions := &bin.RegionMap{}
	t.time("populate regions", func() {
		loader.PopulateRegions(regions, !t.withCFG)
	})

	extra, err := loadSidecarAddrs(t.sidecarPath)
	if err != nil {
		return errors.WithStack(err)
	}
	symbols := symbolsFromMacho(file, loader, extra)

	starts := cfg.FindFunctionStarts(symbols, regions)
	dbg.Printf("findFunctionStarts: %d candidate function entries", len(starts))

	decoder := x86.NewDecoder(x86asm.Mode64)
	symbolizer := machofmt.NewSymbolizer(loader)

	var m *module.Module
	t.time("build module", func() {
		m, err = cfg.BuildModule(regions, symbols, decoder, cfg.X86Oracle{}, symbolizer, loader.Original, t.withCFG)
	})
	if err != nil {
		return errors.WithStack(err)
	}

	if t.dump {
		dumpModule(starts, m)
	}

	var irMod *irModule
	t.time("emit IR skeleton", func() {
		irMod = lowerModule(m)
	})

	dbg.Printf("decode cache: %d translated, %d cache hits", decoder.Cache.Translated, decoder.Cache.Uniqued)
	t.timers.print()
	return emitIR(irMod)
}

// time runs fn, recording its wall-clock duration under name in the
// translator's timer report (spec.md §1's "timer reports").
func (t *translator) time(name string, fn func()) {
	start := timeNow()
	fn()
	t.timers = append(t.timers, timerEntry{name: name, elapsed: timeNow().Sub(start)})
}

// timeNow is a thin wrapper over time.Now so timer entries read naturally
// as time.Duration values.
func timeNow() time.Time {
	return time.Now()
}
