// The objtrans tool performs static binary translation: it recovers the
// control-flow graph of a 64-bit Mach-O object file's machine code and
// lowers the result into an LLVM IR module skeleton.
package main

import (
	"flag"
	"io/ioutil"
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
	"github.com/pkg/errors"
)

var (
	// dbg is a logger which logs debug messages with "objtrans:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("objtrans:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

func main() {
	var (
		// quiet specifies whether to suppress this command's debug messages.
		// Warnings, and debug messages of the library packages, are still
		// printed.
		quiet bool
		// noCFG disables CFG recovery, falling back to a linear atom sweep.
		noCFG bool
		// dump pretty-prints the recovered module's atom and function
		// tables before lowering.
		dump bool
		// sidecarPath names an optional JSON file of extra function
		// addresses the object file's own symbol table lacks.
		sidecarPath string
	)
	flag.BoolVar(&quiet, "q", false, "suppress objtrans debug messages")
	flag.BoolVar(&noCFG, "nocfg", false, "disable CFG recovery; emit a linear atom sweep instead")
	flag.BoolVar(&dump, "dump", false, "pretty-print the recovered module before lowering")
	flag.StringVar(&sidecarPath, "extra-funcs", "", "optional JSON sidecar of extra function addresses")
	flag.Parse()
	if quiet {
		dbg.SetOutput(ioutil.Discard)
	}

	for _, binPath := range flag.Args() {
		t := newTranslator(binPath, !noCFG, dump, sidecarPath)
		if err := t.run(); err != nil {
			log.Fatalf("%+v", errors.WithStack(err))
		}
	}
}
