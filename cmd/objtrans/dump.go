package main

import (
	"fmt"
	"os"

	"github.com/kr/pretty"
	"github.com/mewmew/objtrans/bin"
	"github.com/mewmew/objtrans/module"
)

// dumpModule pretty-prints the candidate function-start address set and the
// recovered module's atom and function tables to standard error, for the
// "-dump" flag.
func dumpModule(starts bin.Addrs, m *module.Module) {
	fmt.Fprintln(os.Stderr, "=== [ function starts ] ===")
	for _, addr := range starts {
		fmt.Fprintf(os.Stderr, "%v\n", addr)
	}
	fmt.Fprintln(os.Stderr, "=== [ atoms ] ===")
	for _, a := range m.Atoms() {
		fmt.Fprintf(os.Stderr, "%v\n", a)
	}
	fmt.Fprintln(os.Stderr, "=== [ functions ] ===")
	for _, fn := range m.Functions() {
		fmt.Fprintf(os.Stderr, "%# v\n", pretty.Formatter(fn))
	}
}
