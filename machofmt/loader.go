// Package machofmt implements the Mach-O format shim of the object
// disassembler (spec.md §4.G): slide translation, section-to-region
// population, LC_MAIN entrypoint resolution, and the
// __mod_init_func/__mod_exit_func static constructor/destructor arrays.
//
// It is built directly on the standard library's debug/macho, in the same
// architectural slot the teacher filled with debug/pe: an object-file
// library, consumed but not reimplemented (spec.md §6).
package machofmt

import (
	"debug/macho"
	"log"
	"os"

	"github.com/mewkiz/pkg/term"
	"github.com/mewmew/objtrans/bin"
	"github.com/pkg/errors"
)

var (
	// dbg is a logger which logs debug messages with "macho:" prefix to
	// standard error.
	dbg = log.New(os.Stderr, term.MagentaBold("macho:")+" ", 0)
	// warn is a logger which logs warning messages with "warning:" prefix to
	// standard error.
	warn = log.New(os.Stderr, term.RedBold("warning:")+" ", 0)
)

// vmProtExecute is VM_PROT_EXECUTE from <mach/vm_prot.h>.
const vmProtExecute = 0x4

// Loader wraps a 64-bit Mach-O file, translating between original
// (on-disk) and effective (post-slide) addresses.
type Loader struct {
	File *macho.File
	// Slide is the per-module load-time slide: effective = original + Slide.
	Slide bin.Address
}

// NewLoader returns a loader over file, applying the given slide to every
// address translation.
func NewLoader(file *macho.File, slide bin.Address) *Loader {
	return &Loader{File: file, Slide: slide}
}

// Is64Bit reports whether the underlying file is 64-bit Mach-O.
func (l *Loader) Is64Bit() bool {
	return l.File.Magic == macho.Magic64
}

// Effective translates an original (on-disk) address to its effective
// (post-slide) form.
func (l *Loader) Effective(original bin.Address) bin.Address {
	return original + l.Slide
}

// Original translates an effective address back to its original form.
func (l *Loader) Original(effective bin.Address) bin.Address {
	return effective - l.Slide
}

// PopulateRegions inserts one region per loaded section into rm, at its
// effective address. Text sections are always inserted; data sections are
// inserted only when includeData is set (spec.md §4.F step 1: "text
// sections, and optionally data, when withCFG=false"). Sections with no
// known size, or whose contents cannot be read, are skipped (spec.md §7).
func (l *Loader) PopulateRegions(rm *bin.RegionMap, includeData bool) {
	for _, sect := range l.File.Sections {
		if sect.Size == 0 {
			continue
		}
		isText := l.IsExecutableSection(sect)
		if !isText && !includeData {
			continue
		}
		data, err := sect.Data()
		if err != nil {
			warn.Printf("skipping section %q: %v", sect.Name, err)
			continue
		}
		base := l.Effective(bin.Address(sect.Addr))
		rm.Insert(base, data, sect.Name)
	}
}

// IsExecutableSection reports whether sect's owning segment is mapped
// executable.
func (l *Loader) IsExecutableSection(sect *macho.Section) bool {
	seg := l.File.Segment(sect.Seg)
	if seg == nil {
		return false
	}
	return seg.Prot&vmProtExecute != 0
}

// FindSymbol returns the original address of the first symbol table entry
// named name.
func (l *Loader) FindSymbol(name string) (bin.Address, bool) {
	if l.File.Symtab == nil {
		return 0, false
	}
	for _, sym := range l.File.Symtab.Syms {
		if sym.Name == name {
			return bin.Address(sym.Value), true
		}
	}
	return 0, false
}

// Close releases the underlying Mach-O file.
func (l *Loader) Close() error {
	if err := l.File.Close(); err != nil {
		return errors.WithStack(err)
	}
	return nil
}
