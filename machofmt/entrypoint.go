package machofmt

import (
	"encoding/binary"

	"github.com/mewmew/objtrans/bin"
)

// loadCmdMain is LC_MAIN (0x28 | LC_REQ_DYLD) from <mach-o/loader.h>. The
// standard library's debug/macho does not parse this load command into a
// dedicated type, so its raw bytes are read directly, per spec.md §4.G.
const loadCmdMain = 0x80000028

// entryPointCmdLen is sizeof(struct entry_point_command): cmd, cmdsize,
// entryoff, stacksize.
const entryPointCmdLen = 24

// Entrypoint resolves the binary's entrypoint address: it scans load
// commands for LC_MAIN and adds its entryoff to the __TEXT segment's load
// address, falling back to a "main"/"_main" symbol lookup (spec.md §4.G).
func (l *Loader) Entrypoint() (bin.Address, bool) {
	if textSeg := l.File.Segment("__TEXT"); textSeg != nil {
		for _, ld := range l.File.Loads {
			raw := ld.Raw()
			if len(raw) < entryPointCmdLen {
				continue
			}
			cmd := binary.LittleEndian.Uint32(raw[0:4])
			if cmd != loadCmdMain {
				continue
			}
			entryoff := binary.LittleEndian.Uint64(raw[8:16])
			return l.Effective(bin.Address(textSeg.Addr) + bin.Address(entryoff)), true
		}
	}
	for _, name := range []string{"main", "_main"} {
		if addr, ok := l.FindSymbol(name); ok {
			return l.Effective(addr), true
		}
	}
	return 0, false
}
